package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Ratio: Defined=false cuando el denominador fue cero, distinto de una tasa cero.
type Ratio struct {
	Value   float64
	Defined bool
}

var Undefined = Ratio{}

func Div(num, den float64) Ratio {
	if den == 0 || math.IsNaN(den) || math.IsNaN(num) {
		return Undefined
	}
	return Ratio{Value: num / den, Defined: true}
}

// Or devuelve el valor o def si la razón no está definida.
func (r Ratio) Or(def float64) float64 {
	if !r.Defined {
		return def
	}
	return r.Value
}

func (r Ratio) String() string {
	if !r.Defined {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

func (r Ratio) Percent() string {
	if !r.Defined {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", r.Value*100)
}

func (r Ratio) Money() string {
	if !r.Defined {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", r.Value)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(round(r.Value, 4))
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Undefined
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Ratio{Value: v, Defined: true}
	return nil
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
