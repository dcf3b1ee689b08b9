package ingest

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// num acepta números JSON o strings numéricos. Lo que no parsea, NaN e Inf
// quedan en 0.
type num float64

func (n *num) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*n = 0
		return nil
	}
	*n = num(f)
	return nil
}

func (n num) int64() int64 {
	switch {
	case n < 0:
		return 0
	case float64(n) >= math.MaxInt64:
		return math.MaxInt64
	}
	return int64(n)
}

func (n num) float() float64 {
	if n < 0 {
		return 0
	}
	return float64(n)
}

// str acepta strings, números o null. Objetos y arrays quedan vacíos.
type str string

func (s *str) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "" || raw == "null":
		*s = ""
	case raw[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			*s = ""
			return nil
		}
		*s = str(strings.TrimSpace(v))
	case raw[0] == '{' || raw[0] == '[':
		*s = ""
	default:
		*s = str(raw)
	}
	return nil
}

func (s str) String() string { return string(s) }

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
}

// parseTime prueba los formatos conocidos; si ninguno aplica devuelve el zero value.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
