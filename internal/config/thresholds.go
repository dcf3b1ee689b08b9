package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds centraliza los cortes numéricos que usan scoring y optimizer.
type Thresholds struct {
	// Tiers de calificación sobre el score numérico del CRM.
	HotScore  float64 `yaml:"hot_score"`
	WarmScore float64 `yaml:"warm_score"`

	// Bandas de estado del ScoreReport.
	Excellent    float64 `yaml:"excellent"`
	Good         float64 `yaml:"good"`
	Average      float64 `yaml:"average"`
	BelowAverage float64 `yaml:"below_average"`

	// Optimizer.
	TargetCPA     float64 `yaml:"target_cpa"`
	Retention     float64 `yaml:"retention"` // 0 = fracción hot observada
	ShiftFraction float64 `yaml:"shift_fraction"`

	// CRM: id de etapa del pipeline -> lead|application|enrolled|lost.
	StageLabels map[string]string `yaml:"stage_labels"`

	// Analytics: nombres de evento del embudo de contenido.
	Events EventNames `yaml:"events"`
}

type EventNames struct {
	Expansion     string `yaml:"expansion"`
	NextStep      string `yaml:"next_step"`
	FinalStart    string `yaml:"final_start"`
	FinalComplete string `yaml:"final_complete"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		HotScore:      4,
		WarmScore:     3,
		Excellent:     80,
		Good:          65,
		Average:       50,
		BelowAverage:  35,
		TargetCPA:     50,
		Retention:     0,
		ShiftFraction: 0.2,
		StageLabels: map[string]string{
			"1": "lead",
			"2": "application",
			"3": "application",
			"4": "enrolled",
			"5": "lost",
		},
		Events: EventNames{
			Expansion:     "section_expand",
			NextStep:      "apply_click",
			FinalStart:    "form_start",
			FinalComplete: "form_submit",
		},
	}
}

// LoadThresholds lee un YAML sobre los valores por defecto; las claves ausentes
// conservan el default.
func LoadThresholds(path string) (Thresholds, error) {
	th := DefaultThresholds()
	b, err := os.ReadFile(path)
	if err != nil {
		return th, fmt.Errorf("read thresholds %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &th); err != nil {
		return th, fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	return th, nil
}

func (t Thresholds) Validate() error {
	if t.WarmScore > t.HotScore {
		return errors.New("thresholds: warm_score must not exceed hot_score")
	}
	if !(t.Excellent >= t.Good && t.Good >= t.Average && t.Average >= t.BelowAverage) {
		return errors.New("thresholds: status bands must be descending")
	}
	if t.Retention < 0 || t.Retention > 1 {
		return errors.New("thresholds: retention must be within [0,1]")
	}
	if t.ShiftFraction < 0 || t.ShiftFraction > 1 {
		return errors.New("thresholds: shift_fraction must be within [0,1]")
	}
	if t.TargetCPA < 0 {
		return errors.New("thresholds: target_cpa must be >= 0")
	}
	return nil
}
