// Package scoring convierte métricas agregadas en puntajes 0-100.
package scoring

import (
	"math"
	"sort"

	"github.com/AngelCh415/lead-attribution/internal/models"
)

// Pesos fijos de las fórmulas. Cada grupo suma 100.
const (
	TimeNormSeconds = 300.0

	timeWeight      = 30.0
	bounceWeight    = 25.0
	expansionWeight = 45.0

	nextStepWeight   = 40.0
	finalWeight      = 35.0
	completionWeight = 25.0
)

// Bands: cota inferior de cada etiqueta.
type Bands struct {
	Excellent    float64
	Good         float64
	Average      float64
	BelowAverage float64
}

func DefaultBands() Bands {
	return Bands{Excellent: 80, Good: 65, Average: 50, BelowAverage: 35}
}

func (b Bands) Label(score float64) string {
	switch {
	case score >= b.Excellent:
		return "Excellent"
	case score >= b.Good:
		return "Good"
	case score >= b.Average:
		return "Average"
	case score >= b.BelowAverage:
		return "Below Average"
	}
	return "Needs Improvement"
}

type EngagementInput struct {
	AvgTimeOnPage float64 // segundos
	BounceRate    float64 // 0-100
	Expansions    float64
	PageViews     float64
}

// fracciones, sin recortar antes de ponderar
type FunnelRates struct {
	PageToNextStep  models.Ratio
	NextStepToFinal models.Ratio
	FinalCompletion models.Ratio
}

// Engagement = min(100, time*30 + (1-bounce)*25 + expansions/views*45), en [0,100].
func Engagement(in EngagementInput) float64 {
	expansionRate := models.Div(in.Expansions, in.PageViews).Or(0)
	raw := (in.AvgTimeOnPage/TimeNormSeconds)*timeWeight +
		((100-in.BounceRate)/100)*bounceWeight +
		expansionRate*expansionWeight
	return clamp(math.Min(100, raw))
}

// Conversion solo recorta el total: una tasa > 1 infla su término.
func Conversion(r FunnelRates) float64 {
	raw := r.PageToNextStep.Or(0)*nextStepWeight +
		r.NextStepToFinal.Or(0)*finalWeight +
		r.FinalCompletion.Or(0)*completionWeight
	return clamp(raw)
}

type Engine struct {
	Bands Bands
}

func NewEngine(b Bands) Engine { return Engine{Bands: b} }

func (e Engine) Combine(engagement, conversion float64) models.ScoreReport {
	overall := (engagement + conversion) / 2
	return models.ScoreReport{
		Engagement: engagement,
		Conversion: conversion,
		Overall:    overall,
		Status:     e.Bands.Label(overall),
	}
}

func (e Engine) ScorePage(p models.PageMetrics) models.ScoreReport {
	eng := Engagement(EngagementInput{
		AvgTimeOnPage: p.AvgTimeOnPage,
		BounceRate:    p.BounceRate,
		Expansions:    float64(p.Expansions),
		PageViews:     float64(p.PageViews),
	})
	conv := Conversion(FunnelRates{
		PageToNextStep:  p.PageToNextStepRate(),
		NextStepToFinal: p.NextStepToFinalRate(),
		FinalCompletion: p.FinalCompletionRate(),
	})
	return e.Combine(eng, conv)
}

// ScoreBucket: embudo sesiones -> leads -> aplicaciones -> matrículas. Sin
// sesiones el término de rebote no suma.
func (e Engine) ScoreBucket(b models.AggregateBucket) models.ScoreReport {
	eng := Engagement(EngagementInput{
		AvgTimeOnPage: b.AvgTimeOnPage().Or(0),
		BounceRate:    b.BounceRate().Or(100),
		Expansions:    float64(b.Expansions),
		PageViews:     float64(b.PageViews),
	})
	conv := Conversion(FunnelRates{
		PageToNextStep:  models.Div(float64(b.Leads), float64(b.Sessions)),
		NextStepToFinal: b.ApplicationRate(),
		FinalCompletion: models.Div(float64(b.Enrollments), float64(b.Applications)),
	})
	return e.Combine(eng, conv)
}

type PageScore struct {
	Page  models.PageMetrics `json:"page"`
	Score models.ScoreReport `json:"score"`
}

// RankPages ordena de mejor a peor; empates por path.
func (e Engine) RankPages(pages []models.PageMetrics) []PageScore {
	out := make([]PageScore, 0, len(pages))
	for _, p := range pages {
		out = append(out, PageScore{Page: p, Score: e.ScorePage(p)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score.Overall != out[j].Score.Overall {
			return out[i].Score.Overall > out[j].Score.Overall
		}
		return out[i].Page.Path < out[j].Page.Path
	})
	return out
}

func clamp(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(100, f))
}
