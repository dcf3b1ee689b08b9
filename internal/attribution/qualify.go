package attribution

import (
	"math"
	"strings"

	"github.com/AngelCh415/lead-attribution/internal/models"
)

type Tiering struct {
	Hot  float64
	Warm float64
}

// Tier: score >= Hot es Hot, >= Warm es Warm, cualquier otro score es Cold.
// Sin score (o NaN) es Unqualified.
func (t Tiering) Tier(score *float64) models.Tier {
	if score == nil || math.IsNaN(*score) {
		return models.Unqualified
	}
	switch s := *score; {
	case s >= t.Hot:
		return models.Hot
	case s >= t.Warm:
		return models.Warm
	default:
		return models.Cold
	}
}

// Stage toma la etapa más avanzada de sus deals; sin etapa conocida usa el status.
func Stage(l models.RawLead) models.Stage {
	best := models.StageLead
	found := false
	for _, label := range l.DealStages {
		if st, ok := stageFromLabel(label); ok {
			found = true
			if st > best {
				best = st
			}
		}
	}
	if found {
		return best
	}
	status := norm(l.Status)
	switch {
	case strings.Contains(status, "enrol") || strings.Contains(status, "matricul"):
		return models.StageEnrolled
	case strings.Contains(status, "appl"):
		return models.StageApplication
	}
	return models.StageLead
}

func stageFromLabel(label string) (models.Stage, bool) {
	switch norm(label) {
	case "lead", "lost":
		return models.StageLead, true
	case "application":
		return models.StageApplication, true
	case "enrolled":
		return models.StageEnrolled, true
	}
	return models.StageLead, false
}

type Normalizer struct {
	Tiering Tiering
}

func (n Normalizer) Normalize(l models.RawLead) models.NormalizedLead {
	return models.NormalizedLead{
		RawLead: l,
		Channel: Classify(l.UTM),
		Tier:    n.Tiering.Tier(l.Score),
		Stage:   Stage(l),
	}
}

func (n Normalizer) NormalizeAll(leads []models.RawLead) []models.NormalizedLead {
	out := make([]models.NormalizedLead, 0, len(leads))
	for _, l := range leads {
		out = append(out, n.Normalize(l))
	}
	return out
}
