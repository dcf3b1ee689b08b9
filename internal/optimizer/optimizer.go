// Package optimizer proyecta conversiones con eficiencia constante por canal.
package optimizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/AngelCh415/lead-attribution/internal/models"
)

var ErrEmptyAllocation = errors.New("allocation has no positive fraction")

type Allocation map[models.Channel]float64

// Normalize escala las fracciones para que sumen 1.
func Normalize(a Allocation) (Allocation, error) {
	var sum float64
	for ch, f := range a {
		if f < 0 || math.IsNaN(f) {
			return nil, fmt.Errorf("allocation: invalid fraction %v for %s", f, ch)
		}
		sum += f
	}
	if sum <= 0 {
		return nil, ErrEmptyAllocation
	}
	out := make(Allocation, len(a))
	for ch, f := range a {
		out[ch] = f / sum
	}
	return out, nil
}

// Efficiency: conversiones por unidad de gasto. Sin gasto queda indefinida.
func Efficiency(b models.AggregateBucket) models.Ratio {
	return models.Div(b.Conversions(), b.Spend)
}

// Project: conversiones = round(gasto * eficiencia actual del canal).
func Project(current map[models.Channel]models.AggregateBucket, alloc Allocation, totalBudget float64) (models.AllocationPlan, error) {
	fr, err := Normalize(alloc)
	if err != nil {
		return models.AllocationPlan{}, err
	}
	if totalBudget < 0 || math.IsNaN(totalBudget) {
		return models.AllocationPlan{}, fmt.Errorf("total budget must be >= 0, got %v", totalBudget)
	}
	plan := models.AllocationPlan{
		TotalBudget: totalBudget,
		Fractions:   map[models.Channel]float64(fr),
		Projected:   make(map[models.Channel]models.AggregateBucket, len(fr)),
	}
	for _, ch := range models.Channels {
		f, ok := fr[ch]
		if !ok {
			continue
		}
		cur := current[ch]
		spend := f * totalBudget
		eff := Efficiency(cur)
		conv := int(math.Round(spend * eff.Or(0)))
		leads := int(math.Round(spend * models.Div(float64(cur.Leads), cur.Spend).Or(0)))

		pb := models.AggregateBucket{
			Channel:     ch,
			WindowStart: cur.WindowStart,
			WindowEnd:   cur.WindowEnd,
			Leads:       leads,
			Enrollments: conv,
			Spend:       spend,
		}
		plan.Projected[ch] = pb
		plan.Total.Merge(pb)
		plan.Channels = append(plan.Channels, models.ChannelProjection{
			Channel:     ch,
			Fraction:    f,
			Spend:       spend,
			Efficiency:  eff,
			Conversions: conv,
			CPA:         pb.CPA(),
		})
	}
	return plan, nil
}

// ApplyQualityFilter recorta conversiones por canal; el gasto no cambia.
func ApplyQualityFilter(plan models.AllocationPlan, retention func(models.Channel) float64) models.AllocationPlan {
	out := plan
	out.QualityFilter = true
	out.Projected = make(map[models.Channel]models.AggregateBucket, len(plan.Projected))
	out.Channels = make([]models.ChannelProjection, 0, len(plan.Channels))
	out.Total = models.AggregateBucket{}
	var weighted float64
	for _, cp := range plan.Channels {
		r := retention(cp.Channel)
		pb := plan.Projected[cp.Channel]
		pb.Enrollments = int(math.Round(float64(pb.Enrollments) * r))
		out.Projected[cp.Channel] = pb
		out.Total.Merge(pb)
		cp.Conversions = pb.Enrollments
		cp.CPA = pb.CPA()
		out.Channels = append(out.Channels, cp)
		weighted += r * cp.Fraction
	}
	out.Retention = weighted
	return out
}

func CheckTarget(total models.AggregateBucket, target float64) models.TargetCheck {
	cpa := total.CPA()
	tc := models.TargetCheck{Target: target, ProjectedCPA: cpa}
	if !cpa.Defined {
		tc.ShortfallPct = models.Undefined
		return tc
	}
	if cpa.Value <= target {
		tc.Achieved = true
		tc.ShortfallPct = models.Ratio{Value: 0, Defined: true}
		return tc
	}
	tc.ShortfallPct = models.Div((cpa.Value-target)*100, target)
	return tc
}
