package optimizer

import (
	"fmt"

	"github.com/AngelCh415/lead-attribution/internal/models"
)

type Config struct {
	TargetCPA float64
	// Retention fija para el filtro de calidad; 0 usa la fracción Hot observada.
	Retention     float64
	ShiftFraction float64
}

type Optimizer struct {
	cfg Config
}

func New(cfg Config) *Optimizer { return &Optimizer{cfg: cfg} }

func CurrentMix(current map[models.Channel]models.AggregateBucket) Allocation {
	a := Allocation{}
	for ch, b := range current {
		if b.Spend > 0 {
			a[ch] = b.Spend
		}
	}
	return a
}

func EfficiencyWeighted(current map[models.Channel]models.AggregateBucket) Allocation {
	a := Allocation{}
	for ch, b := range current {
		if eff := Efficiency(b); eff.Defined && eff.Value > 0 {
			a[ch] = eff.Value
		}
	}
	return a
}

// ShiftWorstToBest devuelve los canales involucrados; iguales si nada se mueve.
func ShiftWorstToBest(current map[models.Channel]models.AggregateBucket, fraction float64) (Allocation, models.Channel, models.Channel) {
	mix, err := Normalize(CurrentMix(current))
	if err != nil {
		return nil, "", ""
	}
	var best, worst models.Channel
	var bestEff, worstEff float64
	for _, ch := range models.Channels {
		if _, ok := mix[ch]; !ok {
			continue
		}
		eff := Efficiency(current[ch]).Or(0)
		if best == "" || eff > bestEff {
			best, bestEff = ch, eff
		}
		if worst == "" || eff < worstEff {
			worst, worstEff = ch, eff
		}
	}
	if best == worst {
		return mix, best, worst
	}
	moved := mix[worst] * fraction
	mix[worst] -= moved
	mix[best] += moved
	return mix, best, worst
}

func (o *Optimizer) Retention(current map[models.Channel]models.AggregateBucket) func(models.Channel) float64 {
	return func(ch models.Channel) float64 {
		if o.cfg.Retention > 0 {
			return o.cfg.Retention
		}
		b := current[ch]
		return models.Div(float64(b.Tiers[models.Hot]), float64(b.Leads)).Or(0)
	}
}

// Plans: budget <= 0 conserva el gasto total actual.
func (o *Optimizer) Plans(current map[models.Channel]models.AggregateBucket, totalBudget float64) []models.AllocationPlan {
	if totalBudget <= 0 {
		for _, b := range current {
			totalBudget += b.Spend
		}
	}
	if totalBudget <= 0 {
		return nil
	}

	type candidate struct {
		name, desc string
		alloc      Allocation
	}
	var cands []candidate
	cands = append(cands, candidate{"current_mix", "current spend distribution", CurrentMix(current)})
	if shifted, best, worst := ShiftWorstToBest(current, o.cfg.ShiftFraction); best != worst {
		cands = append(cands, candidate{
			"shift_worst_to_best",
			fmt.Sprintf("move %.0f%% of %s budget to %s", o.cfg.ShiftFraction*100, worst, best),
			shifted,
		})
	}
	cands = append(cands, candidate{"efficiency_weighted", "budget proportional to conversions per currency unit", EfficiencyWeighted(current)})

	retention := o.Retention(current)
	var out []models.AllocationPlan
	for _, c := range cands {
		plan, err := Project(current, c.alloc, totalBudget)
		if err != nil {
			continue
		}
		plan.Name, plan.Description = c.name, c.desc
		plan.Target = CheckTarget(plan.Total, o.cfg.TargetCPA)
		out = append(out, plan)

		qf := ApplyQualityFilter(plan, retention)
		qf.Name, qf.Description = c.name+"_quality", c.desc+", hot leads only"
		qf.Target = CheckTarget(qf.Total, o.cfg.TargetCPA)
		out = append(out, qf)
	}
	return out
}
