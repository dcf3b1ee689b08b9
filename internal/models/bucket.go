package models

import "time"

// BucketKey agrupa por canal y ventana de tiempo.
type BucketKey struct {
	Channel     Channel
	WindowStart time.Time
}

// AggregateBucket guarda solo contadores; las tasas se recalculan al pedirlas.
type AggregateBucket struct {
	Channel     Channel   `json:"channel"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	Leads        int          `json:"leads"`
	Applications int          `json:"applications"`
	Enrollments  int          `json:"enrollments"`
	Tiers        map[Tier]int `json:"tiers,omitempty"`

	Spend               float64 `json:"spend"`
	Impressions         int64   `json:"impressions"`
	Clicks              int64   `json:"clicks"`
	PlatformConversions float64 `json:"platform_conversions"`
	Campaigns           int     `json:"campaigns"`

	Sessions          int64   `json:"sessions"`
	PageViews         int64   `json:"page_views"`
	EngagementSeconds float64 `json:"engagement_seconds"`
	BouncedSessions   float64 `json:"bounced_sessions"`
	Expansions        int64   `json:"expansions"`
}

func (b AggregateBucket) Key() BucketKey {
	return BucketKey{Channel: b.Channel, WindowStart: b.WindowStart}
}

func (b AggregateBucket) ApplicationRate() Ratio {
	return Div(float64(b.Applications), float64(b.Leads))
}

func (b AggregateBucket) ConversionRate() Ratio {
	return Div(float64(b.Enrollments), float64(b.Leads))
}

func (b AggregateBucket) CPA() Ratio { return Div(b.Spend, float64(b.Enrollments)) }

func (b AggregateBucket) CostPerLead() Ratio { return Div(b.Spend, float64(b.Leads)) }
func (b AggregateBucket) CPC() Ratio         { return Div(b.Spend, float64(b.Clicks)) }
func (b AggregateBucket) CPM() Ratio         { return Div(b.Spend*1000, float64(b.Impressions)) }
func (b AggregateBucket) PlatformCPA() Ratio { return Div(b.Spend, b.PlatformConversions) }

// promedio ponderado por sesiones, en segundos
func (b AggregateBucket) AvgTimeOnPage() Ratio {
	return Div(b.EngagementSeconds, float64(b.Sessions))
}

// porcentaje ponderado por sesiones
func (b AggregateBucket) BounceRate() Ratio {
	return Div(b.BouncedSessions*100, float64(b.Sessions))
}

func (b AggregateBucket) ExpansionRate() Ratio {
	return Div(float64(b.Expansions), float64(b.PageViews))
}

// Conversions: matrículas del CRM si hubo alguna, si no las de plataforma.
func (b AggregateBucket) Conversions() float64 {
	if b.Enrollments > 0 {
		return float64(b.Enrollments)
	}
	return b.PlatformConversions
}

func (b AggregateBucket) Empty() bool {
	return b.Leads == 0 && b.Spend == 0 && b.Impressions == 0 && b.Clicks == 0 &&
		b.PlatformConversions == 0 && b.Sessions == 0
}

// Merge suma los contadores de o. La ventana resultante cubre ambas.
func (b *AggregateBucket) Merge(o AggregateBucket) {
	if b.WindowStart.IsZero() || (!o.WindowStart.IsZero() && o.WindowStart.Before(b.WindowStart)) {
		b.WindowStart = o.WindowStart
	}
	if o.WindowEnd.After(b.WindowEnd) {
		b.WindowEnd = o.WindowEnd
	}
	b.Leads += o.Leads
	b.Applications += o.Applications
	b.Enrollments += o.Enrollments
	for t, n := range o.Tiers {
		if b.Tiers == nil {
			b.Tiers = make(map[Tier]int)
		}
		b.Tiers[t] += n
	}
	b.Spend += o.Spend
	b.Impressions += o.Impressions
	b.Clicks += o.Clicks
	b.PlatformConversions += o.PlatformConversions
	b.Campaigns += o.Campaigns
	b.Sessions += o.Sessions
	b.PageViews += o.PageViews
	b.EngagementSeconds += o.EngagementSeconds
	b.BouncedSessions += o.BouncedSessions
	b.Expansions += o.Expansions
}

type ChannelProjection struct {
	Channel     Channel `json:"channel"`
	Fraction    float64 `json:"fraction"`
	Spend       float64 `json:"spend"`
	Efficiency  Ratio   `json:"efficiency"`
	Conversions int     `json:"conversions"`
	CPA         Ratio   `json:"cpa"`
}

type TargetCheck struct {
	Target       float64 `json:"target"`
	ProjectedCPA Ratio   `json:"projected_cpa"`
	Achieved     bool    `json:"achieved"`
	ShortfallPct Ratio   `json:"shortfall_pct"`
}

type AllocationPlan struct {
	Name          string                      `json:"name"`
	Description   string                      `json:"description"`
	TotalBudget   float64                     `json:"total_budget"`
	Fractions     map[Channel]float64         `json:"fractions"`
	QualityFilter bool                        `json:"quality_filter"`
	Retention     float64                     `json:"retention,omitempty"`
	Projected     map[Channel]AggregateBucket `json:"projected"`
	Channels      []ChannelProjection         `json:"channels"`
	Total         AggregateBucket             `json:"total"`
	Target        TargetCheck                 `json:"target"`
}
