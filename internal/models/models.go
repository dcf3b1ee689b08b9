package models

import "time"

// UTM agrupa los campos libres de atribución tal como llegan de la fuente.
type UTM struct {
	Source     string `json:"utm_source"`
	Medium     string `json:"utm_medium"`
	Campaign   string `json:"utm_campaign"`
	Channel    string `json:"channel,omitempty"`
	FormSource string `json:"form_source,omitempty"`
}

// RawLead no se modifica durante la corrida.
type RawLead struct {
	ID         string            `json:"id"`
	Source     string            `json:"source"`
	CreatedAt  time.Time         `json:"created_at"`
	UTM        UTM               `json:"utm"`
	Status     string            `json:"status"`
	Score      *float64          `json:"score,omitempty"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	DealIDs    []string          `json:"deal_ids,omitempty"`
	DealStages []string          `json:"deal_stages,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

type NormalizedLead struct {
	RawLead
	Channel Channel `json:"channel"`
	Tier    Tier    `json:"tier"`
	Stage   Stage   `json:"stage"`
}

// CampaignMetric: por campaña y día. Spend ya viene en unidades mayores.
type CampaignMetric struct {
	Platform     string    `json:"platform"`
	CampaignID   string    `json:"campaign_id"`
	CampaignName string    `json:"campaign_name"`
	Date         time.Time `json:"date"`
	UTM          UTM       `json:"utm"`
	Spend        float64   `json:"spend"`
	Impressions  int64     `json:"impressions"`
	Clicks       int64     `json:"clicks"`
	Conversions  float64   `json:"conversions"`
}

func (m CampaignMetric) CPC() Ratio { return Div(m.Spend, float64(m.Clicks)) }
func (m CampaignMetric) CPM() Ratio { return Div(m.Spend*1000, float64(m.Impressions)) }
func (m CampaignMetric) CPA() Ratio { return Div(m.Spend, m.Conversions) }

type SessionMetric struct {
	Date              time.Time `json:"date"`
	UTM               UTM       `json:"utm"`
	Sessions          int64     `json:"sessions"`
	PageViews         int64     `json:"page_views"`
	AvgSessionSeconds float64   `json:"avg_session_seconds"`
	BounceRate        float64   `json:"bounce_rate"` // 0-100
	Expansions        int64     `json:"expansions,omitempty"`
}

type PageMetrics struct {
	Path             string  `json:"path"`
	PageViews        int64   `json:"page_views"`
	AvgTimeOnPage    float64 `json:"avg_time_on_page"` // segundos
	BounceRate       float64 `json:"bounce_rate"`      // 0-100
	Expansions       int64   `json:"expansions"`
	NextStepClicks   int64   `json:"next_step_clicks"`
	FinalStarts      int64   `json:"final_starts"`
	FinalCompletions int64   `json:"final_completions"`
}

func (p PageMetrics) ExpansionRate() Ratio {
	return Div(float64(p.Expansions), float64(p.PageViews))
}
func (p PageMetrics) PageToNextStepRate() Ratio {
	return Div(float64(p.NextStepClicks), float64(p.PageViews))
}
func (p PageMetrics) NextStepToFinalRate() Ratio {
	return Div(float64(p.FinalStarts), float64(p.NextStepClicks))
}
func (p PageMetrics) FinalCompletionRate() Ratio {
	return Div(float64(p.FinalCompletions), float64(p.FinalStarts))
}

type SourceStatus struct {
	Name     string `json:"name"`
	Records  int    `json:"records"`
	Pages    int    `json:"pages"`
	Degraded bool   `json:"degraded"`
	Error    string `json:"error,omitempty"`
}

// puntajes en [0,100]
type ScoreReport struct {
	Engagement float64 `json:"engagement"`
	Conversion float64 `json:"conversion"`
	Overall    float64 `json:"overall"`
	Status     string  `json:"status"`
}

// DisplayOverall es solo para mostrar; las comparaciones usan Overall.
func (s ScoreReport) DisplayOverall() int { return int(round(s.Overall, 0)) }
