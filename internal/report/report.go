// Package report arma el reporte de la corrida en JSON y markdown.
package report

import (
	"time"

	"github.com/AngelCh415/lead-attribution/internal/models"
	"github.com/AngelCh415/lead-attribution/internal/scoring"
)

type Rates struct {
	ApplicationRate models.Ratio `json:"application_rate"`
	ConversionRate  models.Ratio `json:"conversion_rate"`
	CPA             models.Ratio `json:"cpa"`
	CostPerLead     models.Ratio `json:"cost_per_lead"`
	CPC             models.Ratio `json:"cpc"`
	CPM             models.Ratio `json:"cpm"`
	PlatformCPA     models.Ratio `json:"platform_cpa"`
	BounceRate      models.Ratio `json:"bounce_rate"`
	AvgTimeOnPage   models.Ratio `json:"avg_time_on_page"`
}

func ratesOf(b models.AggregateBucket) Rates {
	return Rates{
		ApplicationRate: b.ApplicationRate(),
		ConversionRate:  b.ConversionRate(),
		CPA:             b.CPA(),
		CostPerLead:     b.CostPerLead(),
		CPC:             b.CPC(),
		CPM:             b.CPM(),
		PlatformCPA:     b.PlatformCPA(),
		BounceRate:      b.BounceRate(),
		AvgTimeOnPage:   b.AvgTimeOnPage(),
	}
}

type ChannelSection struct {
	Channel             models.Channel      `json:"channel"`
	Leads               int                 `json:"leads"`
	Applications        int                 `json:"applications"`
	Enrollments         int                 `json:"enrollments"`
	Tiers               map[models.Tier]int `json:"tiers"`
	Spend               float64             `json:"spend"`
	Campaigns           int                 `json:"campaigns"`
	PlatformConversions float64             `json:"platform_conversions"`
	Sessions            int64               `json:"sessions"`
	Rates               Rates               `json:"rates"`
	Score               models.ScoreReport  `json:"score"`
	Recommendation      Recommendation      `json:"recommendation"`
}

type WindowRow struct {
	Channel     models.Channel `json:"channel"`
	WindowStart time.Time      `json:"window_start"`
	WindowEnd   time.Time      `json:"window_end"`
	Leads       int            `json:"leads"`
	Enrollments int            `json:"enrollments"`
	Spend       float64        `json:"spend"`
	Rates       Rates          `json:"rates"`
}

type ContentSection struct {
	Path           string             `json:"path"`
	PageViews      int64              `json:"page_views"`
	Score          models.ScoreReport `json:"score"`
	Recommendation string             `json:"recommendation"`
}

type Period struct {
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Granularity string    `json:"granularity"`
}

type Report struct {
	RunID       string                  `json:"run_id"`
	GeneratedAt time.Time               `json:"generated_at"`
	Period      Period                  `json:"period"`
	Sources     []models.SourceStatus   `json:"sources"`
	Overall     models.ScoreReport      `json:"overall"`
	Totals      ChannelSection          `json:"totals"`
	Channels    []ChannelSection        `json:"channels"`
	Windows     []WindowRow             `json:"windows"`
	Content     []ContentSection        `json:"content"`
	Plans       []models.AllocationPlan `json:"plans"`
}

// Degraded: alguna fuente devolvió un resultado parcial.
func (r Report) Degraded() bool {
	for _, s := range r.Sources {
		if s.Degraded {
			return true
		}
	}
	return false
}

type Input struct {
	RunID         string
	GeneratedAt   time.Time
	Period        Period
	Sources       []models.SourceStatus
	Overall       models.ScoreReport
	Total         models.AggregateBucket
	ByChannel     map[models.Channel]models.AggregateBucket
	ChannelScores map[models.Channel]models.ScoreReport
	Buckets       []models.AggregateBucket
	Pages         []scoring.PageScore
	Plans         []models.AllocationPlan
	Bands         scoring.Bands
}

// Render respeta el orden fijo de canales.
func Render(in Input) Report {
	r := Report{
		RunID:       in.RunID,
		GeneratedAt: in.GeneratedAt.UTC(),
		Period:      in.Period,
		Sources:     in.Sources,
		Overall:     in.Overall,
		Totals:      section(in.Total, in.Overall),
		Plans:       in.Plans,
	}
	r.Totals.Channel = ""
	for _, ch := range models.Channels {
		b, ok := in.ByChannel[ch]
		if !ok {
			continue
		}
		r.Channels = append(r.Channels, section(b, in.ChannelScores[ch]))
	}
	for _, b := range in.Buckets {
		r.Windows = append(r.Windows, WindowRow{
			Channel:     b.Channel,
			WindowStart: b.WindowStart,
			WindowEnd:   b.WindowEnd,
			Leads:       b.Leads,
			Enrollments: b.Enrollments,
			Spend:       round2(b.Spend),
			Rates:       ratesOf(b),
		})
	}
	for _, p := range in.Pages {
		r.Content = append(r.Content, ContentSection{
			Path:           p.Page.Path,
			PageViews:      p.Page.PageViews,
			Score:          p.Score,
			Recommendation: RecommendContent(p.Score, in.Bands),
		})
	}
	return r
}

func section(b models.AggregateBucket, s models.ScoreReport) ChannelSection {
	tiers := make(map[models.Tier]int, len(models.Tiers))
	for _, t := range models.Tiers {
		tiers[t] = b.Tiers[t]
	}
	return ChannelSection{
		Channel:             b.Channel,
		Leads:               b.Leads,
		Applications:        b.Applications,
		Enrollments:         b.Enrollments,
		Tiers:               tiers,
		Spend:               round2(b.Spend),
		Campaigns:           b.Campaigns,
		PlatformConversions: b.PlatformConversions,
		Sessions:            b.Sessions,
		Rates:               ratesOf(b),
		Score:               s,
		Recommendation:      RecommendChannel(b),
	}
}

func round2(f float64) float64 { return float64(int64(f*100+0.5)) / 100 }
