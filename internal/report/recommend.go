package report

import (
	"fmt"

	"github.com/AngelCh415/lead-attribution/internal/models"
	"github.com/AngelCh415/lead-attribution/internal/scoring"
)

// Bandas fijas de tasa de conversión: no son configurables por llamada.
const (
	HighPriorityBelow = 0.03
	LowPriorityFrom   = 0.05
)

type Recommendation struct {
	Priority string `json:"priority"`
	Color    string `json:"color"`
	Label    string `json:"label"`
	Text     string `json:"text"`
}

func RecommendChannel(b models.AggregateBucket) Recommendation {
	cr := b.ConversionRate()
	if !cr.Defined {
		return Recommendation{
			Priority: "none",
			Color:    "gray",
			Label:    "No CRM data",
			Text:     "No leads attributed to this channel; conversion rate is N/A.",
		}
	}
	switch {
	case cr.Value < HighPriorityBelow:
		return Recommendation{
			Priority: "high",
			Color:    "red",
			Label:    "Optimize urgently",
			Text: fmt.Sprintf("Conversion rate %s is below %.0f%%: review targeting, lead qualification and follow-up before adding budget.",
				cr.Percent(), HighPriorityBelow*100),
		}
	case cr.Value < LowPriorityFrom:
		return Recommendation{
			Priority: "medium",
			Color:    "yellow",
			Label:    "Improve",
			Text: fmt.Sprintf("Conversion rate %s is between %.0f%% and %.0f%%: test landing pages and nurture warm leads.",
				cr.Percent(), HighPriorityBelow*100, LowPriorityFrom*100),
		}
	}
	return Recommendation{
		Priority: "low",
		Color:    "green",
		Label:    "Scale",
		Text:     fmt.Sprintf("Conversion rate %s is at or above %.0f%%: candidate for additional budget.", cr.Percent(), LowPriorityFrom*100),
	}
}

func RecommendContent(s models.ScoreReport, bands scoring.Bands) string {
	lowEng := s.Engagement < bands.Average
	lowConv := s.Conversion < bands.Average
	switch {
	case lowEng && lowConv:
		return "Rework the page: expand key sections and add a clear next-step call to action."
	case lowEng:
		return "Improve engagement: add expandable detail sections and tighten the introduction."
	case lowConv:
		return "Strengthen the call to action toward the application step."
	}
	return "Performing well: reuse its structure for other pages."
}
