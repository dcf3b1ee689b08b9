package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/AngelCh415/lead-attribution/internal/models"
)

// Markdown muestra las tasas indefinidas como "N/A".
func Markdown(r Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Lead attribution report\n\n")
	fmt.Fprintf(&sb, "Run `%s` generated %s", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	if !r.Period.From.IsZero() || !r.Period.To.IsZero() {
		fmt.Fprintf(&sb, " for %s to %s (%s)", day(r.Period.From), day(r.Period.To), r.Period.Granularity)
	}
	sb.WriteString("\n\n")

	sb.WriteString("## Sources\n\n| Source | Records | Pages | Status |\n|---|---:|---:|---|\n")
	for _, s := range r.Sources {
		status := "ok"
		if s.Degraded {
			status = "degraded: " + escape(s.Error)
		}
		fmt.Fprintf(&sb, "| %s | %d | %d | %s |\n", s.Name, s.Records, s.Pages, status)
	}

	fmt.Fprintf(&sb, "\n## Overall\n\n**%d/100 (%s)** - engagement %.1f, conversion %.1f. ",
		r.Overall.DisplayOverall(), r.Overall.Status, r.Overall.Engagement, r.Overall.Conversion)
	fmt.Fprintf(&sb, "%d leads, %d applications, %d enrollments, spend $%.2f, CPA %s.\n\n",
		r.Totals.Leads, r.Totals.Applications, r.Totals.Enrollments, r.Totals.Spend, r.Totals.Rates.CPA.Money())

	sb.WriteString("## Channels\n\n")
	sb.WriteString("| Channel | Leads | Hot | Warm | Cold | Unqualified | Apps | Enrolled | App rate | Conv rate | Spend | CPA | Score | Priority |\n")
	sb.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|---|\n")
	for _, c := range r.Channels {
		fmt.Fprintf(&sb, "| %s | %d | %d | %d | %d | %d | %d | %d | %s | %s | $%.2f | %s | %d (%s) | %s |\n",
			c.Channel, c.Leads, c.Tiers[models.Hot], c.Tiers[models.Warm], c.Tiers[models.Cold], c.Tiers[models.Unqualified],
			c.Applications, c.Enrollments, c.Rates.ApplicationRate.Percent(), c.Rates.ConversionRate.Percent(),
			c.Spend, c.Rates.CPA.Money(), c.Score.DisplayOverall(), c.Score.Status, c.Recommendation.Priority)
	}
	sb.WriteString("\n### Recommendations\n\n")
	for _, c := range r.Channels {
		fmt.Fprintf(&sb, "- **%s** [%s/%s] %s: %s\n", c.Channel, c.Recommendation.Priority, c.Recommendation.Color,
			c.Recommendation.Label, c.Recommendation.Text)
	}

	if len(r.Plans) > 0 {
		sb.WriteString("\n## Budget reallocation\n\n")
		sb.WriteString("| Plan | Budget | Projected conversions | Projected CPA | Target | Achieved | Shortfall |\n")
		sb.WriteString("|---|---:|---:|---:|---:|---|---:|\n")
		for _, p := range r.Plans {
			shortfall := "N/A"
			if p.Target.ShortfallPct.Defined {
				shortfall = fmt.Sprintf("%.1f%%", p.Target.ShortfallPct.Value)
			}
			fmt.Fprintf(&sb, "| %s | $%.2f | %d | %s | $%.2f | %s | %s |\n",
				p.Name, p.TotalBudget, p.Total.Enrollments, p.Target.ProjectedCPA.Money(), p.Target.Target,
				yesNo(p.Target.Achieved), shortfall)
		}
		for _, p := range r.Plans {
			fmt.Fprintf(&sb, "\n**%s**: %s\n\n", p.Name, p.Description)
			sb.WriteString("| Channel | Share | Spend | Efficiency | Conversions | CPA |\n|---|---:|---:|---:|---:|---:|\n")
			for _, cp := range p.Channels {
				fmt.Fprintf(&sb, "| %s | %.1f%% | $%.2f | %s | %d | %s |\n",
					cp.Channel, cp.Fraction*100, cp.Spend, efficiency(cp.Efficiency), cp.Conversions, cp.CPA.Money())
			}
		}
	}

	if len(r.Content) > 0 {
		sb.WriteString("\n## Content\n\n| Page | Views | Engagement | Conversion | Overall | Recommendation |\n|---|---:|---:|---:|---:|---|\n")
		for _, c := range r.Content {
			fmt.Fprintf(&sb, "| %s | %d | %.1f | %.1f | %d (%s) | %s |\n",
				escape(c.Path), c.PageViews, c.Score.Engagement, c.Score.Conversion, c.Score.DisplayOverall(), c.Score.Status, c.Recommendation)
		}
	}

	if len(r.Windows) > 0 && r.Period.Granularity != "all" {
		sb.WriteString("\n## By window\n\n| Window | Channel | Leads | Enrolled | Spend | Conv rate | CPA |\n|---|---|---:|---:|---:|---:|---:|\n")
		rows := append([]WindowRow(nil), r.Windows...)
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].WindowStart.Before(rows[j].WindowStart) })
		for _, w := range rows {
			fmt.Fprintf(&sb, "| %s | %s | %d | %d | $%.2f | %s | %s |\n",
				day(w.WindowStart), w.Channel, w.Leads, w.Enrollments, w.Spend, w.Rates.ConversionRate.Percent(), w.Rates.CPA.Money())
		}
	}
	return sb.String()
}

func Console(r Report, style string) (string, error) {
	if style == "" {
		style = "auto"
	}
	return glamour.Render(Markdown(r), style)
}

func efficiency(r models.Ratio) string {
	if !r.Defined {
		return "N/A"
	}
	return fmt.Sprintf("%.4f/$", r.Value)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func day(t time.Time) string { return t.Format("2006-01-02") }

const maxCell = 160

// escape deja el texto en una sola celda: sin saltos de línea ni pipes.
func escape(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxCell {
		s = string(r[:maxCell]) + "..."
	}
	return strings.ReplaceAll(s, "|", "\\|")
}
