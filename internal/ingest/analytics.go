package ingest

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/AngelCh415/lead-attribution/internal/models"
)

// EventNames: nombre del evento de analytics para cada paso del embudo.
type EventNames struct {
	Expansion     string
	NextStep      string
	FinalStart    string
	FinalComplete string
}

type reportSpec struct {
	Dimensions []string
	Metrics    []string
}

type nameObj struct {
	Name string `json:"name"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type reportReq struct {
	DateRanges []dateRange `json:"dateRanges"`
	Dimensions []nameObj   `json:"dimensions"`
	Metrics    []nameObj   `json:"metrics"`
	Limit      int         `json:"limit"`
	Offset     int         `json:"offset"`
}

type reportValue struct {
	Value str `json:"value"`
}

type reportResp struct {
	DimensionHeaders []nameObj `json:"dimensionHeaders"`
	MetricHeaders    []nameObj `json:"metricHeaders"`
	Rows             []struct {
		DimensionValues []reportValue `json:"dimensionValues"`
		MetricValues    []reportValue `json:"metricValues"`
	} `json:"rows"`
}

// row es una fila ya zipeada: nombre de dimensión/métrica -> valor.
type row map[string]string

func (r row) num(k string) num {
	var n num
	_ = n.UnmarshalJSON([]byte(r[k]))
	return n
}

// zip empareja valores por índice posicional con el orden pedido. Si la
// respuesta trae headers del mismo largo, se respetan esos nombres.
func (resp reportResp) zip(spec reportSpec) []row {
	dims, mets := spec.Dimensions, spec.Metrics
	if len(resp.DimensionHeaders) == len(dims) {
		dims = names(resp.DimensionHeaders)
	}
	if len(resp.MetricHeaders) == len(mets) {
		mets = names(resp.MetricHeaders)
	}
	out := make([]row, 0, len(resp.Rows))
	for _, rr := range resp.Rows {
		r := make(row, len(dims)+len(mets))
		for i, d := range dims {
			if i < len(rr.DimensionValues) {
				r[d] = rr.DimensionValues[i].Value.String()
			}
		}
		for i, m := range mets {
			if i < len(rr.MetricValues) {
				r[m] = rr.MetricValues[i].Value.String()
			}
		}
		out = append(out, r)
	}
	return out
}

func names(ns []nameObj) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Name
	}
	return out
}

var (
	sessionsReport = reportSpec{
		Dimensions: []string{"date", "sessionSource", "sessionMedium", "sessionCampaignName"},
		Metrics:    []string{"sessions", "screenPageViews", "averageSessionDuration", "bounceRate"},
	}
	pagesReport = reportSpec{
		Dimensions: []string{"pagePath"},
		Metrics:    []string{"screenPageViews", "userEngagementDuration", "bounceRate"},
	}
	eventsReport = reportSpec{
		Dimensions: []string{"date", "pagePath", "eventName", "sessionSource", "sessionMedium", "sessionCampaignName"},
		Metrics:    []string{"eventCount"},
	}
)

type AnalyticsAdapter struct {
	BaseURL  string
	Token    string
	Property string
	Events   EventNames
	opts     Options
}

func NewAnalyticsAdapter(baseURL, token, property string, events EventNames, opts Options) *AnalyticsAdapter {
	return &AnalyticsAdapter{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Token:    token,
		Property: property,
		Events:   events,
		opts:     opts.withDefaults(),
	}
}

func (a *AnalyticsAdapter) Name() string { return "analytics" }

func (a *AnalyticsAdapter) runReport(ctx context.Context, w Window, spec reportSpec) ([]row, int, error) {
	start, end := "30daysAgo", "today"
	if !w.From.IsZero() {
		start = w.From.Format("2006-01-02")
	}
	if !w.To.IsZero() {
		end = w.To.Format("2006-01-02")
	}
	u := a.BaseURL + "/v1beta/properties/" + a.Property + ":runReport"
	return collect(ctx, a.opts.Pager, a.opts.Logger, a.opts.Observer, a.Name(),
		func(ctx context.Context, req pageReq) (page[row], error) {
			body := reportReq{
				DateRanges: []dateRange{{StartDate: start, EndDate: end}},
				Limit:      req.Limit,
				Offset:     req.Offset,
			}
			for _, d := range spec.Dimensions {
				body.Dimensions = append(body.Dimensions, nameObj{Name: d})
			}
			for _, m := range spec.Metrics {
				body.Metrics = append(body.Metrics, nameObj{Name: m})
			}
			var resp reportResp
			err := getJSONWithRetry(ctx, a.opts.Client, *a.opts.Retry, request{
				method:  "POST",
				url:     u,
				headers: map[string]string{"Authorization": "Bearer " + a.Token},
				body:    body,
			}, &resp)
			return page[row]{Items: resp.zip(spec)}, err
		}, nil)
}

// Fetch corre los tres reportes; si uno falla se conservan los demás.
func (a *AnalyticsAdapter) Fetch(ctx context.Context, w Window) (Batch, error) {
	var b Batch
	var errs []error

	sessions, n, err := a.runReport(ctx, w, sessionsReport)
	b.pages += n
	if err != nil {
		errs = append(errs, err)
	}
	for _, r := range sessions {
		b.Sessions = append(b.Sessions, sessionFromRow(r))
	}

	pageRows, n, err := a.runReport(ctx, w, pagesReport)
	b.pages += n
	if err != nil {
		errs = append(errs, err)
	}
	events, n, err := a.runReport(ctx, w, eventsReport)
	b.pages += n
	if err != nil {
		errs = append(errs, err)
	}

	b.Pages = a.pagesFromRows(pageRows, events)
	b.Sessions = append(b.Sessions, a.expansionsByChannel(events)...)
	a.opts.Observer.RecordsFetched(a.Name(), b.Len())
	return b, errors.Join(errs...)
}

func sessionFromRow(r row) models.SessionMetric {
	return models.SessionMetric{
		Date: parseTime(r["date"]),
		UTM: models.UTM{
			Source:   normalizeNotSet(r["sessionSource"]),
			Medium:   normalizeNotSet(r["sessionMedium"]),
			Campaign: normalizeNotSet(r["sessionCampaignName"]),
		},
		Sessions:          r.num("sessions").int64(),
		PageViews:         r.num("screenPageViews").int64(),
		AvgSessionSeconds: r.num("averageSessionDuration").float(),
		BounceRate:        fractionToPercent(r.num("bounceRate").float()),
	}
}

func (a *AnalyticsAdapter) pagesFromRows(pageRows, events []row) []models.PageMetrics {
	byPath := make(map[string]*models.PageMetrics)
	var order []string
	get := func(path string) *models.PageMetrics {
		p, ok := byPath[path]
		if !ok {
			p = &models.PageMetrics{Path: path}
			byPath[path] = p
			order = append(order, path)
		}
		return p
	}
	for _, r := range pageRows {
		p := get(r["pagePath"])
		views := r.num("screenPageViews").int64()
		p.PageViews += views
		if views > 0 {
			p.AvgTimeOnPage = r.num("userEngagementDuration").float() / float64(views)
		}
		p.BounceRate = fractionToPercent(r.num("bounceRate").float())
	}
	for _, r := range events {
		path := r["pagePath"]
		if path == "" {
			continue
		}
		n := r.num("eventCount").int64()
		switch r["eventName"] {
		case a.Events.Expansion:
			get(path).Expansions += n
		case a.Events.NextStep:
			get(path).NextStepClicks += n
		case a.Events.FinalStart:
			get(path).FinalStarts += n
		case a.Events.FinalComplete:
			get(path).FinalCompletions += n
		}
	}
	out := make([]models.PageMetrics, 0, len(order))
	for _, path := range order {
		out = append(out, *byPath[path])
	}
	return out
}

// expansionsByChannel devuelve filas de sesión que solo llevan expansiones, para
// que el agregador las sume al canal correspondiente.
func (a *AnalyticsAdapter) expansionsByChannel(events []row) []models.SessionMetric {
	var out []models.SessionMetric
	for _, r := range events {
		if r["eventName"] != a.Events.Expansion {
			continue
		}
		out = append(out, models.SessionMetric{
			Date: parseTime(r["date"]),
			UTM: models.UTM{
				Source:   normalizeNotSet(r["sessionSource"]),
				Medium:   normalizeNotSet(r["sessionMedium"]),
				Campaign: normalizeNotSet(r["sessionCampaignName"]),
			},
			Expansions: r.num("eventCount").int64(),
		})
	}
	return out
}

// GA reporta "(not set)" para valores ausentes.
func normalizeNotSet(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "(not set)") {
		return ""
	}
	return strings.TrimSpace(s)
}

// GA4 reporta bounceRate como fracción 0-1.
func fractionToPercent(f float64) float64 {
	return math.Min(f, 1) * 100
}
