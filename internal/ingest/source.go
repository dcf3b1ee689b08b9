package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/lead-attribution/internal/models"
	"github.com/AngelCh415/lead-attribution/internal/utils"
)

// Window: límites en cero son abiertos.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	if t.IsZero() {
		return true
	}
	if !w.From.IsZero() && dayUTC(t).Before(dayUTC(w.From)) {
		return false
	}
	if !w.To.IsZero() && dayUTC(t).After(dayUTC(w.To)) {
		return false
	}
	return true
}

// LastDays es la ventana [hoy-n+1, hoy] en UTC.
func LastDays(now time.Time, n int) Window {
	to := dayUTC(now)
	return Window{From: to.AddDate(0, 0, -(n - 1)), To: to}
}

type Batch struct {
	Leads     []models.RawLead
	Campaigns []models.CampaignMetric
	Sessions  []models.SessionMetric
	Pages     []models.PageMetrics
	Sources   []models.SourceStatus

	pages int
}

func (b Batch) Len() int {
	return len(b.Leads) + len(b.Campaigns) + len(b.Sessions) + len(b.Pages)
}

// Fetch devuelve lo acumulado aunque falle, junto con el error.
type Source interface {
	Name() string
	Fetch(ctx context.Context, w Window) (Batch, error)
}

type Options struct {
	Client   HTTPClient
	Pager    Pager
	Retry    *utils.Backoff
	Logger   *slog.Logger
	Observer Observer
}

func (o Options) withDefaults() Options {
	if o.Client == nil {
		o.Client = NewHTTPClient(15 * time.Second)
	}
	if o.Retry == nil {
		r := DefaultRetry
		o.Retry = &r
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	o.Observer = observerOr(o.Observer)
	o.Pager = o.Pager.withDefaults()
	return o
}

// FetchAll corre las fuentes en paralelo y mezcla al final. Una fuente que
// falla queda degradada sin cortar a las demás.
func FetchAll(ctx context.Context, log *slog.Logger, w Window, sources ...Source) Batch {
	results := make([]Batch, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sources {
		i, s := i, s
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("%s: panic: %v", s.Name(), r)
				}
			}()
			results[i], errs[i] = s.Fetch(gctx, w)
			return nil
		})
	}
	_ = g.Wait()

	var out Batch
	for i, s := range sources {
		b := results[i]
		st := models.SourceStatus{Name: s.Name(), Records: b.Len(), Pages: b.pages}
		if errs[i] != nil {
			st.Degraded = true
			st.Error = errs[i].Error()
			log.Warn("source degraded",
				slog.String("source", s.Name()),
				slog.Int("records", st.Records),
				slog.String("err", st.Error))
		}
		out.Leads = append(out.Leads, b.Leads...)
		out.Campaigns = append(out.Campaigns, b.Campaigns...)
		out.Sessions = append(out.Sessions, b.Sessions...)
		out.Pages = append(out.Pages, b.Pages...)
		out.Sources = append(out.Sources, st)
		out.pages += b.pages
	}
	log.Info("fetch complete",
		slog.Int("leads", len(out.Leads)),
		slog.Int("campaigns", len(out.Campaigns)),
		slog.Int("sessions", len(out.Sessions)),
		slog.Int("pages", len(out.Pages)))
	return out
}

func dayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
