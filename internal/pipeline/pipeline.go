// Package pipeline: fetch -> clasificar -> agregar -> score -> planes -> reporte.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AngelCh415/lead-attribution/internal/aggregate"
	"github.com/AngelCh415/lead-attribution/internal/attribution"
	"github.com/AngelCh415/lead-attribution/internal/ingest"
	"github.com/AngelCh415/lead-attribution/internal/metrics"
	"github.com/AngelCh415/lead-attribution/internal/models"
	"github.com/AngelCh415/lead-attribution/internal/optimizer"
	"github.com/AngelCh415/lead-attribution/internal/report"
	"github.com/AngelCh415/lead-attribution/internal/scoring"
	"github.com/AngelCh415/lead-attribution/internal/store"
)

type Settings struct {
	Granularity  aggregate.Granularity
	LookbackDays int
	TotalBudget  float64
	ReportDir    string
}

type Pipeline struct {
	sources    []ingest.Source
	log        *slog.Logger
	settings   Settings
	normalizer attribution.Normalizer
	engine     scoring.Engine
	optimizer  *optimizer.Optimizer
	inst       *metrics.Instruments
	publisher  *report.Publisher
	now        func() time.Time
}

type Option func(*Pipeline)

func WithInstruments(i *metrics.Instruments) Option { return func(p *Pipeline) { p.inst = i } }
func WithPublisher(pub *report.Publisher) Option    { return func(p *Pipeline) { p.publisher = pub } }
func WithClock(now func() time.Time) Option         { return func(p *Pipeline) { p.now = now } }

func New(log *slog.Logger, s Settings, n attribution.Normalizer, e scoring.Engine, o *optimizer.Optimizer, sources []ingest.Source, opts ...Option) *Pipeline {
	if s.LookbackDays <= 0 {
		s.LookbackDays = 30
	}
	if s.Granularity == "" {
		s.Granularity = aggregate.All
	}
	p := &Pipeline{
		sources:    sources,
		log:        log,
		settings:   s,
		normalizer: n,
		engine:     e,
		optimizer:  o,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type Result struct {
	Report    report.Report
	Store     *store.MemoryStore
	Aggregate aggregate.Result
	Leads     []models.NormalizedLead
}

// Run no falla por una fuente caída: el reporte queda degradado.
func (p *Pipeline) Run(ctx context.Context) Result {
	start := p.now()
	runID := uuid.NewString()
	log := p.log.With(slog.String("run_id", runID))

	w := ingest.LastDays(start, p.settings.LookbackDays)
	batch := ingest.FetchAll(ctx, log, w, p.sources...)

	leads := p.normalizer.NormalizeAll(batch.Leads)

	st := store.NewMemoryStore()
	spec := aggregate.WindowSpec{Granularity: p.settings.Granularity, From: w.From, To: w.To}
	agg := aggregate.New(spec, st)
	agg.AddLeads(leads)
	agg.AddCampaigns(batch.Campaigns)
	agg.AddSessions(batch.Sessions)
	res := agg.Result()

	channelScores := make(map[models.Channel]models.ScoreReport, len(res.ByChannel))
	for ch, b := range res.ByChannel {
		channelScores[ch] = p.engine.ScoreBucket(b)
	}
	overall := p.engine.ScoreBucket(res.Total)
	pages := p.engine.RankPages(batch.Pages)
	plans := p.optimizer.Plans(res.Latest, p.settings.TotalBudget)

	rep := report.Render(report.Input{
		RunID:       runID,
		GeneratedAt: start,
		Period: report.Period{
			From:        w.From,
			To:          w.To,
			Granularity: string(p.settings.Granularity),
		},
		Sources:       batch.Sources,
		Overall:       overall,
		Total:         res.Total,
		ByChannel:     res.ByChannel,
		ChannelScores: channelScores,
		Buckets:       res.Buckets,
		Pages:         pages,
		Plans:         plans,
		Bands:         p.engine.Bands,
	})

	status := "ok"
	if rep.Degraded() {
		status = "degraded"
	}
	if p.inst != nil {
		p.inst.ObserveRun(status, p.now().Sub(start))
		p.inst.SetChannels(res.ByChannel)
	}
	log.Info("run complete",
		slog.String("status", status),
		slog.Int("leads", len(leads)),
		slog.Int("campaigns", len(batch.Campaigns)),
		slog.Int("buckets", len(res.Buckets)),
		slog.Int("plans", len(plans)))

	return Result{Report: rep, Store: st, Aggregate: res, Leads: leads}
}

// Persist escribe los archivos y publica al sink si hay uno; un fallo al
// publicar solo se loguea.
func (p *Pipeline) Persist(ctx context.Context, rep report.Report) (string, string, error) {
	jsonPath, mdPath, err := report.Write(p.settings.ReportDir, rep)
	if err != nil {
		return "", "", err
	}
	p.log.Info("report written", slog.String("json", jsonPath), slog.String("markdown", mdPath))
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, rep); err != nil {
			p.log.Warn("report publish failed", slog.String("err", err.Error()))
		}
	}
	return jsonPath, mdPath, nil
}
