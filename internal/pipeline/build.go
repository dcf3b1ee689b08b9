package pipeline

import (
	"log/slog"

	"github.com/AngelCh415/lead-attribution/internal/aggregate"
	"github.com/AngelCh415/lead-attribution/internal/attribution"
	"github.com/AngelCh415/lead-attribution/internal/config"
	"github.com/AngelCh415/lead-attribution/internal/ingest"
	"github.com/AngelCh415/lead-attribution/internal/metrics"
	"github.com/AngelCh415/lead-attribution/internal/optimizer"
	"github.com/AngelCh415/lead-attribution/internal/report"
	"github.com/AngelCh415/lead-attribution/internal/scoring"
)

func Sources(cfg config.Config, log *slog.Logger, obs ingest.Observer) []ingest.Source {
	opts := ingest.Options{
		Client: ingest.NewHTTPClient(cfg.HTTPTimeout),
		Pager: ingest.Pager{
			Size:     cfg.PageSize,
			MaxPages: cfg.MaxPages,
			Delay:    cfg.PageDelay,
		},
		Logger:   log,
		Observer: obs,
	}
	th := cfg.Thresholds
	var out []ingest.Source
	if cfg.CRMURL != "" {
		out = append(out, ingest.NewCRMAdapter(cfg.CRMURL, cfg.CRMAPIKey, th.StageLabels, opts))
	}
	if cfg.GoogleAdsURL != "" {
		out = append(out, ingest.NewGoogleAdsAdapter(cfg.GoogleAdsURL, cfg.GoogleAdsToken, opts))
	}
	if cfg.MetaAdsURL != "" {
		out = append(out, ingest.NewMetaAdsAdapter(cfg.MetaAdsURL, cfg.MetaAdsToken, opts))
	}
	if cfg.AnalyticsURL != "" {
		out = append(out, ingest.NewAnalyticsAdapter(cfg.AnalyticsURL, cfg.AnalyticsToken, cfg.AnalyticsProperty,
			ingest.EventNames{
				Expansion:     th.Events.Expansion,
				NextStep:      th.Events.NextStep,
				FinalStart:    th.Events.FinalStart,
				FinalComplete: th.Events.FinalComplete,
			}, opts))
	}
	return out
}

func Engine(th config.Thresholds) scoring.Engine {
	return scoring.NewEngine(scoring.Bands{
		Excellent:    th.Excellent,
		Good:         th.Good,
		Average:      th.Average,
		BelowAverage: th.BelowAverage,
	})
}

func Optimizer(th config.Thresholds) *optimizer.Optimizer {
	return optimizer.New(optimizer.Config{
		TargetCPA:     th.TargetCPA,
		Retention:     th.Retention,
		ShiftFraction: th.ShiftFraction,
	})
}

func Normalizer(th config.Thresholds) attribution.Normalizer {
	return attribution.Normalizer{Tiering: attribution.Tiering{Hot: th.HotScore, Warm: th.WarmScore}}
}

func FromConfig(cfg config.Config, log *slog.Logger, inst *metrics.Instruments) (*Pipeline, error) {
	g, err := aggregate.ParseGranularity(cfg.Window)
	if err != nil {
		return nil, err
	}
	var obs ingest.Observer
	opts := []Option{}
	if inst != nil {
		obs = inst
		opts = append(opts, WithInstruments(inst))
	}
	if cfg.SinkURL != "" {
		opts = append(opts, WithPublisher(&report.Publisher{
			URL:    cfg.SinkURL,
			Secret: cfg.SinkSecret,
			Client: ingest.NewHTTPClient(cfg.HTTPTimeout),
		}))
	}
	th := cfg.Thresholds
	return New(log, Settings{
		Granularity:  g,
		LookbackDays: cfg.LookbackDays,
		TotalBudget:  cfg.TotalBudget,
		ReportDir:    cfg.ReportDir,
	}, Normalizer(th), Engine(th), Optimizer(th), Sources(cfg, log, obs), opts...), nil
}
