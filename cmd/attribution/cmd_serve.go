package main

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/AngelCh415/lead-attribution/internal/httpx"
	"github.com/AngelCh415/lead-attribution/internal/metrics"
	"github.com/AngelCh415/lead-attribution/internal/pipeline"
	"github.com/AngelCh415/lead-attribution/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve pipeline runs, the latest report and prometheus metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		inst := metrics.NewInstruments(reg)

		p, err := pipeline.FromConfig(cfg, logger, inst)
		if err != nil {
			return err
		}
		mSvc := metrics.NewService(store.NewMemoryStore())
		r := httpx.NewRouter(logger, p, mSvc, reg)

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		logger.Info("starting server", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.String("err", err.Error()))
			return err
		}
		return nil
	},
}
