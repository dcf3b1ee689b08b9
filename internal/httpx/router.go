package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/lead-attribution/internal/metrics"
	"github.com/AngelCh415/lead-attribution/internal/pipeline"
	"github.com/AngelCh415/lead-attribution/internal/report"
	"github.com/AngelCh415/lead-attribution/internal/utils"
)

type Runner interface {
	Run(ctx context.Context) pipeline.Result
	Persist(ctx context.Context, rep report.Report) (string, string, error)
}

// latest guarda el último reporte; una sola corrida a la vez.
type latest struct {
	run sync.Mutex
	mu  sync.RWMutex
	rep *report.Report
}

func (l *latest) get() *report.Report {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rep
}

func (l *latest) set(r report.Report) {
	l.mu.Lock()
	l.rep = &r
	l.mu.Unlock()
}

func NewRouter(log *slog.Logger, runner Runner, mSvc *metrics.Service, gatherer prometheus.Gatherer) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))

	state := &latest{}

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })

	mux.Post("/pipeline/run", func(w http.ResponseWriter, r *http.Request) {
		if !state.run.TryLock() {
			http.Error(w, "run already in progress", http.StatusConflict)
			return
		}
		defer state.run.Unlock()

		res := runner.Run(r.Context())
		mSvc.Swap(res.Store)
		state.set(res.Report)

		out := map[string]any{
			"run_id":   res.Report.RunID,
			"degraded": res.Report.Degraded(),
			"sources":  res.Report.Sources,
		}
		if r.URL.Query().Get("persist") != "false" {
			jsonPath, mdPath, err := runner.Persist(r.Context(), res.Report)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out["json"], out["markdown"] = jsonPath, mdPath
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.Get("/reports/latest", func(w http.ResponseWriter, r *http.Request) {
		rep := state.get()
		if rep == nil {
			http.Error(w, "no report yet", http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("format") == "markdown" {
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			w.Write([]byte(report.Markdown(*rep)))
			return
		}
		writeJSON(w, http.StatusOK, rep)
	})

	mux.Get("/metrics/channel", func(w http.ResponseWriter, r *http.Request) {
		rows, err := mSvc.QueryChannel(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})

	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
