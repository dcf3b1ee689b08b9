package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/lead-attribution/internal/metrics"
	"github.com/AngelCh415/lead-attribution/internal/models"
	"github.com/AngelCh415/lead-attribution/internal/pipeline"
	"github.com/AngelCh415/lead-attribution/internal/report"
	"github.com/AngelCh415/lead-attribution/internal/store"
)

type fakeRunner struct {
	runs     atomic.Int32
	persists atomic.Int32
	block    chan struct{}
	failSave bool
}

func (f *fakeRunner) Run(ctx context.Context) pipeline.Result {
	f.runs.Add(1)
	if f.block != nil {
		<-f.block
	}
	st := store.NewMemoryStore()
	st.AddCampaign(models.BucketKey{Channel: models.GoogleSearch}, time.Time{},
		models.CampaignMetric{Platform: "google_ads", CampaignID: "1", Spend: 10})
	return pipeline.Result{
		Store: st,
		Report: report.Report{
			RunID:   "run-42",
			Sources: []models.SourceStatus{{Name: "crm", Degraded: true, Error: "down"}},
		},
	}
}

func (f *fakeRunner) Persist(ctx context.Context, rep report.Report) (string, string, error) {
	f.persists.Add(1)
	if f.failSave {
		return "", "", errors.New("disk full")
	}
	return "r.json", "r.md", nil
}

func newServer(t *testing.T, runner Runner) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(log, runner, metrics.NewService(nil), prometheus.NewRegistry()))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newServer(t, &fakeRunner{})
	for _, p := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := http.Get(srv.URL + p)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, p)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	}
}

func TestRunThenLatest(t *testing.T) {
	runner := &fakeRunner{}
	srv := newServer(t, runner)

	resp, err := http.Get(srv.URL + "/reports/latest")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/pipeline/run", "application/json", nil)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "run-42", out["run_id"])
	assert.Equal(t, true, out["degraded"])
	assert.Equal(t, "r.json", out["json"])
	assert.Equal(t, int32(1), runner.persists.Load())

	resp, err = http.Get(srv.URL + "/reports/latest?format=markdown")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "run-42")
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/markdown"))

	resp, err = http.Get(srv.URL + "/metrics/channel?channel=GoogleSearch")
	require.NoError(t, err)
	var rows []metrics.Row
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	resp.Body.Close()
	require.Len(t, rows, 1)
	assert.Equal(t, 10.0, rows[0].Spend)
}

func TestRunWithoutPersist(t *testing.T) {
	runner := &fakeRunner{failSave: true}
	srv := newServer(t, runner)

	resp, err := http.Post(srv.URL+"/pipeline/run?persist=false", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(0), runner.persists.Load())

	resp, err = http.Post(srv.URL+"/pipeline/run", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestConcurrentRunIsRejected(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	srv := newServer(t, runner)

	done := make(chan int, 1)
	go func() {
		resp, err := http.Post(srv.URL+"/pipeline/run?persist=false", "application/json", nil)
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()
	require.Eventually(t, func() bool { return runner.runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/pipeline/run", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(runner.block)
	assert.Equal(t, http.StatusOK, <-done)
}
