package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AngelCh415/lead-attribution/internal/utils"
)

// helper: hace la petición y devuelve código HTTP + error de red (si hubo)
func fetchURL(c HTTPClient, url string) (int, error) {
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	resp, err := c.Do(req)
	if err != nil {
		return 0, err // error de transporte (timeout, conexión, etc.)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// opciones de test: sin espera entre reintentos y logs descartados
func testOptions(srv *httptest.Server, size int) Options {
	fast := utils.NewBackoff(time.Millisecond, 1)
	return Options{
		Client: srv.Client(),
		Pager:  Pager{Size: size},
		Retry:  &fast,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestHTTPClientHandles500(t *testing.T) {
	// servidor fake que devuelve 500
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(2 * time.Second)
	code, err := fetchURL(client, srv.URL)
	if err != nil {
		t.Fatalf("unexpected network error: %v", err)
	}
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
}

func TestHTTPClientHandles404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewHTTPClient(2 * time.Second)
	code, err := fetchURL(client, srv.URL)
	if err != nil {
		t.Fatalf("unexpected network error: %v", err)
	}
	if code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestHTTPClientHandlesTimeout(t *testing.T) {
	// servidor fake que se tarda más del timeout
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewHTTPClient(50 * time.Millisecond)
	if _, err := fetchURL(client, srv.URL); err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

func TestRetryOn5xxThenSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var dst struct{ OK bool }
	err := getJSONWithRetry(context.Background(), srv.Client(), utils.NewBackoff(time.Millisecond, 2),
		request{url: srv.URL}, &dst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dst.OK || calls.Load() != 2 {
		t.Fatalf("expected success on 2nd call, got ok=%v calls=%d", dst.OK, calls.Load())
	}
}

func TestNoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	var dst map[string]any
	err := getJSONWithRetry(context.Background(), srv.Client(), utils.NewBackoff(time.Millisecond, 3),
		request{url: srv.URL}, &dst)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx must not be retried, got %d calls", calls.Load())
	}
}

func TestEmptyURL(t *testing.T) {
	var dst map[string]any
	err := getJSONWithRetry(context.Background(), http.DefaultClient, utils.NewBackoff(time.Millisecond, 3), request{}, &dst)
	if !errors.Is(err, ErrEmptyURL) {
		t.Fatalf("expected ErrEmptyURL, got %v", err)
	}
}
