package report

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

var ErrSinkNotConfigured = errors.New("sink not configured")

// BaseName deriva el nombre de archivo del timestamp de la corrida.
func BaseName(ts time.Time) string {
	return "attribution-report-" + ts.UTC().Format("20060102T150405Z")
}

func Write(dir string, r Report) (jsonPath, mdPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create report dir: %w", err)
	}
	base := filepath.Join(dir, BaseName(r.GeneratedAt))
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode report: %w", err)
	}
	jsonPath, mdPath = base+".json", base+".md"
	if err := os.WriteFile(jsonPath, b, 0o644); err != nil {
		return "", "", fmt.Errorf("write %s: %w", jsonPath, err)
	}
	if err := os.WriteFile(mdPath, []byte(Markdown(r)), 0o644); err != nil {
		return jsonPath, "", fmt.Errorf("write %s: %w", mdPath, err)
	}
	return jsonPath, mdPath, nil
}

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Publisher firma el JSON con HMAC-SHA256 en X-Signature.
type Publisher struct {
	URL    string
	Secret string
	Client Doer
}

func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (p Publisher) Publish(ctx context.Context, r Report) error {
	if p.URL == "" || p.Secret == "" {
		return ErrSinkNotConfigured
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", Sign(p.Secret, b))
	req.Header.Set("X-Run-ID", r.RunID)
	c := p.Client
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("export sink non-2xx: %d", resp.StatusCode)
	}
	return nil
}
