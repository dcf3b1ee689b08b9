package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valid() Config {
	return Config{
		CRMURL:       "http://crm",
		CRMAPIKey:    "k",
		PageSize:     100,
		MaxPages:     10,
		ReportDir:    "reports",
		Window:       "all",
		LookbackDays: 30,
		Thresholds:   DefaultThresholds(),
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CRM_API_URL", "http://crm")
	t.Setenv("CRM_API_KEY", "k")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("PAGE_SIZE", "50")
	t.Setenv("PAGE_DELAY_MS", "250")
	t.Setenv("TOTAL_BUDGET", "1500.5")
	t.Setenv("WINDOW", "")

	cfg := FromEnv()
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 200, cfg.MaxPages)
	assert.Equal(t, 250*time.Millisecond, cfg.PageDelay)
	assert.Equal(t, 1500.5, cfg.TotalBudget)
	assert.Equal(t, "all", cfg.Window)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"crm"}, cfg.Sources())
	assert.NoError(t, cfg.Validate())
}

func TestValidateMissingCredentials(t *testing.T) {
	cfg := valid()
	cfg.CRMAPIKey = ""
	cfg.MetaAdsURL = "http://meta"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRMAPIKey is required when CRMURL is set")
	assert.Contains(t, err.Error(), "MetaAdsToken is required when MetaAdsURL is set")
}

func TestValidateNoSources(t *testing.T) {
	cfg := valid()
	cfg.CRMURL, cfg.CRMAPIKey = "", ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no source configured")
}

func TestValidateRanges(t *testing.T) {
	cfg := valid()
	cfg.Window = "fortnight"
	cfg.PageSize = 0
	cfg.TotalBudget = -1
	cfg.Thresholds.WarmScore = 9
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"Window must be one of", "PageSize must be at least 1", "TotalBudget must be >= 0", "warm_score"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadThresholdsOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hot_score: 8\ntarget_cpa: 120\nevents:\n  expansion: accordion_open\n"), 0o644))

	th, err := LoadThresholds(path)
	require.NoError(t, err)
	assert.Equal(t, 8.0, th.HotScore)
	assert.Equal(t, 3.0, th.WarmScore)
	assert.Equal(t, 120.0, th.TargetCPA)
	assert.Equal(t, "accordion_open", th.Events.Expansion)
	assert.Equal(t, "form_submit", th.Events.FinalComplete)
	assert.Equal(t, "enrolled", th.StageLabels["4"])
	assert.NoError(t, th.Validate())
}

func TestLoadThresholdsErrors(t *testing.T) {
	_, err := LoadThresholds(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hot_score: [1, 2"), 0o644))
	_, err = LoadThresholds(path)
	assert.Error(t, err)
}

func TestThresholdsValidate(t *testing.T) {
	th := DefaultThresholds()
	th.Good = 90
	assert.ErrorContains(t, th.Validate(), "descending")

	th = DefaultThresholds()
	th.Retention = 1.5
	assert.ErrorContains(t, th.Validate(), "retention")
}
