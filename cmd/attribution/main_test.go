package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/lead-attribution/internal/models"
	"github.com/AngelCh415/lead-attribution/internal/report"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	out, err := execute(t, "classify", "--source", "google", "--medium", "cpc", "--campaign", "pmax-fall")
	require.NoError(t, err)
	assert.Equal(t, "GooglePerformanceMax", strings.TrimSpace(out))

	utm = models.UTM{}
	out, err = execute(t, "classify", "--form-source", "Instagram Lead Ad")
	require.NoError(t, err)
	assert.Equal(t, "MetaInstagram", strings.TrimSpace(out))
	utm = models.UTM{}
}

func TestProjectCommand(t *testing.T) {
	t.Setenv("THRESHOLDS_FILE", "")
	rep := report.Report{
		RunID: "saved",
		Channels: []report.ChannelSection{
			{Channel: models.GoogleSearch, Leads: 100, Enrollments: 10, Spend: 500},
			{Channel: models.MetaFacebook, Leads: 80, Enrollments: 2, Spend: 500},
		},
	}
	b, err := json.Marshal(rep)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))

	out, err := execute(t, "project", "--report", path, "--budget", "2000", "--target-cpa", "80")
	require.NoError(t, err)
	assert.Contains(t, out, "## Budget reallocation")
	assert.Contains(t, out, "| current_mix | $2000.00 | 24 |")
	assert.Contains(t, out, "shift_worst_to_best")

	_, err = execute(t, "project", "--report", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
