package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	issName  = "ISS (ZARYA)"
	issLine1 = "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993"
	issLine2 = "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: skywatch")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"orbit"}, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "orbit"`)
}

func TestRunCalculate(t *testing.T) {
	in := `{"lat": 13.75, "lon": 100.5, "date": "2025-02-14", "timezone": "Asia/Bangkok",
		"time_mode": "custom", "start_time": "19:00", "end_time": "19:30",
		"satellites": [{"name": "` + issName + `", "tle1": "` + issLine1 + `", "tle2": "` + issLine2 + `"}]}`

	var stdout, stderr bytes.Buffer
	code := run([]string{"calculate"}, strings.NewReader(in), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, "Asia/Bangkok", out["timezone"])
	assert.Len(t, out["minute_results"], 31)
}

func TestRunCalculateFatal(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"calculate"}, strings.NewReader(`{"lat": 13.75, "date": "2025-02-14"}`), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "missing lon")

	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, false, out["success"])
}

func TestRunImportThenQualify(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SKYWATCH_CATALOG_PATH", filepath.Join(dir, "catalog.db"))
	t.Setenv("SKYWATCH_TLE_CACHE_DIR", filepath.Join(dir, "tle"))
	t.Setenv("SKYWATCH_LOG_LEVEL", "error")

	file := filepath.Join(dir, "active.txt")
	require.NoError(t, os.WriteFile(file, []byte(issName+"\n"+issLine1+"\n"+issLine2+"\n"), 0o644))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"import", "-file", file}, nil, &stdout, &stderr), stderr.String())

	in := `{"lat": 40.7128, "lon": -74.0060, "date": "2025-02-14", "timezone": "America/New_York"}`
	stdout.Reset()
	require.Equal(t, 0, run([]string{"qualify"}, strings.NewReader(in), &stdout, &stderr), stderr.String())

	var out struct {
		Success bool `json:"success"`
		Run     struct {
			CatalogSize int    `json:"catalog_size"`
			Stop        string `json:"stop"`
		} `json:"run"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, 1, out.Run.CatalogSize)
	assert.Contains(t, []string{"target_reached", "catalog_exhausted"}, out.Run.Stop)
}

func TestRunQualifyCatalogUnavailable(t *testing.T) {
	// A regular file where the catalog directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	t.Setenv("SKYWATCH_CATALOG_PATH", filepath.Join(blocker, "catalog.db"))

	var stdout, stderr bytes.Buffer
	in := `{"lat": 0, "lon": 0, "date": "2025-02-14"}`
	assert.Equal(t, 0, run([]string{"qualify"}, strings.NewReader(in), &stdout, &stderr))

	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, false, out["success"])
	assert.Contains(t, out["error"], "catalog unavailable")
}

func TestEnvLoaders(t *testing.T) {
	t.Setenv("SKYWATCH_QUALIFY_BATCH_SIZE", "40")
	t.Setenv("SKYWATCH_QUALIFY_TARGET", "-3")
	t.Setenv("SKYWATCH_RESOLUTION_MINUTES", "2")
	t.Setenv("SKYWATCH_DARKNESS_THRESHOLD", "5")
	t.Setenv("SKYWATCH_MIN_ELEVATION", "10")

	s := loadQualifySettings(discard())
	assert.Equal(t, 40, s.Qualify.BatchSize)
	assert.Equal(t, 5, s.Qualify.TargetCount, "invalid value keeps default")
	assert.Equal(t, 2*time.Minute, s.Resolution)
	assert.Equal(t, -12.0, s.Criteria.DarknessThreshold, "positive threshold rejected")
	assert.Equal(t, 10.0, s.Criteria.MinElevation)

	c := loadCalculateConfig(discard())
	assert.Equal(t, 2*time.Minute, c.Resolution)

	t.Setenv("SKYWATCH_CATALOG_REFRESH", "")
	assert.Empty(t, loadTLEConfig(discard()).Refresh)
}

func TestLoadAuthConfig(t *testing.T) {
	t.Setenv("SKYWATCH_AUTH_ENABLED", "true")
	t.Setenv("SKYWATCH_AUTH_TOKEN", "")
	_, err := loadAuthConfig(discard())
	assert.Error(t, err)

	t.Setenv("SKYWATCH_AUTH_TOKEN", "a,b")
	cfg, err := loadAuthConfig(discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.Tokens)

	t.Setenv("SKYWATCH_AUTH_ENABLED", "maybe")
	_, err = loadAuthConfig(discard())
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
