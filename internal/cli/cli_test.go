package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/etymologia/internal/logging"
	"github.com/ppiankov/etymologia/internal/model"
	"github.com/ppiankov/etymologia/internal/pipeline"
	"github.com/ppiankov/etymologia/internal/store"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	require.NoError(t, registerDefaults(v, model.DefaultConfig()))
	return v
}

func TestFlatten(t *testing.T) {
	got := flatten("", map[string]any{
		"log":   map[string]any{"level": "info"},
		"cache": map[string]any{"enabled": true, "dir": ""},
		"top":   1,
	})
	assert.Equal(t, map[string]any{
		"log.level":     "info",
		"cache.enabled": true,
		"cache.dir":     "",
		"top":           1,
	}, got)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper(t))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)
}

func TestLoadConfig_EnvOverridesNestedKeys(t *testing.T) {
	t.Setenv("ETYMOLOGIA_LEXICON_TIMEOUT", "20s")
	t.Setenv("ETYMOLOGIA_ENRICH_OVERWRITE", "true")
	t.Setenv("ETYMOLOGIA_CACHE_DIR", "/tmp/etymologia-cache")

	cfg, err := loadConfig(newTestViper(t))
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.Lexicon.Timeout)
	assert.True(t, cfg.Enrich.Overwrite)
	assert.Equal(t, "/tmp/etymologia-cache", cfg.Cache.Dir)
}

func TestLoadConfig_FileKeepsUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rate_limiting:\n  requests_per_second: 0.5\nlog:\n  format: json\n"), 0o644))

	v := newTestViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.RateLimiting.RequestsPerSecond)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 1, cfg.RateLimiting.BurstSize)
	assert.Equal(t, 10*time.Second, cfg.Lexicon.Timeout)
}

func TestLoadConfig_VerboseForcesDebug(t *testing.T) {
	v := newTestViper(t)
	v.Set("verbose", true)

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	v := newTestViper(t)
	v.Set("log.level", "loud")

	_, err := loadConfig(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func newShowStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "etymologies.json"), discardLogger())
	st.Merge("vanha akka", "vanha", &model.Etymology{Definition: "old", URL: "https://kaino.kotus.fi/ses/?p=article&etym_id=5"})
	st.Merge("vanha akka", "akka", nil)
	st.Ensure("???")
	return st
}

func TestWriteEtymologies(t *testing.T) {
	var buf bytes.Buffer
	writeEtymologies(&buf, newShowStore(t), "", false, discardLogger())

	out := buf.String()
	assert.Contains(t, out, "vanha akka")
	assert.Contains(t, out, "old")
	assert.Contains(t, out, "etym_id=5")
	assert.Contains(t, out, "1 words with etymology, 1 without")
}

func TestWriteEtymologies_AbsentOnly(t *testing.T) {
	var buf bytes.Buffer
	writeEtymologies(&buf, newShowStore(t), "vanha akka", true, discardLogger())

	out := buf.String()
	assert.NotContains(t, out, "old")
	assert.Contains(t, out, "akka")
}

func TestWriteEtymologies_Empty(t *testing.T) {
	var buf bytes.Buffer
	writeEtymologies(&buf, newShowStore(t), "???", false, discardLogger())
	assert.Equal(t, "No etymologies recorded.\n", buf.String())
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	writeSummary(&buf, "run-1", 3, pipeline.Summary{Epithets: 2, Words: 5, Skipped: 1, Found: 3, Absent: 1, CacheHits: 4, Requests: 7})

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "2 / 3")
	assert.Contains(t, out, "HTTP requests")
	assert.Contains(t, out, "Cache hits")
}

func TestVersionAndConfigInit(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	defer viper.Reset()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "etymologia v"+model.Version+"\n", out.String())

	rootCmd.SetArgs([]string{"config", "init"})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(filepath.Join(home, ".etymologia", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "requests_per_second: 2")
	assert.Contains(t, string(data), "timeout: 10s")

	rootCmd.SetArgs([]string{"config", "init"})
	err = rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func discardLogger() *slog.Logger {
	return logging.NewWithWriter(model.LogConfig{Level: "error", Format: "text"}, io.Discard)
}
