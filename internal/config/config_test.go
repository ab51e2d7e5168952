package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at temp dirs so no real
// config or .env leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, home, cfg.SandboxRoot)
	require.Equal(t, "yt-dlp", cfg.ToolDir)
	require.Equal(t, time.Hour, cfg.Timeout)
	require.Equal(t, int64(10<<20), cfg.MaxOutputBytes)
	require.Equal(t, 3, cfg.Retry.MaxAttempts)
	require.Equal(t, 5*time.Second, cfg.Retry.InitialDelay)
	require.Equal(t, 2.0, cfg.Retry.Multiplier)
	require.Equal(t, "json", cfg.History.Backend)
	require.Equal(t, filepath.Join(home, ".yt-dlp-downloads.json"), cfg.History.Path)
	require.Equal(t, "best", cfg.Defaults.Quality)
	require.Equal(t, "chrome", cfg.Defaults.CookieSource)
	require.Equal(t, "mp3", cfg.Defaults.AudioFormat)
}

func TestLoad_EnvOverrides(t *testing.T) {
	home := isolate(t)
	t.Setenv("BINGO_TIMEOUT", "90s")
	t.Setenv("BINGO_HISTORY_BACKEND", "sqlite")
	t.Setenv("BINGO_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("BINGO_HTTP_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.Timeout)
	require.Equal(t, "sqlite", cfg.History.Backend)
	require.Equal(t, filepath.Join(home, ".yt-dlp-history.db"), cfg.History.Path)
	require.Equal(t, 5, cfg.Retry.MaxAttempts)
	require.Equal(t, "secret", cfg.HTTP.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("BINGO_DEFAULTS_QUALITY=720\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("BINGO_DEFAULTS_QUALITY") })

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "720", cfg.Defaults.Quality)
}

func TestLoad_ConfigFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(t.TempDir(), "bingo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tool_dir: media
timeout: 0s
history:
  path: ~/h.json
http:
  addr: 0.0.0.0:9000
  rate_limit: 2.5
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "media", cfg.ToolDir)
	require.Zero(t, cfg.Timeout)
	require.Equal(t, filepath.Join(home, "h.json"), cfg.History.Path)
	require.Equal(t, "0.0.0.0:9000", cfg.HTTP.Addr)
	require.Equal(t, 2.5, cfg.HTTP.RateLimit)
}

func TestLoad_DefaultConfigFileIsOptional(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "bingo")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("tool_dir: clips\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "clips", cfg.ToolDir)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := map[string]string{
		"BINGO_HISTORY_BACKEND":       "postgres",
		"BINGO_RETRY_MAX_ATTEMPTS":    "0",
		"BINGO_DEFAULTS_AUDIO_FORMAT": "exe",
		"BINGO_TOOL_DIR":              "../escape",
		"BINGO_HTTP_ADDR":             "not an address",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			isolate(t)
			t.Setenv(key, value)
			cfg, err := Load("")
			require.Error(t, err)
			require.Nil(t, cfg)
		})
	}
}

func TestLoader_BindFlag(t *testing.T) {
	isolate(t)
	t.Setenv("BINGO_DEBUG", "false")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("debug", false, "")
	fs.Duration("timeout", 0, "")
	require.NoError(t, fs.Parse([]string{"--debug", "--timeout=2m"}))

	l := NewLoader()
	require.NoError(t, l.BindFlag("debug", fs.Lookup("debug")))
	require.NoError(t, l.BindFlag("timeout", fs.Lookup("timeout")))
	require.Error(t, l.BindFlag("missing", fs.Lookup("missing")))

	cfg, err := l.Load("")
	require.NoError(t, err)
	require.True(t, cfg.Debug)
	require.Equal(t, 2*time.Minute, cfg.Timeout)
}
