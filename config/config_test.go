package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func noEnvFile(t *testing.T) Option {
	return WithEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yaml", ""), noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "caelum.yaml", `
threshold: 0.75
safe_mode: true
data_dir: /var/lib/caelum
macros: macros.yaml
history:
  enabled: false
cache:
  ttl: 30s
server:
  addr: 127.0.0.1:8080
  rate: 2.5
  burst: 4
log:
  level: debug
`)

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, 0.75, cfg.Threshold)
	assert.True(t, cfg.SafeMode)
	assert.Equal(t, "/var/lib/caelum", cfg.DataDir)
	assert.Equal(t, "macros.yaml", cfg.Macros)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "history.db", cfg.History.File)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 2.5, cfg.Server.Rate)
	assert.Equal(t, 4, cfg.Server.Burst)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "caelum.yaml", "threshold: 0.75\n")
	t.Setenv("CAELUM_THRESHOLD", "0.9")
	t.Setenv("CAELUM_SERVER_ADDR", ":7070")

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Threshold)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoad_EnvFile(t *testing.T) {
	env := writeFile(t, "test.env", "CAELUM_SAFE_MODE=true\n")
	t.Cleanup(func() { os.Unsetenv("CAELUM_SAFE_MODE") })

	cfg, err := Load(writeFile(t, "empty.yaml", ""), WithEnvFile(env))
	require.NoError(t, err)
	assert.True(t, cfg.SafeMode)
}

func TestLoad_ExplicitViper(t *testing.T) {
	v := New()
	v.Set("threshold", 0.3)

	cfg, err := Load(writeFile(t, "empty.yaml", ""), WithViper(v), noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Threshold)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"threshold zero", "threshold: 0\n", "threshold"},
		{"threshold above one", "threshold: 1.5\n", "threshold"},
		{"negative rate", "server:\n  rate: -1\n", "server.rate"},
		{"zero burst", "server:\n  burst: 0\n", "server.burst"},
		{"bad level", "log:\n  level: shouting\n", "log.level"},
		{"negative ttl", "cache:\n  ttl: -1m\n", "cache.ttl"},
		{"bad yaml", "threshold: [\n", "reading config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "caelum.yaml", tt.content), noEnvFile(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnvFile(t))
	require.Error(t, err)
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Threshold = 2
	cfg.Server.Burst = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold")
	assert.Contains(t, err.Error(), "server.burst")
	assert.NoError(t, Defaults().Validate())
}
