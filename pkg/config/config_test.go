package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/moto/pkg/controller"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"API_KEY", "GEMINI_API_KEY", "MOTO_STORE_DSN", "MOTO_REDIS_ADDR", "MOTO_ADDR"} {
		t.Setenv(k, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, controller.DefaultConfig(), cfg.Controller())
	assert.Equal(t, 20, cfg.Geometry(800).SlotCount)
	assert.Equal(t, 800.0, cfg.Geometry(800).ContainerWidth)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[stream]
friction = 0.9
frame_interval = "33ms"

[store]
dsn = "sqlite://:memory:"

[audit]
model = "gemini-pro"
timeout = "5s"
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Stream.Friction)
	assert.Equal(t, 33*time.Millisecond, cfg.Stream.FrameInterval.Duration)
	assert.Equal(t, "sqlite://:memory:", cfg.Store.DSN)
	assert.Equal(t, "gemini-pro", cfg.Audit.Model)
	assert.Equal(t, 5*time.Second, cfg.Consultant().Timeout)
	assert.Equal(t, Default().Deck, cfg.Deck, "unset sections keep defaults")
}

func TestLoadRejectsBadInput(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("[stream]\nfrixion = 0.5\n"), 0600))
	_, err := Load(unknown)
	assert.ErrorContains(t, err, "stream.frixion")

	badDur := filepath.Join(dir, "dur.toml")
	require.NoError(t, os.WriteFile(badDur, []byte("[audit]\ntimeout = \"soon\"\n"), 0600))
	_, err = Load(badDur)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "fallback")
	t.Setenv("MOTO_STORE_DSN", "postgres://db/moto")
	t.Setenv("MOTO_REDIS_ADDR", "redis:6379")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, "fallback", cfg.Audit.APIKey)
	assert.Equal(t, "postgres://db/moto", cfg.Store.DSN)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)

	t.Setenv("GEMINI_API_KEY", "gemini")
	cfg, err = Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Audit.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"friction one", func(c *Config) { c.Stream.Friction = 1 }},
		{"friction zero", func(c *Config) { c.Stream.Friction = 0 }},
		{"no cards", func(c *Config) { c.Deck.Count = 0 }},
		{"flat cards", func(c *Config) { c.Deck.CardHeight = 0 }},
		{"negative gap", func(c *Config) { c.Deck.CardGap = -1 }},
		{"no particles", func(c *Config) { c.Particles.Count = 0 }},
		{"scanner", func(c *Config) { c.Stream.ScannerWidth = 0 }},
		{"probability", func(c *Config) { c.Deck.RegenProbability = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Particles.Enabled = false
	cfg.Particles.Count = 0
	assert.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Store.DSN = "sqlite://moto.db"
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", appName), dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", appName, "config.toml"), path)
}
