// Package config loads moto's TOML configuration.
//
// Settings come from three layers, later ones winning: [Default], the
// config file, then environment variables (GEMINI_API_KEY or API_KEY,
// MOTO_STORE_DSN, MOTO_REDIS_ADDR, MOTO_ADDR).
//
// A minimal file:
//
//	[store]
//	dsn = "sqlite:///home/ada/.local/share/moto/moto.db"
//
//	[audit]
//	model = "gemini-3-flash-preview"
//	timeout = "20s"
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/moto/pkg/audit"
	"github.com/matzehuels/moto/pkg/controller"
	"github.com/matzehuels/moto/pkg/layout"
	"github.com/matzehuels/moto/pkg/particle"
	"github.com/matzehuels/moto/pkg/session"
	"github.com/matzehuels/moto/pkg/stream"
)

const appName = "moto"

// Duration is a time.Duration written as a string like "250ms" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full configuration.
type Config struct {
	Stream    StreamConfig    `toml:"stream"`
	Deck      DeckConfig      `toml:"deck"`
	Particles ParticlesConfig `toml:"particles"`
	Store     StoreConfig     `toml:"store"`
	Redis     RedisConfig     `toml:"redis"`
	Audit     AuditConfig     `toml:"audit"`
	Server    ServerConfig    `toml:"server"`
}

// StreamConfig tunes the card stream physics and scanner.
type StreamConfig struct {
	Friction        float64  `toml:"friction"`
	MinVelocity     float64  `toml:"min_velocity"`
	DefaultVelocity float64  `toml:"default_velocity"`
	ScannerWidth    float64  `toml:"scanner_width"`
	PulseDuration   Duration `toml:"pulse_duration"`
	FrameInterval   Duration `toml:"frame_interval"`
}

// DeckConfig sizes the cards and their glitch rate.
type DeckConfig struct {
	Count            int      `toml:"count"`
	CardWidth        float64  `toml:"card_width"`
	CardHeight       float64  `toml:"card_height"`
	CardGap          float64  `toml:"card_gap"`
	RegenInterval    Duration `toml:"regen_interval"`
	RegenProbability float64  `toml:"regen_probability"`
}

// ParticlesConfig tunes the particle field.
type ParticlesConfig struct {
	Enabled  bool     `toml:"enabled"`
	Count    int      `toml:"count"`
	Interval Duration `toml:"interval"`
}

// StoreConfig selects the record store; see records.Open for DSN forms.
type StoreConfig struct {
	DSN string `toml:"dsn"`
}

// RedisConfig enables Redis-backed sessions and caching when Addr is set.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// AuditConfig configures the AI audit.
type AuditConfig struct {
	APIKey     string   `toml:"api_key"`
	Model      string   `toml:"model"`
	RatePerMin float64  `toml:"rate_per_min"`
	Timeout    Duration `toml:"timeout"`
	CacheTTL   Duration `toml:"cache_ttl"`
}

// ServerConfig configures `moto serve`.
type ServerConfig struct {
	Addr       string   `toml:"addr"`
	SessionTTL Duration `toml:"session_ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	ctl := controller.DefaultConfig()
	geo := layout.Default(0)
	return &Config{
		Stream: StreamConfig{
			Friction:        ctl.Stream.Friction,
			MinVelocity:     ctl.Stream.MinVelocity,
			DefaultVelocity: ctl.Stream.DefaultVelocity,
			ScannerWidth:    ctl.ScannerWidth,
			PulseDuration:   Duration{ctl.PulseDuration},
			FrameInterval:   Duration{ctl.FrameInterval},
		},
		Deck: DeckConfig{
			Count:            geo.SlotCount,
			CardWidth:        geo.CardWidth,
			CardHeight:       geo.CardHeight,
			CardGap:          geo.CardGap,
			RegenInterval:    Duration{ctl.RegenInterval},
			RegenProbability: ctl.RegenProbability,
		},
		Particles: ParticlesConfig{
			Enabled:  true,
			Count:    particle.DefaultCount,
			Interval: Duration{33 * time.Millisecond},
		},
		Audit: AuditConfig{
			Model:      audit.DefaultModel,
			RatePerMin: audit.DefaultRatePerMin,
			Timeout:    Duration{audit.DefaultTimeout},
			CacheTTL:   Duration{audit.DefaultCacheTTL},
		},
		Server: ServerConfig{
			Addr:       ":8080",
			SessionTTL: Duration{session.DefaultTTL},
		},
	}
}

// Dir returns the config directory, $XDG_CONFIG_HOME/moto or
// ~/.config/moto.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the config file path inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error. An empty path selects DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as TOML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("API_KEY"); key != "" {
		c.Audit.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Audit.APIKey = key
	}
	if dsn := os.Getenv("MOTO_STORE_DSN"); dsn != "" {
		c.Store.DSN = dsn
	}
	if addr := os.Getenv("MOTO_REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if addr := os.Getenv("MOTO_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if err := c.StreamConfig().Validate(); err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	if c.Deck.Count <= 0 {
		return fmt.Errorf("deck: count must be positive, got %d", c.Deck.Count)
	}
	if c.Deck.CardWidth <= 0 || c.Deck.CardHeight <= 0 {
		return fmt.Errorf("deck: card size must be positive, got %vx%v", c.Deck.CardWidth, c.Deck.CardHeight)
	}
	if c.Deck.CardGap < 0 {
		return fmt.Errorf("deck: card gap must be non-negative, got %v", c.Deck.CardGap)
	}
	if c.Particles.Enabled && c.Particles.Count <= 0 {
		return fmt.Errorf("particles: count must be positive, got %d", c.Particles.Count)
	}
	if c.Audit.Timeout.Duration <= 0 {
		return fmt.Errorf("audit: timeout must be positive")
	}
	return c.Controller().Validate()
}

// StreamConfig returns the physics tuning.
func (c *Config) StreamConfig() stream.Config {
	return stream.Config{
		Friction:        c.Stream.Friction,
		MinVelocity:     c.Stream.MinVelocity,
		DefaultVelocity: c.Stream.DefaultVelocity,
	}
}

// Controller returns the controller tuning.
func (c *Config) Controller() controller.Config {
	return controller.Config{
		Stream:           c.StreamConfig(),
		ScannerWidth:     c.Stream.ScannerWidth,
		PulseDuration:    c.Stream.PulseDuration.Duration,
		FrameInterval:    c.Stream.FrameInterval.Duration,
		RegenInterval:    c.Deck.RegenInterval.Duration,
		RegenProbability: c.Deck.RegenProbability,
	}
}

// Geometry returns the card geometry for a container of the given width.
func (c *Config) Geometry(containerWidth float64) layout.Geometry {
	return layout.Geometry{
		ContainerWidth: containerWidth,
		CardWidth:      c.Deck.CardWidth,
		CardHeight:     c.Deck.CardHeight,
		CardGap:        c.Deck.CardGap,
		SlotCount:      c.Deck.Count,
	}
}

// Particle returns the particle field tuning.
func (c *Config) Particle() particle.Config {
	pc := particle.DefaultConfig()
	pc.Count = c.Particles.Count
	pc.Height = c.Deck.CardHeight
	return pc
}

// Consultant returns audit consultant options without cache, keyer or
// logger, which the caller wires.
func (c *Config) Consultant() audit.ConsultantOptions {
	return audit.ConsultantOptions{
		Model:      c.Audit.Model,
		RatePerMin: c.Audit.RatePerMin,
		Timeout:    c.Audit.Timeout.Duration,
		CacheTTL:   c.Audit.CacheTTL.Duration,
	}
}
