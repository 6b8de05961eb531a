// Package config loads the optional cliptrack.toml configuration file.
//
// Every field has a default, so a missing file is not an error. Command-line
// flags override file values; that merge happens in the cli package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/cliptrack/internal/engine"
)

// DefaultPath is the file looked up when --config is not given.
const DefaultPath = "cliptrack.toml"

// Config is the decoded configuration file.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Player PlayerConfig `toml:"player"`
	Store  StoreConfig  `toml:"store"`
	Log    LogConfig    `toml:"log"`
}

// EngineConfig tunes substepping.
type EngineConfig struct {
	MaxStep     float64 `toml:"max_step"`
	MaxSubsteps int     `toml:"max_substeps"`
}

// PlayerConfig drives the play and preview commands.
type PlayerConfig struct {
	// Tick is the real-time update interval.
	Tick Duration `toml:"tick"`

	// FixedDelta is the per-update delta of a fixed-step simulation.
	FixedDelta float64 `toml:"fixed_delta"`

	// Owner is handed to notification handlers.
	Owner string `toml:"owner"`
}

// StoreConfig selects session recording.
type StoreConfig struct {
	// Path of the SQLite database. Empty disables recording.
	Path          string `toml:"path"`
	RecordUpdates bool   `toml:"record_updates"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration written as a Go duration string ("16ms").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxStep:     engine.DefaultMaxStep,
			MaxSubsteps: 0,
		},
		Player: PlayerConfig{
			Tick:       Duration(16 * time.Millisecond),
			FixedDelta: 1.0 / 60.0,
			Owner:      "player",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults; unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file; using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode decodes TOML into cfg, keeping fields the document does not set,
// and validates the result.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return err
	}
	return cfg.Validate()
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if !(c.Engine.MaxStep > 0) {
		return fmt.Errorf("engine.max_step must be positive, got %v", c.Engine.MaxStep)
	}
	if c.Engine.MaxSubsteps < 0 {
		return fmt.Errorf("engine.max_substeps must be >= 0, got %d", c.Engine.MaxSubsteps)
	}
	if c.Player.Tick <= 0 {
		return fmt.Errorf("player.tick must be positive, got %s", time.Duration(c.Player.Tick))
	}
	if !(c.Player.FixedDelta > 0) {
		return fmt.Errorf("player.fixed_delta must be positive, got %v", c.Player.FixedDelta)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level must be debug, info, warn or error, got %q", name)
}

// EngineOptions converts the engine section to engine options.
func (c *Config) EngineOptions() []engine.EngineOption {
	return []engine.EngineOption{
		engine.WithMaxStep(c.Engine.MaxStep),
		engine.WithMaxSubsteps(c.Engine.MaxSubsteps),
	}
}

// Encode renders cfg as TOML.
func Encode(cfg *Config) ([]byte, error) {
	return toml.Marshal(cfg)
}
