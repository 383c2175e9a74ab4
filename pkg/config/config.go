// Package config loads trimesh settings from TOML.
// Every field has a usable default, so an empty document is a valid config.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Default values.
const (
	DefaultLogLevel  = "info"
	DefaultMeshCells = 200
	DefaultTimeout   = 5 * time.Second
)

// Duration is a time.Duration that decodes from strings like "750ms".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LogConfig controls the shared logger.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Caller bool   `toml:"caller"` // report file:line of the call site
}

// KernelConfig controls solid tessellation.
type KernelConfig struct {
	MeshCells int  `toml:"mesh_cells"` // marching cubes cells along the longest axis
	Weld      bool `toml:"weld"`       // share identical positions between triangles
}

// EngineConfig controls script evaluation.
type EngineConfig struct {
	Timeout Duration `toml:"timeout"`
}

// Config is the top-level document.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Kernel KernelConfig `toml:"kernel"`
	Engine EngineConfig `toml:"engine"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Kernel: KernelConfig{
			MeshCells: DefaultMeshCells,
			Weld:      true,
		},
		Engine: EngineConfig{
			Timeout: Duration(DefaultTimeout),
		},
	}
}

// Load decodes a TOML document on top of Default. Unknown keys are rejected.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads and decodes the TOML file at path.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q, expected debug, info, warn or error", ErrInvalidConfig, c.Log.Level)
	}
	if c.Kernel.MeshCells < 8 {
		return fmt.Errorf("%w: kernel.mesh_cells must be at least 8, got %d", ErrInvalidConfig, c.Kernel.MeshCells)
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("%w: engine.timeout must be positive, got %s", ErrInvalidConfig, c.Engine.Timeout.Std())
	}
	return nil
}
