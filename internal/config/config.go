// Package config loads the envtex settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is read when no path is given.
const DefaultPath = "envtex.toml"

// Config holds every tunable used by the commands.
type Config struct {
	Sky     Sky     `toml:"sky"`
	GPU     GPU     `toml:"gpu"`
	Output  Output  `toml:"output"`
	Logging Logging `toml:"logging"`
}

type Sky struct {
	Size        uint32     `toml:"size"`
	Sun         [3]float32 `toml:"sun"`
	Steps       int32      `toml:"steps"`
	StartRadius float32    `toml:"start_radius"`
	EndRadius   float32    `toml:"end_radius"`
}

type GPU struct {
	// DisableHalfFloat forces single-level textures.
	DisableHalfFloat bool   `toml:"disable_half_float"`
	ShaderDir        string `toml:"shader_dir"`
}

type Output struct {
	Dir      string  `toml:"dir"`
	Workers  int     `toml:"workers"`
	Exposure float32 `toml:"exposure"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in settings: a 256 texel sky lit from
// normalize(100, 20, 100).
func Default() Config {
	return Config{
		Sky: Sky{
			Size:        256,
			Sun:         [3]float32{100, 20, 100},
			Steps:       100,
			StartRadius: 6500000,
			EndRadius:   7000000,
		},
		Output: Output{
			Dir:      "out",
			Workers:  6,
			Exposure: 1,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. A missing file at DefaultPath is not an
// error; a missing explicit path is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the generator cannot use.
func (c Config) Validate() error {
	if c.Sky.Size == 0 || c.Sky.Size%8 != 0 {
		return fmt.Errorf("config: sky.size must be a positive multiple of 8, got %d", c.Sky.Size)
	}
	if c.Sky.Steps <= 0 {
		return fmt.Errorf("config: sky.steps must be positive, got %d", c.Sky.Steps)
	}
	if c.Sky.EndRadius <= c.Sky.StartRadius {
		return fmt.Errorf("config: sky.end_radius %v must exceed start_radius %v", c.Sky.EndRadius, c.Sky.StartRadius)
	}
	if c.Sky.Sun == [3]float32{} {
		return errors.New("config: sky.sun must be non-zero")
	}
	if c.Output.Workers <= 0 {
		return fmt.Errorf("config: output.workers must be positive, got %d", c.Output.Workers)
	}
	return nil
}

// Save writes c as TOML.
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
