package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSpeedMS  = 200
	DefaultCaret    = "|"
	DefaultRenderer = "terminal"
	DefaultLogLevel = "info"
	DefaultDataDir  = ".typewriter"
)

var renderers = map[string]bool{"terminal": true, "html": true, "plain": true}

type Config struct {
	SpeedMS   int       `yaml:"speed_ms"`
	Caret     string    `yaml:"caret"`
	Renderer  string    `yaml:"renderer"`
	Seed      int64     `yaml:"seed"`
	MaxCycles int       `yaml:"max_cycles"`
	DataDir   string    `yaml:"data_dir"`
	Log       LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		SpeedMS:  DefaultSpeedMS,
		Caret:    DefaultCaret,
		Renderer: DefaultRenderer,
		DataDir:  DefaultDataDir,
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	var err error
	if c.SpeedMS < 0 {
		err = errors.Join(err, fmt.Errorf("speed_ms must not be negative, got %d", c.SpeedMS))
	}
	if !renderers[c.Renderer] {
		err = errors.Join(err, fmt.Errorf("unknown renderer: %s", c.Renderer))
	}
	if c.MaxCycles < 0 {
		err = errors.Join(err, fmt.Errorf("max_cycles must not be negative, got %d", c.MaxCycles))
	}
	return err
}

func (c *Config) Speed() time.Duration {
	return time.Duration(c.SpeedMS) * time.Millisecond
}

// ApplyPreset copies the preset's speed and caret over c.
func (c *Config) ApplyPreset(name string) error {
	p := GetPreset(name)
	if p == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, ListPresets())
	}
	c.SpeedMS = p.SpeedMS
	if p.Caret != "" {
		c.Caret = p.Caret
	}
	return nil
}
