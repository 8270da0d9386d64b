package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"spinlock/common/file"
	"spinlock/common/logger"
)

type LogConfig struct {
	Level      string `json:"level" yaml:"level" toml:"level"`
	File       string `json:"file" yaml:"file" toml:"file"`
	Color      bool   `json:"color" yaml:"color" toml:"color"`
	MaxSize    int    `json:"max_size" yaml:"max_size" toml:"max_size"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" toml:"max_backups"`
	MaxAge     int    `json:"max_age" yaml:"max_age" toml:"max_age"`
}

type StressConfig struct {
	Workers    int      `json:"workers" yaml:"workers" toml:"workers"`
	Iterations int      `json:"iterations" yaml:"iterations" toml:"iterations"`
	Hold       Duration `json:"hold" yaml:"hold" toml:"hold"`
	Observer   string   `json:"observer" yaml:"observer" toml:"observer"`
	Report     string   `json:"report" yaml:"report" toml:"report"`
}

type Config struct {
	Log    LogConfig    `json:"log" yaml:"log" toml:"log"`
	Stress StressConfig `json:"stress" yaml:"stress" toml:"stress"`
}

var observerNames = map[string]bool{"none": true, "log": true, "count": true}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Color:      true,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Stress: StressConfig{
			Workers:    2,
			Iterations: 100000,
			Hold:       defaultHold,
			Observer:   "none",
		},
	}
}

// Load reads path on top of Default. The format follows the extension:
// .json, .yaml/.yml or .toml.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(content, cfg)
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(content, cfg)
	case ".toml":
		_, err = toml.Decode(string(content), cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as indented JSON and syncs it to disk.
func (cfg *Config) Save(path string) error {
	d, err := json.MarshalIndent(cfg, "", "\t")
	if err != nil {
		return err
	}

	return file.WriteFileWithSync(path, d)
}

// Validate reports every invalid field at once.
func (cfg *Config) Validate() error {
	var err error
	if _, e := logger.ParseLevel(cfg.Log.Level); e != nil {
		err = multierr.Append(err, e)
	}
	if cfg.Log.MaxSize < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAge < 0 {
		err = multierr.Append(err, errors.New("log rotation settings must not be negative"))
	}
	if cfg.Stress.Workers <= 0 {
		err = multierr.Append(err, fmt.Errorf("stress.workers must be positive, got %d", cfg.Stress.Workers))
	}
	if cfg.Stress.Iterations <= 0 {
		err = multierr.Append(err, fmt.Errorf("stress.iterations must be positive, got %d", cfg.Stress.Iterations))
	}
	if cfg.Stress.Hold < 0 {
		err = multierr.Append(err, errors.New("stress.hold must not be negative"))
	}
	if !observerNames[cfg.Stress.Observer] {
		err = multierr.Append(err, fmt.Errorf("unknown observer %q", cfg.Stress.Observer))
	}
	return err
}

// LoggerOptions converts the log section for logger.InitLogger. The level is
// assumed to have passed Validate.
func (cfg *Config) LoggerOptions() logger.Options {
	level, _ := logger.ParseLevel(cfg.Log.Level)
	return logger.Options{
		Level:        level,
		File:         cfg.Log.File,
		SupportColor: cfg.Log.Color,
		MaxSize:      cfg.Log.MaxSize,
		MaxBackups:   cfg.Log.MaxBackups,
		MaxAge:       cfg.Log.MaxAge,
	}
}
