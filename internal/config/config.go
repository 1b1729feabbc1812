package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Bank struct {
		TTL string `yaml:"ttl"`
		Dir string `yaml:"dir"`
	} `yaml:"bank"`
	Simulation struct {
		Bank         string `yaml:"bank"`
		Participants int    `yaml:"participants"`
		Rounds       int    `yaml:"rounds"`
		Seed         int64  `yaml:"seed"`
		Selection    string `yaml:"selection"`
		IDFormat     string `yaml:"id_format"`
	} `yaml:"simulation"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Simulation.Bank = "sample"
	cfg.Simulation.Participants = 10
	cfg.Simulation.Rounds = 4
	cfg.Simulation.Selection = "independent"
	cfg.Simulation.IDFormat = "short"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}

// Load reads YAML config from path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOptional behaves like Load but treats a missing file as "use defaults".
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
