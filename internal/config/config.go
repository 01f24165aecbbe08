package config

import (
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
	Exam struct {
		CacheTTL string `yaml:"cache_ttl"`
		// UniqueResults makes the store reject a second result for the same student and exam.
		UniqueResults bool `yaml:"unique_results"`
	} `yaml:"exam"`
	Invitations struct {
		Cron      string `yaml:"cron"`
		Window    string `yaml:"window"`
		RabbitURL string `yaml:"rabbit_url"`
		Queue     string `yaml:"queue"`
	} `yaml:"invitations"`
}

// Load reads YAML config from path. Environment variables in the file are expanded.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
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
