package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration loaded from YAML. Database
// settings come from DB_* environment variables instead, via dbconfig.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Store struct {
		// Backend is "memory" or "postgres".
		Backend string `yaml:"backend"`
	} `yaml:"store"`

	Seeds struct {
		Dir string `yaml:"dir"`
	} `yaml:"seeds"`

	Notify struct {
		WebhookURLs []string `yaml:"webhook_urls"`
		NATS        struct {
			Enabled       bool   `yaml:"enabled"`
			URL           string `yaml:"url"`
			Stream        string `yaml:"stream"`
			SubjectPrefix string `yaml:"subject_prefix"`
		} `yaml:"nats"`
	} `yaml:"notify"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Server.Port == "" {
		config.Server.Port = getEnv("PORT", "8080")
	}
	if config.Store.Backend == "" {
		config.Store.Backend = "memory"
	}
	if config.Seeds.Dir == "" {
		config.Seeds.Dir = "seeds"
	}

	return &config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
