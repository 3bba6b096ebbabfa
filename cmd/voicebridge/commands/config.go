package commands

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the serve configuration, loaded from a YAML file. Secrets may
// be given inline or through the environment variables noted per field.
type Config struct {
	// Listen is the HTTP listen address for webhooks and media streams.
	Listen string `yaml:"listen"`

	// PublicHost is the externally reachable host the answer webhook
	// points media streams at, e.g. "bridge.example.com".
	PublicHost string `yaml:"public_host"`

	OpenAI  OpenAIConfig  `yaml:"openai"`
	Domain  DomainConfig  `yaml:"domain"`
	Data    DataConfig    `yaml:"data"`
	Archive ArchiveConfig `yaml:"archive"`

	// PersonaFile overrides the built-in persona templates.
	PersonaFile string `yaml:"persona_file"`
}

type OpenAIConfig struct {
	// APIKey falls back to $OPENAI_API_KEY when empty.
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	Voice  string `yaml:"voice"`
}

type DomainConfig struct {
	BaseURL string `yaml:"base_url"`
	// Token falls back to $DOMAIN_API_TOKEN when empty.
	Token string `yaml:"token"`
}

type DataConfig struct {
	// Dir is the call record database directory.
	Dir string `yaml:"dir"`
}

type ArchiveConfig struct {
	// Backend is "local", "s3", or "" to disable archiving.
	Backend string `yaml:"backend"`

	// Dir is the root directory for the local backend.
	Dir string `yaml:"dir"`

	// S3 backend settings. Credentials come from the standard AWS
	// environment variables.
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{
		Listen: ":8080",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Domain.Token == "" {
		cfg.Domain.Token = os.Getenv("DOMAIN_API_TOKEN")
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data/calls"
	}
	return cfg, nil
}
