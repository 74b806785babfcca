// Package config loads flowstory settings from defaults, a YAML file,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default file locations.
const (
	DefaultFile    = "flowstory.yaml"
	DefaultEnvFile = ".env"
)

// Graph sources.
const (
	SourceFile  = "file"
	SourceFigma = "figma"
)

// Config holds all settings of the CLI and servers.
type Config struct {
	LogLevel  string       `yaml:"log_level"`
	MaxFrames int          `yaml:"max_frames"`
	LinkHost  string       `yaml:"link_host"`
	Graph     GraphConfig  `yaml:"graph"`
	OpenAI    OpenAIConfig `yaml:"openai"`
	Server    ServerConfig `yaml:"server"`
	Redis     RedisConfig  `yaml:"redis"`
}

// GraphConfig selects where scene nodes come from.
type GraphConfig struct {
	Source  string `yaml:"source"`
	File    string `yaml:"file"`
	FileKey string `yaml:"file_key"`
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type RedisConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		MaxFrames: 10,
		LinkHost:  "www.figma.com",
		Graph: GraphConfig{
			Source:  SourceFile,
			BaseURL: "https://api.figma.com",
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o",
			Timeout: 2 * time.Minute,
		},
		Server: ServerConfig{Addr: ":8080"},
		Redis:  RedisConfig{Prefix: "flowstory:"},
	}
}

// Load reads path (a missing file is not an error), then envFile, then the environment.
// Variables already set in the environment take precedence over envFile.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("FLOWSTORY_LOG_LEVEL", c.LogLevel)
	c.MaxFrames = getEnvAsInt("FLOWSTORY_MAX_FRAMES", c.MaxFrames)
	c.LinkHost = getEnv("FLOWSTORY_LINK_HOST", c.LinkHost)

	c.Graph.Source = getEnv("FLOWSTORY_GRAPH_SOURCE", c.Graph.Source)
	c.Graph.File = getEnv("FLOWSTORY_GRAPH_FILE", c.Graph.File)
	c.Graph.FileKey = getEnv("FIGMA_FILE_KEY", c.Graph.FileKey)
	c.Graph.Token = getEnv("FIGMA_TOKEN", c.Graph.Token)
	c.Graph.BaseURL = getEnv("FIGMA_API_URL", c.Graph.BaseURL)

	c.OpenAI.APIKey = getEnv("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", c.OpenAI.BaseURL)
	c.OpenAI.Model = getEnv("OPENAI_MODEL", c.OpenAI.Model)
	c.OpenAI.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.OpenAI.Timeout)

	c.Server.Addr = getEnv("FLOWSTORY_ADDR", c.Server.Addr)
	c.Redis.Addr = getEnv("FLOWSTORY_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Prefix = getEnv("FLOWSTORY_REDIS_PREFIX", c.Redis.Prefix)
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	if c.MaxFrames <= 0 {
		return fmt.Errorf("max_frames must be positive")
	}
	switch c.Graph.Source {
	case SourceFile:
	case SourceFigma:
		if c.Graph.FileKey == "" {
			return fmt.Errorf("FIGMA_FILE_KEY is required for the figma source")
		}
		if c.Graph.Token == "" {
			return fmt.Errorf("FIGMA_TOKEN is required for the figma source")
		}
	default:
		return fmt.Errorf("unknown graph source %q", c.Graph.Source)
	}
	if c.OpenAI.Timeout <= 0 {
		return fmt.Errorf("openai timeout must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
