package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Storage struct {
		Driver    string `yaml:"driver"` // file, memory, redis, postgres, sqlite
		Path      string `yaml:"path"`   // directory for the file driver
		DSN       string `yaml:"dsn"`
		RedisAddr string `yaml:"redis_addr"`
		Key       string `yaml:"key"`
	} `yaml:"storage"`
	Assistant struct {
		Provider    string        `yaml:"provider"` // gemini, openai
		Model       string        `yaml:"model"`
		Temperature float64       `yaml:"temperature"`
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"assistant"`
	Chat struct {
		RateLimit float64 `yaml:"rate_limit"` // submissions per second, 0 disables
		Burst     int     `yaml:"burst"`
	} `yaml:"chat"`
	Urgency struct {
		NominalTermDays int `yaml:"nominal_term_days"`
	} `yaml:"urgency"`
	Notify struct {
		Brokers          []string      `yaml:"brokers"`
		Topic            string        `yaml:"topic"`
		ReminderInterval time.Duration `yaml:"reminder_interval"`
	} `yaml:"notify"`
	Tracing struct {
		Endpoint    string `yaml:"endpoint"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"tracing"`
}

// Default returns a configuration that runs locally with no file and no credentials.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Log.Level = "info"
	c.Storage.Driver = "file"
	c.Storage.Path = "data"
	c.Storage.Key = "policies"
	c.Assistant.Provider = "gemini"
	c.Assistant.Model = "gemini-3-pro-preview"
	c.Assistant.Temperature = 0.5
	c.Assistant.Timeout = 60 * time.Second
	c.Chat.RateLimit = 1
	c.Chat.Burst = 3
	c.Urgency.NominalTermDays = 365
	c.Notify.Topic = "policy-events"
	c.Notify.ReminderInterval = time.Hour
	c.Tracing.ServiceName = "policy-assistant"
	return &c
}

// Load reads the optional YAML file at path, then .env, then environment overrides.
// An empty path or a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// .env is optional, system env wins over it
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("API_KEY"); v != "" {
		c.Assistant.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Notify.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Tracing.Endpoint = v
	}
	return nil
}

// Validate checks ranges and closed sets.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	switch c.Storage.Driver {
	case "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the file driver")
		}
	case "memory":
	case "redis":
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required for the redis driver")
		}
	case "postgres", "sqlite":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the %s driver", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}
	switch c.Assistant.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported assistant provider: %s", c.Assistant.Provider)
	}
	if c.Assistant.Model == "" {
		return fmt.Errorf("assistant.model is required")
	}
	if c.Assistant.Temperature < 0 || c.Assistant.Temperature > 2 {
		return fmt.Errorf("assistant.temperature must be between 0 and 2")
	}
	if c.Urgency.NominalTermDays <= 0 {
		return fmt.Errorf("urgency.nominal_term_days must be positive")
	}
	if c.Chat.RateLimit < 0 {
		return fmt.Errorf("chat.rate_limit must not be negative")
	}
	if c.Chat.RateLimit > 0 && c.Chat.Burst < 1 {
		return fmt.Errorf("chat.burst must be at least 1 when chat.rate_limit is set")
	}
	return nil
}
