package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Planner   PlannerConfig   `yaml:"planner"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// PlannerConfig configures the generation pipeline.
type PlannerConfig struct {
	Model             string `yaml:"model"`
	ProgramStartMonth string `yaml:"program_start_month"` // YYYY-MM, defaults to the first of next month
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8081,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		DB: DBConfig{
			Path: "progen.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Planner: PlannerConfig{
			Model: "gemini-2.5-flash",
		},
	}

	if path := os.Getenv("PROGEN_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("PROGEN_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("PROGEN_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PROGEN_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("PROGEN_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if auth := os.Getenv("PROGEN_AUTH_ENABLED"); auth != "" {
		enabled, err := strconv.ParseBool(auth)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PROGEN_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}
	if token := os.Getenv("PROGEN_AUTH_TOKEN"); token != "" {
		cfg.Auth.Token = token
	}
	if dbPath := os.Getenv("PROGEN_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("PROGEN_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if model := os.Getenv("PROGEN_PLANNER_MODEL"); model != "" {
		cfg.Planner.Model = model
	}
	if start := os.Getenv("PROGEN_PROGRAM_START_MONTH"); start != "" {
		cfg.Planner.ProgramStartMonth = start
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
