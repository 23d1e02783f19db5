package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
}

type ServerConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	PollTimeoutMS      int    `yaml:"poll_timeout_ms"`
	HandshakeTimeoutMS int    `yaml:"handshake_timeout_ms"`
	ReadLimit          int    `yaml:"read_limit"`
	HistoryLimit       int    `yaml:"history_limit"`
	SessionTTLMinutes  int    `yaml:"session_ttl_minutes"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.PollTimeoutMS == 0 {
		c.Server.PollTimeoutMS = 200
	}
	if c.Server.HandshakeTimeoutMS == 0 {
		c.Server.HandshakeTimeoutMS = 1500
	}
	if c.Server.ReadLimit == 0 {
		c.Server.ReadLimit = 4 * 1024 * 1024
	}
	if c.Server.HistoryLimit == 0 {
		c.Server.HistoryLimit = 80
	}
	if c.Server.SessionTTLMinutes == 0 {
		c.Server.SessionTTLMinutes = 12 * 60
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s ServerConfig) PollTimeout() time.Duration {
	return time.Duration(s.PollTimeoutMS) * time.Millisecond
}

func (s ServerConfig) HandshakeTimeout() time.Duration {
	return time.Duration(s.HandshakeTimeoutMS) * time.Millisecond
}

func (s ServerConfig) SessionTTL() time.Duration {
	return time.Duration(s.SessionTTLMinutes) * time.Minute
}
