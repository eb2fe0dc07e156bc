// Package config loads service configuration from an optional YAML file,
// a .env file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server          ServerConfig  `yaml:"server"`
	Chat            ChatConfig    `yaml:"chat"`
	Log             LogConfig     `yaml:"log"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        string `yaml:"port"`
	CORSOrigins string `yaml:"cors_origins"`
}

// ChatConfig configures rooms and the presence engine.
type ChatConfig struct {
	Rooms          []string `yaml:"rooms"`
	DefaultRoom    string   `yaml:"default_room"`
	QueueSize      int      `yaml:"queue_size"`
	SendBufferSize int      `yaml:"send_buffer_size"`
	MaxMessageSize int64    `yaml:"max_message_size"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding variables already set.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// Load reads the YAML file at path when path is non-empty, then applies
// environment overrides and defaults, and validates the result.
// ${VAR} references in the file are expanded from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv loads .env (a missing file is not an error) and then the YAML
// file named by CONFIG_FILE, if any.
func LoadFromEnv() (*Config, error) {
	if err := LoadDotEnv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Load(os.Getenv("CONFIG_FILE"))
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = v
	}
	if v := os.Getenv("CHAT_ROOMS"); v != "" {
		c.Chat.Rooms = splitList(v)
	}
	if v := os.Getenv("DEFAULT_ROOM"); v != "" {
		c.Chat.DefaultRoom = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = strings.ToLower(v)
	}

	var err error
	if c.Chat.QueueSize, err = envInt("QUEUE_SIZE", c.Chat.QueueSize); err != nil {
		return err
	}
	if c.Chat.SendBufferSize, err = envInt("SEND_BUFFER_SIZE", c.Chat.SendBufferSize); err != nil {
		return err
	}
	size, err := envInt("MAX_MESSAGE_SIZE", int(c.Chat.MaxMessageSize))
	if err != nil {
		return err
	}
	c.Chat.MaxMessageSize = int64(size)

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// splitList splits a comma-separated list, trimming blanks.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
