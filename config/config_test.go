package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"PORT", "CORS_ORIGINS", "CHAT_ROOMS", "DEFAULT_ROOM", "LOG_LEVEL", "LOG_FORMAT",
	"QUEUE_SIZE", "SEND_BUFFER_SIZE", "MAX_MESSAGE_SIZE", "SHUTDOWN_TIMEOUT", "CONFIG_FILE",
}

// clearEnv blanks every variable Load reads; an empty value counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	yaml := `
server:
  port: "8080"
  cors_origins: https://chat.example.com
chat:
  rooms: [Lobby, Random]
  default_room: Random
  queue_size: 16
log:
  level: error
shutdown_timeout: 5s
`
	cfg, err := Load(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8080")
	}
	if cfg.Server.CORSOrigins != "https://chat.example.com" {
		t.Errorf("Server.CORSOrigins = %q", cfg.Server.CORSOrigins)
	}
	if !reflect.DeepEqual(cfg.Chat.Rooms, []string{"Lobby", "Random"}) {
		t.Errorf("Chat.Rooms = %v", cfg.Chat.Rooms)
	}
	if cfg.Chat.DefaultRoom != "Random" {
		t.Errorf("Chat.DefaultRoom = %q, want %q", cfg.Chat.DefaultRoom, "Random")
	}
	if cfg.Chat.QueueSize != 16 {
		t.Errorf("Chat.QueueSize = %d, want 16", cfg.Chat.QueueSize)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "error")
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_CHAT_LOBBY", "Atrium")

	yaml := `
chat:
  rooms: ["${TEST_CHAT_LOBBY}", General]
`
	cfg, err := Load(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Chat.Rooms[0] != "Atrium" {
		t.Errorf("Chat.Rooms[0] = %q, want %q", cfg.Chat.Rooms[0], "Atrium")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.CORSOrigins != DefaultCORSOrigins {
		t.Errorf("Server.CORSOrigins = %q, want %q", cfg.Server.CORSOrigins, DefaultCORSOrigins)
	}
	if !reflect.DeepEqual(cfg.Chat.Rooms, DefaultRooms) {
		t.Errorf("Chat.Rooms = %v, want %v", cfg.Chat.Rooms, DefaultRooms)
	}
	if cfg.Chat.DefaultRoom != "" {
		t.Errorf("Chat.DefaultRoom = %q, want empty", cfg.Chat.DefaultRoom)
	}
	if cfg.Chat.QueueSize != DefaultQueueSize {
		t.Errorf("Chat.QueueSize = %d, want %d", cfg.Chat.QueueSize, DefaultQueueSize)
	}
	if cfg.Chat.SendBufferSize != DefaultSendBufferSize {
		t.Errorf("Chat.SendBufferSize = %d, want %d", cfg.Chat.SendBufferSize, DefaultSendBufferSize)
	}
	if cfg.Chat.MaxMessageSize != DefaultMaxMessageSize {
		t.Errorf("Chat.MaxMessageSize = %d, want %d", cfg.Chat.MaxMessageSize, DefaultMaxMessageSize)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, DefaultShutdownTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CHAT_ROOMS", " Alpha, ,Beta ")
	t.Setenv("DEFAULT_ROOM", "Beta")
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("QUEUE_SIZE", "32")
	t.Setenv("SEND_BUFFER_SIZE", "8")
	t.Setenv("MAX_MESSAGE_SIZE", "2048")
	t.Setenv("SHUTDOWN_TIMEOUT", "10s")

	yaml := `
server:
  port: "8080"
chat:
  rooms: [Lobby]
`
	cfg, err := Load(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "9090")
	}
	if !reflect.DeepEqual(cfg.Chat.Rooms, []string{"Alpha", "Beta"}) {
		t.Errorf("Chat.Rooms = %v", cfg.Chat.Rooms)
	}
	if cfg.Chat.DefaultRoom != "Beta" {
		t.Errorf("Chat.DefaultRoom = %q", cfg.Chat.DefaultRoom)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "error")
	}
	if cfg.Chat.QueueSize != 32 || cfg.Chat.SendBufferSize != 8 || cfg.Chat.MaxMessageSize != 2048 {
		t.Errorf("Chat = %+v", cfg.Chat)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad queue size", map[string]string{"QUEUE_SIZE": "many"}, "QUEUE_SIZE"},
		{"bad timeout", map[string]string{"SHUTDOWN_TIMEOUT": "soon"}, "SHUTDOWN_TIMEOUT"},
		{"unknown default room", map[string]string{"DEFAULT_ROOM": "Nowhere"}, "chat.default_room"},
		{"bad port", map[string]string{"PORT": "http"}, "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = "0" }, true},
		{"port too high", func(c *Config) { c.Server.Port = "70000" }, true},
		{"blank rooms", func(c *Config) { c.Chat.Rooms = []string{" ", ""} }, true},
		{"listed default room", func(c *Config) { c.Chat.DefaultRoom = "Hobbies and sports" }, false},
		{"negative queue", func(c *Config) { c.Chat.QueueSize = -1 }, true},
		{"negative send buffer", func(c *Config) { c.Chat.SendBufferSize = -1 }, true},
		{"negative message size", func(c *Config) { c.Chat.MaxMessageSize = -1 }, true},
		{"unknown level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"negative timeout", func(c *Config) { c.ShutdownTimeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("PORT=4321\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// godotenv only sets variables that are absent, not ones set to "".
	os.Unsetenv("PORT")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("PORT") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "4321" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "4321")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
