package config

import "time"

// Default values for configuration fields.
const (
	DefaultPort            = "3000"
	DefaultCORSOrigins     = "*"
	DefaultQueueSize       = 1024
	DefaultSendBufferSize  = 256
	DefaultMaxMessageSize  = 64 * 1024
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultShutdownTimeout = 30 * time.Second
)

// DefaultRooms is the room list used when none is configured.
var DefaultRooms = []string{"General", "Introductions", "off-topics", "Hobbies and sports"}

// applyDefaults fills zero-valued fields with defaults.
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.CORSOrigins == "" {
		c.Server.CORSOrigins = DefaultCORSOrigins
	}

	if len(c.Chat.Rooms) == 0 {
		c.Chat.Rooms = append([]string(nil), DefaultRooms...)
	}
	if c.Chat.QueueSize == 0 {
		c.Chat.QueueSize = DefaultQueueSize
	}
	if c.Chat.SendBufferSize == 0 {
		c.Chat.SendBufferSize = DefaultSendBufferSize
	}
	if c.Chat.MaxMessageSize == 0 {
		c.Chat.MaxMessageSize = DefaultMaxMessageSize
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}
