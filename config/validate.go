package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %q", c.Server.Port)
	}

	rooms := 0
	for _, room := range c.Chat.Rooms {
		if strings.TrimSpace(room) != "" {
			rooms++
		}
	}
	if rooms == 0 {
		return errors.New("chat.rooms must contain at least one room")
	}
	if c.Chat.DefaultRoom != "" && !slices.Contains(c.Chat.Rooms, c.Chat.DefaultRoom) {
		return fmt.Errorf("chat.default_room %q is not in chat.rooms", c.Chat.DefaultRoom)
	}
	if c.Chat.QueueSize < 1 {
		return errors.New("chat.queue_size must be >= 1")
	}
	if c.Chat.SendBufferSize < 1 {
		return errors.New("chat.send_buffer_size must be >= 1")
	}
	if c.Chat.MaxMessageSize < 1 {
		return errors.New("chat.max_message_size must be >= 1")
	}

	switch c.Log.Level {
	case "info", "error":
	default:
		return fmt.Errorf("log.level must be info or error, got %q", c.Log.Level)
	}
	if c.Log.Format != "text" {
		return fmt.Errorf("log.format must be text, got %q", c.Log.Format)
	}

	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be > 0")
	}
	return nil
}
