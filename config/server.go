package config

import (
	"fmt"
	"net"
)

// ServerConfig defines the HTTP listener of the playback API.
type ServerConfig struct {
	Addr string `json:"addr"`
	// StreamBuffer is the number of events buffered per websocket client.
	StreamBuffer int `json:"stream_buffer"`
	// Token, when set, is required as a bearer token on /api/journal.
	Token string `json:"token"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.StreamBuffer <= 0 {
		c.StreamBuffer = 64
	}
}

func (c ServerConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid server addr %q: %w", c.Addr, err)
	}
	return nil
}
