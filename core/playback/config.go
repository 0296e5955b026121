package playback

import (
	"fmt"
	"time"
)

// Config defines playback pacing loaded from configuration.
type Config struct {
	// StepDelayMS is the pause between two animated positions.
	StepDelayMS int `json:"step_delay_ms"`
	// SettleDelayMS is the pause after a robot settled, before the next one starts.
	SettleDelayMS int `json:"settle_delay_ms"`
	// Concurrent animates all robots at once instead of one after another.
	Concurrent bool `json:"concurrent"`
}

// DefaultConfig returns the pacing used by the warehouse viewer.
func DefaultConfig() Config {
	return Config{StepDelayMS: 200, SettleDelayMS: 500}
}

// SetDefaults applies the viewer pacing when no delay was configured.
func (c *Config) SetDefaults() {
	if c.StepDelayMS == 0 && c.SettleDelayMS == 0 {
		d := DefaultConfig()
		c.StepDelayMS, c.SettleDelayMS = d.StepDelayMS, d.SettleDelayMS
	}
}

// Validate rejects negative delays.
func (c Config) Validate() error {
	if c.StepDelayMS < 0 {
		return fmt.Errorf("step_delay_ms must not be negative")
	}
	if c.SettleDelayMS < 0 {
		return fmt.Errorf("settle_delay_ms must not be negative")
	}
	return nil
}

func (c Config) StepDelay() time.Duration {
	return time.Duration(c.StepDelayMS) * time.Millisecond
}

func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}
