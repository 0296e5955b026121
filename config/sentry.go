package config

// SentryConfig enables error reporting to Sentry. An empty DSN disables it.
type SentryConfig struct {
	DSN         string `json:"dsn"`
	Environment string `json:"environment"`
	Release     string `json:"release"`
	// SampleRate is the share of error events sent, 1 when unset.
	SampleRate float64 `json:"sample_rate"`
}

func (c *SentryConfig) SetDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 1
	}
}
