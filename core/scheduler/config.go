package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/warehouse/core/model"
)

// Config locates the scheduling service.
type Config struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults points at a local service with a 10s timeout.
func (c *Config) SetDefaults() {
	if c.URL == "" {
		c.URL = "http://localhost:8000"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks that the URL is usable.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("scheduler url must be http(s): %q", c.URL)
	}
	return nil
}

// LoadWorld reads a warehouse snapshot from a JSON or YAML file.
func LoadWorld(path string) (model.World, error) {
	var w model.World
	if err := loadFile(path, &w); err != nil {
		return model.World{}, err
	}
	return w, w.Validate()
}

// LoadSchedule reads a schedule from a JSON or YAML file.
func LoadSchedule(path string) (model.Schedule, error) {
	var s model.Schedule
	if err := loadFile(path, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func loadFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Decode(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."), v)
}

// Decode reads a JSON or YAML document from r into v. YAML documents are
// converted to JSON first so the wire format codecs of the model apply.
func Decode(r io.Reader, format string, v any) error {
	switch strings.ToLower(format) {
	case "json":
		return json.NewDecoder(r).Decode(v)
	case "yaml", "yml":
		var raw any
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			return err
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("convert yaml: %w", err)
		}
		return json.Unmarshal(b, v)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
