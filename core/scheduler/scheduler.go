package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/warehouse/core/logger"
	"github.com/kilianp07/warehouse/core/model"
)

// Client requests schedules from the scheduling service.
type Client struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
}

// NewClient creates a Client for cfg. A nil log discards output.
func NewClient(cfg Config, log logger.Logger) *Client {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:     log,
	}
}

type runRequest struct {
	Warehouse model.World `json:"warehouse"`
}

type runResponse struct {
	Warehouse model.World    `json:"warehouse"`
	Scheduler model.Schedule `json:"scheduler"`
	Error     string         `json:"error"`
}

// Fetch posts world to /api/run and returns the schedule computed for it.
func (c *Client) Fetch(ctx context.Context, world model.World) (model.Schedule, error) {
	body, err := json.Marshal(runRequest{Warehouse: world})
	if err != nil {
		return nil, fmt.Errorf("failed to encode world: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/run", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var out runResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != "" {
			return nil, fmt.Errorf("scheduler returned %d: %s", resp.StatusCode, out.Error)
		}
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, raw)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if out.Scheduler == nil {
		out.Scheduler = model.Schedule{}
	}
	c.log.Infof("fetched schedule with %d entries in %s", len(out.Scheduler), time.Since(start).Round(time.Millisecond))
	return out.Scheduler, nil
}
