// Package journal persists the outcome of every robot of a playback run.
package journal

import (
	"context"
	"time"

	"github.com/kilianp07/warehouse/core/model"
)

// Record captures how one schedule entry of a robot ended.
type Record struct {
	Timestamp     time.Time        `json:"timestamp"`
	RunID         string           `json:"run_id"`
	RobotID       string           `json:"robot_id"`
	TaskID        string           `json:"task_id"`
	Program       string           `json:"program,omitempty"`
	Status        string           `json:"status"`
	Reason        string           `json:"reason,omitempty"`
	Steps         int              `json:"steps"`
	BatteryBefore int              `json:"battery_before"`
	BatteryAfter  int              `json:"battery_after"`
	Position      model.Coordinate `json:"position"`
}

// Query defines filters for retrieving records. Zero fields match anything.
type Query struct {
	Start   time.Time
	End     time.Time
	RunID   string
	RobotID string
	Status  string
}

// Match reports whether r satisfies every filter of q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.RobotID != "" && r.RobotID != q.RobotID {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
