package playback

import (
	"time"

	"github.com/kilianp07/warehouse/core/model"
)

// Status tells how a schedule entry ended.
type Status string

const (
	StatusSettled   Status = "settled"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
)

// Outcome reports one schedule entry of a run.
type Outcome struct {
	RobotID       string
	TaskID        string
	Program       string
	Status        Status
	Err           error
	Steps         int
	BatteryBefore int
	BatteryAfter  int
	Charged       bool
	Position      model.Coordinate
	Duration      time.Duration
}

// Result is delivered once a run ended, normally or by cancellation.
type Result struct {
	RunID     string
	World     model.World
	Outcomes  []Outcome
	Cancelled bool
	Started   time.Time
	Finished  time.Time
}

// Count returns how many outcomes have status s.
func (r Result) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Steps returns the number of animated positions over the whole run.
func (r Result) Steps() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Steps
	}
	return n
}
