package events

import (
	"time"

	"github.com/kilianp07/warehouse/core/model"
)

// Leg identifies the animated path segment a step belongs to.
type Leg string

const (
	LegApproach Leg = "approach"
	LegDropoff  Leg = "dropoff"
)

// StepEvent is published each time a robot's animated position advances.
type StepEvent struct {
	RunID    string
	RobotID  string
	TaskID   string
	Leg      Leg
	Index    int
	Position model.Coordinate
	Time     time.Time
}

// SettleEvent is published after a robot's settle mutation was applied.
type SettleEvent struct {
	RunID         string
	RobotID       string
	TaskID        string
	Program       string
	Position      model.Coordinate
	BatteryBefore int
	BatteryAfter  int
	Charged       bool
	Steps         int
	Duration      time.Duration
	Time          time.Time
}
