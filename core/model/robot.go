package model

import "fmt"

// FullBattery is the battery level of a freshly charged robot.
const FullBattery = 100

// RobotType restricts which tasks a robot may serve.
type RobotType string

const (
	RobotGeneral  RobotType = "general"
	RobotStandard RobotType = "standard"
	RobotFragile  RobotType = "fragile"
)

// Valid reports whether t is a known robot type.
func (t RobotType) Valid() bool {
	switch t {
	case RobotGeneral, RobotStandard, RobotFragile:
		return true
	}
	return false
}

// Shift is the working window of a robot or task.
type Shift string

const (
	ShiftDay         Shift = "day"
	ShiftNight       Shift = "night"
	ShiftAroundClock Shift = "24/7"
)

// Valid reports whether s is a known shift.
func (s Shift) Valid() bool {
	switch s {
	case ShiftDay, ShiftNight, ShiftAroundClock:
		return true
	}
	return false
}

// Robot is a warehouse robot placed on the grid.
type Robot struct {
	ID       string     `json:"robot_id"`
	Type     RobotType  `json:"robot_type"`
	Shift    Shift      `json:"shift"`
	Battery  int        `json:"battery_level"`
	Position Coordinate `json:"current_position"`
}

// Validate checks the robot definition.
func (r Robot) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("robot id is required")
	}
	if r.Battery < 0 || r.Battery > FullBattery {
		return fmt.Errorf("robot %s: battery %d out of range", r.ID, r.Battery)
	}
	if r.Type != "" && !r.Type.Valid() {
		return fmt.Errorf("robot %s: invalid type %q", r.ID, r.Type)
	}
	if r.Shift != "" && !r.Shift.Valid() {
		return fmt.Errorf("robot %s: invalid shift %q", r.ID, r.Shift)
	}
	return nil
}
