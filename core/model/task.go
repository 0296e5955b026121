package model

import "fmt"

// TaskType describes the goods a task moves.
type TaskType string

const (
	TaskStandard TaskType = "standard"
	TaskHeavy    TaskType = "heavy"
	TaskFragile  TaskType = "fragile"
)

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	switch t {
	case TaskStandard, TaskHeavy, TaskFragile:
		return true
	}
	return false
}

// Task is an open transport order. It exists only while unfulfilled.
type Task struct {
	ID      string     `json:"task_id"`
	Type    TaskType   `json:"type"`
	Shift   Shift      `json:"shift"`
	Pickup  Coordinate `json:"pickup_location"`
	Dropoff Coordinate `json:"dropoff_location"`
}

// Matches reports whether the task moves goods from pickup to dropoff.
func (t Task) Matches(pickup, dropoff Coordinate) bool {
	return t.Pickup == pickup && t.Dropoff == dropoff
}

// Validate checks the task definition.
func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id is required")
	}
	if t.Pickup == t.Dropoff {
		return fmt.Errorf("task %s: pickup and dropoff are the same cell", t.ID)
	}
	if t.Type != "" && !t.Type.Valid() {
		return fmt.Errorf("task %s: invalid type %q", t.ID, t.Type)
	}
	if t.Shift != "" && !t.Shift.Valid() {
		return fmt.Errorf("task %s: invalid shift %q", t.ID, t.Shift)
	}
	return nil
}
