package events

import "time"

// Level is the severity of a notice shown to the operator.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a user-visible message raised during playback.
type Notice struct {
	Level       Level     `json:"level"`
	RunID       string    `json:"run_id,omitempty"`
	RobotID     string    `json:"robot_id,omitempty"`
	TaskID      string    `json:"task_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Err         error     `json:"-"`
	Time        time.Time `json:"time"`
}

// NoticeEvent wraps a Notice published on the bus.
type NoticeEvent struct {
	Notice Notice
}
