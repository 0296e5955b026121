package metrics

import "time"

// Outcome statuses reported for a robot.
const (
	StatusSettled   = "settled"
	StatusSkipped   = "skipped"
	StatusCancelled = "cancelled"
)

// RobotOutcomeEvent reports how one schedule entry of a robot ended.
type RobotOutcomeEvent struct {
	RunID         string
	RobotID       string
	TaskID        string
	Program       string
	Status        string
	Reason        string
	Steps         int
	BatteryBefore int
	BatteryAfter  int
	Charged       bool
	Duration      time.Duration
	Time          time.Time
}

// MetricsSink records robot outcomes for observability purposes.
type MetricsSink interface {
	RecordRobotOutcome(ev RobotOutcomeEvent) error
}

// StepEvent is one animated position.
type StepEvent struct {
	RunID   string
	RobotID string
	Leg     string
	Time    time.Time
}

// StepRecorder records animation steps.
type StepRecorder interface {
	RecordStep(ev StepEvent) error
}

// RunEvent summarises a finished run.
type RunEvent struct {
	RunID     string
	Robots    int
	Settled   int
	Skipped   int
	Cancelled bool
	Duration  time.Duration
	Time      time.Time
}

// RunRecorder records finished runs.
type RunRecorder interface {
	RecordRun(ev RunEvent) error
}

// NoticeEvent is a notice raised to the operator.
type NoticeEvent struct {
	Level string
	Title string
	Time  time.Time
}

// NoticeRecorder records operator notices.
type NoticeRecorder interface {
	RecordNotice(ev NoticeEvent) error
}

// RobotState is the battery and position of one robot in a world snapshot.
type RobotState struct {
	RobotID string
	Battery int
	Row     int
	Col     int
}

// WorldStateEvent summarises a world snapshot.
type WorldStateEvent struct {
	Robots []RobotState
	Items  int
	Tasks  int
	Time   time.Time
}

// WorldRecorder records world snapshots.
type WorldRecorder interface {
	RecordWorld(ev WorldStateEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRobotOutcome(RobotOutcomeEvent) error { return nil }
func (NopSink) RecordStep(StepEvent) error                 { return nil }
func (NopSink) RecordRun(RunEvent) error                   { return nil }
func (NopSink) RecordNotice(NoticeEvent) error             { return nil }
func (NopSink) RecordWorld(WorldStateEvent) error          { return nil }
