package events

import "time"

// RunAction names a playback lifecycle transition.
type RunAction string

const (
	RunStarted   RunAction = "started"
	RunFinished  RunAction = "finished"
	RunCancelled RunAction = "cancelled"
	RunRefused   RunAction = "refused"
)

// RunEvent is published when a playback run changes state.
type RunEvent struct {
	RunID  string
	Action RunAction
	Robots int
	Err    error
	Time   time.Time
}
