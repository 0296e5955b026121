package playback

import "github.com/kilianp07/warehouse/core/events"

// Notifier surfaces notices to the operator.
type Notifier interface {
	Notify(n events.Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(events.Notice)

func (f NotifierFunc) Notify(n events.Notice) { f(n) }
