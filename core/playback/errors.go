package playback

import "errors"

var (
	// ErrNoWorld is returned when Run is called without a world.
	ErrNoWorld = errors.New("playback: no world")
	// ErrEmptySchedule is returned when Run is called with an empty schedule.
	ErrEmptySchedule = errors.New("playback: empty schedule")
	// ErrAlreadyRunning rejects a run while another one is in flight.
	ErrAlreadyRunning = errors.New("playback: already running")
	// ErrClosed is returned once the engine was torn down.
	ErrClosed = errors.New("playback: engine closed")
	// ErrDropoffConflict refuses a run where two tasks share a dropoff.
	ErrDropoffConflict = errors.New("playback: two or more tasks share a dropoff location")
	// ErrCancelled is returned by suspensions and mutations after cancellation.
	ErrCancelled = errors.New("playback: cancelled")

	// ErrUnknownRobot marks a schedule entry whose robot is not in the world.
	ErrUnknownRobot = errors.New("unknown robot")
	// ErrMissingEndpoint marks a schedule entry without pickup or dropoff.
	ErrMissingEndpoint = errors.New("schedule entry has no pickup or dropoff endpoint")
	// ErrPathOutOfBounds marks a path leaving the grid.
	ErrPathOutOfBounds = errors.New("path leaves the grid")
	// ErrDropoffOccupied marks a dropoff cell already holding an item.
	ErrDropoffOccupied = errors.New("dropoff cell already holds an item")
)

// IsPrecondition reports whether err skips a single robot rather than the run.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrUnknownRobot) ||
		errors.Is(err, ErrMissingEndpoint) ||
		errors.Is(err, ErrPathOutOfBounds) ||
		errors.Is(err, ErrDropoffOccupied)
}
