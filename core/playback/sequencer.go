package playback

import (
	"context"
	"time"

	"github.com/kilianp07/warehouse/core/model"
)

// FrameSink receives the animated position of a robot. It must return
// ErrCancelled once the run was cancelled and write nothing in that case.
type FrameSink interface {
	SetFrame(robotID string, pos model.Coordinate) error
}

// Step is one animated position of a leg.
type Step struct {
	Index    int
	Position model.Coordinate
	// Complete is set once every position of the leg was written.
	Complete bool
}

// Sequencer animates legs, waiting a fixed delay between two positions.
type Sequencer struct {
	scope *Registry
	sink  FrameSink
	delay time.Duration
}

// NewSequencer returns a sequencer whose waits are registered in scope.
func NewSequencer(scope *Registry, sink FrameSink, delay time.Duration) *Sequencer {
	return &Sequencer{scope: scope, sink: sink, delay: delay}
}

// Leg prepares the animation of positions for a robot.
func (s *Sequencer) Leg(robotID string, positions model.Path) *Leg {
	return &Leg{seq: s, robotID: robotID, positions: positions}
}

// Leg walks a path one position at a time.
type Leg struct {
	seq       *Sequencer
	robotID   string
	positions model.Path
	next      int
	done      bool
}

// Len returns the number of positions of the leg.
func (l *Leg) Len() int { return len(l.positions) }

// Next writes the next position to the frame sink, waiting the step delay
// before every position but the first. Once the last position was written,
// one more delay elapses before a Step with Complete set is returned. An
// empty leg completes immediately.
func (l *Leg) Next(ctx context.Context) (Step, error) {
	if l.done || len(l.positions) == 0 {
		l.done = true
		return Step{Index: len(l.positions), Complete: true}, nil
	}
	if l.next > 0 {
		if err := l.seq.scope.Sleep(ctx, l.seq.delay); err != nil {
			return Step{}, err
		}
	}
	if l.next == len(l.positions) {
		l.done = true
		return Step{Index: l.next, Complete: true}, nil
	}
	pos := l.positions[l.next]
	if err := l.seq.sink.SetFrame(l.robotID, pos); err != nil {
		return Step{}, err
	}
	st := Step{Index: l.next, Position: pos}
	l.next++
	return st, nil
}
