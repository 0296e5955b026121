package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/warehouse/core/events"
	"github.com/kilianp07/warehouse/core/journal"
	"github.com/kilianp07/warehouse/core/logger"
	"github.com/kilianp07/warehouse/core/metrics"
	"github.com/kilianp07/warehouse/core/model"
	"github.com/kilianp07/warehouse/core/monitoring"
	"github.com/kilianp07/warehouse/internal/eventbus"
)

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBus publishes run, step, settle and notice events on bus.
func WithBus(bus eventbus.EventBus) Option {
	return func(e *Engine) { e.bus = bus }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithMetrics(sink metrics.MetricsSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.metrics = sink
		}
	}
}

// WithJournal appends every robot outcome to store.
func WithJournal(store journal.Store) Option {
	return func(e *Engine) {
		if store != nil {
			e.journal = store
		}
	}
}

func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// OnWorldChanged registers fn, called with a snapshot after every world
// mutation. Calls are serialized. fn must not call Cancel or Close.
func OnWorldChanged(fn func(model.World)) Option {
	return func(e *Engine) { e.onChange = fn }
}

// Engine replays schedules against the world it owns. At most one run is in
// flight at any time.
type Engine struct {
	cfg      Config
	logger   logger.Logger
	bus      eventbus.EventBus
	notifier Notifier
	metrics  metrics.MetricsSink
	journal  journal.Store
	clock    Clock
	onChange func(model.World)
	newID    func() string

	// notifyMu orders OnWorldChanged deliveries. It is acquired before mu.
	notifyMu sync.Mutex

	mu       sync.Mutex
	world    *model.World
	frames   map[string]model.Coordinate
	scope    *Registry
	finished chan struct{}
	closed   bool
}

// NewEngine creates an idle engine.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		logger:  logger.NopLogger{},
		metrics: metrics.NopSink{},
		journal: journal.NopStore{},
		clock:   realClock{},
		newID:   uuid.NewString,
		frames:  make(map[string]model.Coordinate),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the immutable context of one playback.
type run struct {
	id       string
	scope    *Registry
	robots   []string
	schedule model.Schedule
}

// Load replaces the owned world while idle.
func (e *Engine) Load(world model.World) error {
	if err := world.Validate(); err != nil {
		return err
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return ErrClosed
	case e.scope != nil:
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	w := world.Clone()
	e.world = &w
	cb := e.onChange
	snap := w.Clone()
	e.mu.Unlock()
	if cb != nil {
		cb(snap)
	}
	return nil
}

// Run starts playing schedule against a clone of world. A nil world replays
// against the world currently owned by the engine. The returned channel
// yields exactly one Result and is then closed. Cancelling ctx cancels the
// run.
func (e *Engine) Run(ctx context.Context, world *model.World, schedule model.Schedule) (<-chan Result, error) {
	r, start, err := e.begin(world, schedule)
	if err != nil {
		if errors.Is(err, ErrDropoffConflict) {
			e.refuse(err)
		}
		return nil, err
	}
	e.logger.Infof("run %s started: %d robots, %d entries", r.id, len(r.robots), len(r.schedule))
	e.publish(events.RunEvent{RunID: r.id, Action: events.RunStarted, Robots: len(r.robots), Time: start})

	out := make(chan Result, 1)
	go e.play(ctx, r, start, out)
	return out, nil
}

func (e *Engine) begin(world *model.World, schedule model.Schedule) (run, time.Time, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.closed:
		return run{}, time.Time{}, ErrClosed
	case e.scope != nil:
		return run{}, time.Time{}, ErrAlreadyRunning
	}
	if world == nil {
		world = e.world
	}
	if world == nil {
		return run{}, time.Time{}, ErrNoWorld
	}
	if err := world.Validate(); err != nil {
		return run{}, time.Time{}, fmt.Errorf("world: %w", err)
	}
	if len(schedule) == 0 {
		return run{}, time.Time{}, ErrEmptySchedule
	}
	if at, ok := world.DropoffConflict(); ok {
		return run{}, time.Time{}, fmt.Errorf("%w: %s", ErrDropoffConflict, at)
	}

	owned := world.Clone()
	sched := make(model.Schedule, len(schedule))
	for id, entry := range schedule {
		sched[id] = entry
	}
	var robots []string
	for _, rb := range owned.Robots {
		if sched.Assigned(rb.ID) {
			robots = append(robots, rb.ID)
		}
	}

	r := run{id: e.newID(), scope: NewRegistry(e.clock), robots: robots, schedule: sched}
	e.world = &owned
	e.frames = make(map[string]model.Coordinate)
	e.scope = r.scope
	e.finished = make(chan struct{})
	return r, time.Now(), nil
}

func (e *Engine) refuse(err error) {
	e.logger.Warnf("playback refused: %v", err)
	e.notify(events.Notice{
		Level:       events.LevelError,
		Title:       "Dropoff conflict",
		Description: "Two or more tasks share the same dropoff location. Please fix before simulating.",
		Err:         err,
		Time:        time.Now(),
	})
	e.publish(events.RunEvent{Action: events.RunRefused, Err: err, Time: time.Now()})
}

func (e *Engine) play(ctx context.Context, r run, start time.Time, out chan<- Result) {
	defer close(out)
	defer monitoring.Recover()
	stop := context.AfterFunc(ctx, func() { e.cancelScope(r.scope) })
	defer stop()

	perRobot := make([][]Outcome, len(r.robots))
	interrupted := false
	if e.cfg.Concurrent {
		g, gctx := errgroup.WithContext(ctx)
		for i, id := range r.robots {
			i, id := i, id
			g.Go(func() error {
				var err error
				perRobot[i], err = e.playRobot(gctx, r, id)
				return err
			})
		}
		interrupted = g.Wait() != nil
	} else {
		for i, id := range r.robots {
			var err error
			perRobot[i], err = e.playRobot(ctx, r, id)
			if err != nil {
				interrupted = true
				break
			}
		}
	}

	res := Result{RunID: r.id, Started: start}
	for _, o := range perRobot {
		res.Outcomes = append(res.Outcomes, o...)
	}

	e.mu.Lock()
	if interrupted {
		r.scope.CancelAll()
	}
	res.Cancelled = r.scope.Err() != nil
	r.scope.Clear()
	res.World = e.world.Clone()
	e.scope = nil
	e.frames = make(map[string]model.Coordinate)
	finished := e.finished
	e.finished = nil
	e.mu.Unlock()
	res.Finished = time.Now()

	e.finish(res)
	out <- res
	close(finished)
}

func (e *Engine) finish(res Result) {
	action := events.RunFinished
	if res.Cancelled {
		action = events.RunCancelled
	}
	settled, skipped := res.Count(StatusSettled), res.Count(StatusSkipped)
	e.logger.Infof("run %s %s: %d settled, %d skipped, %d steps", res.RunID, action, settled, skipped, res.Steps())
	e.publish(events.RunEvent{RunID: res.RunID, Action: action, Robots: len(res.Outcomes), Time: res.Finished})
	if rec, ok := e.metrics.(metrics.RunRecorder); ok {
		ev := metrics.RunEvent{
			RunID:     res.RunID,
			Robots:    len(res.Outcomes),
			Settled:   settled,
			Skipped:   skipped,
			Cancelled: res.Cancelled,
			Duration:  res.Finished.Sub(res.Started),
			Time:      res.Finished,
		}
		if err := rec.RecordRun(ev); err != nil {
			e.logger.Warnf("record run: %v", err)
		}
	}
}

// playRobot plays every entry assigned to robotID. A non-nil error means the
// run was cancelled.
func (e *Engine) playRobot(ctx context.Context, r run, robotID string) ([]Outcome, error) {
	var outcomes []Outcome
	for _, taskID := range r.schedule.ForRobot(robotID) {
		o, err := e.playEntry(ctx, r, robotID, taskID)
		outcomes = append(outcomes, o)
		if err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

func (e *Engine) playEntry(ctx context.Context, r run, robotID, taskID string) (Outcome, error) {
	started := time.Now()
	o := Outcome{RobotID: robotID, TaskID: taskID, Status: StatusCancelled}

	e.mu.Lock()
	if err := r.scope.Err(); err != nil {
		e.mu.Unlock()
		o.Err = err
		return o, err
	}
	if rb, ok := e.world.Robot(robotID); ok {
		o.BatteryBefore, o.BatteryAfter, o.Position = rb.Battery, rb.Battery, rb.Position
	}
	prog, err := Plan(*e.world, robotID, taskID, r.schedule[taskID])
	e.mu.Unlock()

	if err != nil {
		o.Status, o.Err, o.Duration = StatusSkipped, err, time.Since(started)
		e.skip(r, o)
		return o, nil
	}
	o.Program = prog.Name()
	o.Charged = prog.Route().Charged

	steps, err := e.animate(ctx, r, prog)
	o.Steps = steps
	if err == nil {
		err = e.settle(r, prog, &o)
	}
	o.Duration = time.Since(started)
	if err != nil {
		o.Err = err
		e.logger.Debugf("run %s robot %s task %s cancelled after %d steps", r.id, robotID, taskID, steps)
		e.report(r, o)
		return o, err
	}
	o.Status = StatusSettled
	e.report(r, o)
	e.publish(events.SettleEvent{
		RunID:         r.id,
		RobotID:       robotID,
		TaskID:        taskID,
		Program:       o.Program,
		Position:      o.Position,
		BatteryBefore: o.BatteryBefore,
		BatteryAfter:  o.BatteryAfter,
		Charged:       o.Charged,
		Steps:         steps,
		Duration:      o.Duration,
		Time:          time.Now(),
	})

	if err := r.scope.Sleep(ctx, e.cfg.SettleDelay()); err != nil {
		return o, err
	}
	return o, nil
}

// animate walks the legs of prog. An ItemPickup stops one cell short of the
// dropoff and lifts the item the first time the robot stands on the pickup,
// which is the head of the dropoff leg when there is no approach.
func (e *Engine) animate(ctx context.Context, r run, prog Program) (int, error) {
	route := prog.Route()
	seq := NewSequencer(r.scope, frameSink{e: e, scope: r.scope}, e.cfg.StepDelay())

	dropoff := route.Dropoff
	_, lift := prog.(ItemPickup)
	if lift {
		dropoff = dropoff[:len(dropoff)-1]
	}

	legs := []struct {
		name events.Leg
		path model.Path
	}{
		{events.LegApproach, route.Approach},
		{events.LegDropoff, dropoff},
	}
	steps, lifted := 0, false
	for _, l := range legs {
		it := seq.Leg(route.RobotID, l.path)
		for {
			st, err := it.Next(ctx)
			if err != nil {
				return steps, err
			}
			if st.Complete {
				break
			}
			steps++
			e.step(r, route, l.name, st)
			if lift && !lifted && st.Position == route.Pickup {
				lifted = true
				if err := e.mutate(r.scope, func(w *model.World) bool { return liftItem(w, route.Pickup) }); err != nil {
					return steps, err
				}
			}
		}
	}
	return steps, nil
}

func liftItem(w *model.World, at model.Coordinate) bool {
	if w.Grid.At(at) != model.CellItem {
		return false
	}
	w.Grid.Set(at, model.CellEmpty)
	return true
}

// settle applies the atomic end-of-program mutation and fills the battery
// and position fields of o.
func (e *Engine) settle(r run, prog Program, o *Outcome) error {
	route := prog.Route()
	return e.mutate(r.scope, func(w *model.World) bool {
		rb, ok := w.Robot(route.RobotID)
		if !ok {
			return false
		}
		o.BatteryBefore = rb.Battery
		switch p := prog.(type) {
		case ItemPickup:
			liftItem(w, route.Pickup)
			w.Grid.Set(rb.Position, model.CellEmpty)
			w.Grid.Set(p.Rest, model.CellRobot)
			w.Grid.Set(route.Target, model.CellItem)
			rb.Position = p.Rest
		case EmptyHanded:
			w.Grid.Set(p.Vacate, model.CellEmpty)
			w.Grid.Set(route.Target, model.CellRobot)
			rb.Position = route.Target
		}
		rb.Battery = Recharge(rb.Battery, route.Charged, route.Cost)
		o.BatteryAfter, o.Position = rb.Battery, rb.Position
		delete(e.frames, route.RobotID)
		if w.RemoveTask(route.TaskID, route.Pickup, route.Target) == 0 {
			e.logger.Debugf("run %s: task %s already gone", r.id, route.TaskID)
		}
		return true
	})
}

// mutate applies fn to the owned world unless scope was cancelled, then
// delivers a snapshot to the OnWorldChanged callback when fn reports a change.
func (e *Engine) mutate(scope *Registry, fn func(w *model.World) bool) error {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	if err := scope.Err(); err != nil {
		e.mu.Unlock()
		return err
	}
	changed := fn(e.world)
	cb := e.onChange
	var snap model.World
	if changed && cb != nil {
		snap = e.world.Clone()
	}
	e.mu.Unlock()

	if changed && cb != nil {
		cb(snap)
	}
	return nil
}

type frameSink struct {
	e     *Engine
	scope *Registry
}

func (s frameSink) SetFrame(robotID string, pos model.Coordinate) error {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	if err := s.scope.Err(); err != nil {
		return err
	}
	s.e.frames[robotID] = pos
	return nil
}

func (e *Engine) step(r run, route Route, leg events.Leg, st Step) {
	now := time.Now()
	e.publish(events.StepEvent{
		RunID:    r.id,
		RobotID:  route.RobotID,
		TaskID:   route.TaskID,
		Leg:      leg,
		Index:    st.Index,
		Position: st.Position,
		Time:     now,
	})
	if rec, ok := e.metrics.(metrics.StepRecorder); ok {
		if err := rec.RecordStep(metrics.StepEvent{RunID: r.id, RobotID: route.RobotID, Leg: string(leg), Time: now}); err != nil {
			e.logger.Warnf("record step: %v", err)
		}
	}
}

func (e *Engine) skip(r run, o Outcome) {
	e.logger.Warnf("run %s: robot %s task %s skipped: %v", r.id, o.RobotID, o.TaskID, o.Err)
	monitoring.CaptureException(o.Err, map[string]string{"run_id": r.id, "robot_id": o.RobotID, "task_id": o.TaskID})
	title, desc := describeSkip(o)
	e.notify(events.Notice{
		Level:       events.LevelError,
		RunID:       r.id,
		RobotID:     o.RobotID,
		TaskID:      o.TaskID,
		Title:       title,
		Description: desc,
		Err:         o.Err,
		Time:        time.Now(),
	})
	e.report(r, o)
}

func describeSkip(o Outcome) (string, string) {
	switch {
	case errors.Is(o.Err, ErrDropoffOccupied):
		return "Box at dropoff", fmt.Sprintf("Robot %s has a box at its dropoff for task %s", o.RobotID, o.TaskID)
	case errors.Is(o.Err, ErrPathOutOfBounds):
		return "Path out of bounds", fmt.Sprintf("Robot %s has a path leaving the grid for task %s", o.RobotID, o.TaskID)
	case errors.Is(o.Err, ErrUnknownRobot):
		return "Unknown robot", fmt.Sprintf("Robot %s is not part of the warehouse", o.RobotID)
	default:
		return "Missing endpoint", fmt.Sprintf("Robot %s has no pickup or dropoff for task %s", o.RobotID, o.TaskID)
	}
}

// report appends o to the journal and the metrics sink.
func (e *Engine) report(r run, o Outcome) {
	now := time.Now()
	reason := ""
	if o.Err != nil {
		reason = o.Err.Error()
	}
	rec := journal.Record{
		Timestamp:     now,
		RunID:         r.id,
		RobotID:       o.RobotID,
		TaskID:        o.TaskID,
		Program:       o.Program,
		Status:        string(o.Status),
		Reason:        reason,
		Steps:         o.Steps,
		BatteryBefore: o.BatteryBefore,
		BatteryAfter:  o.BatteryAfter,
		Position:      o.Position,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.journal.Append(ctx, rec); err != nil {
		e.logger.Errorf("journal append: %v", err)
	}
	ev := metrics.RobotOutcomeEvent{
		RunID:         r.id,
		RobotID:       o.RobotID,
		TaskID:        o.TaskID,
		Program:       o.Program,
		Status:        string(o.Status),
		Reason:        reason,
		Steps:         o.Steps,
		BatteryBefore: o.BatteryBefore,
		BatteryAfter:  o.BatteryAfter,
		Charged:       o.Charged,
		Duration:      o.Duration,
		Time:          now,
	}
	if err := e.metrics.RecordRobotOutcome(ev); err != nil {
		e.logger.Warnf("record outcome: %v", err)
	}
}

func (e *Engine) notify(n events.Notice) {
	if e.notifier != nil {
		e.notifier.Notify(n)
	}
	e.publish(events.NoticeEvent{Notice: n})
	if rec, ok := e.metrics.(metrics.NoticeRecorder); ok {
		_ = rec.RecordNotice(metrics.NoticeEvent{Level: string(n.Level), Title: n.Title, Time: n.Time})
	}
}

func (e *Engine) publish(ev eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

// World returns a snapshot of the owned world. ok is false before the first
// Load or Run.
func (e *Engine) World() (model.World, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.world == nil {
		return model.World{}, false
	}
	return e.world.Clone(), true
}

// Frames returns the animated position of every robot currently moving.
func (e *Engine) Frames() map[string]model.Coordinate {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]model.Coordinate, len(e.frames))
	for id, c := range e.frames {
		out[id] = c
	}
	return out
}

// Running reports whether a run holds the engine.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope != nil
}

// Cancel aborts the current run. No world mutation happens once it
// returned. The run still delivers its Result; use Wait to block until the
// engine is idle again.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scope != nil {
		e.scope.CancelAll()
	}
}

func (e *Engine) cancelScope(scope *Registry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	scope.CancelAll()
}

// Wait blocks until no run holds the engine or ctx ends.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	finished := e.finished
	e.mu.Unlock()
	if finished == nil {
		return nil
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels the current run, waits for it to release the engine and
// refuses every later run.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	if e.scope != nil {
		e.scope.CancelAll()
	}
	finished := e.finished
	e.mu.Unlock()
	if finished != nil {
		<-finished
	}
	return nil
}
