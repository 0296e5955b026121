package playback

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/warehouse/core/events"
	"github.com/kilianp07/warehouse/core/model"
)

// manualClock hands out timers that only fire when the test says so.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	d     time.Duration
	c     chan time.Time
	stops atomic.Int32
}

func (c *manualClock) NewTimer(d time.Duration) Timer {
	t := &manualTimer{d: d, c: make(chan time.Time, 1)}
	c.mu.Lock()
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return t
}

func (t *manualTimer) C() <-chan time.Time { return t.c }

func (t *manualTimer) Stop() bool {
	t.stops.Add(1)
	return true
}

func (t *manualTimer) fire() { t.c <- time.Now() }

func (c *manualClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *manualClock) timer(i int) *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[i]
}

// awaitTimers blocks until n timers were created.
func (c *manualClock) awaitTimers(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return c.count() >= n }, time.Second, time.Millisecond)
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []events.Notice
}

func (r *noticeRecorder) Notify(n events.Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *noticeRecorder) all() []events.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Notice(nil), r.notices...)
}

// corridor builds a 1x4 warehouse: robot at (0,0), item at (0,1), one task
// from (0,1) to (0,3).
func corridor() model.World {
	w := model.NewWorld(4, 1)
	w.Grid.Set(model.C(0, 0), model.CellRobot)
	w.Grid.Set(model.C(0, 1), model.CellItem)
	w.Robots = append(w.Robots, model.Robot{ID: "r1", Type: model.RobotGeneral, Shift: model.ShiftAroundClock, Battery: 80, Position: model.C(0, 0)})
	w.Tasks = append(w.Tasks, model.Task{ID: "t1", Type: model.TaskStandard, Pickup: model.C(0, 1), Dropoff: model.C(0, 3)})
	return w
}

func corridorEntry() model.ScheduleEntry {
	return model.ScheduleEntry{
		RobotID:              "r1",
		EstimatedBatteryCost: 10,
		PathToPickup:         model.Path{model.C(0, 0), model.C(0, 1)},
		PathToDropoff:        model.Path{model.C(0, 1), model.C(0, 2), model.C(0, 3)},
	}
}
