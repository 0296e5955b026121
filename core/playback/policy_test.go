package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/warehouse/core/model"
)

func TestPlanItemPickup(t *testing.T) {
	prog, err := Plan(corridor(), "r1", "t1", corridorEntry())
	require.NoError(t, err)

	p, ok := prog.(ItemPickup)
	require.True(t, ok, "got %T", prog)
	assert.Equal(t, "item_pickup", p.Name())
	assert.Equal(t, model.C(0, 2), p.Rest)
	assert.Equal(t, model.C(0, 1), p.Route().Pickup)
	assert.Equal(t, model.C(0, 3), p.Route().Target)
	assert.False(t, p.Route().Charged)
	assert.Equal(t, 4, p.Steps())
}

func TestPlanItemPickupShortDropoffRestsOnPickup(t *testing.T) {
	entry := corridorEntry()
	entry.PathToDropoff = model.Path{model.C(0, 3)}

	prog, err := Plan(corridor(), "r1", "t1", entry)
	require.NoError(t, err)
	assert.Equal(t, model.C(0, 1), prog.(ItemPickup).Rest)
}

func TestPlanEmptyHanded(t *testing.T) {
	w := corridor()
	w.Grid.Set(model.C(0, 1), model.CellEmpty)

	prog, err := Plan(w, "r1", "t1", corridorEntry())
	require.NoError(t, err)
	p, ok := prog.(EmptyHanded)
	require.True(t, ok, "got %T", prog)
	assert.Equal(t, model.C(0, 0), p.Vacate)
	assert.Equal(t, 5, p.Steps())
}

func TestPlanEmptyHandedWithoutApproachVacatesDropoffStart(t *testing.T) {
	w := corridor()
	w.Grid.Set(model.C(0, 1), model.CellEmpty)
	entry := corridorEntry()
	entry.PathToPickup = nil

	prog, err := Plan(w, "r1", "t1", entry)
	require.NoError(t, err)
	p := prog.(EmptyHanded)
	assert.Equal(t, model.C(0, 1), p.Vacate)
	assert.Equal(t, model.C(0, 1), p.Route().Pickup, "pickup falls back to the task")
}

func TestPlanDetectsChargingPass(t *testing.T) {
	w := corridor()
	w.Grid.Set(model.C(0, 2), model.CellChargingStation)

	prog, err := Plan(w, "r1", "t1", corridorEntry())
	require.NoError(t, err)
	assert.True(t, prog.Route().Charged)
}

func TestPlanPreconditions(t *testing.T) {
	tests := []struct {
		name   string
		world  func() model.World
		robot  string
		task   string
		entry  func() model.ScheduleEntry
		target error
	}{
		{
			name:   "unknown robot",
			world:  corridor,
			robot:  "ghost",
			task:   "t1",
			entry:  corridorEntry,
			target: ErrUnknownRobot,
		},
		{
			name:  "no dropoff",
			world: corridor,
			robot: "r1",
			task:  "t1",
			entry: func() model.ScheduleEntry {
				e := corridorEntry()
				e.PathToDropoff = nil
				return e
			},
			target: ErrMissingEndpoint,
		},
		{
			name:  "no pickup and unknown task",
			world: corridor,
			robot: "r1",
			task:  "t9",
			entry: func() model.ScheduleEntry {
				e := corridorEntry()
				e.PathToPickup = nil
				return e
			},
			target: ErrMissingEndpoint,
		},
		{
			name:  "path leaves grid",
			world: corridor,
			robot: "r1",
			task:  "t1",
			entry: func() model.ScheduleEntry {
				e := corridorEntry()
				e.PathToDropoff = model.Path{model.C(0, 1), model.C(1, 1), model.C(0, 3)}
				return e
			},
			target: ErrPathOutOfBounds,
		},
		{
			name: "dropoff holds an item",
			world: func() model.World {
				w := corridor()
				w.Grid.Set(model.C(0, 3), model.CellItem)
				return w
			},
			robot:  "r1",
			task:   "t1",
			entry:  corridorEntry,
			target: ErrDropoffOccupied,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.world(), tt.robot, tt.task, tt.entry())
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, IsPrecondition(err))
		})
	}
}

func TestRecharge(t *testing.T) {
	tests := []struct {
		prior   int
		charged bool
		cost    float64
		want    int
	}{
		{80, false, 10, 70},
		{80, true, 10, 90},
		{5, false, 10, 0},
		{50, false, 12.7, 37},
		{50, false, -3, 50},
		{0, true, 0, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Recharge(tt.prior, tt.charged, tt.cost), "prior=%d charged=%v cost=%v", tt.prior, tt.charged, tt.cost)
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, DefaultConfig(), c)
	assert.Equal(t, 200*time.Millisecond, c.StepDelay())
	assert.Equal(t, 500*time.Millisecond, c.SettleDelay())
	assert.NoError(t, c.Validate())
	assert.Error(t, Config{StepDelayMS: -1}.Validate())
}
