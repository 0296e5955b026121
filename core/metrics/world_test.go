package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/warehouse/core/model"
)

func TestNewWorldStateEvent(t *testing.T) {
	w := model.NewWorld(3, 2)
	w.Grid.Set(model.C(0, 0), model.CellRobot)
	w.Grid.Set(model.C(0, 1), model.CellItem)
	w.Grid.Set(model.C(1, 2), model.CellItem)
	w.Robots = append(w.Robots, model.Robot{ID: "r1", Battery: 42, Position: model.C(0, 0)})
	w.Tasks = append(w.Tasks, model.Task{ID: "t1"})

	now := time.Now()
	ev := NewWorldStateEvent(w, now)
	assert.Equal(t, 2, ev.Items)
	assert.Equal(t, 1, ev.Tasks)
	require.Len(t, ev.Robots, 1)
	assert.Equal(t, RobotState{RobotID: "r1", Battery: 42}, ev.Robots[0])
	assert.Equal(t, now, ev.Time)
}
