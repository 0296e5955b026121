package metrics

import (
	"time"

	"github.com/kilianp07/warehouse/core/model"
)

// NewWorldStateEvent summarises w at time t.
func NewWorldStateEvent(w model.World, t time.Time) WorldStateEvent {
	ev := WorldStateEvent{Tasks: len(w.Tasks), Time: t}
	for _, r := range w.Robots {
		ev.Robots = append(ev.Robots, RobotState{
			RobotID: r.ID,
			Battery: r.Battery,
			Row:     r.Position.Row,
			Col:     r.Position.Col,
		})
	}
	for _, row := range w.Grid.Cells {
		for _, c := range row {
			if c == model.CellItem {
				ev.Items++
			}
		}
	}
	return ev
}
