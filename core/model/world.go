package model

import (
	"fmt"
)

// World is a snapshot of the warehouse: grid cells, robots and open tasks.
// Robot order is significant, playback visits robots in slice order.
type World struct {
	Grid   Grid    `json:"grid"`
	Robots []Robot `json:"robots"`
	Tasks  []Task  `json:"tasks"`
}

// NewWorld returns an empty world of the given size.
func NewWorld(width, height int) World {
	return World{Grid: NewGrid(width, height), Robots: []Robot{}, Tasks: []Task{}}
}

// Clone returns a deep copy of the world.
func (w World) Clone() World {
	return World{
		Grid:   w.Grid.Clone(),
		Robots: append([]Robot{}, w.Robots...),
		Tasks:  append([]Task{}, w.Tasks...),
	}
}

// Robot returns a pointer to the robot with the given id.
func (w *World) Robot(id string) (*Robot, bool) {
	for i := range w.Robots {
		if w.Robots[i].ID == id {
			return &w.Robots[i], true
		}
	}
	return nil, false
}

// TaskByID returns the open task with the given id.
func (w World) TaskByID(id string) (Task, bool) {
	for _, t := range w.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// RemoveTask deletes the task identified by id. When no task carries that id,
// tasks whose pickup/dropoff pair matches are removed instead. It returns the
// number of removed tasks.
func (w *World) RemoveTask(id string, pickup, dropoff Coordinate) int {
	kept := make([]Task, 0, len(w.Tasks))
	removed := 0
	if _, ok := w.TaskByID(id); ok {
		for _, t := range w.Tasks {
			if t.ID == id {
				removed++
				continue
			}
			kept = append(kept, t)
		}
	} else {
		for _, t := range w.Tasks {
			if t.Matches(pickup, dropoff) {
				removed++
				continue
			}
			kept = append(kept, t)
		}
	}
	w.Tasks = kept
	return removed
}

// DropoffConflict returns the first dropoff coordinate shared by two open
// tasks.
func (w World) DropoffConflict() (Coordinate, bool) {
	seen := make(map[Coordinate]struct{}, len(w.Tasks))
	for _, t := range w.Tasks {
		if _, dup := seen[t.Dropoff]; dup {
			return t.Dropoff, true
		}
		seen[t.Dropoff] = struct{}{}
	}
	return Coordinate{}, false
}

// Validate checks the grid and every robot and task against it.
func (w World) Validate() error {
	if err := w.Grid.Validate(); err != nil {
		return err
	}
	ids := make(map[string]struct{}, len(w.Robots))
	for _, r := range w.Robots {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := ids[r.ID]; dup {
			return fmt.Errorf("duplicate robot id %s", r.ID)
		}
		ids[r.ID] = struct{}{}
		if !w.Grid.InBounds(r.Position) {
			return fmt.Errorf("robot %s: position %s outside grid", r.ID, r.Position)
		}
	}
	for _, t := range w.Tasks {
		if err := t.Validate(); err != nil {
			return err
		}
		if !w.Grid.InBounds(t.Pickup) || !w.Grid.InBounds(t.Dropoff) {
			return fmt.Errorf("task %s: location outside grid", t.ID)
		}
	}
	return nil
}
