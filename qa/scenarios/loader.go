// Package scenarios replays warehouse scenarios described in YAML: a world,
// a schedule and the state expected once playback ends.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/warehouse/core/model"
)

type RobotDef struct {
	ID       string `yaml:"id"`
	Type     string `yaml:"type"`
	Shift    string `yaml:"shift"`
	Battery  int    `yaml:"battery"`
	Position [2]int `yaml:"position"`
}

func (r RobotDef) ToModel() model.Robot {
	typ := model.RobotType(r.Type)
	if typ == "" {
		typ = model.RobotGeneral
	}
	shift := model.Shift(r.Shift)
	if shift == "" {
		shift = model.ShiftAroundClock
	}
	return model.Robot{ID: r.ID, Type: typ, Shift: shift, Battery: r.Battery, Position: coord(r.Position)}
}

type TaskDef struct {
	ID      string `yaml:"id"`
	Type    string `yaml:"type"`
	Shift   string `yaml:"shift"`
	Pickup  [2]int `yaml:"pickup"`
	Dropoff [2]int `yaml:"dropoff"`
}

func (t TaskDef) ToModel() model.Task {
	return model.Task{
		ID:      t.ID,
		Type:    model.TaskType(t.Type),
		Shift:   model.Shift(t.Shift),
		Pickup:  coord(t.Pickup),
		Dropoff: coord(t.Dropoff),
	}
}

type EntryDef struct {
	Robot   string   `yaml:"robot"`
	Cost    float64  `yaml:"cost"`
	Charge  [][2]int `yaml:"charge,omitempty"`
	Pickup  [][2]int `yaml:"pickup"`
	Dropoff [][2]int `yaml:"dropoff"`
}

func (e EntryDef) ToModel() model.ScheduleEntry {
	return model.ScheduleEntry{
		RobotID:              e.Robot,
		EstimatedBatteryCost: e.Cost,
		PathToCharge:         path(e.Charge),
		PathToPickup:         path(e.Pickup),
		PathToDropoff:        path(e.Dropoff),
	}
}

// CellDef pins the expected content of one cell.
type CellDef struct {
	At   [2]int `yaml:"at"`
	Cell string `yaml:"cell"`
}

// RobotState is the expected state of a robot.
type RobotState struct {
	Battery  int    `yaml:"battery"`
	Position [2]int `yaml:"position"`
}

type Expected struct {
	Refused   bool                  `yaml:"refused"`
	Settled   int                   `yaml:"settled"`
	Skipped   int                   `yaml:"skipped"`
	Steps     int                   `yaml:"steps"`
	TasksLeft int                   `yaml:"tasks_left"`
	Robots    map[string]RobotState `yaml:"robots,omitempty"`
	Cells     []CellDef             `yaml:"cells,omitempty"`
}

type Scenario struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description,omitempty"`
	Concurrent  bool                `yaml:"concurrent,omitempty"`
	Grid        [][]string          `yaml:"grid"`
	Robots      []RobotDef          `yaml:"robots"`
	Tasks       []TaskDef           `yaml:"tasks"`
	Schedule    map[string]EntryDef `yaml:"schedule"`
	Expected    Expected            `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	return &sc, nil
}

// World builds the warehouse described by the scenario.
func (sc *Scenario) World() (model.World, error) {
	height := len(sc.Grid)
	if height == 0 {
		return model.World{}, fmt.Errorf("scenario %s: empty grid", sc.Name)
	}
	width := len(sc.Grid[0])
	w := model.NewWorld(width, height)
	for r, row := range sc.Grid {
		if len(row) != width {
			return model.World{}, fmt.Errorf("scenario %s: row %d has %d cells, want %d", sc.Name, r, len(row), width)
		}
		for c, name := range row {
			cell, err := model.ParseCell(name)
			if err != nil {
				return model.World{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			w.Grid.Set(model.C(r, c), cell)
		}
	}
	for _, rd := range sc.Robots {
		w.Robots = append(w.Robots, rd.ToModel())
	}
	for _, td := range sc.Tasks {
		w.Tasks = append(w.Tasks, td.ToModel())
	}
	return w, w.Validate()
}

// ScheduleModel converts the schedule section.
func (sc *Scenario) ScheduleModel() model.Schedule {
	out := make(model.Schedule, len(sc.Schedule))
	for id, e := range sc.Schedule {
		out[id] = e.ToModel()
	}
	return out
}

func coord(p [2]int) model.Coordinate { return model.C(p[0], p[1]) }

func path(ps [][2]int) model.Path {
	if ps == nil {
		return nil
	}
	out := make(model.Path, len(ps))
	for i, p := range ps {
		out[i] = coord(p)
	}
	return out
}
