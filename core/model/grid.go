package model

import (
	"encoding/json"
	"fmt"
)

// Cell describes the content of a single grid cell.
type Cell int

const (
	CellEmpty Cell = iota
	CellObstacle
	CellItem
	CellChargingStation
	CellRamp
	CellSlope
	CellRobot
)

// String returns the wire name used by the scheduler service.
func (c Cell) String() string {
	switch c {
	case CellEmpty:
		return "empty"
	case CellObstacle:
		return "obstacle"
	case CellItem:
		return "box"
	case CellChargingStation:
		return "charging_station"
	case CellRamp:
		return "ramp"
	case CellSlope:
		return "slope"
	case CellRobot:
		return "robot"
	default:
		return "unknown"
	}
}

// ParseCell converts a wire name into a Cell.
func ParseCell(s string) (Cell, error) {
	switch s {
	case "empty", "":
		return CellEmpty, nil
	case "obstacle":
		return CellObstacle, nil
	case "box", "item":
		return CellItem, nil
	case "charging_station":
		return CellChargingStation, nil
	case "ramp":
		return CellRamp, nil
	case "slope":
		return CellSlope, nil
	case "robot":
		return CellRobot, nil
	default:
		return CellEmpty, fmt.Errorf("unknown cell type %q", s)
	}
}

func (c Cell) MarshalText() ([]byte, error) {
	if c < CellEmpty || c > CellRobot {
		return nil, fmt.Errorf("invalid cell %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Cell) UnmarshalText(b []byte) error {
	v, err := ParseCell(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Grid is a dense row-major matrix of cells.
type Grid struct {
	Width  int
	Height int
	Cells  [][]Cell
}

// NewGrid returns a grid of the given size filled with empty cells.
func NewGrid(width, height int) Grid {
	cells := make([][]Cell, height)
	for i := range cells {
		cells[i] = make([]Cell, width)
	}
	return Grid{Width: width, Height: height, Cells: cells}
}

// InBounds reports whether c addresses a cell of the grid.
func (g Grid) InBounds(c Coordinate) bool {
	return c.Row >= 0 && c.Col >= 0 && c.Row < g.Height && c.Col < g.Width
}

// At returns the cell at c. Out of bounds coordinates read as obstacles.
func (g Grid) At(c Coordinate) Cell {
	if !g.InBounds(c) {
		return CellObstacle
	}
	return g.Cells[c.Row][c.Col]
}

// Set writes the cell at c. It is a no-op for out of bounds coordinates.
func (g Grid) Set(c Coordinate, cell Cell) {
	if !g.InBounds(c) {
		return
	}
	g.Cells[c.Row][c.Col] = cell
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	out := Grid{Width: g.Width, Height: g.Height, Cells: make([][]Cell, len(g.Cells))}
	for i, row := range g.Cells {
		out.Cells[i] = append([]Cell(nil), row...)
	}
	return out
}

// Contains reports whether any coordinate of p holds the given cell type.
func (g Grid) Contains(p Path, cell Cell) bool {
	for _, c := range p {
		if g.At(c) == cell {
			return true
		}
	}
	return false
}

// Validate checks that the cell matrix matches the declared dimensions.
func (g Grid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", g.Width, g.Height)
	}
	if len(g.Cells) != g.Height {
		return fmt.Errorf("grid has %d rows, expected %d", len(g.Cells), g.Height)
	}
	for i, row := range g.Cells {
		if len(row) != g.Width {
			return fmt.Errorf("grid row %d has %d cells, expected %d", i, len(row), g.Width)
		}
	}
	return nil
}

type gridJSON struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Grid   [][]Cell `json:"grid"`
}

func (g Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(gridJSON{Width: g.Width, Height: g.Height, Grid: g.Cells})
}

func (g *Grid) UnmarshalJSON(b []byte) error {
	var raw gridJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	g.Width, g.Height, g.Cells = raw.Width, raw.Height, raw.Grid
	return nil
}
