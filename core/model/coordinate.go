package model

import (
	"encoding/json"
	"fmt"
)

// Coordinate identifies a grid cell by row and column.
type Coordinate struct {
	Row int
	Col int
}

// C is shorthand for Coordinate{Row: row, Col: col}.
func C(row, col int) Coordinate { return Coordinate{Row: row, Col: col} }

func (c Coordinate) String() string { return fmt.Sprintf("[%d, %d]", c.Row, c.Col) }

// MarshalJSON encodes the coordinate as a [row, col] pair.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Row, c.Col})
}

// UnmarshalJSON decodes a [row, col] pair.
func (c *Coordinate) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinate: expected 2 values, got %d", len(pair))
	}
	if pair[0] < 0 || pair[1] < 0 {
		return fmt.Errorf("coordinate: negative value in %v", pair)
	}
	c.Row, c.Col = pair[0], pair[1]
	return nil
}

// Path is an ordered sequence of coordinates.
type Path []Coordinate

// Last returns the final coordinate of the path.
func (p Path) Last() (Coordinate, bool) {
	if len(p) == 0 {
		return Coordinate{}, false
	}
	return p[len(p)-1], true
}

// First returns the first coordinate of the path.
func (p Path) First() (Coordinate, bool) {
	if len(p) == 0 {
		return Coordinate{}, false
	}
	return p[0], true
}
