package playback

import (
	"fmt"

	"github.com/kilianp07/warehouse/core/model"
)

// Route holds what every program needs to animate and settle one entry.
type Route struct {
	RobotID string
	TaskID  string
	// Approach is the optional charge leg followed by the pickup leg.
	Approach model.Path
	Dropoff  model.Path
	Pickup   model.Coordinate
	Target   model.Coordinate
	Cost     float64
	// Charged is set when a charging station lies on the full path.
	Charged bool
}

// Program is the playback variant chosen for a schedule entry.
type Program interface {
	Name() string
	Route() Route
}

// ItemPickup carries an item from the pickup cell to the dropoff cell. The
// robot stops one cell short of the dropoff.
type ItemPickup struct {
	route Route
	// Rest is where the robot settles.
	Rest model.Coordinate
}

func (p ItemPickup) Name() string { return "item_pickup" }
func (p ItemPickup) Route() Route { return p.route }

// Steps returns how many positions the program animates.
func (p ItemPickup) Steps() int { return len(p.route.Approach) + len(p.route.Dropoff) - 1 }

// EmptyHanded walks both legs and settles on the dropoff cell.
type EmptyHanded struct {
	route Route
	// Vacate is the cell cleared when the robot settles.
	Vacate model.Coordinate
}

func (p EmptyHanded) Name() string { return "empty_handed" }
func (p EmptyHanded) Route() Route { return p.route }

// Steps returns how many positions the program animates.
func (p EmptyHanded) Steps() int { return len(p.route.Approach) + len(p.route.Dropoff) }

// Plan resolves the program of robotID for the task entry against the world
// as it is when the robot's playback starts.
func Plan(world model.World, robotID, taskID string, entry model.ScheduleEntry) (Program, error) {
	if _, ok := world.Robot(robotID); !ok {
		return nil, fmt.Errorf("robot %s: %w", robotID, ErrUnknownRobot)
	}
	approach := entry.Approach()
	dropoff := append(model.Path(nil), entry.PathToDropoff...)

	pickup, ok := approach.Last()
	if !ok {
		task, found := world.TaskByID(taskID)
		if !found {
			return nil, fmt.Errorf("robot %s task %s: no pickup: %w", robotID, taskID, ErrMissingEndpoint)
		}
		pickup = task.Pickup
	}
	target, ok := dropoff.Last()
	if !ok {
		return nil, fmt.Errorf("robot %s task %s: no dropoff: %w", robotID, taskID, ErrMissingEndpoint)
	}

	g := world.Grid
	if !g.InBounds(pickup) {
		return nil, fmt.Errorf("robot %s task %s: pickup %s: %w", robotID, taskID, pickup, ErrPathOutOfBounds)
	}
	for _, c := range entry.FullPath() {
		if !g.InBounds(c) {
			return nil, fmt.Errorf("robot %s task %s: %s: %w", robotID, taskID, c, ErrPathOutOfBounds)
		}
	}
	if g.At(target) == model.CellItem {
		return nil, fmt.Errorf("robot %s task %s: dropoff %s: %w", robotID, taskID, target, ErrDropoffOccupied)
	}

	route := Route{
		RobotID:  robotID,
		TaskID:   taskID,
		Approach: approach,
		Dropoff:  dropoff,
		Pickup:   pickup,
		Target:   target,
		Cost:     entry.EstimatedBatteryCost,
		Charged:  g.Contains(entry.FullPath(), model.CellChargingStation),
	}

	if g.At(pickup) == model.CellItem {
		rest := pickup
		if len(dropoff) > 1 {
			rest = dropoff[len(dropoff)-2]
		}
		return ItemPickup{route: route, Rest: rest}, nil
	}

	vacate, ok := approach.First()
	if !ok {
		vacate, _ = dropoff.First()
	}
	return EmptyHanded{route: route, Vacate: vacate}, nil
}
