package model

import "sort"

// ScheduleEntry is the externally computed assignment of one task: which
// robot serves it, the battery it is expected to spend and the legs to
// follow. Entries are read-only once produced.
type ScheduleEntry struct {
	RobotID              string  `json:"robot_id"`
	EstimatedBatteryCost float64 `json:"estimated_battery_cost"`
	PathToPickup         Path    `json:"path_to_pickup"`
	PathToDropoff        Path    `json:"path_to_dropoff"`
	// PathToCharge is nil when the robot goes straight to the pickup.
	PathToCharge Path `json:"path_to_charge"`
}

// Approach returns the charge leg followed by the pickup leg as a new slice.
func (e ScheduleEntry) Approach() Path {
	out := make(Path, 0, len(e.PathToCharge)+len(e.PathToPickup))
	out = append(out, e.PathToCharge...)
	return append(out, e.PathToPickup...)
}

// FullPath returns every coordinate travelled: charge, pickup and dropoff legs.
func (e ScheduleEntry) FullPath() Path {
	out := e.Approach()
	return append(out, e.PathToDropoff...)
}

// Schedule maps task ids to their schedule entries.
type Schedule map[string]ScheduleEntry

// ForRobot returns the ids of the tasks assigned to robotID in sorted order.
func (s Schedule) ForRobot(robotID string) []string {
	var ids []string
	for id, e := range s {
		if e.RobotID == robotID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Assigned reports whether robotID has at least one entry.
func (s Schedule) Assigned(robotID string) bool {
	for _, e := range s {
		if e.RobotID == robotID {
			return true
		}
	}
	return false
}
