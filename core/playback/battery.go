package playback

import (
	"math"

	"github.com/kilianp07/warehouse/core/model"
)

// Recharge returns the battery level after an entry costing cost. A charging
// pass restores the full battery before the cost is spent. The result is
// floored and never negative.
func Recharge(prior int, charged bool, cost float64) int {
	base := prior
	if charged {
		base = model.FullBattery
	}
	if cost < 0 || math.IsNaN(cost) {
		cost = 0
	}
	level := math.Floor(float64(base) - cost)
	if level < 0 {
		return 0
	}
	return int(level)
}
