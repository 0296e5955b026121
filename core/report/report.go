// Package report summarises a playback run.
package report

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/warehouse/core/model"
	"github.com/kilianp07/warehouse/core/playback"
)

// Line is one schedule entry of the run.
type Line struct {
	RobotID       string           `json:"robot_id"`
	TaskID        string           `json:"task_id"`
	Program       string           `json:"program,omitempty"`
	Status        string           `json:"status"`
	Reason        string           `json:"reason,omitempty"`
	Steps         int              `json:"steps"`
	BatteryBefore int              `json:"battery_before"`
	BatteryAfter  int              `json:"battery_after"`
	Charged       bool             `json:"charged"`
	Position      model.Coordinate `json:"position"`
}

// Summary aggregates a run.
type Summary struct {
	RunID     string        `json:"run_id"`
	Cancelled bool          `json:"cancelled"`
	Settled   int           `json:"settled"`
	Skipped   int           `json:"skipped"`
	Aborted   int           `json:"aborted"`
	Steps     int           `json:"steps"`
	Duration  time.Duration `json:"duration_ns"`
	// MeanCost and StdCost describe the battery spent by settled robots
	// that did not charge on the way.
	MeanCost float64 `json:"mean_battery_cost"`
	StdCost  float64 `json:"std_battery_cost"`
	Lines    []Line  `json:"lines"`
}

// Summarize builds the Summary of res.
func Summarize(res playback.Result) Summary {
	s := Summary{
		RunID:     res.RunID,
		Cancelled: res.Cancelled,
		Settled:   res.Count(playback.StatusSettled),
		Skipped:   res.Count(playback.StatusSkipped),
		Aborted:   res.Count(playback.StatusCancelled),
		Steps:     res.Steps(),
		Lines:     make([]Line, 0, len(res.Outcomes)),
	}
	if !res.Finished.IsZero() {
		s.Duration = res.Finished.Sub(res.Started)
	}
	var costs []float64
	for _, o := range res.Outcomes {
		l := Line{
			RobotID:       o.RobotID,
			TaskID:        o.TaskID,
			Program:       o.Program,
			Status:        string(o.Status),
			Steps:         o.Steps,
			BatteryBefore: o.BatteryBefore,
			BatteryAfter:  o.BatteryAfter,
			Charged:       o.Charged,
			Position:      o.Position,
		}
		if o.Err != nil {
			l.Reason = o.Err.Error()
		}
		s.Lines = append(s.Lines, l)
		if o.Status == playback.StatusSettled && !o.Charged {
			costs = append(costs, float64(o.BatteryBefore-o.BatteryAfter))
		}
	}
	s.MeanCost, s.StdCost = meanStd(costs)
	return s
}

func meanStd(xs []float64) (float64, float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}
