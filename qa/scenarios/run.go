package scenarios

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/warehouse/core/model"
	"github.com/kilianp07/warehouse/core/playback"
)

// Outcome is the result of replaying a scenario.
type Outcome struct {
	Result  playback.Result
	Refused error
}

// Run replays sc on a new engine built from cfg and opts and waits for the
// result. A dropoff conflict is reported in Outcome.Refused, not as error.
func Run(ctx context.Context, sc *Scenario, cfg playback.Config, opts ...playback.Option) (Outcome, error) {
	world, err := sc.World()
	if err != nil {
		return Outcome{}, err
	}
	cfg.Concurrent = cfg.Concurrent || sc.Concurrent
	eng := playback.NewEngine(cfg, opts...)
	defer eng.Close()

	results, err := eng.Run(ctx, &world, sc.ScheduleModel())
	if errors.Is(err, playback.ErrDropoffConflict) {
		return Outcome{Refused: err, Result: playback.Result{World: world}}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	select {
	case res := <-results:
		return Outcome{Result: res}, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Check compares an outcome with the expectations of sc and returns one
// line per mismatch.
func Check(sc *Scenario, out Outcome) []string {
	var diffs []string
	exp := sc.Expected
	add := func(format string, args ...any) { diffs = append(diffs, fmt.Sprintf(format, args...)) }

	if refused := out.Refused != nil; refused != exp.Refused {
		add("refused: got %t, want %t", refused, exp.Refused)
	}
	res := out.Result
	if got := res.Count(playback.StatusSettled); got != exp.Settled {
		add("settled: got %d, want %d", got, exp.Settled)
	}
	if got := res.Count(playback.StatusSkipped); got != exp.Skipped {
		add("skipped: got %d, want %d", got, exp.Skipped)
	}
	if exp.Steps != 0 && res.Steps() != exp.Steps {
		add("steps: got %d, want %d", res.Steps(), exp.Steps)
	}
	if got := len(res.World.Tasks); got != exp.TasksLeft {
		add("tasks left: got %d, want %d", got, exp.TasksLeft)
	}
	for id, want := range exp.Robots {
		r, ok := res.World.Robot(id)
		if !ok {
			add("robot %s missing", id)
			continue
		}
		if r.Battery != want.Battery {
			add("robot %s battery: got %d, want %d", id, r.Battery, want.Battery)
		}
		if r.Position != coord(want.Position) {
			add("robot %s position: got %s, want %s", id, r.Position, coord(want.Position))
		}
	}
	for _, c := range exp.Cells {
		want, err := model.ParseCell(c.Cell)
		if err != nil {
			add("cell %v: %v", c.At, err)
			continue
		}
		if got := res.World.Grid.At(coord(c.At)); got != want {
			add("cell %s: got %s, want %s", coord(c.At), got, want)
		}
	}
	return diffs
}
