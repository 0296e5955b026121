package metrics

import (
	"context"
	"time"

	coremetrics "github.com/kilianp07/warehouse/core/metrics"
	"github.com/kilianp07/warehouse/core/model"
	"github.com/kilianp07/warehouse/internal/eventbus"
)

// StartWorldCollector subscribes to world snapshots and records them on sinks
// implementing WorldRecorder. It stops when the context is canceled or the
// bus is closed.
func StartWorldCollector(ctx context.Context, worlds *eventbus.TypedBus[model.World], sink coremetrics.MetricsSink) {
	if worlds == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.WorldRecorder)
	if !ok {
		return
	}
	sub := worlds.Subscribe()
	go func() {
		defer worlds.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case w, ok := <-sub:
				if !ok {
					return
				}
				_ = rec.RecordWorld(coremetrics.NewWorldStateEvent(w, time.Now()))
			}
		}
	}()
}
