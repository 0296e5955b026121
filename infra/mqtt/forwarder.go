package mqtt

import (
	"context"

	"github.com/kilianp07/warehouse/core/events"
	"github.com/kilianp07/warehouse/core/logger"
	"github.com/kilianp07/warehouse/core/model"
	coremqtt "github.com/kilianp07/warehouse/core/mqtt"
	"github.com/kilianp07/warehouse/internal/eventbus"
)

// Forward publishes playback events from bus and world snapshots from worlds
// until ctx is done or both subscriptions are closed.
func Forward(ctx context.Context, pub coremqtt.Publisher, bus eventbus.EventBus, worlds *eventbus.TypedBus[model.World], log logger.Logger) {
	evCh := bus.Subscribe()
	defer bus.Unsubscribe(evCh)
	wCh := worlds.Subscribe()
	defer worlds.Unsubscribe(wCh)

	for evCh != nil || wCh != nil {
		var err error
		select {
		case <-ctx.Done():
			return
		case w, ok := <-wCh:
			if !ok {
				wCh = nil
				continue
			}
			err = pub.PublishWorld(w)
		case ev, ok := <-evCh:
			if !ok {
				evCh = nil
				continue
			}
			switch e := ev.(type) {
			case events.StepEvent:
				err = pub.PublishStep(e)
			case events.NoticeEvent:
				err = pub.PublishNotice(e.Notice)
			case events.RunEvent:
				err = pub.PublishRun(e)
			}
		}
		if err != nil {
			log.Warnf("mqtt forward: %v", err)
		}
	}
}
