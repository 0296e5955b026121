package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/warehouse/core/factory"
	"github.com/kilianp07/warehouse/core/logger"
	coremetrics "github.com/kilianp07/warehouse/core/metrics"
	"github.com/kilianp07/warehouse/core/model"
	"github.com/kilianp07/warehouse/internal/eventbus"
	"github.com/kilianp07/warehouse/test/util"
)

func TestPromSinkRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, s.RecordRobotOutcome(coremetrics.RobotOutcomeEvent{Program: "item_pickup", Status: coremetrics.StatusSettled, BatteryBefore: 80, BatteryAfter: 70, Duration: time.Second}))
	require.NoError(t, s.RecordRobotOutcome(coremetrics.RobotOutcomeEvent{Program: "empty_handed", Status: coremetrics.StatusSkipped}))
	require.NoError(t, s.RecordStep(coremetrics.StepEvent{Leg: "approach"}))
	require.NoError(t, s.RecordStep(coremetrics.StepEvent{Leg: "approach"}))
	require.NoError(t, s.RecordRun(coremetrics.RunEvent{Cancelled: true}))
	require.NoError(t, s.RecordNotice(coremetrics.NoticeEvent{Level: "error", Title: "Box at dropoff"}))

	assert.Equal(t, 1.0, testutil.ToFloat64(s.outcomes.WithLabelValues("item_pickup", "settled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.outcomes.WithLabelValues("empty_handed", "skipped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.steps.WithLabelValues("approach")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.runs.WithLabelValues("cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.notices.WithLabelValues("error", "Box at dropoff")))
	assert.Equal(t, 1, testutil.CollectAndCount(s.battery, "playback_battery_spent"))
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, a.RecordStep(coremetrics.StepEvent{Leg: "dropoff"}))
	require.NoError(t, b.RecordStep(coremetrics.StepEvent{Leg: "dropoff"}))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.steps.WithLabelValues("dropoff")))
}

func TestWorldCollectorSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	worlds := eventbus.NewTyped[model.World]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartWorldCollector(ctx, worlds, s)
	require.Eventually(t, func() bool { return worlds.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	w := model.NewWorld(2, 1)
	w.Grid.Set(model.C(0, 1), model.CellItem)
	w.Robots = append(w.Robots, model.Robot{ID: "r1", Battery: 55})
	worlds.Publish(w)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(s.level.WithLabelValues("r1")) == 55
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.items))
	assert.Equal(t, 0.0, testutil.ToFloat64(s.openTasks))
}

func TestPromServerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, s.RecordRun(coremetrics.RunEvent{Duration: time.Second}))

	srv, err := NewPromServer("127.0.0.1:0", reg, logger.NopLogger{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), util.MetricTimeout)
	defer waitCancel()
	url := fmt.Sprintf("http://%s/metrics", srv.Addr())
	require.NoError(t, util.WaitForMetric(waitCtx, url, `playback_runs_total{result="finished"} 1`))

	cancel()
	require.NoError(t, <-done)
}

func TestFactoryBuildsSinks(t *testing.T) {
	assert.False(t, HasPrometheus(nil))
	assert.True(t, HasPrometheus([]factory.ModuleConfig{{Type: "nop"}, {Type: "prometheus"}}))
	sink, err := coremetrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, sink)

	sink, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}})
	require.NoError(t, err)
	assert.IsType(t, &PromSink{}, sink)

	sink, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "prometheus"}})
	require.NoError(t, err)
	multi, ok := sink.(*coremetrics.MultiSink)
	require.True(t, ok)
	assert.Len(t, multi.Sinks, 2)

	_, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "statsd"}})
	assert.Error(t, err)
}
