package metrics_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/warehouse/core/factory"
	metrics "github.com/kilianp07/warehouse/core/metrics"
	_ "github.com/kilianp07/warehouse/infra/metrics"
)

var (
	registerClosing sync.Once
	sinkClosed      atomic.Bool
)

type closingSink struct{ metrics.NopSink }

func (closingSink) Close() { sinkClosed.Store(true) }

func TestNewMetricsSinkShapes(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok)
	assert.Len(t, m.Sinks, 2)
}

func TestNewMetricsSinkUnknownTypeClosesBuiltSinks(t *testing.T) {
	registerClosing.Do(func() {
		require.NoError(t, metrics.RegisterMetricsSink("test-closing", func(map[string]any) (metrics.MetricsSink, error) {
			return closingSink{}, nil
		}))
	})
	sinkClosed.Store(false)

	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "test-closing"}, {Type: "statsd"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, factory.ErrUnknownType))
	assert.Contains(t, err.Error(), "metrics sink 1")
	assert.True(t, sinkClosed.Load(), "sinks built before the failure are closed")
}
