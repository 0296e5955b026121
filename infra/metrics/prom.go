package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/warehouse/core/metrics"
)

// PromSink records playback activity in Prometheus metrics.
type PromSink struct {
	outcomes  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	battery   *prometheus.HistogramVec
	steps     *prometheus.CounterVec
	runs      *prometheus.CounterVec
	runTime   prometheus.Histogram
	notices   *prometheus.CounterVec
	level     *prometheus.GaugeVec
	items     prometheus.Gauge
	openTasks prometheus.Gauge
}

// NewPromSink registers playback metrics on the default Prometheus registerer.
// The HTTP endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playback_robot_outcomes_total",
			Help: "Schedule entries played per program and outcome",
		}, []string{"program", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "playback_robot_duration_seconds",
			Help:    "Time between the first step and the settle of a robot",
			Buckets: prometheus.DefBuckets,
		}, []string{"program"}),
		battery: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "playback_battery_spent",
			Help:    "Battery points spent by a settled robot",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}, []string{"charged"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playback_steps_total",
			Help: "Animated positions per leg",
		}, []string{"leg"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playback_runs_total",
			Help: "Playback runs by result",
		}, []string{"result"}),
		runTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "playback_run_duration_seconds",
			Help:    "Wall time of a playback run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playback_notices_total",
			Help: "Operator notices raised during playback",
		}, []string{"level", "title"}),
		level: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warehouse_robot_battery_level",
			Help: "Battery level of each robot in the current world",
		}, []string{"robot_id"}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "warehouse_items",
			Help: "Item cells on the grid",
		}),
		openTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "warehouse_open_tasks",
			Help: "Tasks not yet delivered",
		}),
	}

	var err error
	if s.outcomes, err = register(reg, s.outcomes); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.battery, err = register(reg, s.battery); err != nil {
		return nil, err
	}
	if s.steps, err = register(reg, s.steps); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.runTime, err = register(reg, s.runTime); err != nil {
		return nil, err
	}
	if s.notices, err = register(reg, s.notices); err != nil {
		return nil, err
	}
	if s.level, err = register(reg, s.level); err != nil {
		return nil, err
	}
	if s.items, err = register(reg, s.items); err != nil {
		return nil, err
	}
	if s.openTasks, err = register(reg, s.openTasks); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing the collector already registered under
// the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRobotOutcome counts the outcome and observes its duration and the
// battery spent when the robot settled.
func (s *PromSink) RecordRobotOutcome(ev coremetrics.RobotOutcomeEvent) error {
	s.outcomes.WithLabelValues(ev.Program, ev.Status).Inc()
	if ev.Status != coremetrics.StatusSettled {
		return nil
	}
	s.duration.WithLabelValues(ev.Program).Observe(ev.Duration.Seconds())
	spent := ev.BatteryBefore - ev.BatteryAfter
	if spent < 0 {
		spent = 0
	}
	s.battery.WithLabelValues(strconv.FormatBool(ev.Charged)).Observe(float64(spent))
	return nil
}

func (s *PromSink) RecordStep(ev coremetrics.StepEvent) error {
	s.steps.WithLabelValues(ev.Leg).Inc()
	return nil
}

func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	result := "finished"
	if ev.Cancelled {
		result = "cancelled"
	}
	s.runs.WithLabelValues(result).Inc()
	s.runTime.Observe(ev.Duration.Seconds())
	return nil
}

func (s *PromSink) RecordNotice(ev coremetrics.NoticeEvent) error {
	s.notices.WithLabelValues(ev.Level, ev.Title).Inc()
	return nil
}

// RecordWorld sets the world gauges. Robots missing from the snapshot keep
// their last value until the next snapshot lists them.
func (s *PromSink) RecordWorld(ev coremetrics.WorldStateEvent) error {
	for _, r := range ev.Robots {
		s.level.WithLabelValues(r.RobotID).Set(float64(r.Battery))
	}
	s.items.Set(float64(ev.Items))
	s.openTasks.Set(float64(ev.Tasks))
	return nil
}
