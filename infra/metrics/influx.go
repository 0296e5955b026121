package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/warehouse/core/metrics"
	"github.com/kilianp07/warehouse/infra/logger"
)

// InfluxSink writes playback outcomes and world snapshots to InfluxDB using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRobotOutcome writes one robot_outcome point per schedule entry.
func (s *InfluxSink) RecordRobotOutcome(ev coremetrics.RobotOutcomeEvent) error {
	p := write.NewPointWithMeasurement("robot_outcome").
		AddTag("robot_id", ev.RobotID).
		AddTag("task_id", ev.TaskID).
		AddTag("program", ev.Program).
		AddTag("status", ev.Status).
		AddTag("run_id", ev.RunID).
		AddField("steps", ev.Steps).
		AddField("battery_before", ev.BatteryBefore).
		AddField("battery_after", ev.BatteryAfter).
		AddField("charged", ev.Charged).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000))
	if ev.Reason != "" {
		p = p.AddField("reason", ev.Reason)
	}
	return s.write(p.SetTime(ev.Time))
}

// RecordRun writes the summary of a finished run.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	p := write.NewPointWithMeasurement("playback_run").
		AddTag("run_id", ev.RunID).
		AddField("robots", ev.Robots).
		AddField("settled", ev.Settled).
		AddField("skipped", ev.Skipped).
		AddField("cancelled", ev.Cancelled).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordNotice writes an operator notice.
func (s *InfluxSink) RecordNotice(ev coremetrics.NoticeEvent) error {
	p := write.NewPointWithMeasurement("playback_notice").
		AddTag("level", ev.Level).
		AddField("title", ev.Title).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordWorld writes a robot_state point per robot.
func (s *InfluxSink) RecordWorld(ev coremetrics.WorldStateEvent) error {
	for _, r := range ev.Robots {
		p := write.NewPointWithMeasurement("robot_state").
			AddTag("robot_id", r.RobotID).
			AddField("battery", r.Battery).
			AddField("row", r.Row).
			AddField("col", r.Col).
			SetTime(ev.Time)
		if err := s.write(p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
