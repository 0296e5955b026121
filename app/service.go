package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	journalapi "github.com/kilianp07/warehouse/api/journal"
	playbackapi "github.com/kilianp07/warehouse/api/playback"
	"github.com/kilianp07/warehouse/api/stream"
	"github.com/kilianp07/warehouse/config"
	"github.com/kilianp07/warehouse/core/journal"
	coremetrics "github.com/kilianp07/warehouse/core/metrics"
	"github.com/kilianp07/warehouse/core/model"
	coremon "github.com/kilianp07/warehouse/core/monitoring"
	coremqtt "github.com/kilianp07/warehouse/core/mqtt"
	"github.com/kilianp07/warehouse/core/playback"
	"github.com/kilianp07/warehouse/core/report"
	"github.com/kilianp07/warehouse/core/scheduler"
	"github.com/kilianp07/warehouse/infra/logger"
	"github.com/kilianp07/warehouse/infra/metrics"
	"github.com/kilianp07/warehouse/infra/monitoring"
	"github.com/kilianp07/warehouse/infra/mqtt"
	"github.com/kilianp07/warehouse/internal/eventbus"
)

// Service wires the playback engine to its HTTP API, MQTT broadcast,
// metrics and journal.
type Service struct {
	Engine    *playback.Engine
	Scheduler *scheduler.Client

	cfg     *config.Config
	bus     *eventbus.Bus
	worlds  *eventbus.TypedBus[model.World]
	sink    coremetrics.MetricsSink
	journal journal.Store
	mqtt    *mqtt.PahoClient
	pub     coremqtt.Publisher
	prom    *metrics.PromServer
	ln      net.Listener
	log     logger.Logger
}

// New creates a Service from the configuration. Listeners are opened here
// so that Addr is known before Run.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	svc := &Service{
		Scheduler: scheduler.NewClient(cfg.Scheduler, logger.New("scheduler")),
		cfg:       cfg,
		bus:       eventbus.NewWithBuffer(cfg.Server.StreamBuffer),
		worlds:    eventbus.NewTyped[model.World](),
		sink:      sink,
		journal:   store,
		log:       logg,
	}

	if metrics.HasPrometheus(cfg.Metrics.Sinks) {
		svc.prom, err = metrics.NewPromServer(cfg.Metrics.PrometheusAddr, prometheus.DefaultGatherer, logger.New("prometheus"))
		if err != nil {
			svc.release()
			return nil, fmt.Errorf("prom server: %w", err)
		}
	}

	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			svc.release()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqtt = client
		svc.pub = client
	}

	svc.Engine = playback.NewEngine(cfg.Playback,
		playback.WithLogger(logger.New("playback")),
		playback.WithBus(svc.bus),
		playback.WithMetrics(sink),
		playback.WithJournal(store),
		playback.OnWorldChanged(svc.worlds.Publish),
	)

	if svc.mqtt != nil {
		svc.mqtt.OnControl(svc.handleControl)
	}

	svc.ln, err = net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		svc.release()
		return nil, fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}
	return svc, nil
}

// Addr returns the address the HTTP API listens on.
func (s *Service) Addr() string { return s.ln.Addr().String() }

func (s *Service) handleControl(m coremqtt.ControlMessage) {
	switch m.Action {
	case coremqtt.ActionCancel:
		s.Engine.Cancel()
	default:
		s.log.Warnf("unknown control action %q", m.Action)
	}
}

// Handler returns the HTTP routes of the service. Runs started through it
// are bound to ctx.
func (s *Service) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	playbackapi.NewHandler(ctx, s.Engine,
		playbackapi.WithFetcher(s.Scheduler),
		playbackapi.WithLogger(logger.New("api")),
		playbackapi.OnResult(s.logResult),
	).Register(mux)
	mux.Handle("/api/journal", journalapi.NewHandler(s.journal, s.cfg.Server.Token))
	mux.Handle("/api/stream", stream.NewHandler(s.bus, s.worlds, s.Engine.World, logger.New("stream")))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Service) logResult(res playback.Result) {
	sum := report.Summarize(res)
	s.log.Infof("run %s finished: %d settled, %d skipped, %d aborted, %d steps in %s",
		sum.RunID, sum.Settled, sum.Skipped, sum.Aborted, sum.Steps, sum.Duration)
}

// Run serves until ctx is cancelled, then stops the running playback and
// drains the servers.
func (s *Service) Run(ctx context.Context) error {
	defer coremon.Recover()

	g, ctx := errgroup.WithContext(ctx)
	metrics.StartWorldCollector(ctx, s.worlds, s.sink)
	if s.pub != nil {
		g.Go(func() error {
			mqtt.Forward(ctx, s.pub, s.bus, s.worlds, logger.New("mqtt_forwarder"))
			return nil
		})
	}
	if s.prom != nil {
		g.Go(func() error { return s.prom.Serve(ctx) })
	}

	srv := &http.Server{
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		s.log.Infof("playback API listening on %s", s.Addr())
		if err := srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.Engine.Cancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Engine.Wait(shutdownCtx); err != nil {
			s.log.Warnf("playback did not stop: %v", err)
		}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	err := s.Engine.Close()
	s.release()
	coremon.Flush(2 * time.Second)
	return err
}

func (s *Service) release() {
	if s.ln != nil {
		_ = s.ln.Close()
	}
	if s.prom != nil {
		_ = s.prom.Close()
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if err := s.journal.Close(); err != nil {
		s.log.Errorf("close journal: %v", err)
	}
	s.bus.Close()
	s.worlds.Close()
}
