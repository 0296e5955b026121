package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/warehouse/core/logger"
)

// PromServer exposes a Prometheus gatherer on /metrics.
type PromServer struct {
	srv *http.Server
	ln  net.Listener
	log logger.Logger
}

// NewPromServer listens on addr. A nil gatherer serves the default registry.
func NewPromServer(addr string, g prometheus.Gatherer, log logger.Logger) (*PromServer, error) {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return &PromServer{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
		log: log,
	}, nil
}

// Addr returns the bound address.
func (p *PromServer) Addr() string { return p.ln.Addr().String() }

// Serve blocks until ctx is canceled, then shuts the server down.
func (p *PromServer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.srv.Shutdown(shutdownCtx); err != nil {
			p.log.Errorf("prom server shutdown: %v", err)
		}
	}()
	p.log.Infof("serving metrics on %s", p.Addr())
	if err := p.srv.Serve(p.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the listener of a server that was never served.
func (p *PromServer) Close() error { return p.ln.Close() }
