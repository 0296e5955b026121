// Package playback exposes the playback engine and its world over HTTP.
package playback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/warehouse/core/logger"
	"github.com/kilianp07/warehouse/core/model"
	"github.com/kilianp07/warehouse/core/playback"
)

// Engine is the part of playback.Engine the handlers drive.
type Engine interface {
	Load(world model.World) error
	Run(ctx context.Context, world *model.World, schedule model.Schedule) (<-chan playback.Result, error)
	Cancel()
	Running() bool
	Frames() map[string]model.Coordinate
	World() (model.World, bool)
}

// Fetcher computes a schedule for a world.
type Fetcher interface {
	Fetch(ctx context.Context, world model.World) (model.Schedule, error)
}

// Handler serves /api/playback and /api/world.
type Handler struct {
	ctx      context.Context
	engine   Engine
	fetcher  Fetcher
	log      logger.Logger
	onResult func(playback.Result)
}

// Option configures a Handler.
type Option func(*Handler)

// WithFetcher lets POST /api/playback ask the scheduler when the request
// carries no schedule.
func WithFetcher(f Fetcher) Option { return func(h *Handler) { h.fetcher = f } }

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option { return func(h *Handler) { h.log = l } }

// OnResult is called with the result of every run started over HTTP.
func OnResult(fn func(playback.Result)) Option { return func(h *Handler) { h.onResult = fn } }

// NewHandler builds the handlers. Runs started over HTTP live as long as
// ctx, not as long as the request.
func NewHandler(ctx context.Context, eng Engine, opts ...Option) *Handler {
	h := &Handler{ctx: ctx, engine: eng, log: logger.NopLogger{}}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/playback", h.servePlayback)
	mux.HandleFunc("/api/world", h.serveWorld)
}

type stateResponse struct {
	Running bool                        `json:"running"`
	Frames  map[string]model.Coordinate `json:"frames"`
}

type runRequest struct {
	Warehouse *model.World   `json:"warehouse"`
	Scheduler model.Schedule `json:"scheduler"`
}

type worldBody struct {
	Warehouse model.World `json:"warehouse"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) servePlayback(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, stateResponse{Running: h.engine.Running(), Frames: h.engine.Frames()})
	case http.MethodPost:
		h.startRun(w, r)
	case http.MethodDelete:
		h.engine.Cancel()
		writeJSON(w, http.StatusOK, stateResponse{Running: h.engine.Running(), Frames: h.engine.Frames()})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) startRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	if req.Warehouse != nil {
		if err := req.Warehouse.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
	}
	if req.Scheduler == nil && h.fetcher != nil {
		world, ok := h.targetWorld(req.Warehouse)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: playback.ErrNoWorld.Error()})
			return
		}
		s, err := h.fetcher.Fetch(r.Context(), world)
		if err != nil {
			h.log.Errorf("fetch schedule: %v", err)
			writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
			return
		}
		req.Scheduler = s
	}

	results, err := h.engine.Run(h.ctx, req.Warehouse, req.Scheduler)
	if err != nil {
		writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
		return
	}
	go h.drain(results)
	writeJSON(w, http.StatusAccepted, stateResponse{Running: true, Frames: h.engine.Frames()})
}

func (h *Handler) targetWorld(w *model.World) (model.World, bool) {
	if w != nil {
		return *w, true
	}
	return h.engine.World()
}

func (h *Handler) drain(results <-chan playback.Result) {
	for res := range results {
		h.log.Infof("run %s ended: %d settled, %d skipped, cancelled=%t",
			res.RunID, res.Count(playback.StatusSettled), res.Count(playback.StatusSkipped), res.Cancelled)
		if h.onResult != nil {
			h.onResult(res)
		}
	}
}

func (h *Handler) serveWorld(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		world, ok := h.engine.World()
		if !ok {
			writeJSON(w, http.StatusNotFound, errorBody{Error: playback.ErrNoWorld.Error()})
			return
		}
		writeJSON(w, http.StatusOK, worldBody{Warehouse: world})
	case http.MethodPut:
		var body worldBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
			return
		}
		if err := h.engine.Load(body.Warehouse); err != nil {
			writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
			return
		}
		world, _ := h.engine.World()
		writeJSON(w, http.StatusOK, worldBody{Warehouse: world})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, playback.ErrAlreadyRunning), errors.Is(err, playback.ErrDropoffConflict):
		return http.StatusConflict
	case errors.Is(err, playback.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
