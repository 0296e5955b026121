// Package stream pushes playback events to browsers over a websocket.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/warehouse/core/events"
	"github.com/kilianp07/warehouse/core/logger"
	"github.com/kilianp07/warehouse/core/model"
	"github.com/kilianp07/warehouse/internal/eventbus"
)

const (
	writeWait    = time.Second
	pingInterval = 15 * time.Second
	pongWait     = 2 * pingInterval
	readLimit    = 4096
)

// Message is the envelope written to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type stepData struct {
	RunID    string           `json:"run_id"`
	RobotID  string           `json:"robot_id"`
	TaskID   string           `json:"task_id"`
	Leg      events.Leg       `json:"leg"`
	Index    int              `json:"index"`
	Position model.Coordinate `json:"position"`
}

type settleData struct {
	RunID    string           `json:"run_id"`
	RobotID  string           `json:"robot_id"`
	TaskID   string           `json:"task_id"`
	Program  string           `json:"program"`
	Position model.Coordinate `json:"position"`
	Battery  int              `json:"battery"`
}

type runData struct {
	RunID  string           `json:"run_id,omitempty"`
	Action events.RunAction `json:"action"`
	Robots int              `json:"robots"`
	Error  string           `json:"error,omitempty"`
}

// Encode maps a bus event to its client message. ok is false for events
// that are not streamed.
func Encode(ev eventbus.Event) (Message, bool) {
	switch e := ev.(type) {
	case events.StepEvent:
		return Message{Type: "step", Data: stepData{
			RunID: e.RunID, RobotID: e.RobotID, TaskID: e.TaskID,
			Leg: e.Leg, Index: e.Index, Position: e.Position,
		}}, true
	case events.SettleEvent:
		return Message{Type: "settle", Data: settleData{
			RunID: e.RunID, RobotID: e.RobotID, TaskID: e.TaskID,
			Program: e.Program, Position: e.Position, Battery: e.BatteryAfter,
		}}, true
	case events.NoticeEvent:
		return Message{Type: "notice", Data: e.Notice}, true
	case events.RunEvent:
		d := runData{RunID: e.RunID, Action: e.Action, Robots: e.Robots}
		if e.Err != nil {
			d.Error = e.Err.Error()
		}
		return Message{Type: "run", Data: d}, true
	default:
		return Message{}, false
	}
}

// Handler upgrades requests to websockets and streams bus events and world
// snapshots until the client leaves.
type Handler struct {
	bus      eventbus.EventBus
	worlds   *eventbus.TypedBus[model.World]
	current  func() (model.World, bool)
	log      logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a Handler. current, when non-nil, provides the world
// sent right after the upgrade.
func NewHandler(bus eventbus.EventBus, worlds *eventbus.TypedBus[model.World], current func() (model.World, bool), log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{
		bus:     bus,
		worlds:  worlds,
		current: current,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	evCh := h.bus.Subscribe()
	defer h.bus.Unsubscribe(evCh)
	wCh := h.worlds.Subscribe()
	defer h.worlds.Unsubscribe(wCh)

	h.log.Debugf("stream client %s connected", r.RemoteAddr)
	err = h.serve(r.Context(), conn, evCh, wCh)
	if err != nil && !isClosed(err) {
		h.log.Warnf("stream client %s: %v", r.RemoteAddr, err)
	}
	h.log.Debugf("stream client %s left", r.RemoteAddr)
}

var errClientGone = errors.New("stream: client gone")

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, evCh <-chan eventbus.Event, wCh <-chan model.World) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		conn.SetReadLimit(readLimit)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return err
			}
		}
	})

	g.Go(func() error {
		// Unblocks ReadMessage once the writer stops.
		<-gctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		return conn.Close()
	})

	g.Go(func() error {
		if h.current != nil {
			if w, ok := h.current(); ok {
				if err := write(conn, Message{Type: "world", Data: w}); err != nil {
					return err
				}
			}
		}
		ping := time.NewTicker(pingInterval)
		defer ping.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return err
				}
			case w, ok := <-wCh:
				if !ok {
					return errClientGone
				}
				if err := write(conn, Message{Type: "world", Data: w}); err != nil {
					return err
				}
			case ev, ok := <-evCh:
				if !ok {
					return errClientGone
				}
				msg, stream := Encode(ev)
				if !stream {
					continue
				}
				if err := write(conn, msg); err != nil {
					return err
				}
			}
		}
	})

	return g.Wait()
}

func write(conn *websocket.Conn, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func isClosed(err error) bool {
	return errors.Is(err, errClientGone) ||
		errors.Is(err, websocket.ErrCloseSent) ||
		errors.Is(err, net.ErrClosed) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
}
