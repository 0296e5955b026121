package stream

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/warehouse/core/events"
	"github.com/kilianp07/warehouse/core/model"
	"github.com/kilianp07/warehouse/internal/eventbus"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func read(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestStreamSendsWorldThenEvents(t *testing.T) {
	bus := eventbus.New()
	worlds := eventbus.NewTyped[model.World]()
	initial := model.NewWorld(2, 1)
	h := NewHandler(bus, worlds, func() (model.World, bool) { return initial, true }, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	env := read(t, conn)
	require.Equal(t, "world", env.Type)
	var w model.World
	require.NoError(t, json.Unmarshal(env.Data, &w))
	assert.Equal(t, 2, w.Grid.Width)

	bus.Publish(events.StepEvent{RobotID: "r1", Leg: events.LegDropoff, Index: 1, Position: model.C(0, 1)})
	env = read(t, conn)
	require.Equal(t, "step", env.Type)
	assert.JSONEq(t, `{"run_id":"","robot_id":"r1","task_id":"","leg":"dropoff","index":1,"position":[0,1]}`, string(env.Data))

	next := model.NewWorld(3, 1)
	worlds.Publish(next)
	env = read(t, conn)
	require.Equal(t, "world", env.Type)
	require.NoError(t, json.Unmarshal(env.Data, &w))
	assert.Equal(t, 3, w.Grid.Width)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return bus.Subscribers() == 0 && worlds.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEncode(t *testing.T) {
	msg, ok := Encode(events.RunEvent{RunID: "run1", Action: events.RunRefused, Err: errors.New("conflict")})
	require.True(t, ok)
	assert.Equal(t, "run", msg.Type)
	assert.Equal(t, runData{RunID: "run1", Action: events.RunRefused, Error: "conflict"}, msg.Data)

	msg, ok = Encode(events.SettleEvent{RobotID: "r1", BatteryAfter: 70, Position: model.C(0, 2)})
	require.True(t, ok)
	assert.Equal(t, "settle", msg.Type)
	assert.Equal(t, 70, msg.Data.(settleData).Battery)

	msg, ok = Encode(events.NoticeEvent{Notice: events.Notice{Title: "Box at dropoff"}})
	require.True(t, ok)
	assert.Equal(t, "Box at dropoff", msg.Data.(events.Notice).Title)

	_, ok = Encode("unrelated")
	assert.False(t, ok)
}
