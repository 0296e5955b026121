// Package mqtt defines how playback state is broadcast over MQTT.
package mqtt

import (
	"errors"

	"github.com/kilianp07/warehouse/core/events"
	"github.com/kilianp07/warehouse/core/model"
)

// Publisher broadcasts playback state to MQTT subscribers.
type Publisher interface {
	PublishWorld(w model.World) error
	PublishStep(ev events.StepEvent) error
	PublishNotice(n events.Notice) error
	PublishRun(ev events.RunEvent) error
}

// ErrNotConnected is returned by publishers while the broker is unreachable.
var ErrNotConnected = errors.New("mqtt: not connected")

// Control actions accepted on the control topic.
const (
	ActionCancel = "cancel"
)

// ControlMessage is a remote command received on the control topic.
type ControlMessage struct {
	CommandID string `json:"command_id"`
	Action    string `json:"action"`
}

// ControlHandler reacts to control messages.
type ControlHandler func(ControlMessage)
