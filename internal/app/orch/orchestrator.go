// Package orch routes inbound events to the lifecycle controller, the room
// relay and the signaling broker.
package orch

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/dkeye/pulse/internal/app/lifecycle"
	"github.com/dkeye/pulse/internal/app/presence"
	"github.com/dkeye/pulse/internal/app/relay"
	"github.com/dkeye/pulse/internal/app/signaling"
	"github.com/dkeye/pulse/internal/core"
	"github.com/dkeye/pulse/internal/domain"
	"github.com/dkeye/pulse/internal/metrics"
)

var ErrMalformedConversation = errors.New("malformed conversationId")

// Handler processes the data of one inbound event.
type Handler func(ch domain.ChannelID, data json.RawMessage)

type Orchestrator struct {
	Registry  *presence.Registry
	Lifecycle *lifecycle.Controller
	Relay     *relay.Relay
	Broker    *signaling.Broker

	transport core.Transport
	routes    map[core.Event]Handler
	logger    zerolog.Logger
}

func New(reg *presence.Registry, tr core.Transport, m *metrics.Metrics, logger zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		Registry:  reg,
		Lifecycle: lifecycle.NewController(reg, tr, m, logger.With().Str("module", "lifecycle").Logger()),
		Relay:     relay.New(tr, m, logger.With().Str("module", "relay").Logger()),
		Broker:    signaling.New(reg, tr, m, logger.With().Str("module", "signaling").Logger()),
		transport: tr,
		logger:    logger,
	}
	o.routes = map[core.Event]Handler{
		core.EventJoinConversation:   o.joinConversation,
		core.EventLeaveConversation:  o.leaveConversation,
		core.EventSendMessage:        o.sendMessage,
		core.EventMessageRead:        decodeOrDrop(o, o.Relay.MessageRead),
		core.EventStartTyping:        decodeOrDrop(o, o.Relay.StartTyping),
		core.EventStopTyping:         decodeOrDrop(o, o.Relay.StopTyping),
		core.EventRequestOnlineUsers: func(ch domain.ChannelID, _ json.RawMessage) { o.Lifecycle.RequestOnlineUsers(ch) },
		core.EventCallUser:           decodeOrDrop(o, o.Broker.CallUser),
		core.EventAnswerMade:         decodeOrDrop(o, o.Broker.AnswerMade),
		core.EventICECandidate:       decodeOrDrop(o, o.Broker.ICECandidate),
		core.EventPing:               func(ch domain.ChannelID, _ json.RawMessage) { o.transport.SendToChannel(ch, core.EventPong, nil) },
	}
	return o
}

// Connect hands a freshly attached channel to the lifecycle controller.
func (o *Orchestrator) Connect(ch domain.ChannelID, rawUserID string) lifecycle.State {
	return o.Lifecycle.Open(ch, rawUserID)
}

// Dispatch runs the handler registered for event. A panicking handler is
// logged and does not take the connection down.
func (o *Orchestrator) Dispatch(ch domain.ChannelID, event core.Event, data json.RawMessage) {
	h, ok := o.routes[event]
	if !ok {
		o.logger.Warn().Str("ch", string(ch)).Str("event", string(event)).Msg("unknown event")
		o.fail(ch, "unknown event")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Str("ch", string(ch)).Str("event", string(event)).Interface("panic", r).Msg("handler panic")
		}
	}()
	h(ch, data)
}

// Events lists the inbound events with a handler.
func (o *Orchestrator) Events() []core.Event {
	return lo.Keys(o.routes)
}

func (o *Orchestrator) joinConversation(ch domain.ChannelID, data json.RawMessage) {
	id, err := conversationOf(data)
	if err != nil {
		o.fail(ch, err.Error())
		return
	}
	o.Relay.JoinConversation(ch, id)
}

func (o *Orchestrator) leaveConversation(ch domain.ChannelID, data json.RawMessage) {
	id, err := conversationOf(data)
	if err != nil {
		o.fail(ch, err.Error())
		return
	}
	o.Relay.LeaveConversation(ch, id)
}

func (o *Orchestrator) sendMessage(ch domain.ChannelID, data json.RawMessage) {
	var msg domain.Message
	if err := json.Unmarshal(orEmpty(data), &msg); err != nil {
		o.fail(ch, "malformed message")
		return
	}
	o.Relay.SendMessage(ch, msg)
}

func (o *Orchestrator) fail(ch domain.ChannelID, msg string) {
	o.transport.SendToChannel(ch, core.EventError, core.ErrorPayload{Message: msg})
}

// decodeOrDrop adapts a typed operation to a Handler. Payloads that do not
// decode are dropped; the operation validates the rest.
func decodeOrDrop[T any](o *Orchestrator, op func(domain.ChannelID, T)) Handler {
	return func(ch domain.ChannelID, data json.RawMessage) {
		var v T
		if err := json.Unmarshal(orEmpty(data), &v); err != nil {
			o.logger.Debug().Err(err).Str("ch", string(ch)).Msg("drop undecodable payload")
			return
		}
		op(ch, v)
	}
}

// conversationOf accepts either a bare id string or {"conversationId": ...}.
func conversationOf(data json.RawMessage) (domain.ConversationID, error) {
	data = orEmpty(data)
	if data[0] == '"' {
		var id domain.ConversationID
		if err := json.Unmarshal(data, &id); err != nil {
			return "", ErrMalformedConversation
		}
		return id, nil
	}
	var v struct {
		ConversationID domain.ConversationID `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return "", ErrMalformedConversation
	}
	return v.ConversationID, nil
}

func orEmpty(data json.RawMessage) json.RawMessage {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return json.RawMessage("{}")
	}
	return data
}
