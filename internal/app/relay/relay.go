// Package relay forwards conversation-scoped events to the other members of
// a conversation group.
package relay

import (
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/dkeye/pulse/internal/app"
	"github.com/dkeye/pulse/internal/core"
	"github.com/dkeye/pulse/internal/domain"
	"github.com/dkeye/pulse/internal/metrics"
)

const msgConversationRequired = "conversationId is required"

type Relay struct {
	transport core.Transport
	validate  *validator.Validate
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func New(tr core.Transport, m *metrics.Metrics, logger zerolog.Logger) *Relay {
	return &Relay{
		transport: tr,
		validate:  app.NewValidator(),
		metrics:   m,
		logger:    logger,
	}
}

func (r *Relay) JoinConversation(ch domain.ChannelID, id domain.ConversationID) {
	if id == "" {
		r.reject(ch, msgConversationRequired)
		return
	}
	r.transport.Join(ch, core.Group(id))
	r.logger.Debug().Str("ch", string(ch)).Str("conversation", string(id)).Msg("joined")
}

func (r *Relay) LeaveConversation(ch domain.ChannelID, id domain.ConversationID) {
	if id == "" {
		r.reject(ch, msgConversationRequired)
		return
	}
	r.transport.Leave(ch, core.Group(id))
	r.logger.Debug().Str("ch", string(ch)).Str("conversation", string(id)).Msg("left")
}

// SendMessage forwards msg untouched as newMessage. The sender does not get
// an echo.
func (r *Relay) SendMessage(ch domain.ChannelID, msg domain.Message) {
	if err := r.validate.Struct(msg); err != nil {
		r.reject(ch, app.Describe(err))
		return
	}
	r.forward(ch, msg.ConversationID, core.EventNewMessage, msg)
}

func (r *Relay) MessageRead(ch domain.ChannelID, rr domain.ReadReceipt) {
	if err := r.validate.Struct(rr); err != nil {
		r.logger.Debug().Err(err).Str("ch", string(ch)).Msg("drop malformed read receipt")
		return
	}
	r.forward(ch, rr.ConversationID, core.EventMessageRead, rr)
}

func (r *Relay) StartTyping(ch domain.ChannelID, t domain.Typing) {
	r.typing(ch, core.EventStartTyping, t)
}

func (r *Relay) StopTyping(ch domain.ChannelID, t domain.Typing) {
	r.typing(ch, core.EventStopTyping, t)
}

func (r *Relay) typing(ch domain.ChannelID, event core.Event, t domain.Typing) {
	if err := r.validate.Struct(t); err != nil {
		r.logger.Debug().Err(err).Str("ch", string(ch)).Str("event", string(event)).Msg("drop malformed typing")
		return
	}
	r.forward(ch, t.ConversationID, event, t)
}

// forward does not check that ch is a member of the conversation.
func (r *Relay) forward(ch domain.ChannelID, id domain.ConversationID, event core.Event, payload any) {
	r.transport.SendToGroup(core.Group(id), event, payload, ch)
	r.metrics.Relayed(string(event))
}

func (r *Relay) reject(ch domain.ChannelID, msg string) {
	r.logger.Debug().Str("ch", string(ch)).Str("reason", msg).Msg("rejected")
	r.transport.SendToChannel(ch, core.EventError, core.ErrorPayload{Message: msg})
}
