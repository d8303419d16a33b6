// Package signaling forwards call-setup payloads between two online users.
// It keeps no call state: each hop is one lookup and one send.
package signaling

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/dkeye/pulse/internal/app"
	"github.com/dkeye/pulse/internal/core"
	"github.com/dkeye/pulse/internal/domain"
	"github.com/dkeye/pulse/internal/metrics"
)

// Reasons a signal is not forwarded, as reported to metrics.
const (
	DropInvalid   = "invalid"
	DropOffline   = "offline"
	DropAnonymous = "anonymous"
)

// Directory resolves users to channels and back.
type Directory interface {
	LookupChannel(userID domain.UserID) (domain.ChannelID, bool)
	UserOf(ch domain.ChannelID) (domain.UserID, bool)
}

type Broker struct {
	directory Directory
	transport core.Transport
	validate  *validator.Validate
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func New(dir Directory, tr core.Transport, m *metrics.Metrics, logger zerolog.Logger) *Broker {
	return &Broker{
		directory: dir,
		transport: tr,
		validate:  app.NewValidator(),
		metrics:   m,
		logger:    logger,
	}
}

// CallUser delivers an offer as incoming-call.
func (b *Broker) CallUser(ch domain.ChannelID, req domain.CallRequest) {
	b.call(ch, core.EventCallUser, core.EventIncomingCall, domain.SignalOffer, req)
}

// AnswerMade delivers an answer as call-accepted.
func (b *Broker) AnswerMade(ch domain.ChannelID, req domain.CallRequest) {
	b.call(ch, core.EventAnswerMade, core.EventCallAccepted, domain.SignalAnswer, req)
}

func (b *Broker) call(ch domain.ChannelID, in, out core.Event, fallback domain.SignalKind, req domain.CallRequest) {
	kind := classify(req.Signal, fallback)
	if err := b.validate.Struct(req); err != nil {
		b.drop(ch, in, kind, DropInvalid, err)
		return
	}
	from := req.From
	if from == "" {
		// fall back to the sender's presence
		from, _ = b.directory.UserOf(ch)
	}
	env := domain.SignalEnvelope{
		To:      req.To,
		From:    from,
		Kind:    kind,
		Payload: req.Signal,
	}
	b.forward(ch, in, out, env, domain.CallNotice{From: env.From, Signal: env.Payload})
}

// ICECandidate relays a trickled candidate. The sender must be registered;
// its id is taken from presence, not from the payload.
func (b *Broker) ICECandidate(ch domain.ChannelID, req domain.CandidateRequest) {
	if err := b.validate.Struct(req); err != nil {
		b.drop(ch, core.EventICECandidate, domain.SignalCandidate, DropInvalid, err)
		return
	}
	from, ok := b.directory.UserOf(ch)
	if !ok {
		b.drop(ch, core.EventICECandidate, domain.SignalCandidate, DropAnonymous, nil)
		return
	}
	env := domain.SignalEnvelope{
		To:      req.To,
		From:    from,
		Kind:    domain.SignalCandidate,
		Payload: req.Candidate,
	}
	b.forward(ch, core.EventICECandidate, core.EventICECandidate, env, domain.CandidateNotice{From: from, Candidate: req.Candidate})
}

func (b *Broker) forward(ch domain.ChannelID, in, out core.Event, env domain.SignalEnvelope, notice any) {
	target, ok := b.directory.LookupChannel(env.To)
	if !ok {
		b.logger.Info().
			Str("event", string(in)).
			Str("from", string(env.From)).
			Str("to", string(env.To)).
			Str("kind", string(env.Kind)).
			Msg("signal target offline")
		b.metrics.SignalDropped(DropOffline, string(env.Kind))
		return
	}
	b.transport.SendToChannel(target, out, notice)
	b.metrics.SignalRelayed(string(out), string(env.Kind))
	b.logger.Debug().
		Str("ch", string(ch)).
		Str("from", string(env.From)).
		Str("to", string(env.To)).
		Str("kind", string(env.Kind)).
		Msg("signal forwarded")
}

func (b *Broker) drop(ch domain.ChannelID, event core.Event, kind domain.SignalKind, reason string, err error) {
	b.logger.Warn().Err(err).Str("ch", string(ch)).Str("event", string(event)).Str("kind", string(kind)).Str("reason", reason).Msg("signal dropped")
	b.metrics.SignalDropped(reason, string(kind))
}

// classify reads the SDP type when the payload is a session description.
// Anything else keeps the kind implied by the event.
func classify(payload json.RawMessage, fallback domain.SignalKind) domain.SignalKind {
	var sd webrtc.SessionDescription
	if err := json.Unmarshal(payload, &sd); err != nil {
		return fallback
	}
	switch sd.Type {
	case webrtc.SDPTypeOffer:
		return domain.SignalOffer
	case webrtc.SDPTypeAnswer, webrtc.SDPTypePranswer:
		return domain.SignalAnswer
	}
	var ci webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &ci); err == nil && ci.Candidate != "" {
		return domain.SignalCandidate
	}
	return fallback
}
