package domain

import "encoding/json"

type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "candidate"
)

// SignalEnvelope is one call-setup hop. It is never stored.
type SignalEnvelope struct {
	To      UserID
	From    UserID
	Kind    SignalKind
	Payload json.RawMessage
}

// CallRequest is the payload of call-user and answer-made.
type CallRequest struct {
	To     UserID          `json:"to" validate:"required"`
	From   UserID          `json:"from"`
	Signal json.RawMessage `json:"signal" validate:"required"`
}

// CandidateRequest is the payload of ice-candidate sent by a client.
type CandidateRequest struct {
	To        UserID          `json:"to" validate:"required"`
	Candidate json.RawMessage `json:"candidate" validate:"required"`
}

// CallNotice is delivered as incoming-call and call-accepted.
type CallNotice struct {
	From   UserID          `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

// CandidateNotice is delivered as ice-candidate.
type CandidateNotice struct {
	From      UserID          `json:"from"`
	Candidate json.RawMessage `json:"candidate"`
}
