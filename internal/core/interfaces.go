//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=../mocks/mock_interfaces.go -package=mocks
package core

import "github.com/dkeye/pulse/internal/domain"

// Frame is an encoded payload ready for the wire.
type Frame []byte

// Group is a relay scope. Membership exists only while channels are joined.
type Group string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Closure describes how a channel ended. Groups lists what the channel had
// joined; by the time handlers run the channel is detached from all of them.
type Closure struct {
	Reason string
	Groups []Group
}

// PublishResult reports delivery stats/backpressure of one send.
type PublishResult struct {
	SendTo  int
	Dropped []domain.ChannelID
}

// Transport is the channel abstraction the core relays through.
// Every send is best-effort and never blocks the caller. An unknown or
// already closed channel turns any operation into a no-op.
type Transport interface {
	Join(ch domain.ChannelID, group Group)
	Leave(ch domain.ChannelID, group Group)
	GroupsOf(ch domain.ChannelID) []Group

	SendToChannel(ch domain.ChannelID, event Event, payload any)
	// SendToGroup skips exclude; an empty exclude reaches every member.
	SendToGroup(group Group, event Event, payload any, exclude domain.ChannelID)
	// Broadcast reaches every live channel except exclude.
	Broadcast(event Event, payload any, exclude domain.ChannelID)

	// OnClose registers fn to run exactly once when ch terminates. fn is
	// never run from inside a send of this transport.
	OnClose(ch domain.ChannelID, fn func(Closure))
}
