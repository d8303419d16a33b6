// Package lifecycle drives a channel from connect to close: presence
// registration, online/offline announcements and room cleanup.
package lifecycle

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/dkeye/pulse/internal/app/presence"
	"github.com/dkeye/pulse/internal/core"
	"github.com/dkeye/pulse/internal/domain"
	"github.com/dkeye/pulse/internal/metrics"
)

type State int

const (
	StateConnecting State = iota
	StateRegistered
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRegistered:
		return "registered"
	default:
		return "closed"
	}
}

type session struct {
	userID domain.UserID
	state  State
}

type Controller struct {
	mu       sync.Mutex
	sessions map[domain.ChannelID]*session

	// announce pairs each presence change with its broadcast so peers
	// observe online/offline in registry order. Taken before mu.
	announce sync.Mutex

	registry  *presence.Registry
	transport core.Transport
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewController(reg *presence.Registry, tr core.Transport, m *metrics.Metrics, logger zerolog.Logger) *Controller {
	return &Controller{
		sessions:  make(map[domain.ChannelID]*session),
		registry:  reg,
		transport: tr,
		metrics:   m,
		logger:    logger,
	}
}

// Open takes over a freshly attached channel. A missing or malformed user id
// leaves the channel anonymous: it can still use rooms but has no presence.
func (c *Controller) Open(ch domain.ChannelID, rawUserID string) State {
	c.mu.Lock()
	c.sessions[ch] = &session{state: StateConnecting}
	c.mu.Unlock()

	c.transport.OnClose(ch, func(cl core.Closure) { c.close(ch, cl) })

	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		c.logger.Info().Err(err).Str("ch", string(ch)).Msg("anonymous channel")
		return c.State(ch)
	}

	c.announce.Lock()
	defer c.announce.Unlock()

	c.mu.Lock()
	s, ok := c.sessions[ch]
	if !ok {
		// closed before we got here
		c.mu.Unlock()
		return StateClosed
	}
	s.userID = userID
	s.state = StateRegistered
	c.mu.Unlock()

	c.registry.Register(userID, ch)
	c.metrics.SetOnlineUsers(c.registry.Len())
	c.transport.Broadcast(core.EventUserOnline, userID, ch)
	c.RequestOnlineUsers(ch)
	c.logger.Info().Str("ch", string(ch)).Str("user", string(userID)).Msg("user online")
	return StateRegistered
}

// RequestOnlineUsers sends the roster to ch only.
func (c *Controller) RequestOnlineUsers(ch domain.ChannelID) {
	c.transport.SendToChannel(ch, core.EventOnlineUsersList, c.registry.SnapshotUserIDs())
}

// close runs as a close handler of the transport. The transport must not
// invoke it from inside one of its own sends.
func (c *Controller) close(ch domain.ChannelID, cl core.Closure) {
	c.announce.Lock()
	defer c.announce.Unlock()

	c.mu.Lock()
	s, ok := c.sessions[ch]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.sessions, ch)
	s.state = StateClosed
	c.mu.Unlock()

	for _, g := range cl.Groups {
		c.transport.SendToGroup(g, core.EventUserLeftRoom, domain.RoomLeave{
			UserID: s.userID,
			Room:   domain.ConversationID(g),
		}, "")
	}

	userID, ok := c.registry.Deregister(ch)
	c.metrics.SetOnlineUsers(c.registry.Len())
	if ok {
		c.transport.Broadcast(core.EventUserOffline, userID, ch)
		c.logger.Info().Str("ch", string(ch)).Str("user", string(userID)).Str("reason", cl.Reason).Msg("user offline")
		return
	}
	c.logger.Info().Str("ch", string(ch)).Str("reason", cl.Reason).Msg("channel closed")
}

// State reports where ch is in its lifecycle. Unknown channels are closed.
func (c *Controller) State(ch domain.ChannelID) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[ch]; ok {
		return s.state
	}
	return StateClosed
}

// Sessions counts channels that have not closed yet.
func (c *Controller) Sessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
