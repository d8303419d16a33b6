// Package hub keeps the live channels and their group memberships and fans
// frames out to them. It implements core.Transport.
package hub

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/dkeye/pulse/internal/app"
	"github.com/dkeye/pulse/internal/core"
	"github.com/dkeye/pulse/internal/domain"
	"github.com/dkeye/pulse/internal/metrics"
)

type channel struct {
	conn    core.SignalConnection
	groups  map[core.Group]struct{}
	onClose []func(core.Closure)
}

type Hub struct {
	mu       sync.RWMutex
	channels map[domain.ChannelID]*channel
	groups   map[core.Group]map[domain.ChannelID]struct{}

	policy  app.Policy
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

var _ core.Transport = (*Hub)(nil)

func New(policy app.Policy, m *metrics.Metrics, logger zerolog.Logger) *Hub {
	if policy == nil {
		policy = app.DropPolicy{}
	}
	return &Hub{
		channels: make(map[domain.ChannelID]*channel),
		groups:   make(map[core.Group]map[domain.ChannelID]struct{}),
		policy:   policy,
		metrics:  m,
		logger:   logger,
	}
}

// Attach starts tracking conn under a fresh channel id.
func (h *Hub) Attach(conn core.SignalConnection) domain.ChannelID {
	ch := domain.NewChannelID()
	h.mu.Lock()
	h.channels[ch] = &channel{conn: conn, groups: make(map[core.Group]struct{})}
	h.mu.Unlock()
	h.metrics.ChannelOpened()
	h.logger.Debug().Str("ch", string(ch)).Msg("channel attached")
	return ch
}

// Close detaches ch from every group, closes its connection and runs its
// close handlers. Only the first call for a channel has any effect.
func (h *Hub) Close(ch domain.ChannelID, reason string) {
	h.mu.Lock()
	c, ok := h.channels[ch]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.channels, ch)
	groups := lo.Keys(c.groups)
	for _, g := range groups {
		h.removeMember(g, ch)
	}
	handlers := c.onClose
	h.mu.Unlock()

	slices.Sort(groups)
	c.conn.Close()
	h.metrics.ChannelClosed()
	h.logger.Debug().Str("ch", string(ch)).Str("reason", reason).Int("groups", len(groups)).Msg("channel closed")

	closure := core.Closure{Reason: reason, Groups: groups}
	for _, fn := range handlers {
		fn(closure)
	}
}

// OnClose registers fn for ch. If ch is already gone fn runs immediately.
func (h *Hub) OnClose(ch domain.ChannelID, fn func(core.Closure)) {
	h.mu.Lock()
	c, ok := h.channels[ch]
	if ok {
		c.onClose = append(c.onClose, fn)
	}
	h.mu.Unlock()
	if !ok {
		fn(core.Closure{Reason: "already closed"})
	}
}

func (h *Hub) Join(ch domain.ChannelID, group core.Group) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.channels[ch]
	if !ok {
		return
	}
	c.groups[group] = struct{}{}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[domain.ChannelID]struct{})
		h.groups[group] = members
	}
	members[ch] = struct{}{}
}

func (h *Hub) Leave(ch domain.ChannelID, group core.Group) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.channels[ch]; ok {
		delete(c.groups, group)
	}
	h.removeMember(group, ch)
}

// removeMember drops ch from group and forgets the group once it is empty.
// Caller holds h.mu.
func (h *Hub) removeMember(group core.Group, ch domain.ChannelID) {
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, ch)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

func (h *Hub) GroupsOf(ch domain.ChannelID) []core.Group {
	h.mu.RLock()
	c, ok := h.channels[ch]
	if !ok {
		h.mu.RUnlock()
		return nil
	}
	groups := lo.Keys(c.groups)
	h.mu.RUnlock()
	slices.Sort(groups)
	return groups
}

// Members lists the channels currently joined to group.
func (h *Hub) Members(group core.Group) []domain.ChannelID {
	h.mu.RLock()
	members := lo.Keys(h.groups[group])
	h.mu.RUnlock()
	slices.Sort(members)
	return members
}

func (h *Hub) ChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

func (h *Hub) GroupCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups)
}

func (h *Hub) SendToChannel(ch domain.ChannelID, event core.Event, payload any) {
	h.mu.RLock()
	c, ok := h.channels[ch]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.publish(event, payload, map[domain.ChannelID]core.SignalConnection{ch: c.conn})
}

func (h *Hub) SendToGroup(group core.Group, event core.Event, payload any, exclude domain.ChannelID) {
	h.mu.RLock()
	targets := make(map[domain.ChannelID]core.SignalConnection, len(h.groups[group]))
	for ch := range h.groups[group] {
		if ch == exclude {
			continue
		}
		if c, ok := h.channels[ch]; ok {
			targets[ch] = c.conn
		}
	}
	h.mu.RUnlock()
	h.publish(event, payload, targets)
}

func (h *Hub) Broadcast(event core.Event, payload any, exclude domain.ChannelID) {
	h.mu.RLock()
	targets := make(map[domain.ChannelID]core.SignalConnection, len(h.channels))
	for ch, c := range h.channels {
		if ch == exclude {
			continue
		}
		targets[ch] = c.conn
	}
	h.mu.RUnlock()
	h.publish(event, payload, targets)
}

// publish encodes once and hands the frame to every target without
// holding h.mu, so a kicked channel can run its close handlers.
func (h *Hub) publish(event core.Event, payload any, targets map[domain.ChannelID]core.SignalConnection) core.PublishResult {
	res := core.PublishResult{}
	if len(targets) == 0 {
		return res
	}
	frame, err := core.Encode(event, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", string(event)).Msg("encode frame")
		return res
	}
	for ch, conn := range targets {
		if err := conn.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, ch)
			continue
		}
		res.SendTo++
	}
	h.logger.Debug().Str("event", string(event)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("publish result")
	h.onDropped(res.Dropped)
	return res
}

func (h *Hub) onDropped(dropped []domain.ChannelID) {
	for _, ch := range dropped {
		h.metrics.Backpressure()
		action := h.policy.OnBackPressure(ch)
		h.logger.Warn().Str("ch", string(ch)).Str("action", action.String()).Msg("send queue full")
		if action == app.KickMember {
			// close handlers publish too; never run them inside the caller's send
			go h.Close(ch, "backpressure")
		}
	}
}
