// Package presence owns the binding between users and the channel that
// currently routes to them.
//
// Presence is last-writer-wins: a second connection for the same user
// replaces the first as routing target without closing it.
package presence

import (
	"cmp"
	"slices"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/dkeye/pulse/internal/domain"
)

type entry struct {
	domain.PresenceEntry
	seq uint64
}

type Registry struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]*entry
	byChan map[domain.ChannelID]domain.UserID
	seq    uint64

	clock  clock.Clock
	logger zerolog.Logger
}

func NewRegistry(clk clock.Clock, logger zerolog.Logger) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	return &Registry{
		byUser: make(map[domain.UserID]*entry),
		byChan: make(map[domain.ChannelID]domain.UserID),
		clock:  clk,
		logger: logger,
	}
}

// Register makes ch the routing target of userID. An existing entry for
// the user is replaced in place and keeps its roster position.
func (r *Registry) Register(userID domain.UserID, ch domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// a channel routes to at most one user
	if prev, ok := r.byChan[ch]; ok && prev != userID {
		delete(r.byUser, prev)
		delete(r.byChan, ch)
	}

	seq := r.nextSeq()
	if old, ok := r.byUser[userID]; ok {
		seq = old.seq
		if old.ChannelID != ch {
			delete(r.byChan, old.ChannelID)
			r.logger.Info().Str("user", string(userID)).Str("old_ch", string(old.ChannelID)).Str("ch", string(ch)).Msg("presence replaced")
		}
	}
	r.byUser[userID] = &entry{
		PresenceEntry: domain.PresenceEntry{
			UserID:      userID,
			ChannelID:   ch,
			Status:      domain.StatusOnline,
			ConnectedAt: r.clock.Now(),
		},
		seq: seq,
	}
	r.byChan[ch] = userID
	r.logger.Info().Str("user", string(userID)).Str("ch", string(ch)).Msg("registered")
}

func (r *Registry) nextSeq() uint64 {
	r.seq++
	return r.seq
}

// Deregister removes the entry bound to ch. A channel that has since been
// replaced by a newer registration removes nothing.
func (r *Registry) Deregister(ch domain.ChannelID) (domain.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byChan[ch]
	if !ok {
		r.logger.Debug().Str("ch", string(ch)).Msg("deregister: no current entry")
		return "", false
	}
	delete(r.byChan, ch)
	if e, ok := r.byUser[userID]; !ok || e.ChannelID != ch {
		return "", false
	}
	delete(r.byUser, userID)
	r.logger.Info().Str("user", string(userID)).Str("ch", string(ch)).Msg("deregistered")
	return userID, true
}

func (r *Registry) LookupChannel(userID domain.UserID) (domain.ChannelID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byUser[userID]
	if !ok {
		return "", false
	}
	return e.ChannelID, true
}

// UserOf is the reverse lookup: the user ch currently routes for.
func (r *Registry) UserOf(ch domain.ChannelID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.byChan[ch]
	return userID, ok
}

func (r *Registry) IsOnline(userID domain.UserID) bool {
	_, ok := r.LookupChannel(userID)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Snapshot returns the current entries in registration order.
func (r *Registry) Snapshot() []domain.PresenceEntry {
	r.mu.RLock()
	entries := lo.Values(r.byUser)
	r.mu.RUnlock()

	slices.SortFunc(entries, func(a, b *entry) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return lo.Map(entries, func(e *entry, _ int) domain.PresenceEntry {
		return e.PresenceEntry
	})
}

// SnapshotUserIDs is the roster pushed to new connections.
func (r *Registry) SnapshotUserIDs() []domain.UserID {
	return lo.Map(r.Snapshot(), func(e domain.PresenceEntry, _ int) domain.UserID {
		return e.UserID
	})
}
