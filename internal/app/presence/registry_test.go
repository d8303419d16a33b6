package presence

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/pulse/internal/domain"
)

func newTestRegistry() (*Registry, *clock.Mock) {
	clk := clock.NewMock()
	return NewRegistry(clk, zerolog.Nop()), clk
}

func TestRegistry_Register_One_User(t *testing.T) {
	req := require.New(t)
	registry, clk := newTestRegistry()
	clk.Add(time.Hour)

	// When a user registers a channel
	registry.Register("u1", "c1")

	// Then the user routes to that channel
	ch, ok := registry.LookupChannel("u1")
	req.True(ok)
	req.Equal(domain.ChannelID("c1"), ch)
	req.True(registry.IsOnline("u1"))

	userID, ok := registry.UserOf("c1")
	req.True(ok)
	req.Equal(domain.UserID("u1"), userID)

	snap := registry.Snapshot()
	req.Len(snap, 1)
	req.Equal(domain.StatusOnline, snap[0].Status)
	req.Equal(clk.Now(), snap[0].ConnectedAt)
}

func TestRegistry_Register_Replaces_Previous_Channel(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry()

	registry.Register("u1", "c1")
	registry.Register("u1", "c2")

	ch, ok := registry.LookupChannel("u1")
	req.True(ok)
	req.Equal(domain.ChannelID("c2"), ch)
	req.Equal(1, registry.Len())

	// And the replaced channel no longer resolves to the user
	_, ok = registry.UserOf("c1")
	req.False(ok)
}

func TestRegistry_Deregister_Stale_Channel_Keeps_Newer_Entry(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry()

	// Given a reconnect raced ahead of the old disconnect
	registry.Register("u1", "c1")
	registry.Register("u1", "c2")

	// When the stale channel deregisters
	userID, ok := registry.Deregister("c1")

	// Then nothing is evicted
	req.False(ok)
	req.Empty(userID)
	ch, ok := registry.LookupChannel("u1")
	req.True(ok)
	req.Equal(domain.ChannelID("c2"), ch)
}

func TestRegistry_Deregister_Current_Channel(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry()
	registry.Register("u1", "c1")

	userID, ok := registry.Deregister("c1")
	req.True(ok)
	req.Equal(domain.UserID("u1"), userID)
	req.False(registry.IsOnline("u1"))

	// And a second deregistration is a no-op
	_, ok = registry.Deregister("c1")
	req.False(ok)
}

func TestRegistry_Deregister_Unknown_Channel(t *testing.T) {
	registry, _ := newTestRegistry()

	_, ok := registry.Deregister("nobody")

	require.False(t, ok)
}

func TestRegistry_Snapshot_Insertion_Order(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry()

	registry.Register("u1", "c1")
	registry.Register("u2", "c2")
	req.Equal([]domain.UserID{"u1", "u2"}, registry.SnapshotUserIDs())

	// When u1 disconnects only u2 remains
	registry.Deregister("c1")
	req.Equal([]domain.UserID{"u2"}, registry.SnapshotUserIDs())

	// And coming back puts u1 at the end
	registry.Register("u1", "c3")
	req.Equal([]domain.UserID{"u2", "u1"}, registry.SnapshotUserIDs())
}

func TestRegistry_Replacement_Keeps_Roster_Position(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry()

	registry.Register("u1", "c1")
	registry.Register("u2", "c2")
	registry.Register("u1", "c3")

	req.Equal([]domain.UserID{"u1", "u2"}, registry.SnapshotUserIDs())
}

func TestRegistry_Channel_Routes_At_Most_One_User(t *testing.T) {
	req := require.New(t)
	registry, _ := newTestRegistry()

	registry.Register("u1", "c1")
	registry.Register("u2", "c1")

	req.False(registry.IsOnline("u1"))
	userID, ok := registry.UserOf("c1")
	req.True(ok)
	req.Equal(domain.UserID("u2"), userID)
}

func TestRegistry_Empty_Snapshot_Is_Not_Nil(t *testing.T) {
	registry, _ := newTestRegistry()

	require.NotNil(t, registry.SnapshotUserIDs())
	require.Empty(t, registry.SnapshotUserIDs())
}

// A lookup only ever returns the latest live registration of a user.
func TestRegistry_Random_Sequences_Match_Model(t *testing.T) {
	req := require.New(t)
	rnd := rand.New(rand.NewSource(42))
	registry, _ := newTestRegistry()
	model := map[domain.UserID]domain.ChannelID{}

	for i := 0; i < 2000; i++ {
		userID := domain.UserID(fmt.Sprintf("u%d", rnd.Intn(5)))
		ch := domain.ChannelID(fmt.Sprintf("c%d", rnd.Intn(12)))
		if rnd.Intn(2) == 0 {
			for u, c := range model {
				if c == ch && u != userID {
					delete(model, u)
				}
			}
			registry.Register(userID, ch)
			model[userID] = ch
		} else {
			registry.Deregister(ch)
			for u, c := range model {
				if c == ch {
					delete(model, u)
				}
			}
		}

		for u := 0; u < 5; u++ {
			id := domain.UserID(fmt.Sprintf("u%d", u))
			got, ok := registry.LookupChannel(id)
			want, wantOK := model[id]
			req.Equal(wantOK, ok, "step %d user %s", i, id)
			req.Equal(want, got, "step %d user %s", i, id)
		}
	}
}

func TestRegistry_Concurrent_Mutations(t *testing.T) {
	registry, _ := newTestRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch := domain.ChannelID(fmt.Sprintf("c%d", i))
			registry.Register("u1", ch)
			registry.SnapshotUserIDs()
			registry.Deregister(ch)
		}(i)
	}
	wg.Wait()

	require.LessOrEqual(t, registry.Len(), 1)
}
