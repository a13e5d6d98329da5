package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/wabot/plugin/ai/cache"
	teststore "github.com/hrygo/wabot/store/test"
)

func newTestSessionStore(t *testing.T, withCache bool) *sessionStore {
	t.Helper()
	ts := teststore.NewTestingStore(context.Background(), t)

	var c cache.CacheService
	if withCache {
		svc := cache.NewService(cache.DefaultServiceConfig())
		t.Cleanup(svc.Close)
		c = svc
	}
	return NewSessionStore(ts, c).(*sessionStore)
}

func TestSessionStore_LoadDefault(t *testing.T) {
	s := newTestSessionStore(t, false)

	session, err := s.Load(context.Background(), "15551234567")
	require.NoError(t, err)

	assert.Equal(t, "15551234567", session.Sender)
	assert.Equal(t, DefaultModule, session.ActiveModule)
	assert.Equal(t, DefaultSubmodule, session.ActiveSubmodule)
	assert.Empty(t, session.History)
}

func TestSessionStore_HistoryCap(t *testing.T) {
	for _, withCache := range []bool{false, true} {
		t.Run(fmt.Sprintf("cache=%v", withCache), func(t *testing.T) {
			ctx := context.Background()
			s := newTestSessionStore(t, withCache)

			session := NewSession("15551234567")
			for i := 0; i < 25; i++ {
				session.AppendUser(fmt.Sprintf("msg-%d", i))
			}
			require.NoError(t, s.Save(ctx, session))
			assert.Len(t, session.History, MaxHistory)

			loaded, err := s.Load(ctx, "15551234567")
			require.NoError(t, err)
			require.Len(t, loaded.History, MaxHistory)
			assert.Equal(t, "msg-5", loaded.History[0].Content, "oldest entries are dropped first")
			assert.Equal(t, "msg-24", loaded.History[MaxHistory-1].Content)
		})
	}
}

func TestSessionStore_TransientOverflowBeforeSave(t *testing.T) {
	session := NewSession("a")
	for i := 0; i < MaxHistory; i++ {
		session.AppendUser("x")
	}
	session.AppendAssistant("y")

	// Appends never truncate; only Save does.
	assert.Len(t, session.History, MaxHistory+1)
}

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSessionStore(t, false)

	session := NewSession("15551234567")
	session.ActiveSubmodule = "Settings"
	session.AppendUser("add 123")
	session.AppendAssistant("done")
	require.NoError(t, s.Save(ctx, session))

	first, err := s.Load(ctx, "15551234567")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, first))
	second, err := s.Load(ctx, "15551234567")
	require.NoError(t, err)

	assert.Equal(t, first.ActiveModule, second.ActiveModule)
	assert.Equal(t, first.ActiveSubmodule, second.ActiveSubmodule)
	assert.Equal(t, first.History, second.History)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "add 123"}, {Role: RoleAssistant, Content: "done"}}, second.History)
}

func TestSessionStore_CacheFollowsDatabase(t *testing.T) {
	ctx := context.Background()
	s := newTestSessionStore(t, true)

	session := NewSession("15551234567")
	session.AppendUser("hi")
	require.NoError(t, s.Save(ctx, session))

	// Delete must drop the cached copy as well.
	require.NoError(t, s.Delete(ctx, "15551234567"))
	loaded, err := s.Load(ctx, "15551234567")
	require.NoError(t, err)
	assert.Empty(t, loaded.History)

	require.NoError(t, s.Delete(ctx, "never-seen"))
}

func TestSessionStore_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestSessionStore(t, true)

	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now.AddDate(0, 0, -40) }
	require.NoError(t, s.Save(ctx, NewSession("old")))

	s.now = func() time.Time { return now }
	require.NoError(t, s.Save(ctx, NewSession("fresh")))

	deleted, err := s.CleanupExpired(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	old, err := s.Load(ctx, "old")
	require.NoError(t, err)
	assert.Zero(t, old.CreatedAt, "expired session comes back as a fresh default")
}
