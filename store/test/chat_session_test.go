package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/wabot/store"
)

func TestChatSessionStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	session, err := ts.GetChatSession(ctx, "15551234567")
	require.NoError(t, err)
	require.Nil(t, session)

	created, err := ts.UpsertChatSession(ctx, &store.ChatSession{
		PhoneNumber:     "15551234567",
		ActiveModule:    "Base",
		ActiveSubmodule: "Main",
		History:         `[{"role":"user","content":"hi"}]`,
		UpdatedTs:       100,
	})
	require.NoError(t, err)
	require.Equal(t, int64(100), created.UpdatedTs)

	updated, err := ts.UpsertChatSession(ctx, &store.ChatSession{
		PhoneNumber:     "15551234567",
		ActiveModule:    "Meal",
		ActiveSubmodule: "Main",
		History:         `[]`,
		UpdatedTs:       200,
	})
	require.NoError(t, err)
	require.Equal(t, "Meal", updated.ActiveModule)
	require.Equal(t, int64(100), updated.CreatedTs)
	require.Equal(t, int64(200), updated.UpdatedTs)

	_, err = ts.UpsertChatSession(ctx, &store.ChatSession{
		PhoneNumber:     "14440000000",
		ActiveModule:    "Base",
		ActiveSubmodule: "Main",
		History:         `[]`,
		UpdatedTs:       50,
	})
	require.NoError(t, err)

	before := int64(150)
	stale, err := ts.ListChatSessions(ctx, &store.FindChatSession{UpdatedBefore: &before})
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, "14440000000", stale[0].PhoneNumber)

	deleted, err := ts.DeleteChatSessions(ctx, &store.DeleteChatSession{UpdatedBefore: &before})
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	phone := "15551234567"
	deleted, err = ts.DeleteChatSessions(ctx, &store.DeleteChatSession{PhoneNumber: &phone})
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	_, err = ts.DeleteChatSessions(ctx, &store.DeleteChatSession{})
	require.Error(t, err)
}
