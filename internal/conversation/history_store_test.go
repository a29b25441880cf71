package conversation

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rocketman2178/kairo-platform/internal/matching"
)

func newTestHistoryStore(t *testing.T) (*HistoryStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewHistoryStore(client, nil), mr
}

func TestHistoryRoundTrip(t *testing.T) {
	store, _ := newTestHistoryStore(t)
	ctx := context.Background()

	history := []ChatMessage{
		{Role: ChatRoleAssistant, Content: "Hi! How can I help?"},
		{Role: ChatRoleUser, Content: "Soccer for my daughter"},
	}
	require.NoError(t, store.SaveHistory(ctx, "conv-1", history))

	got, err := store.LoadHistory(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, history, got)
}

func TestLoadHistoryUnknownConversation(t *testing.T) {
	store, _ := newTestHistoryStore(t)

	got, err := store.LoadHistory(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotRoundTrip(t *testing.T) {
	store, _ := newTestHistoryStore(t)
	ctx := context.Background()

	snap := &conversationSnapshot{
		OrgID: "org-1",
		State: StateCollectingPreferences,
		Prefs: PreferenceSet{
			ChildName: "Mia",
			ChildAge:  5,
			Days:      []int{0, 6},
			Time:      matching.TimeMorning,
			Program:   "Soccer Stars",
		},
	}
	require.NoError(t, store.SaveSnapshot(ctx, "conv-1", snap))

	got, err := store.LoadSnapshot(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestLoadSnapshotUnknownConversation(t *testing.T) {
	store, _ := newTestHistoryStore(t)

	got, err := store.LoadSnapshot(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConversationKeysCarryTTL(t *testing.T) {
	store, mr := newTestHistoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHistory(ctx, "conv-1", []ChatMessage{{Role: ChatRoleUser, Content: "hi"}}))
	require.NoError(t, store.SaveSnapshot(ctx, "conv-1", &conversationSnapshot{OrgID: "org-1", State: StateGreeting}))

	assert.Equal(t, conversationTTL, mr.TTL("conversation:conv-1"))
	assert.Equal(t, conversationTTL, mr.TTL("conversation_state:conv-1"))
}
