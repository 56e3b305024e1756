package history

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dandytbermillo/annotation-backup-sub000/internal/chat"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndRecentMessages(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	msgs := []chat.Message{
		{ID: "m1", Role: chat.RoleUser, Content: "open notes", CreatedAt: now},
		{ID: "m2", Role: chat.RoleAssistant, Content: "Which one?", CreatedAt: now.Add(time.Second),
			Options: []chat.PendingOption{
				{Index: 1, Label: "Notes A", Kind: chat.OptionWorkspace, ID: "w1"},
				{Index: 2, Label: "Notes B", Kind: chat.OptionWorkspace, ID: "w2"},
			}},
		{ID: "m3", Role: chat.RoleAssistant, Content: "Saved.", CreatedAt: now.Add(2 * time.Second),
			OpenedPanel: "Groceries", FromContext: true},
	}
	for _, m := range msgs {
		require.NoError(t, s.AppendMessage("s1", m))
	}

	got, err := s.RecentMessages("s1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Oldest first, payloads intact.
	require.Equal(t, "m1", got[0].ID)
	require.Equal(t, "Groceries", got[2].OpenedPanel)
	require.True(t, got[2].FromContext)
	if diff := cmp.Diff(msgs[1].Options, got[1].Options); diff != "" {
		t.Errorf("options round trip (-want +got):\n%s", diff)
	}
}

// TestAppendMessage_Idempotent: re-appending the same ID is a no-op, so a
// crash-replay never duplicates history.
func TestAppendMessage_Idempotent(t *testing.T) {
	s := openTestStore(t)
	msg := chat.Message{ID: "m1", Role: chat.RoleUser, Content: "hello", CreatedAt: time.Now()}

	require.NoError(t, s.AppendMessage("s1", msg))
	require.NoError(t, s.AppendMessage("s1", msg))

	n, err := s.CountMessages("s1")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRecentMessages_Limit(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendMessage("s1", chat.Message{
			ID: string(rune('a' + i)), Role: chat.RoleUser, Content: "msg",
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := s.RecentMessages("s1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// The newest two, still oldest first.
	require.Equal(t, "d", got[0].ID)
	require.Equal(t, "e", got[1].ID)
}

func TestSessionLifecycle(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	older := SessionState{SessionID: "s1", StartedAt: now.Add(-time.Hour), LastActiveAt: now.Add(-time.Hour), TurnCount: 3}
	newer := SessionState{SessionID: "s2", StartedAt: now, LastActiveAt: now, TurnCount: 1}
	require.NoError(t, s.SaveSession(older))
	require.NoError(t, s.SaveSession(newer))

	latest, err := s.LatestSession()
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, "s2", latest.SessionID)

	all, err := s.ListSessions()
	require.NoError(t, err)
	require.Len(t, all, 2)

	// Upsert bumps in place rather than duplicating.
	newer.TurnCount = 2
	require.NoError(t, s.SaveSession(newer))
	all, err = s.ListSessions()
	require.NoError(t, err)
	require.Len(t, all, 2)

	latest, err = s.LatestSession()
	require.NoError(t, err)
	require.Equal(t, 2, latest.TurnCount)
}

func TestLatestSession_Empty(t *testing.T) {
	s := openTestStore(t)
	latest, err := s.LatestSession()
	require.NoError(t, err)
	require.Nil(t, latest)
}

func TestTrimRetained(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, s.AppendMessage("s1", chat.Message{
			ID: string(rune('a' + i)), Role: chat.RoleUser, Content: "msg",
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}

	require.NoError(t, s.TrimRetained("s1", 4))

	got, err := s.RecentMessages("s1", 100)
	require.NoError(t, err)
	require.Len(t, got, 4)
	require.Equal(t, "g", got[0].ID, "trim must drop the oldest messages")
}

func TestDeleteSession(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	require.NoError(t, s.SaveSession(SessionState{SessionID: "s1", StartedAt: now, LastActiveAt: now}))
	require.NoError(t, s.AppendMessage("s1", chat.Message{ID: "m1", Role: chat.RoleUser, Content: "x", CreatedAt: now}))

	require.NoError(t, s.DeleteSession("s1"))

	n, err := s.CountMessages("s1")
	require.NoError(t, err)
	require.Zero(t, n)

	latest, err := s.LatestSession()
	require.NoError(t, err)
	require.Nil(t, latest)
}
