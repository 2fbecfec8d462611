package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSessionRoundTrip(t *testing.T) {
	store := newTestStore(t)

	s := &Session{
		Name:       "deep work",
		Type:       SessionNow,
		Blocklists: StringList{"b1", "b2"},
		StartTime:  time.Now().UTC(),
		EndTime:    time.Now().UTC().Add(2 * time.Hour),
	}
	require.NoError(t, store.CreateSession(s))
	assert.NotEmpty(t, s.ID)

	loaded, err := store.Session(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "deep work", loaded.Name)
	assert.Equal(t, SessionNow, loaded.Type)
	assert.Equal(t, StringList{"b1", "b2"}, loaded.Blocklists)
	assert.False(t, loaded.IsActive)
}

func TestSessionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Session("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.UpdateSession("missing", SessionUpdate{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSessionIsPartial(t *testing.T) {
	store := newTestStore(t)

	s := &Session{
		Name:       "focus",
		Type:       SessionLater,
		Blocklists: StringList{"b1"},
	}
	require.NoError(t, store.CreateSession(s))

	active := true
	require.NoError(t, store.UpdateSession(s.ID, SessionUpdate{IsActive: &active}))

	loaded, err := store.Session(s.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsActive)
	assert.Equal(t, "focus", loaded.Name)
	assert.Equal(t, StringList{"b1"}, loaded.Blocklists)

	// No-op update touches nothing
	require.NoError(t, store.UpdateSession(s.ID, SessionUpdate{}))
}

func TestCleanupExpiredSessions(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	expired := &Session{Name: "expired", Type: SessionNow, EndTime: now.Add(-time.Hour)}
	activePast := &Session{Name: "active", Type: SessionNow, EndTime: now.Add(-time.Hour), IsActive: true}
	future := &Session{Name: "future", Type: SessionLater, EndTime: now.Add(time.Hour)}
	recurring := &Session{Name: "recurring", Type: SessionRecurring, EndTime: now.Add(-24 * time.Hour)}

	for _, s := range []*Session{expired, activePast, future, recurring} {
		require.NoError(t, store.CreateSession(s))
	}

	removed, err := store.CleanupExpiredSessions(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	remaining, err := store.Sessions()
	require.NoError(t, err)
	names := make([]string, 0, len(remaining))
	for _, s := range remaining {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"active", "future", "recurring"}, names)
}

func TestBlocklistRoundTrip(t *testing.T) {
	store := newTestStore(t)

	b := &Blocklist{
		Name:                 "social",
		UserDistractions:     StringList{"example.com"},
		DistractionSourceIDs: StringList{"facebook"},
		HostCount:            3,
	}
	require.NoError(t, store.CreateBlocklist(b))

	loaded, err := store.Blocklist(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "social", loaded.Name)
	assert.Equal(t, StringList{"example.com"}, loaded.UserDistractions)
	assert.Equal(t, StringList{"facebook"}, loaded.DistractionSourceIDs)
	assert.False(t, loaded.TotalBlockEnabled)
}

func TestDeleteBlocklistCascadesIntoSessions(t *testing.T) {
	store := newTestStore(t)

	b1 := &Blocklist{Name: "social"}
	b2 := &Blocklist{Name: "news"}
	require.NoError(t, store.CreateBlocklist(b1))
	require.NoError(t, store.CreateBlocklist(b2))

	s1 := &Session{Name: "one", Type: SessionNow, Blocklists: StringList{b1.ID, b2.ID}}
	s2 := &Session{Name: "two", Type: SessionNow, Blocklists: StringList{b2.ID}}
	require.NoError(t, store.CreateSession(s1))
	require.NoError(t, store.CreateSession(s2))

	require.NoError(t, store.DeleteBlocklist(b1.ID))

	_, err := store.Blocklist(b1.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	loaded1, err := store.Session(s1.ID)
	require.NoError(t, err)
	assert.Equal(t, StringList{b2.ID}, loaded1.Blocklists)

	loaded2, err := store.Session(s2.ID)
	require.NoError(t, err)
	assert.Equal(t, StringList{b2.ID}, loaded2.Blocklists)
}

func TestAddUserDistractionRejectsDuplicates(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddUserDistraction("example.com"))
	assert.ErrorIs(t, store.AddUserDistraction("example.com"), ErrDuplicateHost)

	hosts, err := store.UserDistractions()
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, hosts)
}

func TestRenameUserDistractionPropagates(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddUserDistraction("example.com"))
	require.NoError(t, store.AddUserDistraction("other.net"))

	b := &Blocklist{Name: "mine", UserDistractions: StringList{"example.com", "other.net"}}
	require.NoError(t, store.CreateBlocklist(b))

	require.NoError(t, store.RenameUserDistraction("example.com", "example.org"))

	hosts, err := store.UserDistractions()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"example.org", "other.net"}, hosts)

	loaded, err := store.Blocklist(b.ID)
	require.NoError(t, err)
	assert.Equal(t, StringList{"example.org", "other.net"}, loaded.UserDistractions)
}

func TestRenameUserDistractionUnknownHost(t *testing.T) {
	store := newTestStore(t)
	assert.ErrorIs(t, store.RenameUserDistraction("missing.com", "new.com"), ErrNotFound)
}

func TestRemoveUserDistractionPropagates(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddUserDistraction("example.com"))
	require.NoError(t, store.AddUserDistraction("other.net"))

	b := &Blocklist{Name: "mine", UserDistractions: StringList{"example.com", "other.net"}}
	require.NoError(t, store.CreateBlocklist(b))

	require.NoError(t, store.RemoveUserDistraction("example.com"))

	hosts, err := store.UserDistractions()
	require.NoError(t, err)
	assert.Equal(t, []string{"other.net"}, hosts)

	loaded, err := store.Blocklist(b.ID)
	require.NoError(t, err)
	assert.Equal(t, StringList{"other.net"}, loaded.UserDistractions)
}

func TestNotificationLifecycle(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	oneShot := &Notification{SessionID: "s1", Kind: NotificationCompletion, Title: "Session Complete", FireAt: now}
	require.NoError(t, store.ScheduleNotification(oneShot))

	day := Monday
	weekly := &Notification{SessionID: "s1", Kind: NotificationReminder, Title: "Reminder", FireAt: now, Weekday: &day}
	require.NoError(t, store.ScheduleNotification(weekly))

	pending, err := store.PendingNotifications()
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	// One-shot delivery retires the notification
	require.NoError(t, store.MarkNotificationDelivered(oneShot.ID, now))
	pending, err = store.PendingNotifications()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, weekly.ID, pending[0].ID)

	// Weekly delivery records the day but stays pending
	require.NoError(t, store.MarkNotificationDelivered(weekly.ID, now))
	pending, err = store.PendingNotifications()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].LastDelivered)

	require.NoError(t, store.CancelNotifications("s1"))
	pending, err = store.PendingNotifications()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func strPtr(s string) *string {
	return &s
}
