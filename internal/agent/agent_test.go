package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quietweb/internal/config"
	"quietweb/internal/database"
	"quietweb/internal/notify"
	"quietweb/pkg/logger"
)

type fakeSweepStore struct {
	sessions []database.Session
	cleaned  int64
}

func (f *fakeSweepStore) Sessions() ([]database.Session, error) {
	return f.sessions, nil
}

func (f *fakeSweepStore) CleanupExpiredSessions(now time.Time) (int64, error) {
	return f.cleaned, nil
}

type fakeLifecycle struct {
	started     []string
	ended       []string
	deactivated []string
}

func (f *fakeLifecycle) Start(id string) error {
	f.started = append(f.started, id)
	return nil
}

func (f *fakeLifecycle) End(id string) error {
	f.ended = append(f.ended, id)
	return nil
}

func (f *fakeLifecycle) Deactivate(id string) error {
	f.deactivated = append(f.deactivated, id)
	return nil
}

type emptyNotificationStore struct{}

func (emptyNotificationStore) ScheduleNotification(n *database.Notification) error { return nil }
func (emptyNotificationStore) PendingNotifications() ([]database.Notification, error) {
	return nil, nil
}
func (emptyNotificationStore) MarkNotificationDelivered(id uint, at time.Time) error { return nil }
func (emptyNotificationStore) CancelNotifications(sessionID string) error            { return nil }

func newTestAgent(t *testing.T, store *fakeSweepStore, lifecycle *fakeLifecycle) *Agent {
	t.Helper()
	log := logger.New(logger.Config{Level: "error"})
	cfg := config.DefaultSettings()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "quietweb.db")
	cfg.LogPath = t.TempDir()
	deliverer := notify.NewDeliverer(emptyNotificationStore{}, "", log)
	return New(cfg, store, lifecycle, deliverer, log)
}

func TestRunStartsSessionsInsideTheirWindow(t *testing.T) {
	now := time.Now()
	store := &fakeSweepStore{sessions: []database.Session{
		{
			ID:         "due",
			Name:       "due",
			Type:       database.SessionLater,
			Blocklists: database.StringList{"b1"},
			StartTime:  now.Add(-10 * time.Minute),
			EndTime:    now.Add(time.Hour),
		},
		{
			ID:         "not-yet",
			Name:       "not-yet",
			Type:       database.SessionLater,
			Blocklists: database.StringList{"b1"},
			StartTime:  now.Add(time.Hour),
			EndTime:    now.Add(2 * time.Hour),
		},
	}}
	lifecycle := &fakeLifecycle{}

	require.NoError(t, newTestAgent(t, store, lifecycle).Run(context.Background()))

	assert.Equal(t, []string{"due"}, lifecycle.started)
	assert.Empty(t, lifecycle.ended)
}

func TestRunEndsExpiredOneShotSessions(t *testing.T) {
	now := time.Now()
	store := &fakeSweepStore{sessions: []database.Session{
		{
			ID:         "past",
			Name:       "past",
			Type:       database.SessionNow,
			Blocklists: database.StringList{"b1"},
			IsActive:   true,
			StartTime:  now.Add(-2 * time.Hour),
			EndTime:    now.Add(-time.Minute),
		},
	}}
	lifecycle := &fakeLifecycle{}

	require.NoError(t, newTestAgent(t, store, lifecycle).Run(context.Background()))

	assert.Equal(t, []string{"past"}, lifecycle.ended)
	assert.Empty(t, lifecycle.deactivated)
}

func TestRunDeactivatesRecurringSessionsPastTheirWindow(t *testing.T) {
	now := time.Now()
	store := &fakeSweepStore{sessions: []database.Session{
		{
			ID:            "evenings",
			Name:          "evenings",
			Type:          database.SessionRecurring,
			Blocklists:    database.StringList{"b1"},
			IsActive:      true,
			RecurringDays: database.WeekdayList{database.WeekdayOf(now)},
			StartTime:     now.Add(-3 * time.Hour),
			EndTime:       now.Add(-time.Hour),
		},
	}}
	lifecycle := &fakeLifecycle{}

	require.NoError(t, newTestAgent(t, store, lifecycle).Run(context.Background()))

	assert.Equal(t, []string{"evenings"}, lifecycle.deactivated)
	assert.Empty(t, lifecycle.ended)
}

func TestRunSkipsImmediateSessionsForAutoStart(t *testing.T) {
	now := time.Now()
	store := &fakeSweepStore{sessions: []database.Session{
		{
			ID:         "manual",
			Name:       "manual",
			Type:       database.SessionNow,
			Blocklists: database.StringList{"b1"},
			StartTime:  now.Add(-time.Minute),
			EndTime:    now.Add(time.Hour),
		},
	}}
	lifecycle := &fakeLifecycle{}

	require.NoError(t, newTestAgent(t, store, lifecycle).Run(context.Background()))

	assert.Empty(t, lifecycle.started)
}

func TestRunHoldsSingleInstanceLock(t *testing.T) {
	store := &fakeSweepStore{}
	lifecycle := &fakeLifecycle{}
	a := newTestAgent(t, store, lifecycle)

	// Two sequential runs must both succeed; the lock is released after each
	require.NoError(t, a.Run(context.Background()))
	require.NoError(t, a.Run(context.Background()))
}
