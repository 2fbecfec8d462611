package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quietweb/internal/database"
	"quietweb/pkg/logger"
)

type memoryStore struct {
	notifications []database.Notification
	nextID        uint
}

func (m *memoryStore) ScheduleNotification(n *database.Notification) error {
	m.nextID++
	n.ID = m.nextID
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *memoryStore) PendingNotifications() ([]database.Notification, error) {
	var pending []database.Notification
	for _, n := range m.notifications {
		if !n.Delivered {
			pending = append(pending, n)
		}
	}
	return pending, nil
}

func (m *memoryStore) MarkNotificationDelivered(id uint, at time.Time) error {
	for i := range m.notifications {
		if m.notifications[i].ID != id {
			continue
		}
		if m.notifications[i].Weekday == nil {
			m.notifications[i].Delivered = true
		}
		delivered := at
		m.notifications[i].LastDelivered = &delivered
		return nil
	}
	return database.ErrNotFound
}

func (m *memoryStore) CancelNotifications(sessionID string) error {
	var kept []database.Notification
	for _, n := range m.notifications {
		if n.SessionID != sessionID {
			kept = append(kept, n)
		}
	}
	m.notifications = kept
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func laterSession() database.Session {
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return database.Session{
		ID:        "s1",
		Name:      "morning focus",
		Type:      database.SessionLater,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	}
}

func recurringSession() database.Session {
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return database.Session{
		ID:            "s2",
		Name:          "weekday focus",
		Type:          database.SessionRecurring,
		RecurringDays: database.WeekdayList{database.Monday, database.Wednesday},
		StartTime:     start,
		EndTime:       start.Add(8 * time.Hour),
	}
}

func TestScheduleReminderForLaterSession(t *testing.T) {
	store := &memoryStore{}
	scheduler := NewScheduler(store, testLogger())
	sess := laterSession()

	require.NoError(t, scheduler.ScheduleReminder(sess))

	require.Len(t, store.notifications, 1)
	n := store.notifications[0]
	assert.Equal(t, database.NotificationReminder, n.Kind)
	assert.Equal(t, sess.StartTime, n.FireAt)
	assert.Nil(t, n.Weekday)
	assert.Equal(t, "Reminder", n.Title)
	assert.Contains(t, n.Body, "morning focus")
	assert.Contains(t, n.Body, "starting")
}

func TestScheduleReminderSkipsImmediateSessions(t *testing.T) {
	store := &memoryStore{}
	scheduler := NewScheduler(store, testLogger())

	sess := laterSession()
	sess.Type = database.SessionNow

	require.NoError(t, scheduler.ScheduleReminder(sess))
	assert.Empty(t, store.notifications)
}

func TestScheduleCompletionForOneShot(t *testing.T) {
	store := &memoryStore{}
	scheduler := NewScheduler(store, testLogger())
	sess := laterSession()

	require.NoError(t, scheduler.ScheduleCompletion(sess))

	require.Len(t, store.notifications, 1)
	n := store.notifications[0]
	assert.Equal(t, database.NotificationCompletion, n.Kind)
	assert.Equal(t, sess.EndTime, n.FireAt)
	assert.Equal(t, "Session Complete", n.Title)
	assert.Contains(t, n.Body, "complete")
}

func TestScheduleRecurringCreatesOnePerDay(t *testing.T) {
	store := &memoryStore{}
	scheduler := NewScheduler(store, testLogger())
	sess := recurringSession()

	require.NoError(t, scheduler.ScheduleReminder(sess))
	require.NoError(t, scheduler.ScheduleCompletion(sess))

	require.Len(t, store.notifications, 4)

	days := make(map[database.Weekday]int)
	for _, n := range store.notifications {
		require.NotNil(t, n.Weekday)
		days[*n.Weekday]++
	}
	assert.Equal(t, 2, days[database.Monday])
	assert.Equal(t, 2, days[database.Wednesday])
}

func TestRescheduleReplacesNotifications(t *testing.T) {
	store := &memoryStore{}
	scheduler := NewScheduler(store, testLogger())
	sess := laterSession()

	require.NoError(t, scheduler.ScheduleReminder(sess))
	require.NoError(t, scheduler.ScheduleCompletion(sess))
	require.Len(t, store.notifications, 2)

	sess.StartTime = sess.StartTime.Add(time.Hour)
	sess.EndTime = sess.EndTime.Add(time.Hour)
	require.NoError(t, scheduler.Reschedule(sess))

	require.Len(t, store.notifications, 2)
	for _, n := range store.notifications {
		if n.Kind == database.NotificationReminder {
			assert.Equal(t, sess.StartTime, n.FireAt)
		} else {
			assert.Equal(t, sess.EndTime, n.FireAt)
		}
	}
}

func TestCancelRemovesOnlyThatSession(t *testing.T) {
	store := &memoryStore{}
	scheduler := NewScheduler(store, testLogger())

	require.NoError(t, scheduler.ScheduleCompletion(laterSession()))
	require.NoError(t, scheduler.ScheduleCompletion(recurringSession()))

	require.NoError(t, scheduler.Cancel("s1"))

	for _, n := range store.notifications {
		assert.Equal(t, "s2", n.SessionID)
	}
}
