package notify

import (
	"fmt"
	"time"

	"quietweb/internal/database"
	"quietweb/pkg/logger"
)

// Store is the notification slice of the record store
type Store interface {
	ScheduleNotification(n *database.Notification) error
	PendingNotifications() ([]database.Notification, error)
	MarkNotificationDelivered(id uint, at time.Time) error
	CancelNotifications(sessionID string) error
}

// Scheduler persists the reminder and completion notifications tied to a
// session. One-shot sessions get single notifications at their start/end
// instants; recurring sessions repeat weekly on each selected weekday at
// the matching time of day.
type Scheduler struct {
	store Store
	log   *logger.Logger
}

// NewScheduler creates a notification scheduler
func NewScheduler(store Store, log *logger.Logger) *Scheduler {
	return &Scheduler{store: store, log: log}
}

// ScheduleReminder schedules the "session is starting" notification.
// Immediate sessions never get one.
func (s *Scheduler) ScheduleReminder(sess database.Session) error {
	switch sess.Type {
	case database.SessionLater:
		return s.schedule(sess, database.NotificationReminder, sess.StartTime, nil)
	case database.SessionRecurring:
		return s.scheduleWeekly(sess, database.NotificationReminder, sess.StartTime)
	}
	return nil
}

// ScheduleCompletion schedules the "session is complete" notification
func (s *Scheduler) ScheduleCompletion(sess database.Session) error {
	switch sess.Type {
	case database.SessionNow, database.SessionLater:
		return s.schedule(sess, database.NotificationCompletion, sess.EndTime, nil)
	case database.SessionRecurring:
		return s.scheduleWeekly(sess, database.NotificationCompletion, sess.EndTime)
	}
	return nil
}

// Reschedule replaces a session's notifications after an edit
func (s *Scheduler) Reschedule(sess database.Session) error {
	if err := s.Cancel(sess.ID); err != nil {
		return err
	}
	if sess.Type == database.SessionNow {
		return s.ScheduleCompletion(sess)
	}
	if err := s.ScheduleReminder(sess); err != nil {
		return err
	}
	return s.ScheduleCompletion(sess)
}

// Cancel removes every pending notification for the session
func (s *Scheduler) Cancel(sessionID string) error {
	return s.store.CancelNotifications(sessionID)
}

// scheduleWeekly persists one weekly notification per selected weekday
func (s *Scheduler) scheduleWeekly(sess database.Session, kind database.NotificationKind, fireAt time.Time) error {
	for _, day := range sess.RecurringDays {
		day := day
		if err := s.schedule(sess, kind, fireAt, &day); err != nil {
			return err
		}
	}
	return nil
}

// schedule persists a single notification record
func (s *Scheduler) schedule(sess database.Session, kind database.NotificationKind, fireAt time.Time, weekday *database.Weekday) error {
	title := "Session Complete"
	body := fmt.Sprintf("Your session %s is complete.", sess.Name)
	if kind == database.NotificationReminder {
		title = "Reminder"
		body = fmt.Sprintf("Your session %s is starting.", sess.Name)
	}

	return s.store.ScheduleNotification(&database.Notification{
		SessionID: sess.ID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		FireAt:    fireAt,
		Weekday:   weekday,
	})
}
