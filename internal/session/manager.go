package session

import (
	"fmt"
	"time"

	"quietweb/internal/database"
	"quietweb/pkg/logger"
)

// NotReadyError reports a start attempt on a session that is missing
// blocklists or already expired. The session is carried so the caller can
// distinguish the two when presenting a corrective message.
type NotReadyError struct {
	Session database.Session
}

// Error implements error
func (e *NotReadyError) Error() string {
	if len(e.Session.Blocklists) == 0 {
		return fmt.Sprintf("session %q has no blocklists", e.Session.Name)
	}
	return fmt.Sprintf("session %q has expired", e.Session.Name)
}

// Store is the slice of the record store the manager mutates
type Store interface {
	Session(id string) (*database.Session, error)
	UpdateSession(id string, update database.SessionUpdate) error
	DeleteSession(id string) error
}

// Scheduler schedules and cancels the local notifications tied to a
// session's lifecycle.
type Scheduler interface {
	ScheduleReminder(s database.Session) error
	ScheduleCompletion(s database.Session) error
	Cancel(sessionID string) error
}

// Pipeline re-publishes the enforcement rules from current store state
type Pipeline interface {
	Apply() error
}

// Manager orchestrates session lifecycle transitions
type Manager struct {
	store     Store
	scheduler Scheduler
	pipeline  Pipeline
	log       *logger.Logger
	now       func() time.Time
}

// NewManager creates a session lifecycle manager
func NewManager(store Store, scheduler Scheduler, pipeline Pipeline, log *logger.Logger) *Manager {
	return &Manager{
		store:     store,
		scheduler: scheduler,
		pipeline:  pipeline,
		log:       log,
		now:       time.Now,
	}
}

// Start activates a session and republishes the enforcement rules. It
// fails with NotReadyError when the session has no blocklists or its end
// time has already passed; nothing is persisted or published in that case.
func (m *Manager) Start(id string) error {
	s, err := m.store.Session(id)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	if !m.ready(*s) {
		return &NotReadyError{Session: *s}
	}

	active := true
	if err := m.store.UpdateSession(id, database.SessionUpdate{IsActive: &active}); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	s.IsActive = true

	if err := m.scheduler.ScheduleCompletion(*s); err != nil {
		m.log.Warnf("Failed to schedule completion notification for %q: %v", s.Name, err)
	}

	// Publish failures leave the previous rules in force; not a start failure
	if err := m.pipeline.Apply(); err != nil {
		m.log.Errorf("Failed to republish rules after starting %q: %v", s.Name, err)
	}

	m.log.Infof("Session started: %s", s.Name)
	return nil
}

// End cancels the session's notifications, deletes it and republishes the
// rules so its hosts stop being blocked. Ending a recurring session also
// deletes the whole schedule.
func (m *Manager) End(id string) error {
	s, err := m.store.Session(id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}

	if err := m.scheduler.Cancel(id); err != nil {
		m.log.Warnf("Failed to cancel notifications for %q: %v", s.Name, err)
	}
	if err := m.store.DeleteSession(id); err != nil {
		return fmt.Errorf("end session: %w", err)
	}

	if err := m.pipeline.Apply(); err != nil {
		m.log.Errorf("Failed to republish rules after ending %q: %v", s.Name, err)
	}

	m.log.Infof("Session ended: %s", s.Name)
	return nil
}

// Deactivate flips an active recurring session back to pending once its
// window closes, keeping the schedule, and republishes the rules.
func (m *Manager) Deactivate(id string) error {
	inactive := false
	if err := m.store.UpdateSession(id, database.SessionUpdate{IsActive: &inactive}); err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}

	if err := m.pipeline.Apply(); err != nil {
		m.log.Errorf("Failed to republish rules after deactivating %s: %v", id, err)
	}
	return nil
}

// ready reports whether a session can start: it must reference at least
// one blocklist and its end time must still be ahead. Recurring windows
// always have a next occurrence, so only the blocklist check applies.
func (m *Manager) ready(s database.Session) bool {
	if len(s.Blocklists) == 0 {
		return false
	}
	if s.Type == database.SessionRecurring {
		return true
	}
	return s.EndTime.After(m.now())
}
