package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// ErrDuplicateHost is returned when a user distraction host already exists
var ErrDuplicateHost = errors.New("host already exists")

// Store provides persistence for sessions, blocklists, user distractions
// and pending notifications.
type Store struct {
	db *gorm.DB
}

// NewStore opens (or creates) the database at dbPath
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dbDir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	config := &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_journal=WAL&_busy_timeout=5000&_fk=1"), config)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; the app is a single logical thread of control
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate runs auto-migration for all models
func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&Session{},
		&Blocklist{},
		&UserDistraction{},
		&Notification{},
	)
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Session methods

// CreateSession persists a new session, assigning an id when missing
func (s *Store) CreateSession(session *Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if err := s.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Sessions returns every session
func (s *Store) Sessions() ([]Session, error) {
	var sessions []Session
	if err := s.db.Order("created_at ASC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("read sessions: %w", err)
	}
	return sessions, nil
}

// Session returns a single session by id
func (s *Store) Session(id string) (*Session, error) {
	var session Session
	if err := s.db.First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	return &session, nil
}

// SessionUpdate describes a partial session update; only non-nil fields
// are applied.
type SessionUpdate struct {
	Name          *string
	Blocklists    *StringList
	Type          *SessionType
	RecurringDays *WeekdayList
	StartTime     *time.Time
	EndTime       *time.Time
	IsActive      *bool
	IsExpired     *bool
}

// UpdateSession applies a partial update to a session
func (s *Store) UpdateSession(id string, update SessionUpdate) error {
	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Blocklists != nil {
		fields["blocklists"] = *update.Blocklists
	}
	if update.Type != nil {
		fields["type"] = *update.Type
	}
	if update.RecurringDays != nil {
		fields["recurring_days"] = *update.RecurringDays
	}
	if update.StartTime != nil {
		fields["start_time"] = *update.StartTime
	}
	if update.EndTime != nil {
		fields["end_time"] = *update.EndTime
	}
	if update.IsActive != nil {
		fields["is_active"] = *update.IsActive
	}
	if update.IsExpired != nil {
		fields["is_expired"] = *update.IsExpired
	}
	if len(fields) == 0 {
		return nil
	}

	result := s.db.Model(&Session{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes a session by id
func (s *Store) DeleteSession(id string) error {
	if err := s.db.Delete(&Session{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanupExpiredSessions deletes one-shot sessions that are inactive and
// past their end time. Recurring sessions persist indefinitely.
func (s *Store) CleanupExpiredSessions(now time.Time) (int64, error) {
	result := s.db.
		Where("is_active = ? AND end_time < ? AND type != ?", false, now, SessionRecurring).
		Delete(&Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Blocklist methods

// CreateBlocklist persists a new blocklist, assigning an id when missing
func (s *Store) CreateBlocklist(blocklist *Blocklist) error {
	if blocklist.ID == "" {
		blocklist.ID = uuid.NewString()
	}
	if err := s.db.Create(blocklist).Error; err != nil {
		return fmt.Errorf("create blocklist: %w", err)
	}
	return nil
}

// Blocklists returns every blocklist
func (s *Store) Blocklists() ([]Blocklist, error) {
	var blocklists []Blocklist
	if err := s.db.Order("created_at ASC").Find(&blocklists).Error; err != nil {
		return nil, fmt.Errorf("read blocklists: %w", err)
	}
	return blocklists, nil
}

// Blocklist returns a single blocklist by id
func (s *Store) Blocklist(id string) (*Blocklist, error) {
	var blocklist Blocklist
	if err := s.db.First(&blocklist, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blocklist: %w", err)
	}
	return &blocklist, nil
}

// BlocklistUpdate describes a partial blocklist update; only non-nil
// fields are applied.
type BlocklistUpdate struct {
	Name                 *string
	HostCount            *int
	UserDistractions     *StringList
	DistractionGroups    *GroupList
	DistractionSourceIDs *StringList
	TotalBlockEnabled    *bool
}

// UpdateBlocklist applies a partial update to a blocklist
func (s *Store) UpdateBlocklist(id string, update BlocklistUpdate) error {
	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.HostCount != nil {
		fields["host_count"] = *update.HostCount
	}
	if update.UserDistractions != nil {
		fields["user_distractions"] = *update.UserDistractions
	}
	if update.DistractionGroups != nil {
		fields["distraction_groups"] = *update.DistractionGroups
	}
	if update.DistractionSourceIDs != nil {
		fields["distraction_source_ids"] = *update.DistractionSourceIDs
	}
	if update.TotalBlockEnabled != nil {
		fields["total_block_enabled"] = *update.TotalBlockEnabled
	}
	if len(fields) == 0 {
		return nil
	}

	result := s.db.Model(&Blocklist{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update blocklist: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBlocklist removes a blocklist and pulls its id out of every
// session that references it, in one transaction.
func (s *Store) DeleteBlocklist(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Blocklist{}, "id = ?", id).Error; err != nil {
			return err
		}

		var sessions []Session
		if err := tx.Find(&sessions).Error; err != nil {
			return err
		}
		for _, session := range sessions {
			if !session.Blocklists.Contains(id) {
				continue
			}
			remaining := session.Blocklists.Remove(id)
			if err := tx.Model(&Session{}).Where("id = ?", session.ID).
				Update("blocklists", remaining).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete blocklist: %w", err)
	}
	return nil
}

// User distraction methods

// UserDistractions returns the flat list of user-entered hosts
func (s *Store) UserDistractions() ([]string, error) {
	var records []UserDistraction
	if err := s.db.Order("added_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("read user distractions: %w", err)
	}
	hosts := make([]string, 0, len(records))
	for _, record := range records {
		hosts = append(hosts, record.Host)
	}
	return hosts, nil
}

// AddUserDistraction appends a host to the user distraction list
func (s *Store) AddUserDistraction(host string) error {
	if err := s.db.Create(&UserDistraction{Host: host}).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateHost
		}
		return fmt.Errorf("add user distraction: %w", err)
	}
	return nil
}

// RenameUserDistraction renames a host in place and propagates the rename
// into every blocklist that references it.
func (s *Store) RenameUserDistraction(oldHost, newHost string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&UserDistraction{}).Where("host = ?", oldHost).Update("host", newHost)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return replaceInBlocklists(tx, oldHost, &newHost)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		if isUniqueConstraintError(err) {
			return ErrDuplicateHost
		}
		return fmt.Errorf("rename user distraction: %w", err)
	}
	return nil
}

// RemoveUserDistraction deletes a host and removes it from every blocklist
// that references it.
func (s *Store) RemoveUserDistraction(host string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&UserDistraction{}, "host = ?", host).Error; err != nil {
			return err
		}
		return replaceInBlocklists(tx, host, nil)
	})
	if err != nil {
		return fmt.Errorf("remove user distraction: %w", err)
	}
	return nil
}

// replaceInBlocklists rewrites oldHost in every blocklist's userDistractions,
// substituting newHost or removing the entry when newHost is nil.
func replaceInBlocklists(tx *gorm.DB, oldHost string, newHost *string) error {
	var blocklists []Blocklist
	if err := tx.Find(&blocklists).Error; err != nil {
		return err
	}
	for _, blocklist := range blocklists {
		if !blocklist.UserDistractions.Contains(oldHost) {
			continue
		}
		updated := make(StringList, 0, len(blocklist.UserDistractions))
		for _, host := range blocklist.UserDistractions {
			if host == oldHost {
				if newHost != nil {
					updated = append(updated, *newHost)
				}
				continue
			}
			updated = append(updated, host)
		}
		if err := tx.Model(&Blocklist{}).Where("id = ?", blocklist.ID).
			Update("user_distractions", updated).Error; err != nil {
			return err
		}
	}
	return nil
}

// Notification methods

// ScheduleNotification persists a pending notification
func (s *Store) ScheduleNotification(notification *Notification) error {
	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("schedule notification: %w", err)
	}
	return nil
}

// PendingNotifications returns every undelivered notification. Weekly
// notifications are always pending; due evaluation happens in the caller.
func (s *Store) PendingNotifications() ([]Notification, error) {
	var notifications []Notification
	if err := s.db.Where("delivered = ?", false).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationDelivered records a delivery. One-shot notifications are
// retired; weekly ones keep firing on later weeks.
func (s *Store) MarkNotificationDelivered(id uint, at time.Time) error {
	fields := map[string]interface{}{"last_delivered": at}
	var notification Notification
	if err := s.db.First(&notification, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("read notification: %w", err)
	}
	if notification.Weekday == nil {
		fields["delivered"] = true
	}
	if err := s.db.Model(&Notification{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}
	return nil
}

// CancelNotifications removes every pending notification for a session
func (s *Store) CancelNotifications(sessionID string) error {
	if err := s.db.Delete(&Notification{}, "session_id = ?", sessionID).Error; err != nil {
		return fmt.Errorf("cancel notifications: %w", err)
	}
	return nil
}

// isUniqueConstraintError reports whether err is a sqlite unique violation
func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
