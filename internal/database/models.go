package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"quietweb/internal/catalog"
)

// SessionType describes how a session is scheduled
type SessionType string

const (
	SessionNow       SessionType = "now"
	SessionLater     SessionType = "later"
	SessionRecurring SessionType = "recurring"
)

// Name returns the display name for the session type
func (t SessionType) Name() string {
	switch t {
	case SessionNow:
		return "Start Now"
	case SessionLater:
		return "Start Later"
	case SessionRecurring:
		return "Recurring"
	}
	return string(t)
}

// Weekday numbering follows the calendar convention: Sunday = 1 .. Saturday = 7
type Weekday int

const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// WeekdayOf returns the Weekday for a wall-clock instant
func WeekdayOf(t time.Time) Weekday {
	return Weekday(int(t.Weekday()) + 1)
}

// String returns the weekday name
func (d Weekday) String() string {
	names := [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	if d < Sunday || d > Saturday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return names[d-1]
}

// ShortName returns the compact weekday label used in schedule summaries
func (d Weekday) ShortName() string {
	short := [...]string{"Su", "M", "T", "W", "Th", "F", "S"}
	if d < Sunday || d > Saturday {
		return "?"
	}
	return short[d-1]
}

// StringList is a string slice persisted as a JSON TEXT column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// Contains reports whether the list contains s
func (l StringList) Contains(s string) bool {
	for _, item := range l {
		if item == s {
			return true
		}
	}
	return false
}

// Remove returns a copy of the list with every occurrence of s removed
func (l StringList) Remove(s string) StringList {
	out := make(StringList, 0, len(l))
	for _, item := range l {
		if item != s {
			out = append(out, item)
		}
	}
	return out
}

// Set returns the list as a membership set
func (l StringList) Set() map[string]struct{} {
	set := make(map[string]struct{}, len(l))
	for _, item := range l {
		set[item] = struct{}{}
	}
	return set
}

// GroupList is a catalog group slice persisted as a JSON TEXT column
type GroupList []catalog.Group

// Value implements driver.Valuer
func (l GroupList) Value() (driver.Value, error) {
	if l == nil {
		l = GroupList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *GroupList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// WeekdayList is a weekday slice persisted as a JSON TEXT column
type WeekdayList []Weekday

// Value implements driver.Valuer
func (l WeekdayList) Value() (driver.Value, error) {
	if l == nil {
		l = WeekdayList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *WeekdayList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// Contains reports whether the list contains d
func (l WeekdayList) Contains(d Weekday) bool {
	for _, item := range l {
		if item == d {
			return true
		}
	}
	return false
}

// scanJSON decodes a TEXT/BLOB column into dest
func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}

// Blocklist is a named, reusable bundle of hosts (or a total-block flag)
// that one or more sessions enforce.
type Blocklist struct {
	ID                   string `gorm:"primaryKey"`
	Name                 string `gorm:"index;not null"`
	HostCount            int    `gorm:"default:0"`
	UserDistractions     StringList
	DistractionGroups    GroupList  // Display summary only; never used for host resolution
	DistractionSourceIDs StringList // Authoritative catalog selection
	TotalBlockEnabled    bool       `gorm:"default:false"`
	CreatedAt            time.Time  `gorm:"autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime"`
}

// Session is a scheduled or immediate time window during which its
// blocklists are enforced.
type Session struct {
	ID            string `gorm:"primaryKey"`
	Name          string `gorm:"index;not null"`
	Blocklists    StringList
	Type          SessionType `gorm:"index"`
	RecurringDays WeekdayList
	StartTime     time.Time
	EndTime       time.Time
	IsActive      bool      `gorm:"default:false"`
	IsExpired     bool      `gorm:"default:false"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// UserDistraction is a free-text host the user added themselves. The table
// is the authoritative flat list shared across every blocklist.
type UserDistraction struct {
	ID      uint      `gorm:"primaryKey"`
	Host    string    `gorm:"uniqueIndex;not null"`
	AddedAt time.Time `gorm:"autoCreateTime"`
}

// NotificationKind distinguishes reminder and completion notifications
type NotificationKind string

const (
	NotificationReminder   NotificationKind = "reminder"
	NotificationCompletion NotificationKind = "completion"
)

// Notification is a pending local notification. One-shot notifications fire
// once at FireAt; weekly ones repeat on Weekday at FireAt's time of day.
type Notification struct {
	ID            uint   `gorm:"primaryKey"`
	SessionID     string `gorm:"index;not null"`
	Kind          NotificationKind
	Title         string
	Body          string
	FireAt        time.Time
	Weekday       *Weekday
	Delivered     bool `gorm:"default:false"`
	LastDelivered *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}
