package session

import (
	"fmt"
	"time"

	"quietweb/internal/database"
)

// Section buckets a session for display. Every session lands in at most
// one section; sessions awaiting the cleanup sweep land in none.
type Section int

const (
	SectionActive Section = iota
	SectionPending
	SectionUpcoming
	SectionRecurring
)

// String returns the section heading
func (s Section) String() string {
	switch s {
	case SectionActive:
		return "Active"
	case SectionPending:
		return "Pending"
	case SectionUpcoming:
		return "Upcoming"
	case SectionRecurring:
		return "Recurring"
	}
	return fmt.Sprintf("Section(%d)", int(s))
}

// Categorized pairs a session with its display section
type Categorized struct {
	Session database.Session
	Section Section
}

// minutesOfDay converts a wall-clock instant to minutes since midnight
func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// WithinWindow reports whether a session's time window covers now. For
// recurring sessions only the time-of-day components matter, the window
// may wrap past midnight, and the current weekday must be selected. For
// one-shot sessions the full start and end instants bound the window.
func WithinWindow(s database.Session, now time.Time) bool {
	if s.Type == database.SessionRecurring {
		if !s.RecurringDays.Contains(database.WeekdayOf(now)) {
			return false
		}
		return withinTimeOfDay(s, now)
	}
	return !now.Before(s.StartTime) && !now.After(s.EndTime)
}

// withinTimeOfDay checks the time-of-day window, wrapping across midnight
// when the end minute precedes the start minute.
func withinTimeOfDay(s database.Session, now time.Time) bool {
	current := minutesOfDay(now)
	start := minutesOfDay(s.StartTime)
	end := minutesOfDay(s.EndTime)

	if end < start {
		// Window wraps past midnight
		return current >= start || current <= end
	}
	return current >= start && current <= end
}

// ReadyToExpire reports whether an active session's window has closed
func ReadyToExpire(s database.Session, now time.Time) bool {
	if s.Type == database.SessionRecurring {
		return !withinTimeOfDay(s, now)
	}
	return now.After(s.EndTime)
}

// Categorize places each session into its display section. Active outranks
// everything; a session is Pending only when inactive but inside its
// eligible window right now.
func Categorize(sessions []database.Session, now time.Time) []Categorized {
	var out []Categorized

	for _, s := range sessions {
		if s.IsActive {
			out = append(out, Categorized{Session: s, Section: SectionActive})
		}
	}
	for _, s := range sessions {
		if !s.IsActive && WithinWindow(s, now) {
			out = append(out, Categorized{Session: s, Section: SectionPending})
		}
	}
	for _, s := range sessions {
		if s.Type == database.SessionLater && s.StartTime.After(now) {
			out = append(out, Categorized{Session: s, Section: SectionUpcoming})
		}
	}
	for _, s := range sessions {
		if s.Type == database.SessionRecurring && !s.IsActive && !WithinWindow(s, now) {
			out = append(out, Categorized{Session: s, Section: SectionRecurring})
		}
	}

	return out
}

// Remaining formats the time left in a session's window. Recurring windows
// count to the next end-of-window time of day, wrapping past midnight.
func Remaining(s database.Session, now time.Time) string {
	if s.Type == database.SessionRecurring {
		current := minutesOfDay(now)
		end := minutesOfDay(s.EndTime)

		var remaining int
		if end >= current {
			remaining = end - current
		} else {
			remaining = 24*60 - current + end
		}
		return fmt.Sprintf("%dH %dM", remaining/60, remaining%60)
	}

	left := s.EndTime.Sub(now)
	if left <= 0 {
		return "Expired"
	}
	return fmt.Sprintf("%dH %dM", int(left.Hours()), int(left.Minutes())%60)
}

// ScheduleSummary renders a recurring session's repeat pattern, e.g.
// "Repeats Weekdays, 9:00AM-5:00PM".
func ScheduleSummary(s database.Session) string {
	if s.Type != database.SessionRecurring {
		return ""
	}

	days := describeDays(s.RecurringDays)
	start := s.StartTime.Format("3:04PM")
	end := s.EndTime.Format("3:04PM")
	return fmt.Sprintf("Repeats %s, %s-%s", days, start, end)
}

// describeDays collapses common day selections to a friendly label
func describeDays(days database.WeekdayList) string {
	selected := make(map[database.Weekday]struct{}, len(days))
	for _, d := range days {
		selected[d] = struct{}{}
	}

	weekdays := []database.Weekday{database.Monday, database.Tuesday, database.Wednesday, database.Thursday, database.Friday}
	weekend := []database.Weekday{database.Sunday, database.Saturday}

	switch {
	case len(selected) == 7:
		return "Everyday"
	case len(selected) == 5 && containsAll(selected, weekdays):
		return "Weekdays"
	case len(selected) == 2 && containsAll(selected, weekend):
		return "Weekends"
	case len(selected) == 1:
		return days[0].String()
	}

	ordered := ""
	for d := database.Sunday; d <= database.Saturday; d++ {
		if _, ok := selected[d]; !ok {
			continue
		}
		if ordered != "" {
			ordered += "-"
		}
		ordered += d.ShortName()
	}
	return ordered
}

func containsAll(set map[database.Weekday]struct{}, days []database.Weekday) bool {
	for _, d := range days {
		if _, ok := set[d]; !ok {
			return false
		}
	}
	return true
}
