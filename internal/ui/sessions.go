package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quietweb/internal/database"
	"quietweb/internal/session"
)

// manageSessions runs the session submenu loop
func (m *Menu) manageSessions() {
	for {
		ClearScreen()
		sectionColor.Println("=== Sessions ===")
		m.listSessions()

		fmt.Println()
		itemColor.Println("1) New session")
		itemColor.Println("2) Start a session")
		itemColor.Println("3) End a session")
		itemColor.Println("4) Delete a session")
		itemColor.Println("0) Back")

		fmt.Print("\nSelect an option: ")
		var option string
		fmt.Scanln(&option)

		switch strings.TrimSpace(option) {
		case "1":
			m.newSession()
		case "2":
			m.startSession()
		case "3":
			m.endSession()
		case "4":
			m.deleteSession()
		case "0":
			return
		default:
			errorColor.Println("Invalid option.")
			PressEnterToContinue()
		}
	}
}

// listSessions prints every session grouped by display section
func (m *Menu) listSessions() {
	sessions, err := m.store.Sessions()
	if err != nil {
		errorColor.Printf("Failed to read sessions: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions yet.")
		return
	}

	now := time.Now()
	categorized := session.Categorize(sessions, now)

	for _, sec := range []session.Section{session.SectionActive, session.SectionPending, session.SectionUpcoming, session.SectionRecurring} {
		printed := false
		for _, c := range categorized {
			if c.Section != sec {
				continue
			}
			if !printed {
				fmt.Println()
				subtitleColor.Printf("%s:\n", sec)
				printed = true
			}
			m.printSessionLine(c.Session, sec, now)
		}
	}
}

// printSessionLine prints one session row for its section
func (m *Menu) printSessionLine(s database.Session, sec session.Section, now time.Time) {
	switch sec {
	case session.SectionActive:
		fmt.Printf("  %s - %s left (%d blocklists)\n", s.Name, session.Remaining(s, now), len(s.Blocklists))
	case session.SectionPending:
		fmt.Printf("  %s - ready to start (%d blocklists)\n", s.Name, len(s.Blocklists))
	case session.SectionUpcoming:
		fmt.Printf("  %s - starts %s\n", s.Name, s.StartTime.Format("Mon Jan 2 3:04PM"))
	case session.SectionRecurring:
		fmt.Printf("  %s - %s\n", s.Name, session.ScheduleSummary(s))
	}
}

// newSession walks the user through creating a session
func (m *Menu) newSession() {
	name, err := PromptString("Session name")
	if err != nil {
		if !cancelled(err) {
			errorColor.Printf("Input failed: %v\n", err)
		}
		return
	}

	blocklistIDs, err := m.pickBlocklists(nil)
	if err != nil {
		if !cancelled(err) {
			errorColor.Printf("Input failed: %v\n", err)
		}
		return
	}
	if len(blocklistIDs) == 0 {
		warningColor.Println("A session needs at least one blocklist; create one first.")
		PressEnterToContinue()
		return
	}

	typeIndex, err := SelectOption("Session type", []string{
		database.SessionNow.Name(),
		database.SessionLater.Name(),
		database.SessionRecurring.Name(),
	})
	if err != nil {
		return
	}

	now := time.Now()
	s := &database.Session{
		Name:       name,
		Blocklists: blocklistIDs,
	}

	switch typeIndex {
	case 0:
		duration, err := PromptDuration("Session length")
		if err != nil {
			return
		}
		s.Type = database.SessionNow
		s.StartTime = now
		s.EndTime = now.Add(duration)

	case 1:
		start, err := PromptTime("Start time", now)
		if err != nil {
			return
		}
		if start.Before(now) {
			start = start.AddDate(0, 0, 1)
		}
		duration, err := PromptDuration("Session length")
		if err != nil {
			return
		}
		s.Type = database.SessionLater
		s.StartTime = start
		s.EndTime = start.Add(duration)

	case 2:
		days, err := m.pickWeekdays()
		if err != nil || len(days) == 0 {
			if len(days) == 0 && err == nil {
				warningColor.Println("Pick at least one day.")
				PressEnterToContinue()
			}
			return
		}
		start, err := PromptTime("Start time", now)
		if err != nil {
			return
		}
		end, err := PromptTime("End time", now)
		if err != nil {
			return
		}
		s.Type = database.SessionRecurring
		s.RecurringDays = days
		s.StartTime = start
		s.EndTime = end
	}

	if err := m.store.CreateSession(s); err != nil {
		errorColor.Printf("Failed to create session: %v\n", err)
		PressEnterToContinue()
		return
	}

	switch s.Type {
	case database.SessionNow:
		if err := m.manager.Start(s.ID); err != nil {
			errorColor.Printf("Failed to start session: %v\n", err)
		} else {
			successColor.Printf("Session %q started, ends at %s.\n", s.Name, s.EndTime.Format("3:04PM"))
		}
	default:
		if err := m.scheduler.ScheduleReminder(*s); err != nil {
			m.log.Warnf("Failed to schedule reminder for %q: %v", s.Name, err)
		}
		successColor.Printf("Session %q scheduled.\n", s.Name)
	}
	PressEnterToContinue()
}

// startSession starts an inactive session picked by the user
func (m *Menu) startSession() {
	s, err := m.pickSession("Start which session?", func(s database.Session) bool {
		return !s.IsActive
	})
	if err != nil || s == nil {
		return
	}

	if err := m.manager.Start(s.ID); err != nil {
		var notReady *session.NotReadyError
		if errors.As(err, &notReady) {
			warningColor.Printf("Cannot start: %v\n", err)
		} else {
			errorColor.Printf("Failed to start session: %v\n", err)
		}
		PressEnterToContinue()
		return
	}
	successColor.Printf("Session %q started.\n", s.Name)
	PressEnterToContinue()
}

// endSession ends an active session picked by the user
func (m *Menu) endSession() {
	s, err := m.pickSession("End which session?", func(s database.Session) bool {
		return s.IsActive
	})
	if err != nil || s == nil {
		return
	}

	if s.Type == database.SessionRecurring {
		confirmed, err := PromptConfirm("Ending a recurring session deletes its whole schedule. Continue")
		if err != nil || !confirmed {
			return
		}
	}

	if err := m.manager.End(s.ID); err != nil {
		errorColor.Printf("Failed to end session: %v\n", err)
	} else {
		successColor.Printf("Session %q ended.\n", s.Name)
	}
	PressEnterToContinue()
}

// deleteSession removes any session, active or not
func (m *Menu) deleteSession() {
	s, err := m.pickSession("Delete which session?", nil)
	if err != nil || s == nil {
		return
	}

	confirmed, err := PromptConfirm(fmt.Sprintf("Delete session %q", s.Name))
	if err != nil || !confirmed {
		return
	}

	if err := m.manager.End(s.ID); err != nil {
		errorColor.Printf("Failed to delete session: %v\n", err)
	} else {
		successColor.Printf("Session %q deleted.\n", s.Name)
	}
	PressEnterToContinue()
}

// pickSession lets the user choose a session matching the filter. A nil
// return with nil error means nothing matched or the user backed out.
func (m *Menu) pickSession(label string, filter func(database.Session) bool) (*database.Session, error) {
	sessions, err := m.store.Sessions()
	if err != nil {
		errorColor.Printf("Failed to read sessions: %v\n", err)
		PressEnterToContinue()
		return nil, err
	}

	var candidates []database.Session
	for _, s := range sessions {
		if filter == nil || filter(s) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		warningColor.Println("No matching sessions.")
		PressEnterToContinue()
		return nil, nil
	}

	labels := make([]string, 0, len(candidates))
	for _, s := range candidates {
		labels = append(labels, fmt.Sprintf("%s (%s)", s.Name, s.Type.Name()))
	}
	index, err := SelectOption(label, labels)
	if err != nil {
		if cancelled(err) {
			return nil, nil
		}
		return nil, err
	}
	return &candidates[index], nil
}

// pickBlocklists presents a toggle list of all blocklists and returns the
// selected ids, preserving any preselection.
func (m *Menu) pickBlocklists(preselected database.StringList) (database.StringList, error) {
	blocklists, err := m.store.Blocklists()
	if err != nil {
		return nil, err
	}
	if len(blocklists) == 0 {
		return nil, nil
	}

	selected := preselected.Set()
	items := make([]ToggleItem, 0, len(blocklists))
	for _, b := range blocklists {
		_, on := selected[b.ID]
		items = append(items, ToggleItem{
			Label:    fmt.Sprintf("%s (%d hosts)", b.Name, b.HostCount),
			Selected: on,
		})
	}

	items, err = ToggleSelect("Blocklists", items)
	if err != nil {
		return nil, err
	}

	var ids database.StringList
	for i, item := range items {
		if item.Selected {
			ids = append(ids, blocklists[i].ID)
		}
	}
	return ids, nil
}

// pickWeekdays presents a toggle list of the seven weekdays
func (m *Menu) pickWeekdays() (database.WeekdayList, error) {
	items := make([]ToggleItem, 0, 7)
	for d := database.Sunday; d <= database.Saturday; d++ {
		items = append(items, ToggleItem{Label: d.String()})
	}

	items, err := ToggleSelect("Repeat on", items)
	if err != nil {
		return nil, err
	}

	var days database.WeekdayList
	for i, item := range items {
		if item.Selected {
			days = append(days, database.Weekday(i+1))
		}
	}
	return days, nil
}
