package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"quietweb/internal/blocker"
	"quietweb/internal/catalog"
	"quietweb/internal/config"
	"quietweb/internal/database"
	"quietweb/internal/notify"
	"quietweb/internal/session"
	"quietweb/pkg/logger"
)

// Menu is the interactive terminal UI
type Menu struct {
	config      *config.Settings
	store       *database.Store
	catalog     *catalog.Catalog
	manager     *session.Manager
	scheduler   *notify.Scheduler
	coordinator *blocker.Coordinator
	reloader    blocker.Reloader
	log         *logger.Logger
}

// NewMenu creates the interactive menu
func NewMenu(cfg *config.Settings, store *database.Store, cat *catalog.Catalog,
	manager *session.Manager, scheduler *notify.Scheduler,
	coordinator *blocker.Coordinator, reloader blocker.Reloader, log *logger.Logger) *Menu {
	return &Menu{
		config:      cfg,
		store:       store,
		catalog:     cat,
		manager:     manager,
		scheduler:   scheduler,
		coordinator: coordinator,
		reloader:    reloader,
		log:         log,
	}
}

// Run starts the main menu loop
func (m *Menu) Run() {
	ClearScreen()
	PrintBanner()

	for {
		option := printMainMenu()
		if !m.dispatch(option) {
			break
		}
	}
}

// printMainMenu displays the main menu and returns the selected option
func printMainMenu() string {
	fmt.Println()
	itemColor.Println("1) Sessions")
	itemColor.Println("2) Blocklists")
	itemColor.Println("3) My Distractions")
	itemColor.Println("4) Status")
	itemColor.Println("5) Re-apply rules")
	itemColor.Println("0) Exit")

	fmt.Print("\nSelect an option: ")
	var option string
	fmt.Scanln(&option)
	return strings.TrimSpace(option)
}

// dispatch handles the selected main menu option
func (m *Menu) dispatch(option string) bool {
	switch strings.ToLower(option) {
	case "1":
		m.manageSessions()
		return true
	case "2":
		m.manageBlocklists()
		return true
	case "3":
		m.manageDistractions()
		return true
	case "4":
		m.showStatus()
		return true
	case "5":
		m.applyRules()
		return true
	case "0":
		successColor.Println("Goodbye!")
		return false
	default:
		errorColor.Println("Invalid option. Please try again.")
		return true
	}
}

// showStatus summarizes sessions, the effective block set and filter state
func (m *Menu) showStatus() {
	ClearScreen()
	sectionColor.Println("=== Status ===")

	sessions, err := m.store.Sessions()
	if err != nil {
		errorColor.Printf("Failed to read sessions: %v\n", err)
		PressEnterToContinue()
		return
	}

	now := time.Now()
	active := 0
	for _, s := range sessions {
		if s.IsActive {
			active++
			fmt.Printf("  Active: %s (%s left)\n", s.Name, session.Remaining(s, now))
		}
	}
	if active == 0 {
		fmt.Println("  No active sessions.")
	}

	resolution, err := m.coordinator.Resolve()
	if err != nil {
		errorColor.Printf("  Failed to resolve block set: %v\n", err)
	} else if resolution.TotalBlock {
		warningColor.Println("  Blocking: everything (total block)")
	} else {
		fmt.Printf("  Blocking: %d hosts\n", len(resolution.Hosts))
	}

	rulePath := filepath.Join(m.config.SharedDir, blocker.ConcernDistractions.FileName())
	fmt.Printf("  Rule file: %s\n", rulePath)

	enabled, err := m.reloader.EnabledState(blocker.ConcernDistractions.Identifier())
	switch {
	case err != nil:
		warningColor.Printf("  Filter state: unknown (%v)\n", err)
	case enabled:
		successColor.Println("  Filter state: enabled")
	default:
		warningColor.Println("  Filter state: disabled")
	}

	PressEnterToContinue()
}

// applyRules re-runs the resolve and publish pipeline on demand
func (m *Menu) applyRules() {
	if err := m.coordinator.Apply(); err != nil {
		errorColor.Printf("Failed to apply rules: %v\n", err)
	} else {
		successColor.Println("Rules applied.")
	}
	PressEnterToContinue()
}

// cancelled reports whether the user backed out of a prompt flow
func cancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
