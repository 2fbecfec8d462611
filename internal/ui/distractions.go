package ui

import (
	"errors"
	"fmt"
	"strings"

	"quietweb/internal/database"
)

// manageDistractions runs the personal distraction list submenu
func (m *Menu) manageDistractions() {
	for {
		ClearScreen()
		sectionColor.Println("=== My Distractions ===")
		m.listDistractions()

		fmt.Println()
		itemColor.Println("1) Add a distraction")
		itemColor.Println("2) Rename a distraction")
		itemColor.Println("3) Remove a distraction")
		itemColor.Println("0) Back")

		fmt.Print("\nSelect an option: ")
		var option string
		fmt.Scanln(&option)

		switch strings.TrimSpace(option) {
		case "1":
			m.addDistraction()
		case "2":
			m.renameDistraction()
		case "3":
			m.removeDistraction()
		case "0":
			return
		default:
			errorColor.Println("Invalid option.")
			PressEnterToContinue()
		}
	}
}

// listDistractions prints the personal host list
func (m *Menu) listDistractions() {
	hosts, err := m.store.UserDistractions()
	if err != nil {
		errorColor.Printf("Failed to read distractions: %v\n", err)
		return
	}
	if len(hosts) == 0 {
		fmt.Println("No personal distractions yet.")
		return
	}

	fmt.Println()
	for _, host := range hosts {
		fmt.Printf("  %s\n", host)
	}
}

// addDistraction validates and stores a new host
func (m *Menu) addDistraction() {
	host, err := PromptHost("Host (e.g. example.com or example.com/feed)")
	if err != nil {
		return
	}

	if err := m.store.AddUserDistraction(host); err != nil {
		if errors.Is(err, database.ErrDuplicateHost) {
			warningColor.Printf("%q is already on your list.\n", host)
		} else {
			errorColor.Printf("Failed to add: %v\n", err)
		}
		PressEnterToContinue()
		return
	}
	successColor.Printf("Added %q.\n", host)
	PressEnterToContinue()
}

// renameDistraction renames a host; the change propagates into every
// blocklist referencing it, so republish afterwards.
func (m *Menu) renameDistraction() {
	host, ok := m.pickDistraction("Rename which distraction?")
	if !ok {
		return
	}

	newHost, err := PromptHost("New host")
	if err != nil {
		return
	}

	if err := m.store.RenameUserDistraction(host, newHost); err != nil {
		if errors.Is(err, database.ErrDuplicateHost) {
			warningColor.Printf("%q is already on your list.\n", newHost)
		} else {
			errorColor.Printf("Failed to rename: %v\n", err)
		}
		PressEnterToContinue()
		return
	}
	m.republish()
	successColor.Printf("Renamed %q to %q.\n", host, newHost)
	PressEnterToContinue()
}

// removeDistraction deletes a host from the list and from every blocklist
func (m *Menu) removeDistraction() {
	host, ok := m.pickDistraction("Remove which distraction?")
	if !ok {
		return
	}

	confirmed, err := PromptConfirm(fmt.Sprintf("Remove %q from your list and every blocklist", host))
	if err != nil || !confirmed {
		return
	}

	if err := m.store.RemoveUserDistraction(host); err != nil {
		errorColor.Printf("Failed to remove: %v\n", err)
		PressEnterToContinue()
		return
	}
	m.republish()
	successColor.Printf("Removed %q.\n", host)
	PressEnterToContinue()
}

// pickDistraction lets the user choose one host from the list
func (m *Menu) pickDistraction(label string) (string, bool) {
	hosts, err := m.store.UserDistractions()
	if err != nil {
		errorColor.Printf("Failed to read distractions: %v\n", err)
		PressEnterToContinue()
		return "", false
	}
	if len(hosts) == 0 {
		warningColor.Println("No personal distractions yet.")
		PressEnterToContinue()
		return "", false
	}

	index, err := SelectOption(label, hosts)
	if err != nil {
		return "", false
	}
	return hosts[index], true
}
