package ui

import (
	"errors"
	"fmt"
	"strings"

	"quietweb/internal/catalog"
	"quietweb/internal/database"
)

// manageBlocklists runs the blocklist submenu loop
func (m *Menu) manageBlocklists() {
	for {
		ClearScreen()
		sectionColor.Println("=== Blocklists ===")
		m.listBlocklists()

		fmt.Println()
		itemColor.Println("1) New blocklist")
		itemColor.Println("2) Edit a blocklist")
		itemColor.Println("3) Delete a blocklist")
		itemColor.Println("0) Back")

		fmt.Print("\nSelect an option: ")
		var option string
		fmt.Scanln(&option)

		switch strings.TrimSpace(option) {
		case "1":
			m.newBlocklist()
		case "2":
			m.editBlocklistFlow()
		case "3":
			m.deleteBlocklist()
		case "0":
			return
		default:
			errorColor.Println("Invalid option.")
			PressEnterToContinue()
		}
	}
}

// listBlocklists prints every blocklist with its derived summary
func (m *Menu) listBlocklists() {
	blocklists, err := m.store.Blocklists()
	if err != nil {
		errorColor.Printf("Failed to read blocklists: %v\n", err)
		return
	}
	if len(blocklists) == 0 {
		fmt.Println("No blocklists yet.")
		return
	}

	fmt.Println()
	for _, b := range blocklists {
		if b.TotalBlockEnabled {
			warningColor.Printf("  %s - total block\n", b.Name)
			continue
		}
		groups := make([]string, 0, len(b.DistractionGroups))
		for _, g := range b.DistractionGroups {
			groups = append(groups, g.Name())
		}
		summary := strings.Join(groups, ", ")
		if summary == "" {
			summary = "personal hosts only"
		}
		fmt.Printf("  %s - %d hosts (%s)\n", b.Name, b.HostCount, summary)
	}
}

// newBlocklist creates an empty blocklist and drops into the editor
func (m *Menu) newBlocklist() {
	name, err := PromptString("Blocklist name")
	if err != nil {
		return
	}

	b := &database.Blocklist{Name: name}
	if err := m.store.CreateBlocklist(b); err != nil {
		errorColor.Printf("Failed to create blocklist: %v\n", err)
		PressEnterToContinue()
		return
	}
	m.editBlocklist(b.ID)
}

// editBlocklistFlow picks a blocklist and opens the editor
func (m *Menu) editBlocklistFlow() {
	b, err := m.pickBlocklist("Edit which blocklist?")
	if err != nil || b == nil {
		return
	}
	m.editBlocklist(b.ID)
}

// editBlocklist runs the editor loop for one blocklist
func (m *Menu) editBlocklist(id string) {
	for {
		b, err := m.store.Blocklist(id)
		if err != nil {
			errorColor.Printf("Failed to read blocklist: %v\n", err)
			PressEnterToContinue()
			return
		}

		ClearScreen()
		sectionColor.Printf("=== Blocklist: %s ===\n", b.Name)
		if b.TotalBlockEnabled {
			warningColor.Println("Total block is ON; host selections are ignored while enabled.")
		} else {
			fmt.Printf("%d hosts selected\n", b.HostCount)
		}

		fmt.Println()
		itemColor.Println("1) Rename")
		itemColor.Println("2) Toggle total block")
		itemColor.Println("3) Personal distractions")
		itemColor.Println("4) Categories")
		itemColor.Println("0) Back")

		fmt.Print("\nSelect an option: ")
		var option string
		fmt.Scanln(&option)

		switch strings.TrimSpace(option) {
		case "1":
			m.renameBlocklist(b)
		case "2":
			m.toggleTotalBlock(b)
		case "3":
			m.editPersonalDistractions(b)
		case "4":
			m.editCategories(b)
		case "0":
			return
		default:
			errorColor.Println("Invalid option.")
			PressEnterToContinue()
		}
	}
}

// renameBlocklist updates the blocklist name
func (m *Menu) renameBlocklist(b *database.Blocklist) {
	name, err := PromptStringDefault("New name", b.Name)
	if err != nil {
		return
	}
	if err := m.store.UpdateBlocklist(b.ID, database.BlocklistUpdate{Name: &name}); err != nil {
		errorColor.Printf("Failed to rename: %v\n", err)
		PressEnterToContinue()
	}
}

// toggleTotalBlock flips the total-block flag and republishes
func (m *Menu) toggleTotalBlock(b *database.Blocklist) {
	enabled := !b.TotalBlockEnabled
	if enabled {
		confirmed, err := PromptConfirm("Total block will block every site during sessions using this list. Continue")
		if err != nil || !confirmed {
			return
		}
	}
	if err := m.store.UpdateBlocklist(b.ID, database.BlocklistUpdate{TotalBlockEnabled: &enabled}); err != nil {
		errorColor.Printf("Failed to update: %v\n", err)
		PressEnterToContinue()
		return
	}
	m.republish()
}

// editPersonalDistractions toggles the user's own hosts in and out of the
// blocklist. New hosts are added under My Distractions first.
func (m *Menu) editPersonalDistractions(b *database.Blocklist) {
	hosts, err := m.store.UserDistractions()
	if err != nil {
		errorColor.Printf("Failed to read distractions: %v\n", err)
		PressEnterToContinue()
		return
	}
	if len(hosts) == 0 {
		warningColor.Println("No personal distractions yet; add some under My Distractions.")
		PressEnterToContinue()
		return
	}

	selected := b.UserDistractions.Set()
	items := make([]ToggleItem, 0, len(hosts))
	for _, host := range hosts {
		_, on := selected[host]
		items = append(items, ToggleItem{Label: host, Selected: on})
	}

	items, err = ToggleSelect("Personal distractions", items)
	if err != nil {
		return
	}

	var chosen database.StringList
	for i, item := range items {
		if item.Selected {
			chosen = append(chosen, hosts[i])
		}
	}

	update := database.BlocklistUpdate{UserDistractions: &chosen}
	if err := m.store.UpdateBlocklist(b.ID, update); err != nil {
		errorColor.Printf("Failed to update: %v\n", err)
		PressEnterToContinue()
		return
	}
	m.refreshDerived(b.ID)
}

// editCategories picks a catalog group and edits its source selection
func (m *Menu) editCategories(b *database.Blocklist) {
	for {
		current, err := m.store.Blocklist(b.ID)
		if err != nil {
			errorColor.Printf("Failed to read blocklist: %v\n", err)
			PressEnterToContinue()
			return
		}
		selected := current.DistractionSourceIDs.Set()

		groups := catalog.AllGroups()
		labels := make([]string, 0, len(groups)+1)
		for _, g := range groups {
			total := len(m.catalog.Sources(g))
			chosen := 0
			for _, src := range m.catalog.Sources(g) {
				if _, ok := selected[src.ID]; ok {
					chosen++
				}
			}
			labels = append(labels, fmt.Sprintf("%s (%d/%d)", g.Name(), chosen, total))
		}
		labels = append(labels, "Back")

		index, err := SelectOption("Category", labels)
		if err != nil || index == len(groups) {
			return
		}
		m.editGroupSelection(current, groups[index])
	}
}

// editGroupSelection edits one group's sources. "Block entire category" and
// "Unblock entire category" move every source in or out in one step.
func (m *Menu) editGroupSelection(b *database.Blocklist, group catalog.Group) {
	sources := m.catalog.Sources(group)
	if len(sources) == 0 {
		warningColor.Println("This category is empty.")
		PressEnterToContinue()
		return
	}

	action, err := SelectOption(group.Name(), []string{
		"Block entire category",
		"Unblock entire category",
		"Choose sources",
		"Back",
	})
	if err != nil || action == 3 {
		return
	}

	selected := b.DistractionSourceIDs.Set()
	switch action {
	case 0:
		for _, src := range sources {
			selected[src.ID] = struct{}{}
		}
	case 1:
		for _, src := range sources {
			delete(selected, src.ID)
		}
	case 2:
		items := make([]ToggleItem, 0, len(sources))
		for _, src := range sources {
			_, on := selected[src.ID]
			items = append(items, ToggleItem{
				Label:    fmt.Sprintf("%s (%d hosts)", src.Name, len(src.Hosts)),
				Selected: on,
			})
		}
		items, err = ToggleSelect(group.Name(), items)
		if err != nil {
			return
		}
		for i, item := range items {
			if item.Selected {
				selected[sources[i].ID] = struct{}{}
			} else {
				delete(selected, sources[i].ID)
			}
		}
	}

	ids := make(database.StringList, 0, len(selected))
	for _, g := range catalog.AllGroups() {
		for _, src := range m.catalog.Sources(g) {
			if _, ok := selected[src.ID]; ok {
				ids = append(ids, src.ID)
			}
		}
	}

	if err := m.store.UpdateBlocklist(b.ID, database.BlocklistUpdate{DistractionSourceIDs: &ids}); err != nil {
		errorColor.Printf("Failed to update: %v\n", err)
		PressEnterToContinue()
		return
	}
	m.refreshDerived(b.ID)
}

// deleteBlocklist removes a blocklist; sessions referencing it are cleaned
// up in the same transaction, then the rules are republished.
func (m *Menu) deleteBlocklist() {
	b, err := m.pickBlocklist("Delete which blocklist?")
	if err != nil || b == nil {
		return
	}

	confirmed, err := PromptConfirm(fmt.Sprintf("Delete blocklist %q", b.Name))
	if err != nil || !confirmed {
		return
	}

	if err := m.store.DeleteBlocklist(b.ID); err != nil {
		errorColor.Printf("Failed to delete: %v\n", err)
		PressEnterToContinue()
		return
	}
	m.republish()
	successColor.Printf("Blocklist %q deleted.\n", b.Name)
	PressEnterToContinue()
}

// pickBlocklist lets the user choose one blocklist
func (m *Menu) pickBlocklist(label string) (*database.Blocklist, error) {
	blocklists, err := m.store.Blocklists()
	if err != nil {
		errorColor.Printf("Failed to read blocklists: %v\n", err)
		PressEnterToContinue()
		return nil, err
	}
	if len(blocklists) == 0 {
		warningColor.Println("No blocklists yet.")
		PressEnterToContinue()
		return nil, nil
	}

	labels := make([]string, 0, len(blocklists))
	for _, b := range blocklists {
		labels = append(labels, b.Name)
	}
	index, err := SelectOption(label, labels)
	if err != nil {
		if cancelled(err) {
			return nil, nil
		}
		return nil, err
	}
	return &blocklists[index], nil
}

// refreshDerived recomputes a blocklist's host count and group summary
// from its current selections, then republishes.
func (m *Menu) refreshDerived(id string) {
	b, err := m.store.Blocklist(id)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			errorColor.Printf("Failed to read blocklist: %v\n", err)
		}
		return
	}

	hosts := m.catalog.HostsForSourceIDs(b.DistractionSourceIDs.Set())
	for _, host := range b.UserDistractions {
		hosts[host] = struct{}{}
	}
	count := len(hosts)

	selected := b.DistractionSourceIDs.Set()
	var groups database.GroupList
	for _, g := range catalog.AllGroups() {
		for _, src := range m.catalog.Sources(g) {
			if _, ok := selected[src.ID]; ok {
				groups = append(groups, g)
				break
			}
		}
	}

	update := database.BlocklistUpdate{HostCount: &count, DistractionGroups: &groups}
	if err := m.store.UpdateBlocklist(id, update); err != nil {
		errorColor.Printf("Failed to update blocklist summary: %v\n", err)
	}
	m.republish()
}

// republish re-runs the pipeline after a blocklist change so active
// sessions referencing it pick up the edit immediately.
func (m *Menu) republish() {
	if err := m.coordinator.Apply(); err != nil {
		errorColor.Printf("Failed to republish rules: %v\n", err)
	}
}
