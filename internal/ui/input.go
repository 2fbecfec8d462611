package ui

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/manifoldco/promptui"

	"quietweb/internal/blocker"
)

// ErrCancelled is returned when the user backs out of a prompt
var ErrCancelled = errors.New("cancelled")

// promptErr maps promptui interrupts to ErrCancelled
func promptErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return ErrCancelled
	}
	return err
}

// PromptString reads a non-empty string
func PromptString(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("cannot be empty")
			}
			return nil
		},
	}
	value, err := prompt.Run()
	if err != nil {
		return "", promptErr(err)
	}
	return strings.TrimSpace(value), nil
}

// PromptStringDefault reads a string, falling back to a default when empty
func PromptStringDefault(label, defaultVal string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: defaultVal,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", promptErr(err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultVal, nil
	}
	return value, nil
}

// PromptHost reads a host or host/path entry and validates it
func PromptHost(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			return blocker.ValidateHost(strings.TrimSpace(input))
		},
	}
	value, err := prompt.Run()
	if err != nil {
		return "", promptErr(err)
	}
	return strings.TrimSpace(value), nil
}

// PromptTime reads a wall-clock time of day and anchors it to ref's date
func PromptTime(label string, ref time.Time) (time.Time, error) {
	layouts := []string{"15:04", "3:04PM", "3:04pm"}

	prompt := promptui.Prompt{
		Label: label + " (e.g. 14:30 or 2:30PM)",
		Validate: func(input string) error {
			input = strings.TrimSpace(input)
			for _, layout := range layouts {
				if _, err := time.Parse(layout, input); err == nil {
					return nil
				}
			}
			return errors.New("enter a time like 14:30 or 2:30PM")
		},
	}
	value, err := prompt.Run()
	if err != nil {
		return time.Time{}, promptErr(err)
	}

	value = strings.TrimSpace(value)
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return time.Date(ref.Year(), ref.Month(), ref.Day(),
			parsed.Hour(), parsed.Minute(), 0, 0, ref.Location()), nil
	}
	return time.Time{}, errors.New("unreachable time format")
}

// PromptDuration reads a duration like 45m or 2h30m
func PromptDuration(label string) (time.Duration, error) {
	prompt := promptui.Prompt{
		Label: label + " (e.g. 45m or 2h30m)",
		Validate: func(input string) error {
			d, err := time.ParseDuration(strings.TrimSpace(input))
			if err != nil {
				return errors.New("enter a duration like 45m or 2h30m")
			}
			if d <= 0 {
				return errors.New("duration must be positive")
			}
			return nil
		},
	}
	value, err := prompt.Run()
	if err != nil {
		return 0, promptErr(err)
	}
	return time.ParseDuration(strings.TrimSpace(value))
}

// PromptConfirm asks a yes/no question
func PromptConfirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, promptErr(err)
	}
	return true, nil
}

// SelectOption presents a list and returns the chosen index
func SelectOption(label string, items []string) (int, error) {
	sel := promptui.Select{
		Label: label,
		Items: items,
		Size:  12,
	}
	index, _, err := sel.Run()
	if err != nil {
		return 0, promptErr(err)
	}
	return index, nil
}

// ToggleItem is one row in a toggle list
type ToggleItem struct {
	Label    string
	Selected bool
}

// ToggleSelect loops a select list where choosing an item flips its check
// mark, until the user picks Done. It returns the final selection state.
func ToggleSelect(label string, items []ToggleItem) ([]ToggleItem, error) {
	for {
		rows := make([]string, 0, len(items)+1)
		for _, item := range items {
			mark := "[ ]"
			if item.Selected {
				mark = "[x]"
			}
			rows = append(rows, fmt.Sprintf("%s %s", mark, item.Label))
		}
		rows = append(rows, "Done")

		index, err := SelectOption(label, rows)
		if err != nil {
			return nil, err
		}
		if index == len(items) {
			return items, nil
		}
		items[index].Selected = !items[index].Selected
	}
}

// PressEnterToContinue waits for the user
func PressEnterToContinue() {
	fmt.Print("\nPress Enter to continue...")
	fmt.Scanln()
}

// ClearScreen clears the terminal
func ClearScreen() {
	cmd := exec.Command("clear")
	cmd.Stdout = os.Stdout
	cmd.Run()
}
