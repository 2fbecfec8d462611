package blocker

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Reloader asks the platform to reload a named filter and reports its
// enabled state.
type Reloader interface {
	Reload(identifier string) error
	EnabledState(identifier string) (bool, error)
}

// ExecReloader shells out to configurable platform hooks, invoked with the
// filter identifier as the final argument. Empty commands make both
// operations no-ops, which is the default on platforms without a hook.
type ExecReloader struct {
	reloadCommand string
	statusCommand string
}

// NewExecReloader creates a reloader around the configured hook commands
func NewExecReloader(reloadCommand, statusCommand string) *ExecReloader {
	return &ExecReloader{
		reloadCommand: reloadCommand,
		statusCommand: statusCommand,
	}
}

// Reload invokes the reload hook for the identifier
func (r *ExecReloader) Reload(identifier string) error {
	if r.reloadCommand == "" {
		return nil
	}
	return runHook(r.reloadCommand, identifier)
}

// EnabledState invokes the status hook; the hook prints "enabled" or
// "disabled" on stdout.
func (r *ExecReloader) EnabledState(identifier string) (bool, error) {
	if r.statusCommand == "" {
		return false, nil
	}

	parts := strings.Fields(r.statusCommand)
	if len(parts) == 0 {
		return false, fmt.Errorf("invalid status hook command")
	}

	cmd := exec.Command(parts[0], append(parts[1:], identifier)...)
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("status hook: %w", err)
	}
	return strings.TrimSpace(string(output)) == "enabled", nil
}

// runHook executes a hook command with the identifier appended
func runHook(command, identifier string) error {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return fmt.Errorf("invalid hook command")
	}

	cmd := exec.Command(parts[0], append(parts[1:], identifier)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("reload hook: %s", msg)
		}
		return fmt.Errorf("reload hook: %w", err)
	}
	return nil
}
