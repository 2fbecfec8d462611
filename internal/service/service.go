package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const unitName = "quietweb-agent.service"

const unitTemplate = `[Unit]
Description=QuietWeb maintenance agent

[Service]
ExecStart=%s
Restart=on-failure
RestartSec=10

[Install]
WantedBy=default.target
`

// unitPath returns the per-user systemd unit file location
func unitPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "systemd", "user", unitName), nil
}

// systemctl runs a systemctl --user subcommand against the agent unit
func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(output))
		if msg != "" {
			return fmt.Errorf("systemctl %s: %s", strings.Join(args, " "), msg)
		}
		return fmt.Errorf("systemctl %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// IsInstalled reports whether the agent unit file exists
func IsInstalled() bool {
	path, err := unitPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Install writes the agent unit file pointing at agentPath, then enables
// and starts it. An empty agentPath resolves quietweb-agent from PATH.
func Install(agentPath string) error {
	if agentPath == "" {
		resolved, err := exec.LookPath("quietweb-agent")
		if err != nil {
			return fmt.Errorf("quietweb-agent not found in PATH: %w", err)
		}
		agentPath = resolved
	}

	path, err := unitPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create systemd user directory: %w", err)
	}

	unit := fmt.Sprintf(unitTemplate, agentPath)
	if err := os.WriteFile(path, []byte(unit), 0644); err != nil {
		return fmt.Errorf("write unit file: %w", err)
	}

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	return systemctl("enable", "--now", unitName)
}

// Uninstall stops and disables the agent unit and removes its file
func Uninstall() error {
	if err := systemctl("disable", "--now", unitName); err != nil {
		// Unit may already be gone; removing the file is what matters
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	path, err := unitPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove unit file: %w", err)
	}
	return systemctl("daemon-reload")
}

// Status returns the systemd activity state of the agent unit
func Status() (string, error) {
	cmd := exec.Command("systemctl", "--user", "is-active", unitName)
	output, _ := cmd.Output()
	state := strings.TrimSpace(string(output))
	if state == "" {
		state = "unknown"
	}
	return state, nil
}
