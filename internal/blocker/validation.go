package blocker

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidHost is returned when a user-entered entry is not a usable
// host (optionally with a path).
var ErrInvalidHost = errors.New("invalid host pattern")

var validate = validator.New()

// ValidateHost checks a user-entered blocklist entry before it is
// accepted. Entries may carry an http/https scheme and a path; the
// hostname itself must be a plausible registrable domain.
func ValidateHost(entry string) error {
	trimmed := strings.TrimSpace(entry)
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.TrimPrefix(trimmed, "https://")
	if trimmed == "" {
		return ErrInvalidHost
	}

	host := trimmed
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		host = trimmed[:idx]
	}

	// Require at least one dot so bare words are rejected
	if !strings.Contains(host, ".") {
		return ErrInvalidHost
	}
	if err := validate.Var(host, "hostname_rfc1123"); err != nil {
		return ErrInvalidHost
	}
	return nil
}
