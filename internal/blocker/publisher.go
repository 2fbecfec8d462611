package blocker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"quietweb/pkg/logger"
)

// Publisher serializes compiled rules and writes them into the shared
// container directory the enforcement process reads from.
type Publisher struct {
	sharedDir string
	reloader  Reloader
	log       *logger.Logger
}

// NewPublisher creates a publisher writing into sharedDir
func NewPublisher(sharedDir string, reloader Reloader, log *logger.Logger) *Publisher {
	return &Publisher{
		sharedDir: sharedDir,
		reloader:  reloader,
		log:       log,
	}
}

// Publish writes the rule file for one concern and requests a filter
// reload. A nil/empty rule list publishes the explicit allow-all rule so
// the file is never empty. The write is atomic; a failed write leaves the
// previous file (and enforcement state) in place.
func (p *Publisher) Publish(concern Concern, rules []Rule) error {
	if len(rules) == 0 {
		rules = AllowAllRules()
	}

	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("serialize rules for %s: %w", concern, err)
	}

	if err := os.MkdirAll(p.sharedDir, 0755); err != nil {
		return fmt.Errorf("create shared dir: %w", err)
	}

	path := filepath.Join(p.sharedDir, concern.FileName())
	if err := atomicWrite(path, data); err != nil {
		return fmt.Errorf("write rule file for %s: %w", concern, err)
	}
	p.log.Debugf("Wrote %d bytes to %s", len(data), path)

	// The reload request must be issued before Publish returns; short-lived
	// CLI invocations exit right after. Only the result is advisory
	if err := p.reloader.Reload(concern.Identifier()); err != nil {
		p.log.Warnf("Filter reload failed for %s: %v", concern.Identifier(), err)
	} else {
		p.log.Debugf("Filter reloaded: %s", concern.Identifier())
	}

	return nil
}

// InitializeStubConcerns publishes the allow-all rule file for every
// concern without a producing pipeline, so the enforcement process always
// finds a parseable file. Existing files are left untouched.
func (p *Publisher) InitializeStubConcerns() {
	for _, concern := range AllConcerns() {
		if concern == ConcernDistractions {
			continue
		}
		path := filepath.Join(p.sharedDir, concern.FileName())
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := p.Publish(concern, nil); err != nil {
			p.log.Warnf("Failed to initialize %s rule file: %v", concern, err)
		}
	}
}

// atomicWrite writes data via a temp file and rename so the reader process
// never observes a partially written file.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
