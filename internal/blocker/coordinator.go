package blocker

import (
	"fmt"

	"quietweb/internal/catalog"
	"quietweb/internal/database"
	"quietweb/pkg/logger"
)

// Resolution is the effective block state implied by all currently active
// sessions: either block everything, or a finite host set.
type Resolution struct {
	TotalBlock bool
	Hosts      map[string]struct{}
}

// Store is the slice of the record store the coordinator reads
type Store interface {
	Sessions() ([]database.Session, error)
	Blocklist(id string) (*database.Blocklist, error)
}

// Coordinator runs the resolve, compile and publish pipeline for the
// distraction concern.
type Coordinator struct {
	store     Store
	catalog   *catalog.Catalog
	publisher *Publisher
	log       *logger.Logger
}

// NewCoordinator creates a new pipeline coordinator
func NewCoordinator(store Store, cat *catalog.Catalog, publisher *Publisher, log *logger.Logger) *Coordinator {
	return &Coordinator{
		store:     store,
		catalog:   cat,
		publisher: publisher,
		log:       log,
	}
}

// Resolve computes the effective block set from the full session and
// blocklist stores. Any active session referencing a total-block blocklist
// short-circuits to TotalBlock; otherwise user distractions and selected
// catalog sources union into a single host set. Selection is keyed off
// DistractionSourceIDs only; DistractionGroups is a display summary.
func (c *Coordinator) Resolve() (Resolution, error) {
	sessions, err := c.store.Sessions()
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve: %w", err)
	}

	hosts := make(map[string]struct{})
	for _, session := range sessions {
		if !session.IsActive {
			continue
		}
		for _, blocklistID := range session.Blocklists {
			blocklist, err := c.store.Blocklist(blocklistID)
			if err != nil {
				if err == database.ErrNotFound {
					// Dangling reference; reconciliation happens on delete
					continue
				}
				return Resolution{}, fmt.Errorf("resolve blocklist %s: %w", blocklistID, err)
			}

			if blocklist.TotalBlockEnabled {
				return Resolution{TotalBlock: true}, nil
			}

			for _, host := range blocklist.UserDistractions {
				hosts[host] = struct{}{}
			}
			for host := range c.catalog.HostsForSourceIDs(blocklist.DistractionSourceIDs.Set()) {
				hosts[host] = struct{}{}
			}
		}
	}

	return Resolution{Hosts: hosts}, nil
}

// Apply runs the full pipeline for the distraction concern. A store read
// failure aborts before publishing so the previous rule file stays
// authoritative.
func (c *Coordinator) Apply() error {
	resolution, err := c.Resolve()
	if err != nil {
		c.log.Errorf("Aborting publish, resolution failed: %v", err)
		return err
	}

	rules := Compile(resolution)
	if err := c.publisher.Publish(ConcernDistractions, rules); err != nil {
		c.log.Errorf("Failed to publish distraction rules: %v", err)
		return err
	}

	if resolution.TotalBlock {
		c.log.Info("Published total block rule")
	} else {
		c.log.Infof("Published rules for %d hosts", len(resolution.Hosts))
	}
	return nil
}
