package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nightlyone/lockfile"

	"quietweb/internal/config"
	"quietweb/internal/database"
	"quietweb/internal/notify"
	"quietweb/internal/session"
	"quietweb/pkg/logger"
)

// Store is the slice of the record store the agent sweeps
type Store interface {
	Sessions() ([]database.Session, error)
	CleanupExpiredSessions(now time.Time) (int64, error)
}

// Lifecycle is the session manager surface the agent drives
type Lifecycle interface {
	Start(id string) error
	End(id string) error
	Deactivate(id string) error
}

// Agent runs the periodic maintenance sweep: it moves sessions in and out
// of their activation windows, cleans up expired one-shot sessions and
// delivers due notifications. All enforcement changes flow through the
// lifecycle manager so every transition republishes the rules.
type Agent struct {
	config    *config.Settings
	store     Store
	lifecycle Lifecycle
	deliverer *notify.Deliverer
	log       *logger.Logger
}

// New creates a maintenance agent
func New(cfg *config.Settings, store Store, lifecycle Lifecycle, deliverer *notify.Deliverer, log *logger.Logger) *Agent {
	return &Agent{
		config:    cfg,
		store:     store,
		lifecycle: lifecycle,
		deliverer: deliverer,
		log:       log,
	}
}

// Run executes a single maintenance sweep. A lock file ensures only one
// sweep runs at a time.
func (a *Agent) Run(ctx context.Context) error {
	lockPath := filepath.Join(filepath.Dir(a.config.DatabasePath), "quietweb-agent.lock")
	lock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("failed to create lock: %w", err)
	}
	if err := lock.TryLock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	if err := a.log.BeginSweepLog(now); err != nil {
		a.log.Warnf("Failed to open sweep log: %v", err)
	}
	a.log.Info("Maintenance sweep started")

	if err := a.sweepSessions(now); err != nil {
		return err
	}

	removed, err := a.store.CleanupExpiredSessions(now)
	if err != nil {
		a.log.Warnf("Failed to clean up expired sessions: %v", err)
	} else if removed > 0 {
		a.log.Infof("Removed %d expired sessions", removed)
	}

	delivered, err := a.deliverer.DeliverDue(now)
	if err != nil {
		a.log.Warnf("Failed to deliver notifications: %v", err)
	} else if delivered > 0 {
		a.log.Infof("Delivered %d notifications", delivered)
	}

	a.log.Info("Maintenance sweep completed")
	return nil
}

// RunLoop sweeps repeatedly at the configured interval until the context
// is cancelled.
func (a *Agent) RunLoop(ctx context.Context) error {
	interval := a.config.SweepInterval.Std()
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := a.Run(ctx); err != nil {
		a.log.Errorf("Sweep failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.Run(ctx); err != nil {
				a.log.Errorf("Sweep failed: %v", err)
			}
		}
	}
}

// sweepSessions moves each session across its activation boundary: active
// sessions past their window end (recurring ones fall back to pending,
// one-shots are ended outright), inactive sessions whose window has
// opened start automatically.
func (a *Agent) sweepSessions(now time.Time) error {
	sessions, err := a.store.Sessions()
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	for _, s := range sessions {
		switch {
		case s.IsActive && session.ReadyToExpire(s, now):
			if s.Type == database.SessionRecurring {
				a.log.Infof("Recurring session %q left its window", s.Name)
				if err := a.lifecycle.Deactivate(s.ID); err != nil {
					a.log.Warnf("Failed to deactivate %q: %v", s.Name, err)
				}
			} else {
				a.log.Infof("Session %q reached its end time", s.Name)
				if err := a.lifecycle.End(s.ID); err != nil {
					a.log.Warnf("Failed to end %q: %v", s.Name, err)
				}
			}

		case !s.IsActive && s.Type != database.SessionNow && session.WithinWindow(s, now):
			a.log.Infof("Session %q entered its window", s.Name)
			if err := a.lifecycle.Start(s.ID); err != nil {
				var notReady *session.NotReadyError
				if errors.As(err, &notReady) {
					a.log.Warnf("Session %q is not ready to start: %v", s.Name, err)
					continue
				}
				a.log.Warnf("Failed to start %q: %v", s.Name, err)
			}
		}
	}
	return nil
}
