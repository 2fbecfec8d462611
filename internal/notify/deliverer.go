package notify

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	"quietweb/internal/database"
	"quietweb/pkg/logger"
)

// Deliverer drains due notifications during the maintenance sweep and
// hands them to the configured notify hook.
type Deliverer struct {
	store         Store
	notifyCommand string
	log           *logger.Logger
}

// NewDeliverer creates a notification deliverer
func NewDeliverer(store Store, notifyCommand string, log *logger.Logger) *Deliverer {
	return &Deliverer{
		store:         store,
		notifyCommand: notifyCommand,
		log:           log,
	}
}

// DeliverDue delivers every notification whose fire time has arrived and
// returns how many were delivered. Delivery failures are logged; the
// notification stays pending for the next sweep.
func (d *Deliverer) DeliverDue(now time.Time) (int, error) {
	pending, err := d.store.PendingNotifications()
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, n := range pending {
		if !due(n, now) {
			continue
		}

		if err := d.deliver(n); err != nil {
			d.log.Warnf("Failed to deliver notification %d (%s): %v", n.ID, n.Title, err)
			continue
		}
		if err := d.store.MarkNotificationDelivered(n.ID, now); err != nil {
			d.log.Warnf("Failed to mark notification %d delivered: %v", n.ID, err)
			continue
		}
		delivered++
	}
	return delivered, nil
}

// due reports whether a notification should fire now. One-shot
// notifications fire once their instant passes; weekly ones fire on the
// selected weekday after the matching time of day, at most once per day.
func due(n database.Notification, now time.Time) bool {
	if n.Weekday == nil {
		return !n.Delivered && !n.FireAt.After(now)
	}

	if database.WeekdayOf(now) != *n.Weekday {
		return false
	}
	fireMinute := n.FireAt.Hour()*60 + n.FireAt.Minute()
	nowMinute := now.Hour()*60 + now.Minute()
	if nowMinute < fireMinute {
		return false
	}
	if n.LastDelivered != nil && sameDay(*n.LastDelivered, now) {
		return false
	}
	return true
}

// sameDay reports whether two instants fall on the same calendar day
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// deliver invokes the notify hook with the title and body. An empty hook
// logs the notification instead, which keeps headless setups working.
func (d *Deliverer) deliver(n database.Notification) error {
	if d.notifyCommand == "" {
		d.log.Infof("Notification: %s - %s", n.Title, n.Body)
		return nil
	}

	parts := strings.Fields(d.notifyCommand)
	if len(parts) == 0 {
		return fmt.Errorf("invalid notify hook command")
	}

	cmd := exec.Command(parts[0], append(parts[1:], n.Title, n.Body)...)
	return cmd.Run()
}
