/*
notifier.go - Subscription expiry and exhaustion sweep

PURPOSE:
  Periodically scans active subscriptions and fires notifications when a
  subscription crosses a configured threshold: days to expiry, entries
  remaining, or meeting-room hours remaining.

DESIGN:
  - Runs a background goroutine with configurable sweep interval
  - Each (subscription, metric, threshold) triple fires at most once,
    recorded in the fired_notifications table
  - Crossing strictly below a threshold fires the threshold; skipping
    several thresholds between sweeps fires each of them on the next pass
  - Delivery is a log line at the boundary; composed notifications are
    persisted for the member-facing endpoint regardless

CONFIGURATION:
  - SweepInterval: how often to sweep (default: 12 hours)
  - ExpiryDays / EntriesLeft / RoomHoursLeft: threshold ladders
  - Enabled: whether the notifier runs at all

USAGE:
  notifier := NewNotifier(store, cfg)
  notifier.Start()
  // ... later
  notifier.Stop()

SEE ALSO:
  - handlers.go: Subscription endpoints feeding the sweep
  - config/config.go: NotifierConfig defaults
*/
package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coworkhub/neu-engine/config"
	"github.com/coworkhub/neu-engine/store/sqlite"
)

// Notifier runs the periodic subscription threshold sweep.
type Notifier struct {
	Store  *sqlite.Store
	Config config.NotifierConfig

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewNotifier creates a notifier over the store.
func NewNotifier(store *sqlite.Store, cfg config.NotifierConfig) *Notifier {
	return &Notifier{
		Store:  store,
		Config: cfg,
		Now:    time.Now,
		stop:   make(chan bool),
	}
}

// Start begins the background sweep loop.
func (n *Notifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.Config.Enabled {
		log.Println("[Notifier] Disabled, not starting")
		return
	}

	n.ticker = time.NewTicker(n.Config.Interval())
	n.wg.Add(1)

	go n.run()

	log.Printf("[Notifier] Started with sweep interval: %v", n.Config.Interval())
}

// Stop stops the sweep loop and waits for the current pass to finish.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ticker != nil {
		n.ticker.Stop()
		close(n.stop)
		n.wg.Wait()
		log.Println("[Notifier] Stopped")
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()

	// Sweep immediately on start
	n.Sweep(context.Background())

	for {
		select {
		case <-n.ticker.C:
			n.Sweep(context.Background())
		case <-n.stop:
			return
		}
	}
}

// Sweep runs one full pass over the active subscriptions. Exported so the
// CLI and tests can trigger a pass without the ticker.
func (n *Notifier) Sweep(ctx context.Context) {
	NotifierSweeps.Inc()
	now := n.Now()

	subs, err := n.Store.ListActiveSubscriptions(ctx)
	if err != nil {
		log.Printf("[Notifier] Error listing subscriptions: %v", err)
		return
	}

	fired := 0
	for _, sub := range subs {
		fired += n.sweepSubscription(ctx, sub, now)
	}

	if fired > 0 {
		log.Printf("[Notifier] Sweep completed: %d notification(s) fired", fired)
	}
}

func (n *Notifier) sweepSubscription(ctx context.Context, sub sqlite.Subscription, now time.Time) int {
	fired := 0

	if !sub.Expiry.IsZero() {
		daysLeft := int(sub.Expiry.Sub(now).Hours() / 24)
		for _, threshold := range n.Config.ExpiryDays {
			if daysLeft > threshold {
				continue
			}
			title := fmt.Sprintf("Subscription expires in %d day(s)", daysLeft)
			if daysLeft < 0 {
				title = "Subscription expired"
			}
			if n.fire(ctx, sub, "days_to_expiry", float64(threshold), title,
				fmt.Sprintf("Your %s subscription expires on %s.", sub.Type, sub.Expiry.Format("2006-01-02"))) {
				fired++
			}
		}
	}

	// Entries only matter for entry-based plans; -1 marks unlimited.
	if sub.EntriesLeft >= 0 {
		for _, threshold := range n.Config.EntriesLeft {
			if sub.EntriesLeft > threshold {
				continue
			}
			if n.fire(ctx, sub, "entries_left", float64(threshold),
				fmt.Sprintf("%d entr(ies) remaining", sub.EntriesLeft),
				fmt.Sprintf("Your %s subscription has %d entr(ies) left.", sub.Type, sub.EntriesLeft)) {
				fired++
			}
		}
	}

	if !sub.RoomHoursLeft.IsNegative() {
		hoursLeft, _ := sub.RoomHoursLeft.Value.Float64()
		for _, threshold := range n.Config.RoomHoursLeft {
			if hoursLeft > threshold {
				continue
			}
			if n.fire(ctx, sub, "room_hours_left", threshold,
				fmt.Sprintf("%.1f meeting-room hour(s) remaining", hoursLeft),
				fmt.Sprintf("Your %s subscription has %.1f meeting-room hour(s) left.", sub.Type, hoursLeft)) {
				fired++
			}
		}
	}

	return fired
}

// fire records one threshold crossing if it has not fired before.
// Returns true when a new notification was composed.
func (n *Notifier) fire(ctx context.Context, sub sqlite.Subscription, metric string, threshold float64, title, body string) bool {
	already, err := n.Store.HasFired(ctx, sub.ID, metric, threshold)
	if err != nil {
		log.Printf("[Notifier] Error checking fired state for %s/%s: %v", sub.ID, metric, err)
		return false
	}
	if already {
		return false
	}

	if err := n.Store.MarkFired(ctx, uuid.NewString(), sub.ID, metric, threshold); err != nil {
		log.Printf("[Notifier] Error marking fired for %s/%s: %v", sub.ID, metric, err)
		return false
	}

	note := sqlite.Notification{
		ID:       uuid.NewString(),
		MemberID: sub.MemberID,
		Title:    title,
		Body:     body,
	}
	if err := n.Store.SaveNotification(ctx, note); err != nil {
		log.Printf("[Notifier] Error saving notification for %s: %v", sub.MemberID, err)
		return false
	}

	// Delivery boundary. Email/push would be wired here.
	log.Printf("[Notifier] Notify %s: %s", sub.MemberID, title)
	NotificationsFired.WithLabelValues(metric).Inc()
	return true
}
