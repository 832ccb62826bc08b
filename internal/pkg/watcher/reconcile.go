package watcher

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/metrics/counter"
)

// runReconcilePass is the polling safety net behind the live subscriptions.
// It loads all open orders, seeds the fingerprint map on the very first pass
// of a session (so historical state never re-alerts), raises deadline timer
// alerts, and garbage collects tracking state for orders that no longer
// appear in the open set.
func (w *Watcher) runReconcilePass() {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[Watcher] Reconcile pass panicked: %v", r)
		}
	}()

	orders, err := w.orders.ListOpen()
	if err != nil {
		// Transient DB failure: keep all tracking state and retry on the
		// next tick.
		log.Errorf("[Watcher] Reconcile pass failed to list open orders: %v", err)
		return
	}

	if !w.state.FirstLoadDone() {
		w.seedFirstLoad(orders)
		return
	}

	now := time.Now()
	thresholds := warnThresholds()
	current := make(map[string]struct{}, len(orders))

	for i := range orders {
		order := &orders[i]
		if order.UUID == "" || order.Status == "" {
			// Malformed row: skip it, keep reconciling the rest.
			log.Warnf("[Watcher] Skipping malformed order id=%d during reconcile", order.ID)
			continue
		}
		current[order.UUID] = struct{}{}

		snap := SnapshotFromOrder(order)
		if snap.IsTerminal() {
			w.dispatcher.CancelAlarm(snap.UUID)
			continue
		}

		// Orders created out of band (direct DB writes, missed events) get
		// tracked here so the next real change diffs against known state.
		if w.state.GetFingerprint(snap.UUID) == "" {
			w.state.SetFingerprint(snap.UUID, ComputeFingerprint(snap))
		}

		w.evaluateDeadline(snap, AlertPaymentTimer, snap.PaymentDeadline, now, thresholds)
		w.evaluateDeadline(snap, AlertOrderTimer, snap.ExpiresAt, now, thresholds)
	}

	w.collectGarbage(current)
	counter.AddReconcilePass()
}

// seedFirstLoad records the fingerprints of everything already open without
// dispatching, then flips the first-load flag. Deadline alerts are held back
// too; the next pass raises any that still apply.
func (w *Watcher) seedFirstLoad(orders []models.BuyOrder) {
	seeded := 0
	for i := range orders {
		order := &orders[i]
		if order.UUID == "" || order.Status == "" {
			continue
		}
		snap := SnapshotFromOrder(order)
		if snap.IsTerminal() {
			continue
		}
		w.state.SetFingerprint(snap.UUID, ComputeFingerprint(snap))
		seeded++
	}
	w.state.SetFirstLoadDone()
	log.Infof("[Watcher] First load: seeded %d order fingerprints, alerts suppressed this pass", seeded)
}

// evaluateDeadline raises a timer alert when the deadline has entered a
// warning window. The dedup key carries the threshold class, so each order
// alerts once per window it crosses and once more when it goes overdue.
func (w *Watcher) evaluateDeadline(snap Snapshot, t AlertType, deadline *time.Time, now time.Time, thresholds []time.Duration) {
	class, urgent := thresholdClass(deadline, now, thresholds)
	if class == "" {
		return
	}

	alert := NewAlert(t, snap)
	alert.Urgent = urgent
	key := DedupKey(snap.UUID, t, class)
	w.dispatcher.Dispatch(alert, key, w.recipientsFor(snap))
}

// thresholdClass returns the label of the narrowest warning window the
// deadline has entered ("" when none), plus whether the alert is urgent
// (inside the final window or past due).
func thresholdClass(deadline *time.Time, now time.Time, thresholds []time.Duration) (string, bool) {
	if deadline == nil || deadline.IsZero() || len(thresholds) == 0 {
		return "", false
	}

	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return "overdue", true
	}

	final := thresholds[len(thresholds)-1]
	class := ""
	for _, th := range thresholds { // widest first
		if remaining <= th {
			class = fmt.Sprintf("warn-%s", th)
		}
	}
	return class, class != "" && remaining <= final
}

// collectGarbage drops every tracker whose order left the open set: its
// fingerprint, dedup entries, alarm and attended mark.
func (w *Watcher) collectGarbage(current map[string]struct{}) {
	for _, uuid := range w.state.TrackedOrders() {
		if _, ok := current[uuid]; ok {
			continue
		}
		w.state.DeleteFingerprint(uuid)
		w.ledger.ForgetOrder(uuid)
		w.dispatcher.ForgetOrder(uuid)
		log.Debugf("[Watcher] Collected trackers for departed order %s", uuid)
	}
}

func warnThresholds() []time.Duration {
	if settings := models.GetAppSettings(); settings != nil {
		return settings.GetPaymentWarnThresholds()
	}
	return []time.Duration{5 * time.Minute, 2 * time.Minute}
}
