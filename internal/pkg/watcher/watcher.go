package watcher

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"github.com/VyaparLabs/OrderDesk/app/repository"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/realtime"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/sessionstate"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/statistics"
)

// Watcher is the buy-order alert watcher: it subscribes to the order and
// payment change streams, classifies events into alerts, and runs the
// periodic reconciliation pass that raises deadline alerts and garbage
// collects per-order tracking state.
type Watcher struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	users    repository.UserRepository

	classifier *Classifier
	dispatcher *Dispatcher
	ledger     *DedupLedger
	alarms     *AlarmRegistry
	state      *sessionstate.Store

	// invalidateCaches drops the read-side order caches; replaced in tests.
	invalidateCaches func()

	pollTicker    *time.Ticker
	stopCh        chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	running       bool
	unsubscribers []func()
}

var (
	globalWatcher *Watcher
	watcherOnce   sync.Once
)

// GetWatcher returns the global watcher (singleton), wiring the production
// dependencies on first use.
func GetWatcher() *Watcher {
	watcherOnce.Do(func() {
		repos := repository.GetGlobalRepositories()
		ledger := NewDedupLedger()
		alarms := NewAlarmRegistry()
		state := sessionstate.NewStore("watcher")

		policies := map[string]Policy{
			models.ROLE_OPERATOR: NewRolePolicy(models.ROLE_OPERATOR),
			models.ROLE_PAYER:    NewRolePolicy(models.ROLE_PAYER),
			models.ROLE_ADMIN:    NewRolePolicy(models.ROLE_ADMIN),
		}

		dispatcher := NewDispatcher(ledger, alarms, newCueAdapter(), newFeedAdapter(repos.Notification), newMailEscalator(), policies)

		globalWatcher = New(repos.Order, repos.Payment, repos.User, NewClassifier(state), dispatcher, ledger, alarms, state)
	})
	return globalWatcher
}

// New creates a watcher with explicit dependencies (used by tests).
func New(orders repository.OrderRepository, payments repository.PaymentRepository, users repository.UserRepository,
	classifier *Classifier, dispatcher *Dispatcher, ledger *DedupLedger, alarms *AlarmRegistry, state *sessionstate.Store) *Watcher {
	return &Watcher{
		orders:           orders,
		payments:         payments,
		users:            users,
		classifier:       classifier,
		dispatcher:       dispatcher,
		ledger:           ledger,
		alarms:           alarms,
		state:            state,
		invalidateCaches: statistics.InvalidateOrderCaches,
		stopCh:           make(chan struct{}),
	}
}

// Start subscribes to the change streams and begins the reconciliation loop.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}

	w.stopCh = make(chan struct{})
	w.running = true
	log.Info("[Watcher] Starting order alert watcher")

	// Live change subscriptions: orders on all event kinds, payments on
	// inserts only.
	if unsub, err := realtime.Subscribe(realtime.TableOrders, nil, w.handleOrderEvent); err != nil {
		log.Errorf("[Watcher] Order subscription failed, relying on polling: %v", err)
	} else {
		w.unsubscribers = append(w.unsubscribers, unsub)
	}
	if unsub, err := realtime.Subscribe(realtime.TablePayments, []realtime.EventKind{realtime.EventCreated}, w.handlePaymentEvent); err != nil {
		log.Errorf("[Watcher] Payment subscription failed, relying on polling: %v", err)
	} else {
		w.unsubscribers = append(w.unsubscribers, unsub)
	}

	// The notifications-cleared signal rebuilds the dedup ledger so
	// still-unresolved alerts may fire again.
	if unsub, err := realtime.SubscribeSignal(realtime.SignalNotificationsCleared, func(userID uint) {
		log.Infof("[Watcher] Notifications cleared by user %d, resetting dedup ledger", userID)
		w.ledger.ResetAll()
	}); err != nil {
		log.Errorf("[Watcher] Reset signal subscription failed: %v", err)
	} else {
		w.unsubscribers = append(w.unsubscribers, unsub)
	}

	interval := 30 * time.Second
	if settings := models.GetAppSettings(); settings != nil {
		interval = settings.GetPollInterval()
	}
	w.pollTicker = time.NewTicker(interval)
	w.wg.Add(1)
	go w.pollWorker()

	log.Info("[Watcher] Started successfully")
}

// Stop tears down subscriptions, alarms and the polling loop.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	log.Info("[Watcher] Stopping order alert watcher...")

	if w.pollTicker != nil {
		w.pollTicker.Stop()
	}

	for _, unsub := range w.unsubscribers {
		unsub()
	}
	w.unsubscribers = nil

	close(w.stopCh)
	w.running = false
	w.wg.Wait()

	w.alarms.StopAll()

	log.Info("[Watcher] Stopped successfully")
}

// IsRunning returns whether the watcher is currently running
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// MarkAttended handles the toast/notification click: stop the order's alarm
// and suppress further alerts until its state changes again.
func (w *Watcher) MarkAttended(orderUUID string) {
	w.dispatcher.MarkAttended(orderUUID)
}

// ResetDedup rebuilds the dedup ledger (notifications cleared locally).
func (w *Watcher) ResetDedup() {
	w.ledger.ResetAll()
}

// pollWorker drives the reconciliation pass on the polling cadence. One pass
// runs immediately on start so a fresh session seeds its fingerprints
// without waiting a full interval.
func (w *Watcher) pollWorker() {
	defer w.wg.Done()

	w.runReconcilePass()

	for {
		select {
		case <-w.stopCh:
			log.Info("[Watcher] Poll worker stopping")
			return
		case <-w.pollTicker.C:
			w.runReconcilePass()
		}
	}
}

// handleOrderEvent is the order-stream handler: invalidate the read caches
// unconditionally, classify, filter, dispatch.
func (w *Watcher) handleOrderEvent(event realtime.ChangeEvent) {
	// Read-side caches must reflect the change even when no alert results.
	w.invalidateCaches()

	if event.Kind == realtime.EventDeleted {
		// Row gone; the reconciliation pass garbage collects its trackers.
		return
	}

	next, ok := snapshotFromJSON(event.New)
	if !ok {
		log.Warnf("[Watcher] Order event without usable new record, skipping")
		return
	}
	var prev *Snapshot
	if p, ok := snapshotFromJSON(event.Old); ok {
		prev = &p
	}

	before := w.state.GetFingerprint(next.UUID)

	alertType, cancelAlarm := w.classifier.Classify(EventKind(event.Kind), prev, next)
	if cancelAlarm {
		w.dispatcher.CancelAlarm(next.UUID)
	}

	// Any fingerprint change means the order moved on; lift the attended
	// suppression.
	if after := w.state.GetFingerprint(next.UUID); after != before {
		w.dispatcher.ClearAttended(next.UUID)
	}

	if alertType == "" {
		return
	}

	// A paid transition driven by a recorded payment already alerted the
	// same audience through the payment stream; one payment, one alert.
	if alertType == AlertPaymentCompleted && w.ledger.HasFiredPrefix(paymentKeyPrefix(next.UUID)) {
		return
	}

	alert := NewAlert(alertType, next)
	key := DedupKey(next.UUID, alertType, fingerprintDigest(ComputeFingerprint(next)))
	w.dispatcher.Dispatch(alert, key, w.recipientsFor(next))
}

// paymentKeyPrefix is the shared prefix of all payment-stream dedup keys for
// one order.
func paymentKeyPrefix(orderUUID string) string {
	return DedupKey(orderUUID, AlertPaymentCompleted, "payment:")
}

// handlePaymentEvent is the payment-stream handler. Payment completion may
// need to notify the order's creator rather than the payer who triggered
// the status change, so it re-fetches the parent order and dispatches with
// the payment's own amount.
func (w *Watcher) handlePaymentEvent(event realtime.ChangeEvent) {
	w.invalidateCaches()

	var payment models.Payment
	if err := json.Unmarshal(event.New, &payment); err != nil || payment.OrderID == 0 {
		log.Warnf("[Watcher] Payment event without usable record, skipping")
		return
	}

	order, err := w.orders.GetStatusFields(payment.OrderID)
	if err != nil {
		log.Errorf("[Watcher] Point lookup for order %d failed: %v", payment.OrderID, err)
		return
	}
	if order.IsTerminal() {
		return
	}

	snap := SnapshotFromOrder(order)
	alert := Alert{Type: AlertPaymentCompleted, Order: snap, Amount: payment.Amount}
	key := paymentKeyPrefix(snap.UUID) + payment.UUID
	w.dispatcher.Dispatch(alert, key, w.recipientsFor(snap))
}

// recipientsFor resolves the candidate audience for an order's alerts: the
// order's creator plus all active payers and admins. The dispatcher still
// filters each candidate through their role policy.
func (w *Watcher) recipientsFor(snap Snapshot) []models.User {
	seen := make(map[uint]struct{})
	var recipients []models.User

	if snap.CreatedByID != 0 {
		if creator, err := w.users.GetByID(snap.CreatedByID); err != nil {
			log.Warnf("[Watcher] Failed to load creator %d for order %s: %v", snap.CreatedByID, snap.UUID, err)
		} else if creator.IsActive() {
			recipients = append(recipients, *creator)
			seen[creator.ID] = struct{}{}
		}
	}

	for _, role := range []string{models.ROLE_PAYER, models.ROLE_ADMIN} {
		users, err := w.users.GetByRole(role)
		if err != nil {
			log.Warnf("[Watcher] Failed to load %s recipients: %v", role, err)
			continue
		}
		for _, u := range users {
			if _, ok := seen[u.ID]; ok {
				continue
			}
			seen[u.ID] = struct{}{}
			recipients = append(recipients, u)
		}
	}
	return recipients
}

func snapshotFromJSON(raw json.RawMessage) (Snapshot, bool) {
	if len(raw) == 0 {
		return Snapshot{}, false
	}
	var order models.BuyOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return Snapshot{}, false
	}
	if order.UUID == "" {
		return Snapshot{}, false
	}
	return SnapshotFromOrder(&order), true
}
