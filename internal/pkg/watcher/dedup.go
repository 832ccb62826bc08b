package watcher

import (
	"fmt"
	"strings"
	"sync"
)

// DedupLedger tracks which composite alert keys already fired, so the event
// stream and the reconciliation pass cannot double-dispatch the same alert.
// Scoped to the watcher instance's lifetime; reset wholesale when the user
// clears the notification feed.
type DedupLedger struct {
	mu    sync.Mutex
	fired map[string]struct{}
}

// NewDedupLedger creates an empty ledger.
func NewDedupLedger() *DedupLedger {
	return &DedupLedger{fired: make(map[string]struct{})}
}

// DedupKey builds the composite key (order, alert type, disambiguator).
// The disambiguator separates distinct occurrences of the same alert type,
// e.g. the threshold class of a timer alert or a payment UUID.
func DedupKey(orderUUID string, t AlertType, disambiguator string) string {
	return fmt.Sprintf("%s|%s|%s", orderUUID, t, disambiguator)
}

// HasFired reports whether the key was already dispatched.
func (l *DedupLedger) HasFired(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.fired[key]
	return ok
}

// HasFiredPrefix reports whether any fired key starts with the prefix. The
// order-update path uses it to collapse the two delivery routes of one
// completed payment.
func (l *DedupLedger) HasFiredPrefix(prefix string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.fired {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// MarkFired records a dispatched key.
func (l *DedupLedger) MarkFired(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fired[key] = struct{}{}
}

// ResetAll clears the ledger. Invoked on the notifications-cleared signal so
// still-relevant alerts become eligible to fire again.
func (l *DedupLedger) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fired = make(map[string]struct{})
}

// ForgetOrder drops every key belonging to one order. Used by the
// reconciliation pass when the order leaves the tracked set.
func (l *DedupLedger) ForgetOrder(orderUUID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := orderUUID + "|"
	for key := range l.fired {
		if strings.HasPrefix(key, prefix) {
			delete(l.fired, key)
		}
	}
}

// Size returns the number of tracked keys.
func (l *DedupLedger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fired)
}
