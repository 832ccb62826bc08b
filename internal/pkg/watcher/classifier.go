package watcher

import (
	"github.com/gofiber/fiber/v2/log"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/sessionstate"
)

// Classifier maps (event kind, previous snapshot, new snapshot) to at most
// one alert type. It owns the fingerprint comparison against the session
// state store and overwrites the stored fingerprint the moment a change is
// detected, before any transition logic runs, so an interleaved handler for
// the same order never sees a stale entry.
type Classifier struct {
	state *sessionstate.Store
}

// NewClassifier creates a classifier on top of a session state store.
func NewClassifier(state *sessionstate.Store) *Classifier {
	return &Classifier{state: state}
}

// Classify returns the alert type for an event, or "" for no alert. The
// second return value signals that any running repeating alarm for the order
// must be cancelled (terminal status reached).
//
// A single event yields at most one alert type; the transition checks run as
// a priority chain.
func (c *Classifier) Classify(kind EventKind, prev *Snapshot, next Snapshot) (AlertType, bool) {
	// Fail closed on malformed records: no alert, no state mutation.
	if next.UUID == "" || next.Status == "" {
		log.Warnf("[Watcher] Skipping malformed order event (uuid=%q status=%q)", next.UUID, next.Status)
		return "", false
	}

	// Terminal status suppresses everything and stops any alarm, checked
	// before the no-change short-circuit so a terminal no-op update still
	// silences a running alarm.
	if next.IsTerminal() {
		return "", true
	}

	stored := c.state.GetFingerprint(next.UUID)
	fingerprint := ComputeFingerprint(next)
	if fingerprint == stored {
		return "", false
	}
	// Overwrite immediately, before any further logic, so an early return or
	// interleaved handler never leaves the ledger stale.
	c.state.SetFingerprint(next.UUID, fingerprint)

	if kind == EventCreated {
		return AlertNewOrder, false
	}
	if kind != EventUpdated {
		return "", false
	}

	prevStatus, prevBanking, prevKnown := c.previousState(stored, prev)

	switch {
	case prevStatus != models.ORDER_STATUS_BANKING_COLLECTED && next.Status == models.ORDER_STATUS_BANKING_COLLECTED:
		// The banking_collected status transition is deliberately silent;
		// the banking-presence check below covers the audible case.
		return "", false
	case prevStatus != models.ORDER_STATUS_PAID && next.Status == models.ORDER_STATUS_PAID:
		return AlertPaymentCompleted, false
	case !prevBanking && next.HasBanking():
		return AlertBankingCollected, false
	case prevKnown:
		return AlertOrderUpdated, false
	}
	return "", false
}

// previousState recovers the prior status and banking presence, preferring
// the stored fingerprint (what this watcher last saw) over the event's old
// record, which the transport may omit.
func (c *Classifier) previousState(stored string, prev *Snapshot) (status string, banking bool, known bool) {
	if stored != "" {
		fp, err := ParseFingerprint(stored)
		if err == nil {
			return fp.Status, fp.HasBanking(), true
		}
		log.Warnf("[Watcher] Unparsable stored fingerprint, falling back to event old record: %v", err)
	}
	if prev != nil {
		return prev.Status, prev.HasBanking(), stored != ""
	}
	return "", false, false
}
