package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupKeyComposition(t *testing.T) {
	key := DedupKey("uuid-1", AlertPaymentTimer, "warn-5m0s")
	assert.Equal(t, "uuid-1|payment_timer|warn-5m0s", key)

	// Distinct disambiguators produce distinct keys.
	assert.NotEqual(t, key, DedupKey("uuid-1", AlertPaymentTimer, "overdue"))
	// Distinct alert types produce distinct keys for the same order.
	assert.NotEqual(t, key, DedupKey("uuid-1", AlertOrderTimer, "warn-5m0s"))
}

func TestDedupLedgerFireOnce(t *testing.T) {
	l := NewDedupLedger()
	key := DedupKey("uuid-1", AlertNewOrder, "x")

	assert.False(t, l.HasFired(key))
	l.MarkFired(key)
	assert.True(t, l.HasFired(key))
	assert.Equal(t, 1, l.Size())
}

func TestDedupLedgerResetAll(t *testing.T) {
	l := NewDedupLedger()
	l.MarkFired(DedupKey("uuid-1", AlertNewOrder, "x"))
	l.MarkFired(DedupKey("uuid-2", AlertPaymentTimer, "overdue"))

	l.ResetAll()
	assert.Equal(t, 0, l.Size())
	assert.False(t, l.HasFired(DedupKey("uuid-1", AlertNewOrder, "x")))
}

func TestDedupLedgerForgetOrder(t *testing.T) {
	l := NewDedupLedger()
	l.MarkFired(DedupKey("uuid-1", AlertNewOrder, "x"))
	l.MarkFired(DedupKey("uuid-1", AlertPaymentTimer, "overdue"))
	l.MarkFired(DedupKey("uuid-2", AlertNewOrder, "y"))

	l.ForgetOrder("uuid-1")
	assert.False(t, l.HasFired(DedupKey("uuid-1", AlertNewOrder, "x")))
	assert.False(t, l.HasFired(DedupKey("uuid-1", AlertPaymentTimer, "overdue")))
	assert.True(t, l.HasFired(DedupKey("uuid-2", AlertNewOrder, "y")))
}
