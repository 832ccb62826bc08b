package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/sessionstate"
)

func newTestClassifier(t *testing.T) (*Classifier, *sessionstate.Store) {
	t.Helper()
	state := sessionstate.NewMemoryStore("classifier-test")
	return NewClassifier(state), state
}

func snap(uuid, status string) Snapshot {
	return Snapshot{
		ID:        1,
		UUID:      uuid,
		OrderNo:   "BO-1001",
		Status:    status,
		Quantity:  10,
		UnitPrice: 250,
	}
}

func TestClassifyCreatedYieldsNewOrder(t *testing.T) {
	c, _ := newTestClassifier(t)

	alertType, cancel := c.Classify(EventCreated, nil, snap("uuid-1", models.ORDER_STATUS_NEW))
	assert.Equal(t, AlertNewOrder, alertType)
	assert.False(t, cancel)
}

func TestClassifyTerminalSuppressesAndCancels(t *testing.T) {
	c, state := newTestClassifier(t)

	for _, status := range []string{models.ORDER_STATUS_COMPLETED, models.ORDER_STATUS_CANCELLED} {
		alertType, cancel := c.Classify(EventUpdated, nil, snap("uuid-1", status))
		assert.Empty(t, alertType, "terminal status %s must not alert", status)
		assert.True(t, cancel, "terminal status %s must cancel alarms", status)
	}

	// Terminal events never touch the fingerprint store.
	assert.Empty(t, state.GetFingerprint("uuid-1"))
}

func TestClassifyNoOpUpdateIsSilent(t *testing.T) {
	c, _ := newTestClassifier(t)
	s := snap("uuid-1", models.ORDER_STATUS_NEW)

	alertType, _ := c.Classify(EventCreated, nil, s)
	require.Equal(t, AlertNewOrder, alertType)

	// Same state again: fingerprint matches, nothing fires.
	alertType, cancel := c.Classify(EventUpdated, nil, s)
	assert.Empty(t, alertType)
	assert.False(t, cancel)
}

func TestClassifyBankingStatusTransitionIsSilent(t *testing.T) {
	c, _ := newTestClassifier(t)
	before := snap("uuid-1", models.ORDER_STATUS_NEW)
	c.Classify(EventCreated, nil, before)

	// Status flips to banking_collected without any banking fields landing:
	// deliberately no alert.
	after := snap("uuid-1", models.ORDER_STATUS_BANKING_COLLECTED)
	alertType, cancel := c.Classify(EventUpdated, &before, after)
	assert.Empty(t, alertType)
	assert.False(t, cancel)
}

func TestClassifyBankingFieldsYieldBankingCollected(t *testing.T) {
	c, _ := newTestClassifier(t)
	before := snap("uuid-1", models.ORDER_STATUS_NEW)
	c.Classify(EventCreated, nil, before)

	after := snap("uuid-1", models.ORDER_STATUS_NEW)
	after.BankAccountNo = "9876543210"
	after.IFSCCode = "HDFC0001234"

	alertType, _ := c.Classify(EventUpdated, &before, after)
	assert.Equal(t, AlertBankingCollected, alertType)
}

func TestClassifyPaidTransitionYieldsPaymentCompleted(t *testing.T) {
	c, _ := newTestClassifier(t)
	before := snap("uuid-1", models.ORDER_STATUS_BANKING_COLLECTED)
	c.Classify(EventCreated, nil, before)

	after := snap("uuid-1", models.ORDER_STATUS_PAID)
	alertType, _ := c.Classify(EventUpdated, &before, after)
	assert.Equal(t, AlertPaymentCompleted, alertType)
}

func TestClassifyPaidWinsOverBankingInSameEvent(t *testing.T) {
	c, _ := newTestClassifier(t)
	before := snap("uuid-1", models.ORDER_STATUS_NEW)
	c.Classify(EventCreated, nil, before)

	// One event carries both the paid transition and fresh banking fields;
	// the priority chain picks exactly one alert.
	after := snap("uuid-1", models.ORDER_STATUS_PAID)
	after.UPIID = "supplier@upi"

	alertType, _ := c.Classify(EventUpdated, &before, after)
	assert.Equal(t, AlertPaymentCompleted, alertType)
}

func TestClassifyPaymentThenBankingSequence(t *testing.T) {
	c, _ := newTestClassifier(t)
	created := snap("uuid-1", models.ORDER_STATUS_NEW)
	c.Classify(EventCreated, nil, created)

	paid := snap("uuid-1", models.ORDER_STATUS_PAID)
	alertType, _ := c.Classify(EventUpdated, &created, paid)
	require.Equal(t, AlertPaymentCompleted, alertType)

	// Banking lands in a later event on the same order; the earlier payment
	// alert does not suppress it.
	withBanking := paid
	withBanking.BankAccountNo = "9876543210"
	withBanking.IFSCCode = "HDFC0001234"

	alertType, _ = c.Classify(EventUpdated, &paid, withBanking)
	assert.Equal(t, AlertBankingCollected, alertType)
}

func TestClassifyGenericChangeYieldsOrderUpdated(t *testing.T) {
	c, _ := newTestClassifier(t)
	before := snap("uuid-1", models.ORDER_STATUS_NEW)
	c.Classify(EventCreated, nil, before)

	after := snap("uuid-1", models.ORDER_STATUS_NEW)
	after.UnitPrice = 260

	alertType, _ := c.Classify(EventUpdated, &before, after)
	assert.Equal(t, AlertOrderUpdated, alertType)
}

func TestClassifyMalformedRecordIsSkipped(t *testing.T) {
	c, state := newTestClassifier(t)

	alertType, cancel := c.Classify(EventCreated, nil, snap("", models.ORDER_STATUS_NEW))
	assert.Empty(t, alertType)
	assert.False(t, cancel)

	alertType, cancel = c.Classify(EventUpdated, nil, Snapshot{UUID: "uuid-1"})
	assert.Empty(t, alertType)
	assert.False(t, cancel)
	assert.Empty(t, state.GetFingerprint("uuid-1"))
}

func TestClassifyUpdatesFingerprintBeforeReturning(t *testing.T) {
	c, state := newTestClassifier(t)
	s := snap("uuid-1", models.ORDER_STATUS_NEW)

	c.Classify(EventCreated, nil, s)
	assert.Equal(t, ComputeFingerprint(s), state.GetFingerprint("uuid-1"))

	s.UnitPrice = 300
	c.Classify(EventUpdated, nil, s)
	assert.Equal(t, ComputeFingerprint(s), state.GetFingerprint("uuid-1"))
}

func TestClassifyFirstSeenUpdateWithoutHistoryIsQuiet(t *testing.T) {
	c, _ := newTestClassifier(t)

	// Update for an order the watcher never saw and the event carries no old
	// record: no transition can be established, no generic alert either.
	alertType, _ := c.Classify(EventUpdated, nil, snap("uuid-9", models.ORDER_STATUS_NEW))
	assert.Empty(t, alertType)
}
