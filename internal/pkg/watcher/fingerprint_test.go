package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VyaparLabs/OrderDesk/app/models"
)

func TestComputeFingerprintDeterministic(t *testing.T) {
	s := snap("uuid-1", models.ORDER_STATUS_NEW)
	assert.Equal(t, ComputeFingerprint(s), ComputeFingerprint(s))
}

func TestComputeFingerprintIgnoresUntrackedFields(t *testing.T) {
	a := snap("uuid-1", models.ORDER_STATUS_NEW)
	b := a
	b.SupplierName = "Someone Else"
	b.OrderNo = "BO-9999"
	b.UpdatedAt = time.Now()

	// Only the change-relevant fields participate.
	assert.Equal(t, ComputeFingerprint(a), ComputeFingerprint(b))
}

func TestComputeFingerprintTracksRelevantFields(t *testing.T) {
	base := snap("uuid-1", models.ORDER_STATUS_NEW)

	mutations := []func(*Snapshot){
		func(s *Snapshot) { s.Status = models.ORDER_STATUS_PAID },
		func(s *Snapshot) { s.BankAccountNo = "123" },
		func(s *Snapshot) { s.IFSCCode = "SBIN0000001" },
		func(s *Snapshot) { s.UPIID = "x@upi" },
		func(s *Snapshot) { s.Quantity = 11 },
		func(s *Snapshot) { s.UnitPrice = 9.5 },
		func(s *Snapshot) { s.FeePercent = 3 },
		func(s *Snapshot) { d := time.Now().Add(time.Hour); s.PaymentDeadline = &d },
		func(s *Snapshot) { d := time.Now().Add(time.Hour); s.ExpiresAt = &d },
	}

	for i, mutate := range mutations {
		s := base
		mutate(&s)
		assert.NotEqual(t, ComputeFingerprint(base), ComputeFingerprint(s), "mutation %d must change the fingerprint", i)
	}
}

func TestParseFingerprintRoundTrip(t *testing.T) {
	deadline := time.Now().Add(30 * time.Minute)
	s := snap("uuid-1", models.ORDER_STATUS_BANKING_COLLECTED)
	s.BankAccountNo = "9876543210"
	s.PaymentDeadline = &deadline

	fp, err := ParseFingerprint(ComputeFingerprint(s))
	require.NoError(t, err)
	assert.Equal(t, models.ORDER_STATUS_BANKING_COLLECTED, fp.Status)
	assert.True(t, fp.HasBanking())
	assert.False(t, fp.IsTerminal())
	assert.Equal(t, deadline.Unix(), fp.PaymentDeadline)
}

func TestParseFingerprintErrors(t *testing.T) {
	_, err := ParseFingerprint("")
	assert.Error(t, err)

	_, err = ParseFingerprint("{not json")
	assert.Error(t, err)
}

func TestFingerprintDigest(t *testing.T) {
	a := ComputeFingerprint(snap("uuid-1", models.ORDER_STATUS_NEW))
	b := ComputeFingerprint(snap("uuid-1", models.ORDER_STATUS_PAID))

	assert.Len(t, fingerprintDigest(a), 16)
	assert.Equal(t, fingerprintDigest(a), fingerprintDigest(a))
	assert.NotEqual(t, fingerprintDigest(a), fingerprintDigest(b))
}

func TestSnapshotGrossAmount(t *testing.T) {
	s := snap("uuid-1", models.ORDER_STATUS_NEW) // 10 * 250 = 2500
	s.FeePercent = 2
	assert.InDelta(t, 2550.0, s.GrossAmount(), 0.001)
}
