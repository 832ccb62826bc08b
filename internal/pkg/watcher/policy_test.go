package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/VyaparLabs/OrderDesk/app/models"
)

func TestRolePolicyRelevance(t *testing.T) {
	tests := []struct {
		role   string
		alert  AlertType
		status string
		want   bool
	}{
		// Admins see everything on open orders.
		{models.ROLE_ADMIN, AlertNewOrder, models.ORDER_STATUS_NEW, true},
		{models.ROLE_ADMIN, AlertOrderUpdated, models.ORDER_STATUS_PAID, true},

		// Operators: money, banking and deadlines, not fresh orders.
		{models.ROLE_OPERATOR, AlertNewOrder, models.ORDER_STATUS_NEW, false},
		{models.ROLE_OPERATOR, AlertPaymentCompleted, models.ORDER_STATUS_PAID, true},
		{models.ROLE_OPERATOR, AlertBankingCollected, models.ORDER_STATUS_NEW, true},
		{models.ROLE_OPERATOR, AlertPaymentTimer, models.ORDER_STATUS_BANKING_COLLECTED, true},

		// Payers: fresh orders and deadlines; edits only before settlement.
		{models.ROLE_PAYER, AlertNewOrder, models.ORDER_STATUS_NEW, true},
		{models.ROLE_PAYER, AlertPaymentCompleted, models.ORDER_STATUS_PAID, false},
		{models.ROLE_PAYER, AlertOrderUpdated, models.ORDER_STATUS_NEW, true},
		{models.ROLE_PAYER, AlertOrderUpdated, models.ORDER_STATUS_PAID, false},
		{models.ROLE_PAYER, AlertOrderTimer, models.ORDER_STATUS_BANKING_COLLECTED, true},

		// Terminal status kills relevance for everyone, admins included.
		{models.ROLE_ADMIN, AlertOrderUpdated, models.ORDER_STATUS_COMPLETED, false},
		{models.ROLE_PAYER, AlertNewOrder, models.ORDER_STATUS_CANCELLED, false},
	}

	for _, tt := range tests {
		p := NewRolePolicy(tt.role)
		got := p.IsRelevant(tt.alert, tt.status)
		assert.Equal(t, tt.want, got, "role=%s alert=%s status=%s", tt.role, tt.alert, tt.status)
	}
}

func TestRolePolicyIntensity(t *testing.T) {
	p := NewRolePolicy(models.ROLE_PAYER)

	// Timer alerts escalate with urgency; everything else is one-shot.
	assert.Equal(t, IntensityDuration, p.Intensity(AlertPaymentTimer, false).Kind)
	assert.Equal(t, IntensityContinuous, p.Intensity(AlertPaymentTimer, true).Kind)
	assert.Equal(t, IntensityContinuous, p.Intensity(AlertOrderTimer, true).Kind)
	assert.Equal(t, IntensitySingle, p.Intensity(AlertNewOrder, false).Kind)
	assert.Equal(t, IntensitySingle, p.Intensity(AlertPaymentCompleted, false).Kind)
	assert.Equal(t, IntensitySingleSubtle, p.Intensity(AlertBankingCollected, false).Kind)
	assert.Equal(t, IntensitySingleSubtle, p.Intensity(AlertOrderUpdated, false).Kind)
	assert.Equal(t, IntensityNone, p.Intensity(AlertType("unknown"), false).Kind)
}

func TestIsTimerType(t *testing.T) {
	assert.True(t, AlertPaymentTimer.IsTimerType())
	assert.True(t, AlertOrderTimer.IsTimerType())
	assert.False(t, AlertNewOrder.IsTimerType())
	assert.False(t, AlertPaymentCompleted.IsTimerType())
	assert.False(t, AlertBankingCollected.IsTimerType())
	assert.False(t, AlertOrderUpdated.IsTimerType())
}
