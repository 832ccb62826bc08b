package watcher

import (
	"time"

	"github.com/VyaparLabs/OrderDesk/app/models"
)

// RolePolicy is the default relevance and intensity policy, one instance per
// actor role. The watcher consumes it through the Policy interface only;
// deployments can swap in their own.
type RolePolicy struct {
	role string
}

// NewRolePolicy creates the default policy for an actor role.
func NewRolePolicy(role string) *RolePolicy {
	return &RolePolicy{role: role}
}

// IsRelevant reports whether the alert type matters to this role for an
// order in the given status.
func (p *RolePolicy) IsRelevant(t AlertType, status string) bool {
	// Nothing is relevant once the order is terminal.
	if status == models.ORDER_STATUS_COMPLETED || status == models.ORDER_STATUS_CANCELLED {
		return false
	}

	switch p.role {
	case models.ROLE_ADMIN:
		return true
	case models.ROLE_OPERATOR:
		// Operators created the order; they care about money arriving,
		// banking details landing and deadlines slipping.
		switch t {
		case AlertPaymentCompleted, AlertBankingCollected, AlertPaymentTimer, AlertOrderTimer, AlertOrderUpdated:
			return true
		}
		return false
	case models.ROLE_PAYER:
		// Payers pick up fresh orders and watch the payment clock.
		switch t {
		case AlertNewOrder, AlertPaymentTimer, AlertOrderTimer:
			return true
		case AlertOrderUpdated:
			// Order edits only matter to payers before settlement.
			return status == models.ORDER_STATUS_NEW || status == models.ORDER_STATUS_BANKING_COLLECTED
		}
		return false
	}
	return false
}

// Intensity returns the notification strength for an alert type. Only the
// timer types ever get a repeating kind; everything else is one-shot.
func (p *RolePolicy) Intensity(t AlertType, urgent bool) Intensity {
	switch t {
	case AlertPaymentTimer, AlertOrderTimer:
		if urgent {
			return Intensity{Kind: IntensityContinuous}
		}
		return Intensity{Kind: IntensityDuration, Duration: 2 * time.Minute}
	case AlertNewOrder, AlertPaymentCompleted:
		return Intensity{Kind: IntensitySingle}
	case AlertBankingCollected, AlertOrderUpdated:
		return Intensity{Kind: IntensitySingleSubtle}
	}
	return Intensity{Kind: IntensityNone}
}
