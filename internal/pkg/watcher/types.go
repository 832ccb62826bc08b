package watcher

import (
	"strings"
	"time"

	"github.com/VyaparLabs/OrderDesk/app/models"
)

// EventKind mirrors the change stream's event kinds so the classifier does
// not depend on the transport package.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// AlertType classifies what happened to an order
type AlertType string

const (
	AlertNewOrder         AlertType = "new_order"
	AlertPaymentCompleted AlertType = "payment_completed"
	AlertBankingCollected AlertType = "banking_collected"
	AlertOrderUpdated     AlertType = "order_updated"
	AlertPaymentTimer     AlertType = "payment_timer"
	AlertOrderTimer       AlertType = "order_timer"
)

// IsTimerType reports whether the alert type is deadline-driven. Only timer
// types may ever start a repeating alarm; the dispatcher gates on this
// explicitly rather than on the intensity kind.
func (t AlertType) IsTimerType() bool {
	return t == AlertPaymentTimer || t == AlertOrderTimer
}

// Snapshot is the unit the watcher tracks: the change-relevant projection of
// a buy order at one point in time.
type Snapshot struct {
	ID              uint       `json:"id"`
	UUID            string     `json:"uuid"`
	OrderNo         string     `json:"order_no"`
	SupplierName    string     `json:"supplier_name"`
	Status          string     `json:"status"`
	BankAccountName string     `json:"bank_account_name"`
	BankAccountNo   string     `json:"bank_account_no"`
	IFSCCode        string     `json:"ifsc_code"`
	UPIID           string     `json:"upi_id"`
	Quantity        float64    `json:"quantity"`
	UnitPrice       float64    `json:"unit_price"`
	FeePercent      float64    `json:"fee_percent"`
	PaymentDeadline *time.Time `json:"payment_deadline"`
	ExpiresAt       *time.Time `json:"expires_at"`
	CreatedByID     uint       `json:"created_by_id"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SnapshotFromOrder projects a model into the watcher's tracked field set.
func SnapshotFromOrder(order *models.BuyOrder) Snapshot {
	return Snapshot{
		ID:              order.ID,
		UUID:            order.UUID,
		OrderNo:         order.OrderNo,
		SupplierName:    order.SupplierName,
		Status:          order.Status,
		BankAccountName: order.BankAccountName,
		BankAccountNo:   order.BankAccountNo,
		IFSCCode:        order.IFSCCode,
		UPIID:           order.UPIID,
		Quantity:        order.Quantity,
		UnitPrice:       order.UnitPrice,
		FeePercent:      order.FeePercent,
		PaymentDeadline: order.PaymentDeadline,
		ExpiresAt:       order.ExpiresAt,
		CreatedByID:     order.CreatedByID,
		UpdatedAt:       order.UpdatedAt,
	}
}

// IsTerminal reports whether the snapshot's status is final.
func (s Snapshot) IsTerminal() bool {
	return s.Status == models.ORDER_STATUS_COMPLETED || s.Status == models.ORDER_STATUS_CANCELLED
}

// HasBanking reports whether any banking field holds a value.
func (s Snapshot) HasBanking() bool {
	return strings.TrimSpace(s.BankAccountName) != "" ||
		strings.TrimSpace(s.BankAccountNo) != "" ||
		strings.TrimSpace(s.IFSCCode) != "" ||
		strings.TrimSpace(s.UPIID) != ""
}

// GrossAmount computes the displayed amount including the fee.
func (s Snapshot) GrossAmount() float64 {
	base := s.Quantity * s.UnitPrice
	return base + base*s.FeePercent/100
}

// Alert is one classified, not-yet-filtered alert for an order.
type Alert struct {
	Type   AlertType
	Order  Snapshot
	Amount float64 // gross order amount, or the payment amount on the payment path
	Urgent bool    // timer alerts inside the final threshold
}

// NewAlert builds an alert with the amount derived from the order.
func NewAlert(t AlertType, order Snapshot) Alert {
	return Alert{Type: t, Order: order, Amount: order.GrossAmount()}
}

// IntensityKind is how loudly an alert surfaces.
type IntensityKind string

const (
	IntensityNone         IntensityKind = "none"
	IntensitySingle       IntensityKind = "single"
	IntensitySingleSubtle IntensityKind = "single_subtle"
	IntensityContinuous   IntensityKind = "continuous"
	IntensityDuration     IntensityKind = "duration"
)

// Intensity is the notification strength the policy picked for an alert.
type Intensity struct {
	Kind           IntensityKind
	Duration       time.Duration // only for IntensityDuration
	RepeatInterval time.Duration // 0 means the dispatcher default
}

// Policy answers role questions for the watcher. Implementations must be
// pure; the dispatcher treats a panicking policy as "not relevant".
type Policy interface {
	// IsRelevant reports whether an alert of this type, for an order in
	// this status, matters to the policy's actor.
	IsRelevant(t AlertType, status string) bool
	// Intensity returns the notification strength for an alert type.
	Intensity(t AlertType, urgent bool) Intensity
}
