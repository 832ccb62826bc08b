package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ORDER_STATUS_NEW               = "new"
	ORDER_STATUS_BANKING_COLLECTED = "banking_collected"
	ORDER_STATUS_PAID              = "paid"
	ORDER_STATUS_COMPLETED         = "completed"
	ORDER_STATUS_CANCELLED         = "cancelled"
)

type BuyOrder struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UUID         string `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	OrderNo      string `gorm:"type:varchar(50);uniqueIndex;not null" json:"order_no" validate:"required,max=50"`
	SupplierName string `gorm:"type:varchar(255)" json:"supplier_name" validate:"max=255"`
	ContactName  string `gorm:"type:varchar(150)" json:"contact_name" validate:"max=150"`
	ContactPhone string `gorm:"type:varchar(20)" json:"contact_phone" validate:"max=20"`
	// banking details, collected from the counterparty during the order lifecycle
	BankAccountName string  `gorm:"type:varchar(255)" json:"bank_account_name"`
	BankAccountNo   string  `gorm:"type:varchar(50)" json:"bank_account_no"`
	IFSCCode        string  `gorm:"type:varchar(20)" json:"ifsc_code"`
	UPIID           string  `gorm:"type:varchar(100)" json:"upi_id"`
	Status          string  `gorm:"type:varchar(50);default:'new';index" json:"status" validate:"oneof=new banking_collected paid completed cancelled"`
	Quantity        float64 `gorm:"type:decimal(18,8)" json:"quantity" validate:"gte=0"`
	UnitPrice       float64 `gorm:"type:decimal(18,2)" json:"unit_price" validate:"gte=0"`
	FeePercent      float64 `gorm:"type:decimal(5,2);default:0" json:"fee_percent" validate:"gte=0,lte=100"`
	Notes           string  `gorm:"type:text" json:"notes"`
	// deadline timestamps driving the timer alerts
	PaymentDeadline *time.Time `gorm:"type:datetime" json:"payment_deadline"`
	ExpiresAt       *time.Time `gorm:"type:datetime" json:"expires_at"`
	// relations
	CreatedByID uint           `gorm:"index" json:"created_by_id"`
	CreatedBy   User           `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Items       []OrderItem    `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Payments    []Payment      `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderItem is a single line item of a buy order
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"index;not null" json:"order_id"`
	Asset     string    `gorm:"type:varchar(50)" json:"asset"`
	Quantity  float64   `gorm:"type:decimal(18,8)" json:"quantity"`
	UnitPrice float64   `gorm:"type:decimal(18,2)" json:"unit_price"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (o *BuyOrder) Validate() error {
	v := validator.New()

	return v.Struct(o)
}

// IsTerminal reports whether the order reached a final status.
// No alerts are ever emitted for terminal orders.
func (o *BuyOrder) IsTerminal() bool {
	return o.Status == ORDER_STATUS_COMPLETED || o.Status == ORDER_STATUS_CANCELLED
}

// HasBankingDetails reports whether any of the banking fields holds a value.
func (o *BuyOrder) HasBankingDetails() bool {
	return strings.TrimSpace(o.BankAccountName) != "" ||
		strings.TrimSpace(o.BankAccountNo) != "" ||
		strings.TrimSpace(o.IFSCCode) != "" ||
		strings.TrimSpace(o.UPIID) != ""
}

// GrossAmount computes the order amount including the fee. The amount is
// derived, never stored.
func (o *BuyOrder) GrossAmount() float64 {
	base := o.Quantity * o.UnitPrice
	return base + base*o.FeePercent/100
}
