package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	PAYMENT_METHOD_BANK = "bank_transfer"
	PAYMENT_METHOD_UPI  = "upi"
)

// Payment is a payment recorded against a buy order. Payments are
// insert-only; corrections are new rows.
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      string    `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	OrderID   uint      `gorm:"index;not null" json:"order_id"`
	Order     BuyOrder  `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Amount    float64   `gorm:"type:decimal(18,2);not null" json:"amount" validate:"gt=0"`
	Method    string    `gorm:"type:varchar(50)" json:"method" validate:"oneof=bank_transfer upi"`
	Reference string    `gorm:"type:varchar(100)" json:"reference" validate:"max=100"`
	PaidByID  uint      `gorm:"index" json:"paid_by_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Payment) Validate() error {
	v := validator.New()

	return v.Struct(p)
}
