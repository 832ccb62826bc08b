package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validOrder() BuyOrder {
	return BuyOrder{
		UUID:      "3f1e9a2c-0000-0000-0000-000000000001",
		OrderNo:   "BO-1001",
		Status:    ORDER_STATUS_NEW,
		Quantity:  10,
		UnitPrice: 250,
	}
}

func TestBuyOrderValidate(t *testing.T) {
	order := validOrder()
	assert.NoError(t, order.Validate())

	order.Status = "shipped"
	assert.Error(t, order.Validate(), "unknown status must fail validation")

	order = validOrder()
	order.OrderNo = ""
	assert.Error(t, order.Validate(), "order number is required")

	order = validOrder()
	order.FeePercent = 150
	assert.Error(t, order.Validate(), "fee above 100 percent must fail")

	order = validOrder()
	order.Quantity = -1
	assert.Error(t, order.Validate(), "negative quantity must fail")
}

func TestBuyOrderIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{ORDER_STATUS_NEW, false},
		{ORDER_STATUS_BANKING_COLLECTED, false},
		{ORDER_STATUS_PAID, false},
		{ORDER_STATUS_COMPLETED, true},
		{ORDER_STATUS_CANCELLED, true},
	}
	for _, tt := range tests {
		order := BuyOrder{Status: tt.status}
		assert.Equal(t, tt.want, order.IsTerminal(), "status %s", tt.status)
	}
}

func TestBuyOrderHasBankingDetails(t *testing.T) {
	order := validOrder()
	assert.False(t, order.HasBankingDetails())

	order.BankAccountNo = "  "
	assert.False(t, order.HasBankingDetails(), "whitespace does not count")

	order.IFSCCode = "HDFC0001234"
	assert.True(t, order.HasBankingDetails())

	order = validOrder()
	order.UPIID = "supplier@upi"
	assert.True(t, order.HasBankingDetails())
}

func TestBuyOrderGrossAmount(t *testing.T) {
	order := validOrder() // 10 * 250 = 2500
	assert.InDelta(t, 2500.0, order.GrossAmount(), 0.001)

	order.FeePercent = 2
	assert.InDelta(t, 2550.0, order.GrossAmount(), 0.001)

	order.Quantity = 0
	assert.InDelta(t, 0.0, order.GrossAmount(), 0.001)
}

func TestPaymentValidate(t *testing.T) {
	payment := Payment{
		UUID:    "3f1e9a2c-0000-0000-0000-000000000002",
		OrderID: 1,
		Amount:  500,
		Method:  PAYMENT_METHOD_UPI,
	}
	assert.NoError(t, payment.Validate())

	payment.Amount = 0
	assert.Error(t, payment.Validate(), "zero amount must fail")

	payment.Amount = 500
	payment.Method = "cash"
	assert.Error(t, payment.Validate(), "unknown method must fail")
}
