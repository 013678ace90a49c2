package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validPayment() Payment {
	return Payment{
		Amount: decimal.NewFromInt(100),
		Method: PaymentCash,
		Status: PaymentStatusCleared,
	}
}

func TestPaymentValidate_Amount(t *testing.T) {
	p := validPayment()
	p.Amount = decimal.Zero
	assert.Error(t, p.Validate())

	p.Amount = decimal.NewFromInt(-5)
	assert.Error(t, p.Validate())
}

func TestPaymentValidate_CashCeiling(t *testing.T) {
	p := validPayment()

	p.Amount = decimal.NewFromInt(20000)
	assert.NoError(t, p.Validate(), "exactly at the ceiling is allowed")

	p.Amount = decimal.RequireFromString("20000.01")
	assert.ErrorIs(t, p.Validate(), ErrCashLimitExceeded)

	// The ceiling only applies to cash.
	p.Method = PaymentTransfer
	p.Reference = "TRX-1"
	p.Bank = "BMCE"
	assert.NoError(t, p.Validate())
}

func TestPaymentValidate_Reference(t *testing.T) {
	for _, method := range []PaymentMethod{PaymentCheque, PaymentTransfer} {
		p := validPayment()
		p.Method = method
		assert.ErrorIs(t, p.Validate(), ErrMissingReference, "method %s", method)

		p.Reference = "REF-42"
		assert.ErrorIs(t, p.Validate(), ErrMissingReference, "bank still missing for %s", method)

		p.Bank = "Attijariwafa"
		assert.NoError(t, p.Validate(), "method %s", method)
	}
}

func TestPaymentValidate_DueDateChequeOnly(t *testing.T) {
	due := time.Now().AddDate(0, 1, 0)

	p := validPayment()
	p.Method = PaymentCheque
	p.Reference = "CHQ-7"
	p.Bank = "BP"
	p.DueDate = &due
	assert.NoError(t, p.Validate())

	p.Method = PaymentTransfer
	p.Reference = "TRX-7"
	assert.Error(t, p.Validate())
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, PaymentCash.Valid())
	assert.True(t, PaymentCheque.Valid())
	assert.True(t, PaymentTransfer.Valid())
	assert.False(t, PaymentMethod("BITCOIN").Valid())
}
