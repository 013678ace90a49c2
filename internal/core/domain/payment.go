package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCheque   PaymentMethod = "CHEQUE"
	PaymentTransfer PaymentMethod = "TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCheque, PaymentTransfer:
		return true
	}
	return false
}

// RequiresReference reports whether the method needs a reference and bank name.
func (m PaymentMethod) RequiresReference() bool {
	return m == PaymentCheque || m == PaymentTransfer
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusCleared  PaymentStatus = "CLEARED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
)

type Payment struct {
	ID        string          `json:"id"`
	Number    string          `json:"number"`
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference,omitempty"`
	Bank      string          `json:"bank,omitempty"`
	DueDate   *time.Time      `json:"due_date,omitempty"`
	Status    PaymentStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func (p *Payment) Validate() error {
	if !p.Amount.IsPositive() {
		return Invalid("amount", "must be greater than 0")
	}
	if !p.Method.Valid() {
		return Invalid("method", "must be CASH, CHEQUE or TRANSFER")
	}
	if p.Method == PaymentCash && p.Amount.GreaterThan(CashCeiling) {
		return ErrCashLimitExceeded
	}
	if p.Method.RequiresReference() && (p.Reference == "" || p.Bank == "") {
		return ErrMissingReference
	}
	if p.DueDate != nil && p.Method != PaymentCheque {
		return Invalid("due_date", "only cheque payments carry a due date")
	}
	return nil
}

// PaymentSummary is a pure read derived from an order's cleared payments.
type PaymentSummary struct {
	OrderID   string          `json:"order_id"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	Remaining decimal.Decimal `json:"remaining"`
	FullyPaid bool            `json:"fully_paid"`
}
