package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrPromoNotFound    = errors.New("promo code not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrPaymentNotFound  = errors.New("payment not found")

	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrPromoExhausted         = errors.New("promo code usage quota exhausted")
	ErrInvalidState           = errors.New("invalid order state for this operation")
	ErrCashLimitExceeded      = errors.New("cash payment limit exceeded")
	ErrAmountExceedsRemaining = errors.New("payment amount exceeds remaining balance")
	ErrMissingReference       = errors.New("reference and bank are required for this payment method")
	ErrDuplicateRequest       = errors.New("duplicate request")
	ErrStockAlreadyRestored   = errors.New("stock already restored for this order")
)

// ValidationError reports a caller-correctable input problem.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
