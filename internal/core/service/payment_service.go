package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oelbekkali/retail-core/internal/core/domain"
	"github.com/oelbekkali/retail-core/internal/port"
)

type PaymentService struct {
	payments port.PaymentRepository
	cache    port.CacheRepository
	logger   *zap.Logger
}

func NewPaymentService(payments port.PaymentRepository, cache port.CacheRepository, logger *zap.Logger) *PaymentService {
	return &PaymentService{payments: payments, cache: cache, logger: logger}
}

type CreatePaymentInput struct {
	OrderID   string               `json:"order_id"`
	Amount    decimal.Decimal      `json:"amount"`
	Method    domain.PaymentMethod `json:"method"`
	Reference string               `json:"reference"`
	Bank      string               `json:"bank"`
	DueDate   *time.Time           `json:"due_date"`
	RequestID string               `json:"request_id"`
}

// CreatePayment records a CLEARED payment against a PENDING order. The
// remaining-amount check happens atomically at write time in the repository.
func (s *PaymentService) CreatePayment(ctx context.Context, in CreatePaymentInput) (*domain.Payment, error) {
	if in.OrderID == "" {
		return nil, domain.Invalid("order_id", "is required")
	}

	payment := &domain.Payment{
		ID:        uuid.NewString(),
		Number:    newPaymentNumber(time.Now()),
		OrderID:   in.OrderID,
		Amount:    in.Amount,
		Method:    in.Method,
		Reference: strings.TrimSpace(in.Reference),
		Bank:      strings.TrimSpace(in.Bank),
		DueDate:   in.DueDate,
		Status:    domain.PaymentStatusCleared,
		CreatedAt: time.Now(),
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	if in.RequestID != "" {
		ok, err := s.cache.SetIdempotency(ctx, "payment:"+in.RequestID)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}
	}

	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID),
		zap.String("amount", payment.Amount.String()),
		zap.String("method", string(payment.Method)))
	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return s.payments.GetPayment(ctx, id)
}

func (s *PaymentService) ListPayments(ctx context.Context, orderID string) ([]domain.Payment, error) {
	return s.payments.ListPaymentsByOrder(ctx, orderID)
}

func (s *PaymentService) Summary(ctx context.Context, orderID string) (*domain.PaymentSummary, error) {
	return s.payments.PaymentSummary(ctx, orderID)
}

func newPaymentNumber(now time.Time) string {
	return fmt.Sprintf("PAY-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}
