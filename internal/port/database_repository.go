package port

import (
	"context"
	"errors"

	"github.com/oelbekkali/retail-core/internal/core/domain"
)

// ErrOptimisticLock reports that a version-checked write lost a race; callers
// re-read and retry.
var ErrOptimisticLock = errors.New("optimistic lock conflict")

type ProductRepository interface {
	CreateProduct(ctx context.Context, p domain.Product) error

	// UpdateProduct writes mutable fields with a version check for optimistic locking
	UpdateProduct(ctx context.Context, p domain.Product) error

	// DeactivateProduct soft-deletes; historical orders keep referencing the row
	DeactivateProduct(ctx context.Context, id string) error

	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProducts(ctx context.Context, ids []string) ([]domain.Product, error)
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)

	// ReserveStock decrements stock for every item in one transaction,
	// all-or-nothing; fails if any product lacks stock
	ReserveStock(ctx context.Context, items []domain.StockItem) error

	// RestoreStock increments stock back for every item in one transaction
	RestoreStock(ctx context.Context, items []domain.StockItem) error
}

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, c domain.Customer) error
	UpdateCustomer(ctx context.Context, c domain.Customer) error
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
}

type PromoRepository interface {
	CreatePromo(ctx context.Context, p domain.PromoCode) error
	UpdatePromo(ctx context.Context, p domain.PromoCode) error
	DeletePromo(ctx context.Context, id string) error
	GetPromo(ctx context.Context, id string) (*domain.PromoCode, error)
	GetPromoByCode(ctx context.Context, code string) (*domain.PromoCode, error)
	ListPromos(ctx context.Context) ([]domain.PromoCode, error)

	// ApplyAndIncrement atomically re-checks validity and increments the usage
	// counter; usage_count can never exceed max_usage under concurrent calls
	ApplyAndIncrement(ctx context.Context, code string) (*domain.PromoCode, error)
}

type OrderRepository interface {
	// CreateOrder persists the order, its lines, the version-checked stock
	// reservation and the promo usage increment in a single transaction
	CreateOrder(ctx context.Context, order *domain.Order) error

	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)

	// ConfirmOrder transitions PENDING -> CONFIRMED when nothing remains to be
	// paid, and records the confirmed order on the customer's loyalty stats in
	// the same transaction
	ConfirmOrder(ctx context.Context, id string) (*domain.Order, error)

	// CloseOrder transitions PENDING -> CANCELED or REJECTED and restores the
	// reserved stock in the same transaction, exactly once per order
	CloseOrder(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

type PaymentRepository interface {
	// CreatePayment inserts the payment and applies it to the order's running
	// totals in one transaction; the remaining amount is re-checked at write
	// time so concurrent payments can never jointly overpay
	CreatePayment(ctx context.Context, p *domain.Payment) error

	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
	PaymentSummary(ctx context.Context, orderID string) (*domain.PaymentSummary, error)
}
