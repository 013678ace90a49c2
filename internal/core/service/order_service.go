package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oelbekkali/retail-core/internal/core/domain"
	"github.com/oelbekkali/retail-core/internal/port"
)

// maxCreateAttempts bounds the retry loop on optimistic-lock conflicts during
// order creation.
const maxCreateAttempts = 3

type OrderService struct {
	orders    port.OrderRepository
	products  port.ProductRepository
	customers port.CustomerRepository
	promos    port.PromoRepository
	cache     port.CacheRepository
	logger    *zap.Logger
}

func NewOrderService(
	orders port.OrderRepository,
	products port.ProductRepository,
	customers port.CustomerRepository,
	promos port.PromoRepository,
	cache port.CacheRepository,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		customers: customers,
		promos:    promos,
		cache:     cache,
		logger:    logger,
	}
}

type OrderItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderInput struct {
	CustomerID string           `json:"customer_id"`
	Items      []OrderItemInput `json:"items"`
	PromoCode  string           `json:"promo_code"`

	// RequestID, when set, makes the submission idempotent: a second call
	// with the same id is rejected before any state changes.
	RequestID string `json:"request_id"`
}

// CreateOrder builds, prices and persists a new PENDING order. An invalid or
// exhausted promo code does not abort the order; it is created without the
// promo discount.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if in.CustomerID == "" {
		return nil, domain.Invalid("customer_id", "is required")
	}
	items, err := mergeItems(in.Items)
	if err != nil {
		return nil, err
	}

	if in.RequestID != "" {
		ok, err := s.cache.SetIdempotency(ctx, "order:"+in.RequestID)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}
	}

	customer, err := s.customers.GetCustomer(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	promoCode := strings.ToUpper(strings.TrimSpace(in.PromoCode))
	if promoCode != "" {
		promo, err := s.promos.GetPromoByCode(ctx, promoCode)
		switch {
		case errors.Is(err, domain.ErrPromoNotFound):
			s.logger.Info("unknown promo code, creating order without discount",
				zap.String("code", promoCode))
			promoCode = ""
		case err != nil:
			return nil, err
		case promo.Exhausted():
			s.logger.Info("exhausted promo code, creating order without discount",
				zap.String("code", promoCode))
			promoCode = ""
		}
	}

	for attempt := 1; ; attempt++ {
		order, err := s.buildOrder(ctx, customer, items, promoCode)
		if err != nil {
			return nil, err
		}

		err = s.orders.CreateOrder(ctx, order)
		switch {
		case err == nil:
			s.mirrorStock(ctx, order.StockItems(), -1)
			s.logger.Info("order created",
				zap.String("order_id", order.ID),
				zap.String("number", order.Number),
				zap.String("total_with_tax", order.TotalWithTax.String()))
			return order, nil

		case promoCode != "" && (errors.Is(err, domain.ErrPromoExhausted) || errors.Is(err, domain.ErrPromoNotFound)):
			// Lost the promo race between pre-check and write; reprice without it.
			s.logger.Info("promo no longer applicable, retrying without discount",
				zap.String("code", promoCode))
			promoCode = ""

		case errors.Is(err, port.ErrOptimisticLock):
			if attempt >= maxCreateAttempts {
				return nil, fmt.Errorf("order creation kept conflicting: %w", err)
			}
			s.logger.Debug("catalog changed under us, retrying order creation",
				zap.Int("attempt", attempt))

		default:
			return nil, err
		}
	}
}

// buildOrder reads the product snapshot, prices the line set and assembles a
// PENDING order. Unit prices and catalog versions are frozen into the lines.
func (s *OrderService) buildOrder(ctx context.Context, customer *domain.Customer, items []domain.StockItem, promoCode string) (*domain.Order, error) {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}

	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]domain.OrderLine, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok || !p.Active {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, domain.ErrProductNotFound)
		}
		if p.Stock < it.Quantity {
			return nil, fmt.Errorf("product %s has %d in stock: %w", p.ID, p.Stock, domain.ErrInsufficientStock)
		}
		lines = append(lines, domain.OrderLine{
			ProductID:      p.ID,
			ProductName:    p.Name,
			Quantity:       it.Quantity,
			UnitPrice:      p.UnitPrice,
			ProductVersion: p.Version,
		})
	}

	pricing := domain.ComputePricing(lines, customer.Tier, promoCode != "")
	now := time.Now()

	return &domain.Order{
		ID:              uuid.NewString(),
		Number:          newOrderNumber(now),
		CustomerID:      customer.ID,
		Lines:           lines,
		Status:          domain.OrderStatusPending,
		Pricing:         pricing,
		PromoCode:       promoCode,
		AmountPaid:      decimal.Zero,
		AmountRemaining: pricing.TotalWithTax,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Confirm settles a fully paid PENDING order and records it on the customer's
// loyalty stats.
func (s *OrderService) Confirm(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.ConfirmOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order confirmed", zap.String("order_id", order.ID), zap.String("number", order.Number))
	return order, nil
}

func (s *OrderService) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	return s.close(ctx, id, domain.OrderStatusCanceled)
}

// Reject is the administrative terminal transition; it restores reserved
// stock the same way cancellation does.
func (s *OrderService) Reject(ctx context.Context, id string) (*domain.Order, error) {
	return s.close(ctx, id, domain.OrderStatusRejected)
}

func (s *OrderService) close(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.CloseOrder(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.mirrorStock(ctx, order.StockItems(), 1)
	s.logger.Info("order closed",
		zap.String("order_id", order.ID),
		zap.String("status", string(status)))
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Invalid("status", "unknown order status")
	}
	return s.orders.ListOrders(ctx, filter)
}

// mirrorStock keeps the Redis stock display in step with reservations. Best
// effort; the database stays authoritative.
func (s *OrderService) mirrorStock(ctx context.Context, items []domain.StockItem, sign int) {
	for _, it := range items {
		if err := s.cache.AdjustStock(ctx, it.ProductID, sign*it.Quantity); err != nil {
			s.logger.Warn("stock mirror update failed",
				zap.String("product_id", it.ProductID), zap.Error(err))
		}
	}
}

// mergeItems collapses duplicate product lines by summing quantities,
// preserving first-seen order.
func mergeItems(items []OrderItemInput) ([]domain.StockItem, error) {
	if len(items) == 0 {
		return nil, domain.Invalid("items", "at least one item is required")
	}

	index := make(map[string]int, len(items))
	merged := make([]domain.StockItem, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			return nil, domain.Invalid("items", "product_id is required")
		}
		if it.Quantity < 1 {
			return nil, domain.Invalid("items", "quantity must be at least 1")
		}
		if i, ok := index[it.ProductID]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(merged)
		merged = append(merged, domain.StockItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return merged, nil
}

func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("CMD-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}
