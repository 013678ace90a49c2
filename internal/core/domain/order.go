package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

// orderTransitions is the closed transition table. All three non-pending
// statuses are terminal.
var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending: {
		OrderStatusConfirmed: true,
		OrderStatusCanceled:  true,
		OrderStatusRejected:  true,
	},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCanceled, OrderStatusRejected:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s.Valid() && s != OrderStatusPending
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return orderTransitions[s][next]
}

// OrderLine snapshots the product name and unit price at order-creation time;
// later catalog edits never change a persisted line.
type OrderLine struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`

	// ProductVersion carries the catalog version the snapshot was read at.
	// It is only used to validate the reservation at write time.
	ProductVersion int `json:"-"`
}

func (l OrderLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID         string      `json:"id"`
	Number     string      `json:"number"`
	CustomerID string      `json:"customer_id"`
	Lines      []OrderLine `json:"lines"`
	Status     OrderStatus `json:"status"`
	Pricing
	PromoCode       string          `json:"promo_code,omitempty"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	AmountRemaining decimal.Decimal `json:"amount_remaining"`
	StockRestored   bool            `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (o *Order) StockItems() []StockItem {
	items := make([]StockItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, StockItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return items
}

// OrderFilter narrows ListOrders. Zero values mean "any".
type OrderFilter struct {
	Status     OrderStatus
	CustomerID string
}
