package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProductNameMinLen    = 3
	ProductNameMaxLen    = 100
	ProductDescMaxLen    = 1000
	ProductStockMax      = 999999
	productPriceMaxUnits = 999999
)

var (
	ProductPriceMin = decimal.New(1, -2) // 0.01
	ProductPriceMax = decimal.New(productPriceMaxUnits*100+99, -2)
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Stock       int             `json:"stock"`
	Active      bool            `json:"active"`
	Version     int             `json:"-"` // optimistic locking
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StockItem is a (product, quantity) pair for reservation and restoration.
type StockItem struct {
	ProductID string
	Quantity  int
}

func (p *Product) Validate() error {
	if n := len(p.Name); n < ProductNameMinLen || n > ProductNameMaxLen {
		return Invalid("name", "must be between 3 and 100 characters")
	}
	if len(p.Description) > ProductDescMaxLen {
		return Invalid("description", "must not exceed 1000 characters")
	}
	if p.UnitPrice.LessThan(ProductPriceMin) {
		return Invalid("unit_price", "must be at least 0.01")
	}
	if p.UnitPrice.GreaterThan(ProductPriceMax) {
		return Invalid("unit_price", "must not exceed 999999.99")
	}
	if p.Stock < 0 || p.Stock > ProductStockMax {
		return Invalid("stock", "must be between 0 and 999999")
	}
	return nil
}
