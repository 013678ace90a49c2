package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/oelbekkali/retail-core/internal/core/domain"
	"github.com/oelbekkali/retail-core/internal/port"
)

// fakeStore is an in-memory implementation of the repository ports with the
// same guard semantics as the MySQL adapter: every check-then-mutate runs
// under one lock, all-or-nothing.
type fakeStore struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	customers map[string]*domain.Customer
	promos    map[string]*domain.PromoCode
	orders    map[string]*domain.Order
	payments  map[string]*domain.Payment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  make(map[string]*domain.Product),
		customers: make(map[string]*domain.Customer),
		promos:    make(map[string]*domain.PromoCode),
		orders:    make(map[string]*domain.Order),
		payments:  make(map[string]*domain.Payment),
	}
}

func (f *fakeStore) seedProduct(p domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := p
	f.products[p.ID] = &cp
}

func (f *fakeStore) seedCustomer(c domain.Customer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := c
	f.customers[c.ID] = &cp
}

func (f *fakeStore) seedPromo(p domain.PromoCode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := p
	f.promos[p.ID] = &cp
}

func (f *fakeStore) productStock(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

func (f *fakeStore) promoUsage(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.promos[id].UsageCount
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return &cp
}

// --- ProductRepository ---

func (f *fakeStore) CreateProduct(_ context.Context, p domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.products[p.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if cur.Version != p.Version {
		return port.ErrOptimisticLock
	}
	cp := p
	cp.Version++
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeStore) DeactivateProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Active = false
	return nil
}

func (f *fakeStore) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetProducts(_ context.Context, ids []string) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListActiveProducts(_ context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Product
	for _, p := range f.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) ReserveStock(_ context.Context, items []domain.StockItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkStock(items, nil); err != nil {
		return err
	}
	f.takeStock(items)
	return nil
}

func (f *fakeStore) RestoreStock(_ context.Context, items []domain.StockItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range items {
		p, ok := f.products[it.ProductID]
		if !ok {
			return domain.ErrProductNotFound
		}
		p.Stock += it.Quantity
		p.Version++
	}
	return nil
}

// checkStock validates a reservation without mutating. versions, when
// non-nil, maps product id to the catalog version the caller priced against.
func (f *fakeStore) checkStock(items []domain.StockItem, versions map[string]int) error {
	for _, it := range items {
		p, ok := f.products[it.ProductID]
		if !ok || !p.Active {
			return fmt.Errorf("product %s: %w", it.ProductID, domain.ErrProductNotFound)
		}
		if p.Stock < it.Quantity {
			return fmt.Errorf("product %s has %d in stock: %w", it.ProductID, p.Stock, domain.ErrInsufficientStock)
		}
		if versions != nil && p.Version != versions[it.ProductID] {
			return port.ErrOptimisticLock
		}
	}
	return nil
}

func (f *fakeStore) takeStock(items []domain.StockItem) {
	for _, it := range items {
		p := f.products[it.ProductID]
		p.Stock -= it.Quantity
		p.Version++
	}
}

// --- CustomerRepository ---

func (f *fakeStore) CreateCustomer(_ context.Context, c domain.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := c
	f.customers[c.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateCustomer(_ context.Context, c domain.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.customers[c.ID]; !ok {
		return domain.ErrCustomerNotFound
	}
	cp := c
	f.customers[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Customer
	for _, c := range f.customers {
		out = append(out, *c)
	}
	return out, nil
}

// --- PromoRepository ---

func (f *fakeStore) CreatePromo(_ context.Context, p domain.PromoCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := p
	f.promos[p.ID] = &cp
	return nil
}

func (f *fakeStore) UpdatePromo(_ context.Context, p domain.PromoCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.promos[p.ID]
	if !ok {
		return domain.ErrPromoNotFound
	}
	cur.Code = p.Code
	cur.MaxUsage = p.MaxUsage
	return nil
}

func (f *fakeStore) DeletePromo(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.promos[id]; !ok {
		return domain.ErrPromoNotFound
	}
	delete(f.promos, id)
	return nil
}

func (f *fakeStore) GetPromo(_ context.Context, id string) (*domain.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.promos[id]
	if !ok {
		return nil, domain.ErrPromoNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetPromoByCode(_ context.Context, code string) (*domain.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.promoByCode(code)
	if p == nil {
		return nil, domain.ErrPromoNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListPromos(_ context.Context) ([]domain.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PromoCode
	for _, p := range f.promos {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) ApplyAndIncrement(_ context.Context, code string) (*domain.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.promoByCode(code)
	if p == nil {
		return nil, domain.ErrPromoNotFound
	}
	if p.Exhausted() {
		return nil, domain.ErrPromoExhausted
	}
	p.UsageCount++
	cp := *p
	return &cp, nil
}

func (f *fakeStore) promoByCode(code string) *domain.PromoCode {
	for _, p := range f.promos {
		if p.Code == code {
			return p
		}
	}
	return nil
}

// --- OrderRepository ---

func (f *fakeStore) CreateOrder(_ context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	versions := make(map[string]int, len(order.Lines))
	for _, l := range order.Lines {
		versions[l.ProductID] = l.ProductVersion
	}
	if err := f.checkStock(order.StockItems(), versions); err != nil {
		return err
	}

	var promo *domain.PromoCode
	if order.PromoCode != "" {
		promo = f.promoByCode(order.PromoCode)
		if promo == nil {
			return domain.ErrPromoNotFound
		}
		if promo.Exhausted() {
			return domain.ErrPromoExhausted
		}
	}

	f.takeStock(order.StockItems())
	if promo != nil {
		promo.UsageCount++
	}
	f.orders[order.ID] = copyOrder(order)
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (f *fakeStore) ListOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.CustomerID != "" && o.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	return out, nil
}

func (f *fakeStore) ConfirmOrder(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.Status != domain.OrderStatusPending || !o.AmountRemaining.IsZero() {
		return nil, domain.ErrInvalidState
	}
	o.Status = domain.OrderStatusConfirmed

	if c, ok := f.customers[o.CustomerID]; ok {
		c.ApplyConfirmedOrder(o.TotalWithTax)
	}
	return copyOrder(o), nil
}

func (f *fakeStore) CloseOrder(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.Status != domain.OrderStatusPending || o.StockRestored {
		return nil, domain.ErrInvalidState
	}
	o.Status = status
	o.StockRestored = true
	for _, it := range o.StockItems() {
		if p, ok := f.products[it.ProductID]; ok {
			p.Stock += it.Quantity
			p.Version++
		}
	}
	return copyOrder(o), nil
}

// --- PaymentRepository ---

func (f *fakeStore) CreatePayment(_ context.Context, p *domain.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[p.OrderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != domain.OrderStatusPending {
		return domain.ErrInvalidState
	}
	if o.AmountRemaining.LessThan(p.Amount) {
		return domain.ErrAmountExceedsRemaining
	}
	o.AmountPaid = o.AmountPaid.Add(p.Amount)
	o.AmountRemaining = o.AmountRemaining.Sub(p.Amount)
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakeStore) GetPayment(_ context.Context, id string) (*domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListPaymentsByOrder(_ context.Context, orderID string) ([]domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Payment
	for _, p := range f.payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) PaymentSummary(_ context.Context, orderID string) (*domain.PaymentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &domain.PaymentSummary{
		OrderID:   orderID,
		TotalPaid: o.AmountPaid,
		Remaining: o.AmountRemaining,
		FullyPaid: o.AmountRemaining.IsZero(),
	}, nil
}

// fakeCache is an in-memory CacheRepository.
type fakeCache struct {
	mu    sync.Mutex
	keys  map[string]bool
	stock map[string]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{keys: make(map[string]bool), stock: make(map[string]int)}
}

func (f *fakeCache) SetIdempotency(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeCache) SetStock(_ context.Context, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[productID] = quantity
	return nil
}

func (f *fakeCache) AdjustStock(_ context.Context, productID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.stock[productID] + delta
	if next < 0 {
		next = 0
	}
	f.stock[productID] = next
	return nil
}

func (f *fakeCache) GetStock(_ context.Context, productID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.stock[productID]
	return v, ok, nil
}
