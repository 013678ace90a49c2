package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oelbekkali/retail-core/internal/core/domain"
)

const orderColumns = `id, number, customer_id, status, subtotal, loyalty_discount,
	promo_discount, total_discount, amount_after_discount, tax, total_with_tax,
	promo_code, amount_paid, amount_remaining, stock_restored, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var (
		o     domain.Order
		promo sql.NullString
	)
	err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &o.Status,
		&o.Subtotal, &o.LoyaltyDiscount, &o.PromoDiscount, &o.TotalDiscount,
		&o.AmountAfterDiscount, &o.Tax, &o.TotalWithTax,
		&promo, &o.AmountPaid, &o.AmountRemaining, &o.StockRestored,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.PromoCode = promo.String
	return &o, nil
}

// CreateOrder runs the whole creation as one transaction: version-checked
// stock reservation per line, guarded promo usage increment, order and line
// inserts. Any failure rolls everything back.
func (m *MySQLAdapter) CreateOrder(ctx context.Context, order *domain.Order) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		for _, line := range order.Lines {
			item := domain.StockItem{ProductID: line.ProductID, Quantity: line.Quantity}
			if err := reserveLine(ctx, tx, item, line.ProductVersion, true); err != nil {
				return err
			}
		}

		if order.PromoCode != "" {
			if err := applyPromo(ctx, tx, order.PromoCode); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, number, customer_id, status, subtotal, loyalty_discount,
				promo_discount, total_discount, amount_after_discount, tax, total_with_tax,
				promo_code, amount_paid, amount_remaining, stock_restored, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.ID, order.Number, order.CustomerID, order.Status,
			order.Subtotal, order.LoyaltyDiscount, order.PromoDiscount,
			order.TotalDiscount, order.AmountAfterDiscount, order.Tax, order.TotalWithTax,
			nullString(order.PromoCode), order.AmountPaid, order.AmountRemaining,
			order.StockRestored, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, line := range order.Lines {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price)
				VALUES (?, ?, ?, ?, ?)`,
				order.ID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice,
			)
			if err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}
		return nil
	})
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	o.Lines, err = m.orderLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (m *MySQLAdapter) orderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, unit_price
		FROM order_lines WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (m *MySQLAdapter) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, filter.Status)
	}
	if filter.CustomerID != "" {
		conds = append(conds, `customer_id = ?`)
		args = append(args, filter.CustomerID)
	}
	for i, c := range conds {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Lines, err = m.orderLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// ConfirmOrder flips PENDING -> CONFIRMED behind a guarded update requiring a
// zero remaining amount, then records the confirmed order on the customer's
// loyalty counters in the same transaction.
func (m *MySQLAdapter) ConfirmOrder(ctx context.Context, id string) (*domain.Order, error) {
	err := m.withTx(ctx, func(tx *sql.Tx) error {
		var (
			customerID   string
			totalWithTax decimal.Decimal
		)
		row := tx.QueryRowContext(ctx,
			`SELECT customer_id, total_with_tax FROM orders WHERE id = ? FOR UPDATE`, id)
		if err := row.Scan(&customerID, &totalWithTax); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET status = ?, updated_at = NOW()
			WHERE id = ? AND status = ? AND amount_remaining = 0`,
			domain.OrderStatusConfirmed, id, domain.OrderStatusPending,
		)
		if err != nil {
			return fmt.Errorf("confirm order: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.ErrInvalidState
		}

		cRow := tx.QueryRowContext(ctx,
			`SELECT `+customerColumns+` FROM customers WHERE id = ? FOR UPDATE`, customerID)
		customer, err := scanCustomer(cRow)
		if err != nil {
			return fmt.Errorf("lock customer: %w", err)
		}

		customer.ApplyConfirmedOrder(totalWithTax)

		_, err = tx.ExecContext(ctx, `
			UPDATE customers
			SET order_count = ?, total_spent = ?, loyalty_tier = ?, updated_at = NOW()
			WHERE id = ?`,
			customer.OrderCount, customer.TotalSpent, customer.Tier, customer.ID,
		)
		if err != nil {
			return fmt.Errorf("update loyalty stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.GetOrder(ctx, id)
}

// CloseOrder transitions PENDING -> CANCELED or REJECTED and restores reserved
// stock. The stock_restored flag in the guard makes restoration idempotent per
// order.
func (m *MySQLAdapter) CloseOrder(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	err := m.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET status = ?, stock_restored = 1, updated_at = NOW()
			WHERE id = ? AND status = ? AND stock_restored = 0`,
			status, id, domain.OrderStatusPending,
		)
		if err != nil {
			return fmt.Errorf("close order: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			var exists bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM orders WHERE id = ?)`, id,
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("inspect order: %w", err)
			}
			if !exists {
				return domain.ErrOrderNotFound
			}
			return domain.ErrInvalidState
		}

		lineRows, err := tx.QueryContext(ctx,
			`SELECT product_id, quantity FROM order_lines WHERE order_id = ?`, id)
		if err != nil {
			return fmt.Errorf("query order lines: %w", err)
		}
		var items []domain.StockItem
		for lineRows.Next() {
			var item domain.StockItem
			if err := lineRows.Scan(&item.ProductID, &item.Quantity); err != nil {
				lineRows.Close()
				return fmt.Errorf("scan order line: %w", err)
			}
			items = append(items, item)
		}
		lineRows.Close()
		if err := lineRows.Err(); err != nil {
			return err
		}

		for _, item := range items {
			if err := restoreLine(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.GetOrder(ctx, id)
}
