package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oelbekkali/retail-core/internal/core/domain"
)

const paymentColumns = `id, number, order_id, amount, method, reference, bank, due_date, status, created_at`

func scanPayment(row interface{ Scan(...any) error }) (*domain.Payment, error) {
	var (
		p    domain.Payment
		ref  sql.NullString
		bank sql.NullString
		due  sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Number, &p.OrderID, &p.Amount, &p.Method,
		&ref, &bank, &due, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Reference = ref.String
	p.Bank = bank.String
	if due.Valid {
		t := due.Time
		p.DueDate = &t
	}
	return &p, nil
}

// CreatePayment applies the payment to the order's running totals behind a
// guarded update, then inserts the payment row, all in one transaction. The
// remaining amount is re-checked inside the update itself, so two concurrent
// payments can never jointly overpay an order.
func (m *MySQLAdapter) CreatePayment(ctx context.Context, p *domain.Payment) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET amount_paid = amount_paid + ?, amount_remaining = amount_remaining - ?, updated_at = NOW()
			WHERE id = ? AND status = ? AND amount_remaining >= ?`,
			p.Amount, p.Amount, p.OrderID, domain.OrderStatusPending, p.Amount,
		)
		if err != nil {
			return fmt.Errorf("apply payment to order: %w", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			var (
				status    domain.OrderStatus
				remaining decimal.Decimal
			)
			err := tx.QueryRowContext(ctx,
				`SELECT status, amount_remaining FROM orders WHERE id = ?`, p.OrderID,
			).Scan(&status, &remaining)
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrOrderNotFound
			}
			if err != nil {
				return fmt.Errorf("inspect order: %w", err)
			}
			if status != domain.OrderStatusPending {
				return domain.ErrInvalidState
			}
			return domain.ErrAmountExceedsRemaining
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO payments (id, number, order_id, amount, method, reference, bank, due_date, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Number, p.OrderID, p.Amount, p.Method,
			nullString(p.Reference), nullString(p.Bank), nullTime(p.DueDate),
			p.Status, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	})
}

func (m *MySQLAdapter) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)

	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment: %w", err)
	}
	return p, nil
}

func (m *MySQLAdapter) ListPaymentsByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = ? ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// PaymentSummary derives settlement state from the cleared payment set.
func (m *MySQLAdapter) PaymentSummary(ctx context.Context, orderID string) (*domain.PaymentSummary, error) {
	var (
		remaining decimal.Decimal
		totalPaid decimal.Decimal
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT o.amount_remaining, COALESCE(SUM(p.amount), 0)
		FROM orders o
		LEFT JOIN payments p ON p.order_id = o.id AND p.status = ?
		WHERE o.id = ?
		GROUP BY o.id, o.amount_remaining`,
		domain.PaymentStatusCleared, orderID,
	).Scan(&remaining, &totalPaid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment summary: %w", err)
	}

	return &domain.PaymentSummary{
		OrderID:   orderID,
		TotalPaid: totalPaid,
		Remaining: remaining,
		FullyPaid: remaining.IsZero(),
	}, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
