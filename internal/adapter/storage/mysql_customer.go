package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oelbekkali/retail-core/internal/core/domain"
)

const customerColumns = `id, username, phone, address, loyalty_tier, order_count, total_spent, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Username, &c.Phone, &c.Address, &c.Tier,
		&c.OrderCount, &c.TotalSpent, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *MySQLAdapter) CreateCustomer(ctx context.Context, c domain.Customer) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO customers (id, username, phone, address, loyalty_tier, order_count, total_spent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Username, c.Phone, c.Address, c.Tier, c.OrderCount, c.TotalSpent,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateCustomer(ctx context.Context, c domain.Customer) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE customers
		SET username = ?, phone = ?, address = ?, loyalty_tier = ?, updated_at = NOW()
		WHERE id = ?`,
		c.Username, c.Phone, c.Address, c.Tier, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := m.GetCustomer(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

func (m *MySQLAdapter) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)

	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return c, nil
}

func (m *MySQLAdapter) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}
