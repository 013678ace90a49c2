package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/oelbekkali/retail-core/internal/core/domain"
	"github.com/oelbekkali/retail-core/internal/port"
)

const productColumns = `id, name, description, unit_price, stock, active, version, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var (
		p    domain.Product
		desc sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &desc, &p.UnitPrice, &p.Stock, &p.Active,
		&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = desc.String
	return &p, nil
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, unit_price, stock, active, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullString(p.Description), p.UnitPrice, p.Stock, p.Active,
		p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, p domain.Product) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, unit_price = ?, stock = ?, version = version + 1, updated_at = NOW()
		WHERE id = ? AND version = ?`,
		p.Name, nullString(p.Description), p.UnitPrice, p.Stock, p.ID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := m.GetProduct(ctx, p.ID); err != nil {
			return err
		}
		return port.ErrOptimisticLock
	}
	return nil
}

func (m *MySQLAdapter) DeactivateProduct(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET active = 0, version = version + 1, updated_at = NOW()
		WHERE id = ? AND active = 1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Deactivating an already-inactive product is a no-op.
		if _, err := m.GetProduct(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (m *MySQLAdapter) GetProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (m *MySQLAdapter) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query active products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (m *MySQLAdapter) ReserveStock(ctx context.Context, items []domain.StockItem) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		for _, item := range items {
			if err := reserveLine(ctx, tx, item, 0, false); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *MySQLAdapter) RestoreStock(ctx context.Context, items []domain.StockItem) error {
	return m.withTx(ctx, func(tx *sql.Tx) error {
		for _, item := range items {
			if err := restoreLine(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
