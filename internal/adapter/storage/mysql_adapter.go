package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oelbekkali/retail-core/internal/core/domain"
	"github.com/oelbekkali/retail-core/internal/port"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// reserveLine decrements one product's stock behind a guarded update. With
// checkVersion set the update also requires the catalog version the caller
// priced against, so a concurrent price edit surfaces as ErrOptimisticLock
// instead of silently selling at a stale price.
func reserveLine(ctx context.Context, tx *sql.Tx, item domain.StockItem, version int, checkVersion bool) error {
	var (
		result sql.Result
		err    error
	)
	if checkVersion {
		result, err = tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - ?, version = version + 1, updated_at = NOW()
			WHERE id = ? AND active = 1 AND stock >= ? AND version = ?`,
			item.Quantity, item.ProductID, item.Quantity, version,
		)
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - ?, version = version + 1, updated_at = NOW()
			WHERE id = ? AND active = 1 AND stock >= ?`,
			item.Quantity, item.ProductID, item.Quantity,
		)
	}
	if err != nil {
		return fmt.Errorf("reserve stock for %s: %w", item.ProductID, err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}

	// Guard failed; look at the row to say why.
	var (
		active bool
		stock  int
	)
	err = tx.QueryRowContext(ctx,
		`SELECT active, stock FROM products WHERE id = ?`, item.ProductID,
	).Scan(&active, &stock)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product %s: %w", item.ProductID, domain.ErrProductNotFound)
	}
	if err != nil {
		return fmt.Errorf("inspect product %s: %w", item.ProductID, err)
	}
	if !active {
		return fmt.Errorf("product %s is inactive: %w", item.ProductID, domain.ErrProductNotFound)
	}
	if stock < item.Quantity {
		return fmt.Errorf("product %s has %d in stock: %w", item.ProductID, stock, domain.ErrInsufficientStock)
	}
	return port.ErrOptimisticLock
}

func restoreLine(ctx context.Context, tx *sql.Tx, item domain.StockItem) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + ?, version = version + 1, updated_at = NOW()
		WHERE id = ?`,
		item.Quantity, item.ProductID,
	)
	if err != nil {
		return fmt.Errorf("restore stock for %s: %w", item.ProductID, err)
	}
	return nil
}
