package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oelbekkali/retail-core/internal/core/domain"
)

const promoColumns = `id, code, max_usage, usage_count, created_at, updated_at`

func scanPromo(row interface{ Scan(...any) error }) (*domain.PromoCode, error) {
	var p domain.PromoCode
	err := row.Scan(&p.ID, &p.Code, &p.MaxUsage, &p.UsageCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *MySQLAdapter) CreatePromo(ctx context.Context, p domain.PromoCode) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO promo_codes (id, code, max_usage, usage_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Code, p.MaxUsage, p.UsageCount, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert promo: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdatePromo(ctx context.Context, p domain.PromoCode) error {
	// max_usage may never drop below what has already been used.
	result, err := m.db.ExecContext(ctx, `
		UPDATE promo_codes
		SET code = ?, max_usage = ?, updated_at = NOW()
		WHERE id = ? AND usage_count <= ?`,
		p.Code, p.MaxUsage, p.ID, p.MaxUsage,
	)
	if err != nil {
		return fmt.Errorf("update promo: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := m.GetPromo(ctx, p.ID); err != nil {
			return err
		}
		return domain.Invalid("max_usage", "cannot be below the current usage count")
	}
	return nil
}

func (m *MySQLAdapter) DeletePromo(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM promo_codes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete promo: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrPromoNotFound
	}
	return nil
}

func (m *MySQLAdapter) GetPromo(ctx context.Context, id string) (*domain.PromoCode, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE id = ?`, id)

	p, err := scanPromo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPromoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query promo: %w", err)
	}
	return p, nil
}

func (m *MySQLAdapter) GetPromoByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE code = ?`, code)

	p, err := scanPromo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPromoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query promo by code: %w", err)
	}
	return p, nil
}

func (m *MySQLAdapter) ListPromos(ctx context.Context) ([]domain.PromoCode, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT `+promoColumns+` FROM promo_codes ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query promos: %w", err)
	}
	defer rows.Close()

	var promos []domain.PromoCode
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promo: %w", err)
		}
		promos = append(promos, *p)
	}
	return promos, rows.Err()
}

func (m *MySQLAdapter) ApplyAndIncrement(ctx context.Context, code string) (*domain.PromoCode, error) {
	var applied *domain.PromoCode
	err := m.withTx(ctx, func(tx *sql.Tx) error {
		if err := applyPromo(ctx, tx, code); err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx,
			`SELECT `+promoColumns+` FROM promo_codes WHERE code = ?`, code)
		p, err := scanPromo(row)
		if err != nil {
			return fmt.Errorf("re-read promo: %w", err)
		}
		applied = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// applyPromo is the guarded usage increment shared by ApplyAndIncrement and
// the order-creation transaction. The quota check happens in the same
// statement as the increment, so usage_count can never pass max_usage no
// matter how many callers race.
func applyPromo(ctx context.Context, tx *sql.Tx, code string) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE promo_codes
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE code = ? AND usage_count < max_usage`,
		code,
	)
	if err != nil {
		return fmt.Errorf("increment promo usage: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM promo_codes WHERE code = ?)`, code,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("inspect promo: %w", err)
	}
	if !exists {
		return domain.ErrPromoNotFound
	}
	return domain.ErrPromoExhausted
}
