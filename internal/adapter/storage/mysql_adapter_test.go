package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oelbekkali/retail-core/internal/core/domain"
	"github.com/oelbekkali/retail-core/internal/port"
)

func newMockAdapter(t *testing.T) (*MySQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLAdapter(db), mock
}

func TestReserveStock_GuardedUpdate(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").
		WithArgs(3, "p1", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := adapter.ReserveStock(context.Background(), []domain.StockItem{{ProductID: "p1", Quantity: 3}})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveStock_ClassifiesGuardFailure(t *testing.T) {
	cases := []struct {
		name    string
		inspect func(sqlmock.Sqlmock)
		want    error
	}{
		{
			name: "insufficient stock",
			inspect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT active, stock FROM products").
					WithArgs("p1").
					WillReturnRows(sqlmock.NewRows([]string{"active", "stock"}).AddRow(true, 2))
			},
			want: domain.ErrInsufficientStock,
		},
		{
			name: "inactive product",
			inspect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT active, stock FROM products").
					WithArgs("p1").
					WillReturnRows(sqlmock.NewRows([]string{"active", "stock"}).AddRow(false, 100))
			},
			want: domain.ErrProductNotFound,
		},
		{
			name: "missing product",
			inspect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT active, stock FROM products").
					WithArgs("p1").
					WillReturnError(sql.ErrNoRows)
			},
			want: domain.ErrProductNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock := newMockAdapter(t)

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE products").
				WithArgs(3, "p1", 3).
				WillReturnResult(sqlmock.NewResult(0, 0))
			tc.inspect(mock)
			mock.ExpectRollback()

			err := adapter.ReserveStock(context.Background(), []domain.StockItem{{ProductID: "p1", Quantity: 3}})
			assert.ErrorIs(t, err, tc.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateProduct_VersionConflict(t *testing.T) {
	adapter, mock := newMockAdapter(t)
	now := time.Now()

	mock.ExpectExec("UPDATE products").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM products WHERE id = ?").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "unit_price", "stock", "active", "version", "created_at", "updated_at",
		}).AddRow("p1", "Clavier", nil, "100.00", 5, true, 4, now, now))

	err := adapter.UpdateProduct(context.Background(), domain.Product{
		ID:        "p1",
		Name:      "Clavier",
		UnitPrice: decimal.NewFromInt(100),
		Stock:     5,
		Version:   3,
	})
	assert.ErrorIs(t, err, port.ErrOptimisticLock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAndIncrement_Succeeds(t *testing.T) {
	adapter, mock := newMockAdapter(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE promo_codes").
		WithArgs("PROMO5").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM promo_codes WHERE code = ?").
		WithArgs("PROMO5").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "max_usage", "usage_count", "created_at", "updated_at",
		}).AddRow("pr1", "PROMO5", 100, 7, now, now))
	mock.ExpectCommit()

	promo, err := adapter.ApplyAndIncrement(context.Background(), "PROMO5")
	require.NoError(t, err)
	assert.Equal(t, 7, promo.UsageCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAndIncrement_Exhausted(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE promo_codes").
		WithArgs("PROMO5").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("PROMO5").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := adapter.ApplyAndIncrement(context.Background(), "PROMO5")
	assert.ErrorIs(t, err, domain.ErrPromoExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAndIncrement_UnknownCode(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE promo_codes").
		WithArgs("NOSUCH").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("NOSUCH").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := adapter.ApplyAndIncrement(context.Background(), "NOSUCH")
	assert.ErrorIs(t, err, domain.ErrPromoNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePayment_AppliesAndInserts(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := adapter.CreatePayment(context.Background(), &domain.Payment{
		ID:        "pay1",
		Number:    "PAY-20260830-ABCDEF12",
		OrderID:   "o1",
		Amount:    decimal.NewFromInt(200),
		Method:    domain.PaymentCash,
		Status:    domain.PaymentStatusCleared,
		CreatedAt: time.Now(),
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePayment_ClassifiesGuardFailure(t *testing.T) {
	cases := []struct {
		name    string
		inspect func(sqlmock.Sqlmock)
		want    error
	}{
		{
			name: "order not found",
			inspect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT status, amount_remaining FROM orders").
					WithArgs("o1").
					WillReturnError(sql.ErrNoRows)
			},
			want: domain.ErrOrderNotFound,
		},
		{
			name: "order already closed",
			inspect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT status, amount_remaining FROM orders").
					WithArgs("o1").
					WillReturnRows(sqlmock.NewRows([]string{"status", "amount_remaining"}).
						AddRow("CONFIRMED", "0.00"))
			},
			want: domain.ErrInvalidState,
		},
		{
			name: "amount exceeds remaining",
			inspect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT status, amount_remaining FROM orders").
					WithArgs("o1").
					WillReturnRows(sqlmock.NewRows([]string{"status", "amount_remaining"}).
						AddRow("PENDING", "80.00"))
			},
			want: domain.ErrAmountExceedsRemaining,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock := newMockAdapter(t)

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE orders").
				WillReturnResult(sqlmock.NewResult(0, 0))
			tc.inspect(mock)
			mock.ExpectRollback()

			err := adapter.CreatePayment(context.Background(), &domain.Payment{
				ID:      "pay1",
				OrderID: "o1",
				Amount:  decimal.NewFromInt(200),
				Method:  domain.PaymentCash,
				Status:  domain.PaymentStatusCleared,
			})
			assert.ErrorIs(t, err, tc.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id = ?").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := adapter.GetProduct(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
