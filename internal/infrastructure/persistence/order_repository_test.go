package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dshop/backend/internal/domain/shared"
)

func TestGormOrderRepository_FindByOrderID(t *testing.T) {
	t.Run("scopes the lookup to the shop", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(gormDB)

		rows := sqlmock.NewRows([]string{"id", "shop_id", "order_id", "status", "data"}).
			AddRow(9, 5, "1-001-5", "OfferCreated", `{}`)
		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE shop_id = \$1 AND order_id = \$2`).
			WithArgs(5, "1-001-5", 1).
			WillReturnRows(rows)

		o, err := repo.FindByOrderID(context.Background(), 5, "1-001-5")
		require.NoError(t, err)
		assert.Equal(t, int64(5), o.ShopID)
		assert.Equal(t, "1-001-5", o.OrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("order in another shop is not found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE shop_id = \$1 AND order_id = \$2`).
			WithArgs(6, "1-001-5", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByOrderID(context.Background(), 6, "1-001-5")
		assert.Equal(t, shared.ErrNotFound, err)
	})

	t.Run("empty order id", func(t *testing.T) {
		gormDB, _, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(gormDB)

		_, err := repo.FindByOrderID(context.Background(), 5, "")
		assert.Equal(t, shared.ErrNotFound, err)
	})
}
