package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/domain/shop"
)

func TestGormShopRepository_FindByID(t *testing.T) {
	t.Run("finds existing shop", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormShopRepository(gormDB)

		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "name", "auth_token", "config"}).
			AddRow(5, now, now, "Demo", "tok", "blob")
		mock.ExpectQuery(`SELECT \* FROM "shops" WHERE id = \$1`).
			WithArgs(5, 1).
			WillReturnRows(rows)

		s, err := repo.FindByID(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), s.ID)
		assert.Equal(t, "Demo", s.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing record to ErrNotFound", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormShopRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "shops" WHERE id = \$1`).
			WithArgs(5, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		s, err := repo.FindByID(context.Background(), 5)
		assert.Nil(t, s)
		assert.Equal(t, shared.ErrNotFound, err)
	})

	t.Run("passes through other errors", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormShopRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "shops"`).WillReturnError(errors.New("connection reset"))

		_, err := repo.FindByID(context.Background(), 5)
		assert.EqualError(t, err, "connection reset")
	})
}

func TestGormShopRepository_FindByAuthToken(t *testing.T) {
	t.Run("finds shop by token", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormShopRepository(gormDB)

		rows := sqlmock.NewRows([]string{"id", "name", "auth_token"}).AddRow(5, "Demo", "tok")
		mock.ExpectQuery(`SELECT \* FROM "shops" WHERE auth_token = \$1`).
			WithArgs("tok", 1).
			WillReturnRows(rows)

		s, err := repo.FindByAuthToken(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, int64(5), s.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty token never queries", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormShopRepository(gormDB)

		_, err := repo.FindByAuthToken(context.Background(), "")
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormShopRepository_FindMembership(t *testing.T) {
	gormDB, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormShopRepository(gormDB)

	rows := sqlmock.NewRows([]string{"seller_id", "shop_id", "role"}).AddRow(1, 5, "admin")
	mock.ExpectQuery(`SELECT \* FROM "seller_shops" WHERE seller_id = \$1 AND shop_id = \$2`).
		WithArgs(1, 5, 1).
		WillReturnRows(rows)

	m, err := repo.FindMembership(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, shop.RoleAdmin, m.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormShopRepository_Config(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormShopRepository(gormDB)

		mock.ExpectQuery(`SELECT .*config.* FROM "shops" WHERE id = \$1`).
			WithArgs(5, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "config"}).AddRow(5, "sealed"))

		blob, err := repo.LoadConfig(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, "sealed", blob)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("save", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormShopRepository(gormDB)

		mock.ExpectExec(`UPDATE "shops" SET "config"=\$1,"updated_at"=\$2 WHERE id = \$3`).
			WithArgs("sealed", sqlmock.AnyArg(), 5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveConfig(context.Background(), 5, "sealed"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("save on missing shop", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormShopRepository(gormDB)

		mock.ExpectExec(`UPDATE "shops"`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveConfig(context.Background(), 5, "sealed")
		assert.Equal(t, shared.ErrNotFound, err)
	})
}
