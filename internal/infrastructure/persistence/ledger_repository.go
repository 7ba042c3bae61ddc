package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/dshop/backend/internal/domain/ledger"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/infrastructure/persistence/models"
)

// GormEventRepository implements ledger.EventRepository using GORM
type GormEventRepository struct {
	db *gorm.DB
}

var _ ledger.EventRepository = (*GormEventRepository)(nil)

// NewGormEventRepository creates a new GormEventRepository
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Create records an event
func (r *GormEventRepository) Create(ctx context.Context, e *ledger.Event) error {
	model := models.EventModelFromDomain(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	e.BaseEntity = model.BaseModel.ToDomain()
	return nil
}

// FindAllForShop returns every event recorded for the shop
func (r *GormEventRepository) FindAllForShop(ctx context.Context, shopID int64) ([]ledger.Event, error) {
	var rows []models.EventModel
	if err := scopeToShop(r.db.WithContext(ctx), shopID).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	events := make([]ledger.Event, len(rows))
	for i := range rows {
		events[i] = rows[i].ToDomain()
	}
	return events, nil
}

// FindByTransactionHash returns the first event emitted by a transaction.
// The lookup is deliberately not scoped to a shop.
func (r *GormEventRepository) FindByTransactionHash(ctx context.Context, txHash string) (*ledger.Event, error) {
	if txHash == "" {
		return nil, shared.ErrNotFound
	}
	var model models.EventModel
	if err := r.db.WithContext(ctx).
		Where("transaction_hash = ?", txHash).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	event := model.ToDomain()
	return &event, nil
}

// GormTransactionRepository implements ledger.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindAllForShop returns every transaction submitted for the shop
func (r *GormTransactionRepository) FindAllForShop(ctx context.Context, shopID int64) ([]ledger.Transaction, error) {
	var rows []models.TransactionModel
	if err := scopeToShop(r.db.WithContext(ctx), shopID).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	txs := make([]ledger.Transaction, len(rows))
	for i := range rows {
		txs[i] = rows[i].ToDomain()
	}
	return txs, nil
}
