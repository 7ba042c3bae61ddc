package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/dshop/backend/internal/domain/order"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

var _ order.Repository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts a new order
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	o.BaseEntity = model.BaseModel.ToDomain()
	return nil
}

// FindByOrderID finds an order by its external ID within a shop
func (r *GormOrderRepository) FindByOrderID(ctx context.Context, shopID int64, orderID string) (*order.Order, error) {
	if orderID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.OrderModel
	if err := scopeToShop(r.db.WithContext(ctx), shopID).
		Where("order_id = ?", orderID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}
