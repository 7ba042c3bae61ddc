package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/domain/shop"
	"github.com/dshop/backend/internal/infrastructure/persistence/models"
)

// GormShopRepository implements shop.Repository and shop.ConfigRepository using GORM
type GormShopRepository struct {
	db *gorm.DB
}

var (
	_ shop.Repository       = (*GormShopRepository)(nil)
	_ shop.ConfigRepository = (*GormShopRepository)(nil)
)

// NewGormShopRepository creates a new GormShopRepository
func NewGormShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// Create inserts a new shop
func (r *GormShopRepository) Create(ctx context.Context, s *shop.Shop) error {
	model := models.ShopModelFromDomain(s)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	s.BaseEntity = model.BaseModel.ToDomain()
	return nil
}

// FindByID finds a shop by ID
func (r *GormShopRepository) FindByID(ctx context.Context, id int64) (*shop.Shop, error) {
	var model models.ShopModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByAuthToken finds the shop a storefront credential belongs to
func (r *GormShopRepository) FindByAuthToken(ctx context.Context, token string) (*shop.Shop, error) {
	if token == "" {
		return nil, shared.ErrNotFound
	}
	var model models.ShopModel
	if err := r.db.WithContext(ctx).First(&model, "auth_token = ?", token).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindMembership loads the seller's role in a shop
func (r *GormShopRepository) FindMembership(ctx context.Context, sellerID, shopID int64) (*shop.Membership, error) {
	var model models.SellerShopModel
	if err := r.db.WithContext(ctx).
		Where("seller_id = ? AND shop_id = ?", sellerID, shopID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// AddMember grants a seller a role in a shop, replacing any existing role
func (r *GormShopRepository) AddMember(ctx context.Context, m *shop.Membership) error {
	model := &models.SellerShopModel{SellerID: m.SellerID, ShopID: m.ShopID, Role: m.Role}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "seller_id"}, {Name: "shop_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(model).Error
}

// LoadConfig returns the shop's encrypted config blob
func (r *GormShopRepository) LoadConfig(ctx context.Context, shopID int64) (string, error) {
	var model models.ShopModel
	if err := r.db.WithContext(ctx).
		Select("id", "config").
		First(&model, "id = ?", shopID).Error; err != nil {
		return "", notFound(err)
	}
	return model.Config, nil
}

// SaveConfig replaces the shop's encrypted config blob
func (r *GormShopRepository) SaveConfig(ctx context.Context, shopID int64, blob string) error {
	result := r.db.WithContext(ctx).
		Model(&models.ShopModel{}).
		Where("id = ?", shopID).
		Update("config", blob)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// notFound maps gorm's missing-record error onto the domain sentinel
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
