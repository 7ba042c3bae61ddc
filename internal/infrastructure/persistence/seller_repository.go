package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/dshop/backend/internal/domain/identity"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/infrastructure/persistence/models"
)

// GormSellerRepository implements identity.SellerRepository using GORM
type GormSellerRepository struct {
	db *gorm.DB
}

var _ identity.SellerRepository = (*GormSellerRepository)(nil)

// NewGormSellerRepository creates a new GormSellerRepository
func NewGormSellerRepository(db *gorm.DB) *GormSellerRepository {
	return &GormSellerRepository{db: db}
}

// Create inserts a new seller
func (r *GormSellerRepository) Create(ctx context.Context, seller *identity.Seller) error {
	model := models.SellerModelFromDomain(seller)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	seller.BaseEntity = model.BaseModel.ToDomain()
	return nil
}

// FindByID finds a seller by ID
func (r *GormSellerRepository) FindByID(ctx context.Context, id int64) (*identity.Seller, error) {
	var model models.SellerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a seller by email, case-insensitively
func (r *GormSellerRepository) FindByEmail(ctx context.Context, email string) (*identity.Seller, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, shared.ErrNotFound
	}
	var model models.SellerModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", email).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}
