package models

import (
	"time"

	"github.com/dshop/backend/internal/domain/identity"
	"github.com/dshop/backend/internal/domain/shop"
)

// SellerModel is the persistence model for the Seller domain entity.
type SellerModel struct {
	BaseModel
	Name          string `gorm:"type:varchar(255)"`
	Email         string `gorm:"type:varchar(255);uniqueIndex"`
	Password      string `gorm:"type:varchar(255)"`
	Superuser     bool   `gorm:"not null;default:false"`
	EmailVerified bool   `gorm:"not null;default:false"`
	Data          string `gorm:"type:jsonb;not null;default:'{}'"`
}

// TableName returns the table name for GORM
func (SellerModel) TableName() string {
	return "sellers"
}

// ToDomain converts the persistence model to a domain Seller entity.
func (m *SellerModel) ToDomain() *identity.Seller {
	return &identity.Seller{
		BaseEntity:    m.BaseModel.ToDomain(),
		Name:          m.Name,
		Email:         m.Email,
		PasswordHash:  m.Password,
		Superuser:     m.Superuser,
		EmailVerified: m.EmailVerified,
		Data:          jsonColumn(m.Data),
	}
}

// SellerModelFromDomain creates a persistence model from a domain Seller entity.
func SellerModelFromDomain(s *identity.Seller) *SellerModel {
	m := &SellerModel{
		Name:          s.Name,
		Email:         s.Email,
		Password:      s.PasswordHash,
		Superuser:     s.Superuser,
		EmailVerified: s.EmailVerified,
		Data:          jsonText(s.Data),
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// ShopModel is the persistence model for the Shop domain entity.
type ShopModel struct {
	BaseModel
	Name      string `gorm:"type:varchar(255)"`
	AuthToken string `gorm:"type:varchar(255);uniqueIndex"`
	Config    string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ShopModel) TableName() string {
	return "shops"
}

// ToDomain converts the persistence model to a domain Shop entity.
func (m *ShopModel) ToDomain() *shop.Shop {
	return &shop.Shop{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		AuthToken:  m.AuthToken,
		Config:     m.Config,
	}
}

// ShopModelFromDomain creates a persistence model from a domain Shop entity.
func ShopModelFromDomain(s *shop.Shop) *ShopModel {
	m := &ShopModel{
		Name:      s.Name,
		AuthToken: s.AuthToken,
		Config:    s.Config,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// SellerShopModel links a seller to a shop with a role
type SellerShopModel struct {
	SellerID  int64     `gorm:"primaryKey"`
	ShopID    int64     `gorm:"primaryKey"`
	Role      shop.Role `gorm:"type:varchar(20);not null;default:'basic'"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SellerShopModel) TableName() string {
	return "seller_shops"
}

// ToDomain converts the persistence model to a domain Membership.
func (m *SellerShopModel) ToDomain() *shop.Membership {
	return &shop.Membership{
		SellerID: m.SellerID,
		ShopID:   m.ShopID,
		Role:     m.Role,
	}
}
