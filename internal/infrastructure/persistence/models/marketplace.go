package models

import (
	"github.com/dshop/backend/internal/domain/ledger"
	"github.com/dshop/backend/internal/domain/order"
)

// OrderModel is the persistence model for the Order domain entity.
type OrderModel struct {
	ShopScopedModel
	OrderID string `gorm:"type:varchar(255);not null;index"`
	Network int
	Status  string `gorm:"type:varchar(50)"`
	Data    string `gorm:"type:jsonb;not null;default:'{}'"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *order.Order {
	return &order.Order{
		BaseEntity: m.BaseModel.ToDomain(),
		ShopID:     m.ShopID,
		OrderID:    m.OrderID,
		Network:    m.Network,
		Status:     m.Status,
		Data:       jsonColumn(m.Data),
	}
}

// OrderModelFromDomain creates a persistence model from a domain Order entity.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		OrderID: o.OrderID,
		Network: o.Network,
		Status:  o.Status,
		Data:    jsonText(o.Data),
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	m.ShopID = o.ShopID
	return m
}

// EventModel is the persistence model for a recorded blockchain event.
type EventModel struct {
	ShopScopedModel
	Network         int
	Address         string `gorm:"type:varchar(255)"`
	TransactionHash string `gorm:"type:varchar(255);index"`
	BlockNumber     int64
	LogIndex        int
	EventName       string `gorm:"type:varchar(255)"`
	ListingID       string `gorm:"type:varchar(255)"`
	OfferID         string `gorm:"type:varchar(255)"`
	IPFSHash        string `gorm:"column:ipfs_hash;type:varchar(255)"`
	Data            string `gorm:"type:jsonb;not null;default:'{}'"`
}

// TableName returns the table name for GORM
func (EventModel) TableName() string {
	return "events"
}

// ToDomain converts the persistence model to a domain Event.
func (m *EventModel) ToDomain() ledger.Event {
	return ledger.Event{
		BaseEntity:      m.BaseModel.ToDomain(),
		ShopID:          m.ShopID,
		Network:         m.Network,
		Address:         m.Address,
		TransactionHash: m.TransactionHash,
		BlockNumber:     m.BlockNumber,
		LogIndex:        m.LogIndex,
		EventName:       m.EventName,
		ListingID:       m.ListingID,
		OfferID:         m.OfferID,
		IPFSHash:        m.IPFSHash,
		Data:            jsonColumn(m.Data),
	}
}

// EventModelFromDomain creates a persistence model from a domain Event.
func EventModelFromDomain(e *ledger.Event) *EventModel {
	m := &EventModel{
		Network:         e.Network,
		Address:         e.Address,
		TransactionHash: e.TransactionHash,
		BlockNumber:     e.BlockNumber,
		LogIndex:        e.LogIndex,
		EventName:       e.EventName,
		ListingID:       e.ListingID,
		OfferID:         e.OfferID,
		IPFSHash:        e.IPFSHash,
		Data:            jsonText(e.Data),
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	m.ShopID = e.ShopID
	return m
}

// TransactionModel is the persistence model for an on-chain transaction.
type TransactionModel struct {
	ShopScopedModel
	Network         int
	TransactionHash string `gorm:"type:varchar(255);index"`
	FromAddress     string `gorm:"type:varchar(255)"`
	Type            string `gorm:"type:varchar(50)"`
	ListingID       string `gorm:"type:varchar(255)"`
	OfferID         string `gorm:"type:varchar(255)"`
	IPFSHash        string `gorm:"column:ipfs_hash;type:varchar(255)"`
	Status          string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *TransactionModel) ToDomain() ledger.Transaction {
	return ledger.Transaction{
		BaseEntity:      m.BaseModel.ToDomain(),
		ShopID:          m.ShopID,
		Network:         m.Network,
		TransactionHash: m.TransactionHash,
		FromAddress:     m.FromAddress,
		Type:            m.Type,
		ListingID:       m.ListingID,
		OfferID:         m.OfferID,
		IPFSHash:        m.IPFSHash,
		Status:          m.Status,
	}
}

// AllModels lists every model, in dependency order, for AutoMigrate
func AllModels() []any {
	return []any{
		&SellerModel{},
		&ShopModel{},
		&SellerShopModel{},
		&OrderModel{},
		&EventModel{},
		&TransactionModel{},
	}
}
