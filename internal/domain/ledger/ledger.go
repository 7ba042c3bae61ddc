package ledger

import (
	"context"
	"encoding/json"

	"github.com/dshop/backend/internal/domain/shared"
)

// Event is a blockchain event recorded against a shop
type Event struct {
	shared.BaseEntity
	ShopID          int64
	Network         int
	Address         string
	TransactionHash string
	BlockNumber     int64
	LogIndex        int
	EventName       string
	ListingID       string
	OfferID         string
	IPFSHash        string
	Data            json.RawMessage
}

// Reference is the public projection of an event: the content address of
// its payload and the transaction that emitted it
type Reference struct {
	IPFSHash        string `json:"ipfsHash"`
	TransactionHash string `json:"transactionHash"`
}

// Reference projects the event down to its public reference fields
func (e *Event) Reference() *Reference {
	if e == nil {
		return nil
	}
	return &Reference{
		IPFSHash:        e.IPFSHash,
		TransactionHash: e.TransactionHash,
	}
}

// Transaction is an on-chain transaction submitted on behalf of a shop
type Transaction struct {
	shared.BaseEntity
	ShopID          int64
	Network         int
	TransactionHash string
	FromAddress     string
	Type            string
	ListingID       string
	OfferID         string
	IPFSHash        string
	Status          string
}

// EventRepository reads persisted events
type EventRepository interface {
	FindAllForShop(ctx context.Context, shopID int64) ([]Event, error)
	FindByTransactionHash(ctx context.Context, txHash string) (*Event, error)
}

// TransactionRepository reads persisted transactions
type TransactionRepository interface {
	FindAllForShop(ctx context.Context, shopID int64) ([]Transaction, error)
}
