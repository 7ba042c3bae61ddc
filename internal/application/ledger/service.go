// Package ledger exposes the read side of shop events and transactions.
package ledger

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/dshop/backend/internal/domain/ledger"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/infrastructure/telemetry"
)

// Service reads persisted ledger rows
type Service struct {
	events       ledger.EventRepository
	transactions ledger.TransactionRepository
	logger       *zap.Logger
}

// NewService creates a new ledger service
func NewService(events ledger.EventRepository, transactions ledger.TransactionRepository, logger *zap.Logger) *Service {
	return &Service{
		events:       events,
		transactions: transactions,
		logger:       logger,
	}
}

// ListEvents returns every event recorded for the shop, oldest first
func (s *Service) ListEvents(ctx context.Context, shopID int64) ([]ledger.Event, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "list_events",
		telemetry.WithAttribute(telemetry.SpanAttrShopID, shopID),
	)
	defer span.End()

	events, err := s.events.FindAllForShop(ctx, shopID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if events == nil {
		events = []ledger.Event{}
	}
	telemetry.SetOK(span)
	return events, nil
}

// ListTransactions returns every transaction submitted for the shop
func (s *Service) ListTransactions(ctx context.Context, shopID int64) ([]ledger.Transaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "list_transactions",
		telemetry.WithAttribute(telemetry.SpanAttrShopID, shopID),
	)
	defer span.End()

	txs, err := s.transactions.FindAllForShop(ctx, shopID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}
	telemetry.SetOK(span)
	return txs, nil
}

// EventReference looks up the event emitted by a transaction. A nil reference
// with a nil error means no event matched.
func (s *Service) EventReference(ctx context.Context, txHash string) (*ledger.Reference, error) {
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return nil, nil
	}

	event, err := s.events.FindByTransactionHash(ctx, txHash)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("Failed to look up event by transaction hash",
			zap.String("transaction_hash", txHash),
			zap.Error(err),
		)
		return nil, err
	}
	return event.Reference(), nil
}
