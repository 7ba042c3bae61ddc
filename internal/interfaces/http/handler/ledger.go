package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ledgerapp "github.com/dshop/backend/internal/application/ledger"
	"github.com/dshop/backend/internal/domain/ledger"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/interfaces/http/middleware"
)

// EventResponse is the JSON view of a ledger event
type EventResponse struct {
	ID              int64           `json:"id"`
	ShopID          int64           `json:"shopId"`
	Network         int             `json:"networkId"`
	Address         string          `json:"address"`
	TransactionHash string          `json:"transactionHash"`
	BlockNumber     int64           `json:"blockNumber"`
	LogIndex        int             `json:"logIndex"`
	EventName       string          `json:"eventName"`
	ListingID       string          `json:"listingId"`
	OfferID         string          `json:"offerId"`
	IPFSHash        string          `json:"ipfsHash"`
	Data            json.RawMessage `json:"data"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TransactionResponse is the JSON view of a ledger transaction
type TransactionResponse struct {
	ID              int64     `json:"id"`
	ShopID          int64     `json:"shopId"`
	Network         int       `json:"networkId"`
	TransactionHash string    `json:"transactionHash"`
	FromAddress     string    `json:"fromAddress"`
	Type            string    `json:"type"`
	ListingID       string    `json:"listingId"`
	OfferID         string    `json:"offerId"`
	IPFSHash        string    `json:"ipfsHash"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// LedgerHandler serves the read-only event and transaction routes
type LedgerHandler struct {
	BaseHandler
	service *ledgerapp.Service
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(service *ledgerapp.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// ListEvents godoc
// @Summary      List events
// @Description  List every event recorded for the authenticated shop
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        X-Shop-Auth header string true "Shop auth token"
// @Success      200 {array} EventResponse
// @Failure      401 {object} dto.Result
// @Failure      403 {object} dto.Result
// @Router       /events [get]
func (h *LedgerHandler) ListEvents(c *gin.Context) {
	shop := middleware.GetShop(c)
	if shop == nil {
		h.HandleError(c, shared.ErrUnauthorized)
		return
	}

	events, err := h.service.ListEvents(c.Request.Context(), shop.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]EventResponse, len(events))
	for i := range events {
		resp[i] = toEventResponse(&events[i])
	}
	c.JSON(http.StatusOK, resp)
}

// ListTransactions godoc
// @Summary      List transactions
// @Description  List every transaction submitted for the authenticated shop
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        X-Shop-Auth header string true "Shop auth token"
// @Success      200 {array} TransactionResponse
// @Failure      401 {object} dto.Result
// @Router       /transactions [get]
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	shop := middleware.GetShop(c)
	if shop == nil {
		h.HandleError(c, shared.ErrUnauthorized)
		return
	}

	txs, err := h.service.ListTransactions(c.Request.Context(), shop.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]TransactionResponse, len(txs))
	for i := range txs {
		resp[i] = toTransactionResponse(&txs[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GetEvent godoc
// @Summary      Get event reference
// @Description  Look up an event by transaction hash. Returns null when there is none.
// @Tags         ledger
// @Produce      json
// @Param        txId path string true "Transaction hash"
// @Success      200 {object} ledger.Reference
// @Router       /events/{txId} [get]
func (h *LedgerHandler) GetEvent(c *gin.Context) {
	ref, err := h.service.EventReference(c.Request.Context(), c.Param("txId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if ref == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte("null"))
		return
	}
	c.JSON(http.StatusOK, ref)
}

func toEventResponse(e *ledger.Event) EventResponse {
	return EventResponse{
		ID:              e.ID,
		ShopID:          e.ShopID,
		Network:         e.Network,
		Address:         e.Address,
		TransactionHash: e.TransactionHash,
		BlockNumber:     e.BlockNumber,
		LogIndex:        e.LogIndex,
		EventName:       e.EventName,
		ListingID:       e.ListingID,
		OfferID:         e.OfferID,
		IPFSHash:        e.IPFSHash,
		Data:            e.Data,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toTransactionResponse(t *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		ShopID:          t.ShopID,
		Network:         t.Network,
		TransactionHash: t.TransactionHash,
		FromAddress:     t.FromAddress,
		Type:            t.Type,
		ListingID:       t.ListingID,
		OfferID:         t.OfferID,
		IPFSHash:        t.IPFSHash,
		Status:          t.Status,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}
