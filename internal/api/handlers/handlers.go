package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/wealth-ledger/internal/api/middleware"
	"github.com/dvloznov/wealth-ledger/internal/domain"
	"github.com/dvloznov/wealth-ledger/internal/scanner"
)

// maxReceiptBytes caps the accepted receipt image payload.
const maxReceiptBytes = 10 << 20 // 10 MiB

// LedgerEngine is the transaction engine surface the handlers need.
type LedgerEngine interface {
	Create(ctx context.Context, callerID string, draft domain.TransactionDraft) (*domain.Transaction, error)
	Update(ctx context.Context, callerID, transactionID string, draft domain.TransactionDraft) (*domain.Transaction, error)
	Get(ctx context.Context, callerID, transactionID string) (*domain.Transaction, error)
}

// ReceiptArchiver stores the original receipt image and returns its URI.
type ReceiptArchiver interface {
	Store(ctx context.Context, imageBytes []byte, mimeType string) (string, error)
}

// TransactionsHandler handles ledger-entry endpoints.
type TransactionsHandler struct {
	engine LedgerEngine
	log    zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(engine LedgerEngine, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{engine: engine, log: log}
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.UserIDFromContext(ctx)

	var draft domain.TransactionDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.engine.Create(ctx, callerID, draft)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, entry)
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()
	callerID := middleware.UserIDFromContext(ctx)

	var draft domain.TransactionDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.engine.Update(ctx, callerID, transactionID, draft)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, entry)
}

// GetTransaction handles GET /api/transactions/{id}
func (h *TransactionsHandler) GetTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()
	callerID := middleware.UserIDFromContext(ctx)

	entry, err := h.engine.Get(ctx, callerID, transactionID)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, entry)
}

// ReceiptsHandler handles receipt scanning endpoints.
type ReceiptsHandler struct {
	scanner scanner.Scanner
	archive ReceiptArchiver // nil disables archiving
	log     zerolog.Logger
}

// NewReceiptsHandler creates a new receipts handler.
func NewReceiptsHandler(sc scanner.Scanner, archive ReceiptArchiver, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{scanner: sc, archive: archive, log: log}
}

// ScanReceipt handles POST /api/receipts/scan. The request body is the raw
// image; Content-Type carries its MIME type.
func (h *ReceiptsHandler) ScanReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mimeType := r.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	imageBytes, err := io.ReadAll(io.LimitReader(r.Body, maxReceiptBytes+1))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read image body")
		return
	}
	if len(imageBytes) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Image body is required")
		return
	}
	if len(imageBytes) > maxReceiptBytes {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Image exceeds the size limit")
		return
	}

	candidate, err := h.scanner.Scan(ctx, imageBytes, mimeType)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	var receiptURI string
	if h.archive != nil && candidate != nil {
		receiptURI, err = h.archive.Store(ctx, imageBytes, mimeType)
		if err != nil {
			// Archiving is best-effort; the candidate entry still stands.
			h.log.Error().Err(err).Msg("Failed to archive receipt image")
			receiptURI = ""
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entry":       candidate, // null when the image is not a receipt
		"receipt_uri": receiptURI,
	})
}

// writeDomainError maps the engine's failure kinds onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		middleware.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrExternalService):
		middleware.WriteError(w, http.StatusBadGateway, err.Error())
	default:
		log.Error().Err(err).Msg("Unhandled error")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
