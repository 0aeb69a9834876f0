package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rahulj/bank-settlement/internal/domain"
	"github.com/rahulj/bank-settlement/internal/models"
	"github.com/rahulj/bank-settlement/internal/service"
)

// TransferHandler exposes the settlement engine over HTTP.
type TransferHandler struct {
	settlements *service.SettlementService
	accounts    *service.AccountService
}

func NewTransferHandler(settlements *service.SettlementService, accounts *service.AccountService) *TransferHandler {
	return &TransferHandler{settlements: settlements, accounts: accounts}
}

type createTransferRequest struct {
	SourceAccountID string `json:"source_account_id"`
	BeneficiaryID   string `json:"beneficiary_id"`
	Amount          string `json:"amount"` // decimal rupees
	Channel         string `json:"channel"`
	ScheduleType    string `json:"schedule_type"`         // NOW or LATER
	ScheduleAt      string `json:"schedule_at,omitempty"` // RFC 3339, required iff LATER
	Remarks         string `json:"remarks,omitempty"`
}

// CreateTransfer drafts a transfer and, for immediate channels, finalizes it
// in-request so the caller gets a receipt. Deferred transfers return 202
// with the computed execution time.
func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	sourceID, err := uuid.Parse(req.SourceAccountID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid source_account_id")
		return
	}
	beneficiaryID, err := uuid.Parse(req.BeneficiaryID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-beneficiary-id", "Invalid beneficiary_id")
		return
	}

	amountPaise, err := domain.ParseAmount(req.Amount)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-amount", err.Error())
		return
	}

	var scheduleAt *time.Time
	if req.ScheduleAt != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduleAt)
		if err != nil {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-schedule", "schedule_at must be RFC 3339")
			return
		}
		scheduleAt = &t
	}

	account, err := h.accounts.GetAccount(r.Context(), sourceID)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			RespondError(w, r, http.StatusNotFound, "account/not-found", "Source account not found")
			return
		}
		zap.L().Error("account lookup failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "account/lookup-failed", "Failed to resolve account")
		return
	}
	if !isAdmin && account.CustomerID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	draft, err := h.settlements.CreateDraft(r.Context(), service.CreateDraftRequest{
		SourceAccountID: sourceID,
		BeneficiaryID:   beneficiaryID,
		AmountPaise:     amountPaise,
		Channel:         req.Channel,
		ScheduleType:    req.ScheduleType,
		ScheduleAt:      scheduleAt,
		Remarks:         req.Remarks,
	})
	if err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			RespondError(w, r, http.StatusUnprocessableEntity, "transfer/"+ve.Rule, ve.Message)
			return
		}
		zap.L().Error("create draft failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "transfer/draft-failed", "Failed to create transfer")
		return
	}

	// Deferred transfers are settled by the workers.
	if draft.Status == domain.TxStatusScheduled {
		RespondJSON(w, http.StatusAccepted, draft)
		return
	}

	settled, err := h.finalizeWithRetry(r, draft.ID)
	if err != nil {
		// Transport failure, not a decline: the draft stays PENDING and the
		// settlement worker will pick it up.
		zap.L().Error("in-request finalize failed, leaving draft pending",
			zap.Error(err), zap.String("transaction_id", draft.ID.String()))
		RespondJSON(w, http.StatusAccepted, draft)
		return
	}

	RespondJSON(w, http.StatusCreated, settled)
}

// finalizeWithRetry retries a transport failure once before giving up.
func (h *TransferHandler) finalizeWithRetry(r *http.Request, txID uuid.UUID) (*models.Transaction, error) {
	settled, err := h.settlements.Finalize(r.Context(), txID)
	if err == nil {
		return settled, nil
	}
	if r.Context().Err() != nil || errors.Is(err, models.ErrTransactionNotFound) {
		return nil, err
	}
	return h.settlements.Finalize(r.Context(), txID)
}

// GetTransfer returns the receipt projection for one transaction.
func (h *TransferHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	txID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-transaction-id", "Invalid transaction ID")
		return
	}

	tx, err := h.settlements.GetTransaction(r.Context(), txID)
	if err != nil {
		if errors.Is(err, models.ErrTransactionNotFound) {
			RespondError(w, r, http.StatusNotFound, "transfer/not-found", "Transaction not found")
			return
		}
		zap.L().Error("get transaction failed", zap.Error(err), zap.String("transaction_id", txID.String()))
		RespondError(w, r, http.StatusInternalServerError, "transfer/read-failed", "Failed to get transaction")
		return
	}

	if !isAdmin {
		account, err := h.accounts.GetAccount(r.Context(), tx.AccountID)
		if err != nil || account.CustomerID != actorID {
			RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
			return
		}
	}

	RespondJSON(w, http.StatusOK, tx)
}

// FinalizeTransfer is the admin re-drive: it forces a settlement attempt on
// a non-terminal transaction. Safe to repeat.
func (h *TransferHandler) FinalizeTransfer(w http.ResponseWriter, r *http.Request) {
	txID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-transaction-id", "Invalid transaction ID")
		return
	}

	tx, err := h.finalizeWithRetry(r, txID)
	if err != nil {
		if errors.Is(err, models.ErrTransactionNotFound) {
			RespondError(w, r, http.StatusNotFound, "transfer/not-found", "Transaction not found")
			return
		}
		zap.L().Error("finalize failed", zap.Error(err), zap.String("transaction_id", txID.String()))
		RespondError(w, r, http.StatusServiceUnavailable, "transfer/finalize-failed", "Settlement store unavailable, transaction left pending")
		return
	}

	RespondJSON(w, http.StatusOK, tx)
}
