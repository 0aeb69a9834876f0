package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rahulj/bank-settlement/internal/domain"
	"github.com/rahulj/bank-settlement/internal/models"
	"github.com/rahulj/bank-settlement/internal/repository"
	"github.com/rahulj/bank-settlement/internal/service"
)

// AccountHandler serves account balances and statements.
type AccountHandler struct {
	accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type balanceResponse struct {
	AccountID     uuid.UUID `json:"account_id"`
	AccountNumber string    `json:"account_number"`
	AccountType   string    `json:"account_type"`
	Status        string    `json:"status"`
	BalancePaise  int64     `json:"balance_paise"`
	Balance       string    `json:"balance"`
}

// ListAccounts returns the calling customer's accounts.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	accounts, err := h.accounts.ListByCustomer(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list accounts failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "account/list-failed", "Failed to list accounts")
		return
	}

	out := make([]balanceResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, balanceResponse{
			AccountID:     a.ID,
			AccountNumber: a.AccountNumber,
			AccountType:   a.AccountType,
			Status:        a.Status,
			BalancePaise:  a.BalancePaise,
			Balance:       domain.FormatPaise(a.BalancePaise),
		})
	}
	RespondJSON(w, http.StatusOK, out)
}

// GetBalance returns the current balance of one account.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := h.ownedAccount(w, r)
	if !ok {
		return
	}

	RespondJSON(w, http.StatusOK, balanceResponse{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		AccountType:   account.AccountType,
		Status:        account.Status,
		BalancePaise:  account.BalancePaise,
		Balance:       domain.FormatPaise(account.BalancePaise),
	})
}

// GetStatement returns the account's transaction history, newest first.
// Supports status, type and channel filters plus limit/offset paging.
func (h *AccountHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	account, ok := h.ownedAccount(w, r)
	if !ok {
		return
	}

	filter := repository.TransactionFilter{
		Status:  r.URL.Query().Get("status"),
		Type:    r.URL.Query().Get("type"),
		Channel: r.URL.Query().Get("channel"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-limit", "limit must be between 1 and 500")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-offset", "offset must be non-negative")
			return
		}
		filter.Offset = n
	}

	txs, err := h.accounts.Statement(r.Context(), account.ID, filter)
	if err != nil {
		zap.L().Error("statement failed", zap.Error(err), zap.String("account_id", account.ID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/statement-failed", "Failed to load statement")
		return
	}
	RespondJSON(w, http.StatusOK, txs)
}

// ownedAccount resolves the {id} path param and enforces that the caller
// owns the account (admins may read any account).
func (h *AccountHandler) ownedAccount(w http.ResponseWriter, r *http.Request) (*models.Account, bool) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return nil, false
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid account ID")
		return nil, false
	}

	account, err := h.accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			RespondError(w, r, http.StatusNotFound, "account/not-found", "Account not found")
			return nil, false
		}
		zap.L().Error("get account failed", zap.Error(err), zap.String("account_id", accountID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/read-failed", "Failed to get account")
		return nil, false
	}

	if !isAdmin && account.CustomerID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return nil, false
	}
	return account, true
}
