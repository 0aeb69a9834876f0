package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/rahulj/bank-settlement/internal/service"
)

// BeneficiaryHandler manages the caller's registered payees.
type BeneficiaryHandler struct {
	beneficiaries *service.BeneficiaryService
}

func NewBeneficiaryHandler(beneficiaries *service.BeneficiaryService) *BeneficiaryHandler {
	return &BeneficiaryHandler{beneficiaries: beneficiaries}
}

type createBeneficiaryRequest struct {
	Name          string `json:"name"`
	Bank          string `json:"bank"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
}

func (h *BeneficiaryHandler) CreateBeneficiary(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req createBeneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	b, err := h.beneficiaries.Create(r.Context(), service.CreateBeneficiaryRequest{
		CustomerID:    actorID,
		Name:          req.Name,
		Bank:          req.Bank,
		AccountNumber: req.AccountNumber,
		IFSC:          req.IFSC,
	})
	if err != nil {
		if status, problemType, message, ok := mapDBError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		RespondError(w, r, http.StatusUnprocessableEntity, "beneficiary/invalid", err.Error())
		return
	}

	RespondJSON(w, http.StatusCreated, b)
}

func (h *BeneficiaryHandler) ListBeneficiaries(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	out, err := h.beneficiaries.ListByCustomer(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list beneficiaries failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "beneficiary/list-failed", "Failed to list beneficiaries")
		return
	}
	RespondJSON(w, http.StatusOK, out)
}
