package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rahulj/bank-settlement/internal/api/middleware"
	"github.com/rahulj/bank-settlement/internal/repository"
)

// AuthHandler issues short-lived bearer tokens. Login is by customer ID,
// there is no password store in this deployment.
type AuthHandler struct {
	store *repository.Store
}

func NewAuthHandler(store *repository.Store) *AuthHandler {
	return &AuthHandler{store: store}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	cid, err := uuid.Parse(req.CustomerID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-customer-id", "Invalid customer_id")
		return
	}

	customer, err := h.store.Queries().GetCustomer(r.Context(), cid)
	if err != nil {
		RespondError(w, r, http.StatusNotFound, "customer/not-found", "Customer not found")
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": cid.String(),
		"role":    customer.Role,
		"sub":     cid.String(),
		"iat":     now.Unix(),
		"exp":     now.Add(24 * time.Hour).Unix(),
	}
	if iss := middleware.JWTIssuer(); iss != "" {
		claims["iss"] = iss
	}
	if aud := middleware.JWTAudience(); aud != "" {
		claims["aud"] = aud
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(middleware.JWTSecret())
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "auth/token-signing-failed", "Failed to sign token")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}
