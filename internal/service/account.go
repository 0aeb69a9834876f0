package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/rahulj/bank-settlement/internal/models"
	"github.com/rahulj/bank-settlement/internal/repository"
)

// AccountService serves read-only account projections for the API surface.
type AccountService struct {
	store QueryStore
}

func NewAccountService(store QueryStore) *AccountService {
	return &AccountService{store: store}
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.store.Queries().GetAccount(ctx, id)
}

func (s *AccountService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Account, error) {
	return s.store.Queries().ListAccountsByCustomer(ctx, customerID)
}

// Statement returns the account's ledger entries, newest first.
func (s *AccountService) Statement(ctx context.Context, accountID uuid.UUID, filter repository.TransactionFilter) ([]models.Transaction, error) {
	return s.store.Queries().ListTransactionsByAccount(ctx, accountID, filter)
}
