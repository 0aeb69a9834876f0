package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/rahulj/bank-settlement/internal/models"
)

// BeneficiaryService manages payees. The engine only ever reads them back;
// the verified flag is set at registration, as the source system does.
type BeneficiaryService struct {
	store QueryStore
}

func NewBeneficiaryService(store QueryStore) *BeneficiaryService {
	return &BeneficiaryService{store: store}
}

var ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

// CreateBeneficiaryRequest holds the payee registration payload.
type CreateBeneficiaryRequest struct {
	CustomerID    uuid.UUID
	Name          string
	Bank          string
	AccountNumber string
	IFSC          string
}

func (r CreateBeneficiaryRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Bank) == "" {
		return errors.New("bank is required")
	}
	if strings.TrimSpace(r.AccountNumber) == "" {
		return errors.New("account_number is required")
	}
	if !ifscPattern.MatchString(r.IFSC) {
		return errors.New("ifsc must match the 11-character IFSC format")
	}
	return nil
}

func (s *BeneficiaryService) Create(ctx context.Context, req CreateBeneficiaryRequest) (*models.Beneficiary, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	b := &models.Beneficiary{
		ID:            uuid.New(),
		CustomerID:    req.CustomerID,
		Name:          strings.TrimSpace(req.Name),
		Bank:          strings.TrimSpace(req.Bank),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		IFSC:          req.IFSC,
		Verified:      true,
	}
	if err := s.store.Queries().CreateBeneficiary(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BeneficiaryService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Beneficiary, error) {
	return s.store.Queries().ListBeneficiariesByCustomer(ctx, customerID)
}
