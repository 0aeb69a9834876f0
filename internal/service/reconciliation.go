package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rahulj/bank-settlement/internal/observability"
)

// ReconciliationService verifies the credit-pairing invariant: every
// SUCCESS DEBIT must have exactly one SUCCESS CREDIT of equal amount
// sharing its UTR.
type ReconciliationService struct {
	store QueryStore
}

func NewReconciliationService(store QueryStore) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// Run reports every settled debit whose credit leg is missing or diverged.
func (s *ReconciliationService) Run(ctx context.Context) error {
	unpaired, err := s.store.Queries().ListUnpairedDebits(ctx)
	if err != nil {
		return fmt.Errorf("query unpaired debits: %w", err)
	}

	if len(unpaired) == 0 {
		zap.L().Info("ledger reconciled, all settled debits paired")
		return nil
	}

	for _, u := range unpaired {
		observability.IncrementUnpairedDebit()
		utr := ""
		if u.UTR != nil {
			utr = *u.UTR
		}
		zap.L().Error("CRITICAL: settled debit without a matching credit leg",
			zap.String("transaction_id", u.ID.String()),
			zap.Int64("amount_paise", u.AmountPaise),
			zap.String("utr", utr),
		)
	}
	return nil
}
