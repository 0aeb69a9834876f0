package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rahulj/bank-settlement/internal/repository"
)

// A transaction takes exactly one terminal transition. SCHEDULED may fall
// back to PENDING when its batch window arrives; SUCCESS and FAILED admit
// nothing.
var transactionTransitions = map[string]map[string]struct{}{
	"PENDING": {
		"SUCCESS": {},
		"FAILED":  {},
	},
	"SCHEDULED": {
		"PENDING": {},
		"SUCCESS": {},
		"FAILED":  {},
	},
	"SUCCESS": {},
	"FAILED":  {},
}

func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

func canTransition(current, next string) bool {
	current = normalizeState(current)
	next = normalizeState(next)
	nextStates, ok := transactionTransitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}

// markTerminal writes the terminal state for a transaction and records the
// transition in the audit trail. The caller must hold the row lock.
func markTerminal(ctx context.Context, qtx *repository.Queries, audit *AuditService, txID uuid.UUID, current, next string, utr, failureReason *string, actorID *uuid.UUID, action string) error {
	if normalizeState(current) == normalizeState(next) {
		return nil
	}
	if !canTransition(current, next) {
		return fmt.Errorf("invalid transaction state transition: %s -> %s", current, next)
	}

	rows, err := qtx.MarkTransactionTerminal(ctx, txID, next, utr, failureReason)
	if err != nil {
		return fmt.Errorf("mark transaction terminal: %w", err)
	}
	if err := requireExactlyOne(rows, "mark transaction terminal"); err != nil {
		return err
	}

	return audit.Write(ctx, qtx, "transaction", txID, actorID, action, current, next, nil)
}
