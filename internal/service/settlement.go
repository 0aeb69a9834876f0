package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rahulj/bank-settlement/internal/domain"
	"github.com/rahulj/bank-settlement/internal/models"
	"github.com/rahulj/bank-settlement/internal/observability"
	"github.com/rahulj/bank-settlement/internal/repository"
)

// SettlementService owns the transfer lifecycle: draft a PENDING/SCHEDULED
// ledger entry, then finalize it into exactly one terminal state. Balances
// move only inside Finalize, and only once per transaction.
type SettlementService struct {
	store QueryStore
	audit *AuditService

	// requireVerified gates the beneficiary verification check in Finalize.
	requireVerified bool
}

func NewSettlementService(store QueryStore, requireVerified bool) *SettlementService {
	return &SettlementService{
		store:           store,
		audit:           NewAuditService(store),
		requireVerified: requireVerified,
	}
}

const maxRemarksLen = 140

// CreateDraftRequest carries the transfer parameters collected from the caller.
type CreateDraftRequest struct {
	SourceAccountID uuid.UUID
	BeneficiaryID   uuid.UUID
	AmountPaise     int64
	Channel         string
	ScheduleType    string     // NOW or LATER
	ScheduleAt      *time.Time // required iff LATER
	Remarks         string
}

// CreateDraft validates a transfer request and persists the pending DEBIT
// leg. It never touches balances. Deferred transfers (LATER, and every NEFT
// transfer via batch alignment) come back SCHEDULED with a non-nil
// ScheduledFor; immediate ones come back PENDING.
func (s *SettlementService) CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Transaction, error) {
	if req.AmountPaise <= 0 {
		return nil, validationErr(RuleInvalidAmount, "amount must be positive")
	}
	if !domain.IsChannel(req.Channel) {
		return nil, validationErr(RuleUnknownChannel, "unknown transfer channel %q", req.Channel)
	}
	if len(req.Remarks) > maxRemarksLen {
		return nil, validationErr(RuleRemarksTooLong, "remarks must be within %d characters", maxRemarksLen)
	}

	now := time.Now()
	switch req.ScheduleType {
	case domain.ScheduleNow:
	case domain.ScheduleLater:
		if !domain.SupportsScheduling(req.Channel) {
			return nil, validationErr(RuleUnsupportedSchedule, "%s transfers execute immediately and cannot be scheduled", req.Channel)
		}
		if req.ScheduleAt == nil {
			return nil, validationErr(RuleMissingSchedule, "schedule time is required for deferred transfers")
		}
		if req.ScheduleAt.Before(now) {
			return nil, validationErr(RuleScheduleInPast, "schedule time must not be in the past")
		}
	default:
		return nil, validationErr(RuleUnsupportedSchedule, "schedule type must be NOW or LATER, got %q", req.ScheduleType)
	}

	limits, err := domain.LimitsFor(req.Channel)
	if err != nil {
		return nil, validationErr(RuleUnknownChannel, "%v", err)
	}
	if req.AmountPaise < limits.Min {
		return nil, validationErr(RuleBelowMinimum, "amount below %s minimum of %s", req.Channel, domain.FormatPaise(limits.Min))
	}
	if req.AmountPaise > limits.Max {
		return nil, validationErr(RuleAboveMaximum, "amount above %s maximum of %s", req.Channel, domain.FormatPaise(limits.Max))
	}

	queries := s.store.Queries()

	account, err := queries.GetAccount(ctx, req.SourceAccountID)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return nil, validationErr(RuleAccountNotFound, "source account %s not found", req.SourceAccountID)
		}
		return nil, fmt.Errorf("resolve source account: %w", err)
	}
	if account.Status == domain.AccountStatusFrozen {
		return nil, validationErr(RuleSourceAccountFrozen, "source account %s is frozen", account.AccountNumber)
	}

	beneficiary, err := queries.GetBeneficiary(ctx, req.BeneficiaryID)
	if err != nil {
		if errors.Is(err, models.ErrBeneficiaryNotFound) {
			return nil, validationErr(RuleBeneficiaryNotFound, "beneficiary %s not found", req.BeneficiaryID)
		}
		return nil, fmt.Errorf("resolve beneficiary: %w", err)
	}
	if beneficiary.CustomerID != account.CustomerID {
		return nil, validationErr(RuleBeneficiaryNotFound, "beneficiary %s not found", req.BeneficiaryID)
	}

	scheduledFor := effectiveExecutionTime(req.Channel, req.ScheduleType, req.ScheduleAt, now)
	status := domain.TxStatusPending
	if scheduledFor != nil {
		status = domain.TxStatusScheduled
	}

	benID := beneficiary.ID
	tx := &models.Transaction{
		ID:                        uuid.New(),
		AccountID:                 account.ID,
		BeneficiaryID:             &benID,
		Type:                      domain.TxTypeDebit,
		Channel:                   req.Channel,
		AmountPaise:               req.AmountPaise,
		ChargesPaise:              domain.ChargesFor(req.Channel),
		Status:                    status,
		ScheduledFor:              scheduledFor,
		CounterpartyAccountNumber: beneficiary.AccountNumber,
		Remarks:                   req.Remarks,
	}

	err = s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		if err := qtx.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		metadata, _ := json.Marshal(map[string]any{
			"channel":       req.Channel,
			"schedule_type": req.ScheduleType,
		})
		return s.audit.Write(ctx, qtx, "transaction", tx.ID, nil, "created", "", status, metadata)
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementDraftCreated(req.Channel, status)
	return tx, nil
}

// effectiveExecutionTime computes when a transfer actually runs. NEFT always
// lands on the next half-hour batch boundary; other channels run at the
// requested time, or immediately (nil) for NOW.
func effectiveExecutionTime(channel, scheduleType string, scheduleAt *time.Time, now time.Time) *time.Time {
	if channel == domain.ChannelNEFT {
		base := now
		if scheduleType == domain.ScheduleLater && scheduleAt != nil {
			base = *scheduleAt
		}
		batch := domain.NextBatchWindow(base)
		return &batch
	}
	if scheduleType == domain.ScheduleLater && scheduleAt != nil {
		t := *scheduleAt
		return &t
	}
	return nil
}

// Finalize drives a drafted transaction to its terminal state. Re-invoking
// on a terminal transaction is a safe no-op that returns the recorded
// outcome. The whole step — checks, debit, paired credit, status write —
// runs in one database transaction with both account rows locked, so a
// decline or a crash leaves balances untouched.
func (s *SettlementService) Finalize(ctx context.Context, txID uuid.UUID) (*models.Transaction, error) {
	var result *models.Transaction

	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		tx, err := qtx.GetTransactionForUpdate(ctx, txID)
		if err != nil {
			return err
		}
		if tx.Type != domain.TxTypeDebit {
			return fmt.Errorf("transaction %s is a %s leg and cannot be finalized", txID, tx.Type)
		}
		if tx.Terminal() {
			result = tx
			return nil
		}

		decline := func(reason string) error {
			r := reason
			if err := markTerminal(ctx, qtx, s.audit, tx.ID, tx.Status, domain.TxStatusFailed, nil, &r, nil, "declined"); err != nil {
				return err
			}
			tx.Status = domain.TxStatusFailed
			tx.FailureReason = &r
			result = tx
			observability.IncrementSettlement(tx.Channel, domain.TxStatusFailed)
			zap.L().Info("transfer declined",
				zap.String("transaction_id", tx.ID.String()),
				zap.String("channel", tx.Channel),
				zap.String("reason", reason),
			)
			return nil
		}

		// Resolve all parties first, then lock account rows in sorted id
		// order so opposing transfers cannot deadlock.
		source, err := qtx.GetAccount(ctx, tx.AccountID)
		if err != nil && !errors.Is(err, models.ErrAccountNotFound) {
			return err
		}

		var beneficiary *models.Beneficiary
		if tx.BeneficiaryID != nil {
			beneficiary, err = qtx.GetBeneficiary(ctx, *tx.BeneficiaryID)
			if err != nil && !errors.Is(err, models.ErrBeneficiaryNotFound) {
				return err
			}
		}

		var receiver *models.Account
		if beneficiary != nil {
			receiver, err = qtx.GetAccountByNumber(ctx, beneficiary.AccountNumber)
			if err != nil && !errors.Is(err, models.ErrAccountNotFound) {
				return err
			}
		}

		source, receiver, err = lockAccountPair(ctx, qtx, source, receiver)
		if err != nil {
			return err
		}

		// Deterministic checks, first failure wins.
		if source == nil {
			return decline(ReasonSourceAccountNotFound)
		}
		if source.BalancePaise < tx.AmountPaise {
			return decline(ReasonInsufficientBalance)
		}
		if domain.CheckLimits(tx.Channel, tx.AmountPaise) != nil {
			return decline(reasonLimitViolation(tx.Channel))
		}
		if beneficiary == nil || (s.requireVerified && !beneficiary.Verified) {
			return decline(ReasonBeneficiaryUnverified)
		}
		if receiver == nil {
			return decline(ReasonBeneficiaryAccountGone)
		}

		rows, err := qtx.AdjustAccountBalance(ctx, source.ID, -tx.AmountPaise)
		if err != nil {
			return fmt.Errorf("debit source account: %w", err)
		}
		if err := requireExactlyOne(rows, "debit source account"); err != nil {
			return err
		}

		utr := domain.NewUTR()
		credit := &models.Transaction{
			ID:                        uuid.New(),
			AccountID:                 receiver.ID,
			Type:                      domain.TxTypeCredit,
			Channel:                   tx.Channel,
			AmountPaise:               tx.AmountPaise,
			Status:                    domain.TxStatusSuccess,
			UTR:                       &utr,
			CounterpartyAccountNumber: source.AccountNumber,
			SourceTxID:                &tx.ID,
			Remarks:                   tx.Remarks,
		}

		inserted, err := qtx.InsertCreditLeg(ctx, credit)
		if err != nil {
			return err
		}
		if inserted {
			rows, err = qtx.AdjustAccountBalance(ctx, receiver.ID, tx.AmountPaise)
			if err != nil {
				return fmt.Errorf("credit receiver account: %w", err)
			}
			if err := requireExactlyOne(rows, "credit receiver account"); err != nil {
				return err
			}
		} else {
			// A credit for this debit already exists; reuse its reference so
			// both legs keep sharing one UTR.
			existing, err := qtx.GetCreditBySource(ctx, tx.ID)
			if err != nil {
				return fmt.Errorf("load existing credit leg: %w", err)
			}
			if existing.UTR != nil {
				utr = *existing.UTR
			}
		}

		if err := markTerminal(ctx, qtx, s.audit, tx.ID, tx.Status, domain.TxStatusSuccess, &utr, nil, nil, "settled"); err != nil {
			return err
		}
		tx.Status = domain.TxStatusSuccess
		tx.UTR = &utr
		result = tx
		observability.IncrementSettlement(tx.Channel, domain.TxStatusSuccess)
		zap.L().Info("transfer settled",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("channel", tx.Channel),
			zap.Int64("amount_paise", tx.AmountPaise),
			zap.String("utr", utr),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lockAccountPair locks the existing accounts in ascending id order and
// returns fresh snapshots read under the locks.
func lockAccountPair(ctx context.Context, qtx *repository.Queries, a, b *models.Account) (*models.Account, *models.Account, error) {
	ids := make([]uuid.UUID, 0, 2)
	if a != nil {
		ids = append(ids, a.ID)
	}
	if b != nil && (a == nil || b.ID != a.ID) {
		ids = append(ids, b.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	locked := make(map[uuid.UUID]*models.Account, len(ids))
	for _, id := range ids {
		acc, err := qtx.GetAccountForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrAccountNotFound) {
				continue
			}
			return nil, nil, err
		}
		locked[id] = acc
	}

	if a != nil {
		a = locked[a.ID]
	}
	if b != nil {
		b = locked[b.ID]
	}
	return a, b, nil
}

// GetTransaction returns one transaction by ID.
func (s *SettlementService) GetTransaction(ctx context.Context, txID uuid.UUID) (*models.Transaction, error) {
	return s.store.Queries().GetTransaction(ctx, txID)
}

// SettleDue finalizes every transaction whose execution time has arrived,
// plus immediate drafts older than staleWindow that never got finalized.
// Returns how many transactions reached a terminal state.
func (s *SettlementService) SettleDue(ctx context.Context, batchSize int32, staleWindow time.Duration) (int, error) {
	now := time.Now()

	var due []uuid.UUID
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		var err error
		due, err = qtx.ListDueTransactionIDs(ctx, now, now.Add(-staleWindow), batchSize)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("list due transactions: %w", err)
	}

	settled := 0
	for _, id := range due {
		if err := ctx.Err(); err != nil {
			return settled, err
		}
		tx, err := s.Finalize(ctx, id)
		if err != nil {
			zap.L().Error("scheduled settlement failed, will retry on next pass",
				zap.Error(err), zap.String("transaction_id", id.String()))
			continue
		}
		if tx.Terminal() {
			settled++
		}
	}
	return settled, nil
}
