package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulj/bank-settlement/internal/domain"
	"github.com/rahulj/bank-settlement/internal/repository"
)

func TestImmediateIMPSTransfer(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := NewSettlementService(store, true)
	ctx := context.Background()

	rahul := seedCustomer(t, db, "rahul")
	priya := seedCustomer(t, db, "priya")
	rahulAcc := seedAccount(t, db, rahul.ID, "ACC1001", 100_000) // Rs 1000
	priyaAcc := seedAccount(t, db, priya.ID, "ACC2001", 0)
	payee := seedBeneficiary(t, db, rahul.ID, "priya", priyaAcc.AccountNumber)

	draft, err := svc.CreateDraft(ctx, CreateDraftRequest{
		SourceAccountID: rahulAcc.ID,
		BeneficiaryID:   payee.ID,
		AmountPaise:     50_000, // Rs 500
		Channel:         domain.ChannelIMPS,
		ScheduleType:    domain.ScheduleNow,
		Remarks:         "rent",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, draft.Status)
	assert.Nil(t, draft.ScheduledFor)
	assert.Equal(t, domain.ChargesFor(domain.ChannelIMPS), draft.ChargesPaise)

	settled, err := svc.Finalize(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusSuccess, settled.Status)
	require.NotNil(t, settled.UTR)
	assert.Regexp(t, `^UTR\d{12}$`, *settled.UTR)

	var rahulBalance, priyaBalance int64
	require.NoError(t, db.QueryRow(ctx, "SELECT balance_paise FROM accounts WHERE id = $1", rahulAcc.ID).Scan(&rahulBalance))
	require.NoError(t, db.QueryRow(ctx, "SELECT balance_paise FROM accounts WHERE id = $1", priyaAcc.ID).Scan(&priyaBalance))
	assert.Equal(t, int64(50_000), rahulBalance)
	assert.Equal(t, int64(50_000), priyaBalance)

	// The credit leg mirrors the debit and shares its UTR.
	credit, err := store.Queries().GetCreditBySource(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, priyaAcc.ID, credit.AccountID)
	assert.Equal(t, domain.TxTypeCredit, credit.Type)
	assert.Equal(t, domain.TxStatusSuccess, credit.Status)
	assert.Equal(t, int64(50_000), credit.AmountPaise)
	require.NotNil(t, credit.UTR)
	assert.Equal(t, *settled.UTR, *credit.UTR)
	assert.Equal(t, rahulAcc.AccountNumber, credit.CounterpartyAccountNumber)
}

func TestInsufficientBalanceDeclines(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := NewSettlementService(store, true)
	ctx := context.Background()

	rahul := seedCustomer(t, db, "rahul")
	priya := seedCustomer(t, db, "priya")
	rahulAcc := seedAccount(t, db, rahul.ID, "ACC1001", 10_000) // Rs 100
	priyaAcc := seedAccount(t, db, priya.ID, "ACC2001", 0)
	payee := seedBeneficiary(t, db, rahul.ID, "priya", priyaAcc.AccountNumber)

	draft, err := svc.CreateDraft(ctx, CreateDraftRequest{
		SourceAccountID: rahulAcc.ID,
		BeneficiaryID:   payee.ID,
		AmountPaise:     15_000, // Rs 150
		Channel:         domain.ChannelIMPS,
		ScheduleType:    domain.ScheduleNow,
	})
	require.NoError(t, err)

	failed, err := svc.Finalize(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "Insufficient balance", *failed.FailureReason)
	assert.Nil(t, failed.UTR)

	// Balances are untouched and no credit leg was written.
	var rahulBalance, priyaBalance int64
	require.NoError(t, db.QueryRow(ctx, "SELECT balance_paise FROM accounts WHERE id = $1", rahulAcc.ID).Scan(&rahulBalance))
	require.NoError(t, db.QueryRow(ctx, "SELECT balance_paise FROM accounts WHERE id = $1", priyaAcc.ID).Scan(&priyaBalance))
	assert.Equal(t, int64(10_000), rahulBalance)
	assert.Equal(t, int64(0), priyaBalance)

	var creditCount int
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM transactions WHERE source_tx_id = $1", draft.ID).Scan(&creditCount))
	assert.Equal(t, 0, creditCount)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := NewSettlementService(store, true)
	ctx := context.Background()

	rahul := seedCustomer(t, db, "rahul")
	priya := seedCustomer(t, db, "priya")
	rahulAcc := seedAccount(t, db, rahul.ID, "ACC1001", 100_000)
	priyaAcc := seedAccount(t, db, priya.ID, "ACC2001", 0)
	payee := seedBeneficiary(t, db, rahul.ID, "priya", priyaAcc.AccountNumber)

	draft, err := svc.CreateDraft(ctx, CreateDraftRequest{
		SourceAccountID: rahulAcc.ID,
		BeneficiaryID:   payee.ID,
		AmountPaise:     30_000,
		Channel:         domain.ChannelIMPS,
		ScheduleType:    domain.ScheduleNow,
	})
	require.NoError(t, err)

	first, err := svc.Finalize(ctx, draft.ID)
	require.NoError(t, err)
	second, err := svc.Finalize(ctx, draft.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TxStatusSuccess, second.Status)
	require.NotNil(t, first.UTR)
	require.NotNil(t, second.UTR)
	assert.Equal(t, *first.UTR, *second.UTR)

	// Money moved exactly once.
	var rahulBalance, priyaBalance int64
	require.NoError(t, db.QueryRow(ctx, "SELECT balance_paise FROM accounts WHERE id = $1", rahulAcc.ID).Scan(&rahulBalance))
	require.NoError(t, db.QueryRow(ctx, "SELECT balance_paise FROM accounts WHERE id = $1", priyaAcc.ID).Scan(&priyaBalance))
	assert.Equal(t, int64(70_000), rahulBalance)
	assert.Equal(t, int64(30_000), priyaBalance)

	var creditCount int
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM transactions WHERE source_tx_id = $1", draft.ID).Scan(&creditCount))
	assert.Equal(t, 1, creditCount)
}

func TestDraftValidation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := NewSettlementService(store, true)
	ctx := context.Background()

	rahul := seedCustomer(t, db, "rahul")
	priya := seedCustomer(t, db, "priya")
	rahulAcc := seedAccount(t, db, rahul.ID, "ACC1001", 100_000_000)
	priyaAcc := seedAccount(t, db, priya.ID, "ACC2001", 0)
	payee := seedBeneficiary(t, db, rahul.ID, "priya", priyaAcc.AccountNumber)

	base := CreateDraftRequest{
		SourceAccountID: rahulAcc.ID,
		BeneficiaryID:   payee.ID,
		ScheduleType:    domain.ScheduleNow,
	}

	tests := []struct {
		name     string
		mutate   func(r *CreateDraftRequest)
		wantRule string
	}{
		{
			name: "rtgs below minimum",
			mutate: func(r *CreateDraftRequest) {
				r.Channel = domain.ChannelRTGS
				r.AmountPaise = 100_000 // Rs 1000, below the Rs 2 lakh floor
			},
			wantRule: RuleBelowMinimum,
		},
		{
			name: "imps above maximum",
			mutate: func(r *CreateDraftRequest) {
				r.Channel = domain.ChannelIMPS
				r.AmountPaise = 30_000_000 // Rs 3 lakh
			},
			wantRule: RuleAboveMaximum,
		},
		{
			name: "imps cannot be scheduled",
			mutate: func(r *CreateDraftRequest) {
				r.Channel = domain.ChannelIMPS
				r.AmountPaise = 50_000
				r.ScheduleType = domain.ScheduleLater
				at := time.Now().Add(time.Hour)
				r.ScheduleAt = &at
			},
			wantRule: RuleUnsupportedSchedule,
		},
		{
			name: "schedule in the past",
			mutate: func(r *CreateDraftRequest) {
				r.Channel = domain.ChannelNEFT
				r.AmountPaise = 50_000
				r.ScheduleType = domain.ScheduleLater
				at := time.Now().Add(-time.Hour)
				r.ScheduleAt = &at
			},
			wantRule: RuleScheduleInPast,
		},
		{
			name: "unknown channel",
			mutate: func(r *CreateDraftRequest) {
				r.Channel = "UPI"
				r.AmountPaise = 50_000
			},
			wantRule: RuleUnknownChannel,
		},
		{
			name: "remarks too long",
			mutate: func(r *CreateDraftRequest) {
				r.Channel = domain.ChannelIMPS
				r.AmountPaise = 50_000
				for i := 0; i < 150; i++ {
					r.Remarks += "x"
				}
			},
			wantRule: RuleRemarksTooLong,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := svc.CreateDraft(ctx, req)
			ve, ok := AsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tc.wantRule, ve.Rule)
		})
	}

	// No draft rows were written for declined requests.
	var count int
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestFrozenAccountCannotDraft(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := NewSettlementService(store, true)
	ctx := context.Background()

	rahul := seedCustomer(t, db, "rahul")
	priya := seedCustomer(t, db, "priya")
	rahulAcc := seedAccount(t, db, rahul.ID, "ACC1001", 100_000)
	priyaAcc := seedAccount(t, db, priya.ID, "ACC2001", 0)
	payee := seedBeneficiary(t, db, rahul.ID, "priya", priyaAcc.AccountNumber)

	_, err := db.Exec(ctx, "UPDATE accounts SET status = 'frozen' WHERE id = $1", rahulAcc.ID)
	require.NoError(t, err)

	_, err = svc.CreateDraft(ctx, CreateDraftRequest{
		SourceAccountID: rahulAcc.ID,
		BeneficiaryID:   payee.ID,
		AmountPaise:     10_000,
		Channel:         domain.ChannelIMPS,
		ScheduleType:    domain.ScheduleNow,
	})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, RuleSourceAccountFrozen, ve.Rule)
}

func TestUnverifiedBeneficiaryDeclines(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := NewSettlementService(store, true)
	ctx := context.Background()

	rahul := seedCustomer(t, db, "rahul")
	priya := seedCustomer(t, db, "priya")
	rahulAcc := seedAccount(t, db, rahul.ID, "ACC1001", 100_000)
	priyaAcc := seedAccount(t, db, priya.ID, "ACC2001", 0)
	payee := seedBeneficiary(t, db, rahul.ID, "priya", priyaAcc.AccountNumber)

	_, err := db.Exec(ctx, "UPDATE beneficiaries SET verified = FALSE WHERE id = $1", payee.ID)
	require.NoError(t, err)

	draft, err := svc.CreateDraft(ctx, CreateDraftRequest{
		SourceAccountID: rahulAcc.ID,
		BeneficiaryID:   payee.ID,
		AmountPaise:     10_000,
		Channel:         domain.ChannelIMPS,
		ScheduleType:    domain.ScheduleNow,
	})
	require.NoError(t, err)

	failed, err := svc.Finalize(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "Beneficiary verification failed", *failed.FailureReason)
}

func TestBeneficiaryAccountGoneDeclines(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := NewSettlementService(store, true)
	ctx := context.Background()

	rahul := seedCustomer(t, db, "rahul")
	rahulAcc := seedAccount(t, db, rahul.ID, "ACC1001", 100_000)
	// Payee points at an account number no account holds.
	payee := seedBeneficiary(t, db, rahul.ID, "ghost", "ACC9999")

	draft, err := svc.CreateDraft(ctx, CreateDraftRequest{
		SourceAccountID: rahulAcc.ID,
		BeneficiaryID:   payee.ID,
		AmountPaise:     10_000,
		Channel:         domain.ChannelIMPS,
		ScheduleType:    domain.ScheduleNow,
	})
	require.NoError(t, err)

	failed, err := svc.Finalize(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "Beneficiary account not found", *failed.FailureReason)
}

func TestNEFTDraftAlignsToBatchWindow(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := NewSettlementService(store, true)
	ctx := context.Background()

	rahul := seedCustomer(t, db, "rahul")
	priya := seedCustomer(t, db, "priya")
	rahulAcc := seedAccount(t, db, rahul.ID, "ACC1001", 100_000)
	priyaAcc := seedAccount(t, db, priya.ID, "ACC2001", 0)
	payee := seedBeneficiary(t, db, rahul.ID, "priya", priyaAcc.AccountNumber)

	draft, err := svc.CreateDraft(ctx, CreateDraftRequest{
		SourceAccountID: rahulAcc.ID,
		BeneficiaryID:   payee.ID,
		AmountPaise:     50_000,
		Channel:         domain.ChannelNEFT,
		ScheduleType:    domain.ScheduleNow,
	})
	require.NoError(t, err)

	// NEFT never settles in-request: it lands on the next half-hour batch.
	assert.Equal(t, domain.TxStatusScheduled, draft.Status)
	require.NotNil(t, draft.ScheduledFor)
	assert.True(t, draft.ScheduledFor.After(time.Now()))
	minute := draft.ScheduledFor.Minute()
	assert.True(t, minute == 0 || minute == 30, "scheduled_for minute = %d", minute)
	assert.Zero(t, draft.ScheduledFor.Second())
}

func TestSettleDueProcessesScheduledTransfers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := NewSettlementService(store, true)
	ctx := context.Background()

	rahul := seedCustomer(t, db, "rahul")
	priya := seedCustomer(t, db, "priya")
	rahulAcc := seedAccount(t, db, rahul.ID, "ACC1001", 100_000)
	priyaAcc := seedAccount(t, db, priya.ID, "ACC2001", 0)
	payee := seedBeneficiary(t, db, rahul.ID, "priya", priyaAcc.AccountNumber)

	draft, err := svc.CreateDraft(ctx, CreateDraftRequest{
		SourceAccountID: rahulAcc.ID,
		BeneficiaryID:   payee.ID,
		AmountPaise:     40_000,
		Channel:         domain.ChannelNEFT,
		ScheduleType:    domain.ScheduleNow,
	})
	require.NoError(t, err)
	require.Equal(t, domain.TxStatusScheduled, draft.Status)

	// Not due yet: the batch window is in the future.
	settled, err := svc.SettleDue(ctx, 50, 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, settled)

	// Bring the batch window into the past, as if the half-hour mark passed.
	_, err = db.Exec(ctx, "UPDATE transactions SET scheduled_for = NOW() - INTERVAL '1 minute' WHERE id = $1", draft.ID)
	require.NoError(t, err)

	settled, err = svc.SettleDue(ctx, 50, 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	final, err := store.Queries().GetTransaction(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusSuccess, final.Status)
	require.NotNil(t, final.UTR)

	var priyaBalance int64
	require.NoError(t, db.QueryRow(ctx, "SELECT balance_paise FROM accounts WHERE id = $1", priyaAcc.ID).Scan(&priyaBalance))
	assert.Equal(t, int64(40_000), priyaBalance)

	// A second pass finds nothing to do.
	settled, err = svc.SettleDue(ctx, 50, 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, settled)
}

func TestSettleDueSweepsStalePendingDrafts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := NewSettlementService(store, true)
	ctx := context.Background()

	rahul := seedCustomer(t, db, "rahul")
	priya := seedCustomer(t, db, "priya")
	rahulAcc := seedAccount(t, db, rahul.ID, "ACC1001", 100_000)
	priyaAcc := seedAccount(t, db, priya.ID, "ACC2001", 0)
	payee := seedBeneficiary(t, db, rahul.ID, "priya", priyaAcc.AccountNumber)

	// An immediate draft whose in-request finalize never happened.
	draft, err := svc.CreateDraft(ctx, CreateDraftRequest{
		SourceAccountID: rahulAcc.ID,
		BeneficiaryID:   payee.ID,
		AmountPaise:     25_000,
		Channel:         domain.ChannelIMPS,
		ScheduleType:    domain.ScheduleNow,
	})
	require.NoError(t, err)
	require.Equal(t, domain.TxStatusPending, draft.Status)

	// Fresh drafts are left alone so the in-request path can finish.
	settled, err := svc.SettleDue(ctx, 50, 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, settled)

	_, err = db.Exec(ctx, "UPDATE transactions SET created_at = NOW() - INTERVAL '5 minutes' WHERE id = $1", draft.ID)
	require.NoError(t, err)

	settled, err = svc.SettleDue(ctx, 50, 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	final, err := store.Queries().GetTransaction(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusSuccess, final.Status)
}
