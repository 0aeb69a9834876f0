package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulj/bank-settlement/internal/domain"
	"github.com/rahulj/bank-settlement/internal/repository"
)

func TestReconciliationPassesOnPairedLedger(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	settlements := NewSettlementService(store, true)
	recon := NewReconciliationService(store)
	ctx := context.Background()

	rahul := seedCustomer(t, db, "rahul")
	priya := seedCustomer(t, db, "priya")
	rahulAcc := seedAccount(t, db, rahul.ID, "ACC1001", 100_000)
	priyaAcc := seedAccount(t, db, priya.ID, "ACC2001", 0)
	payee := seedBeneficiary(t, db, rahul.ID, "priya", priyaAcc.AccountNumber)

	draft, err := settlements.CreateDraft(ctx, CreateDraftRequest{
		SourceAccountID: rahulAcc.ID,
		BeneficiaryID:   payee.ID,
		AmountPaise:     20_000,
		Channel:         domain.ChannelIMPS,
		ScheduleType:    domain.ScheduleNow,
	})
	require.NoError(t, err)
	_, err = settlements.Finalize(ctx, draft.ID)
	require.NoError(t, err)

	require.NoError(t, recon.Run(ctx))

	unpaired, err := store.Queries().ListUnpairedDebits(ctx)
	require.NoError(t, err)
	assert.Empty(t, unpaired)
}

func TestReconciliationFlagsMissingCreditLeg(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	settlements := NewSettlementService(store, true)
	recon := NewReconciliationService(store)
	ctx := context.Background()

	rahul := seedCustomer(t, db, "rahul")
	priya := seedCustomer(t, db, "priya")
	rahulAcc := seedAccount(t, db, rahul.ID, "ACC1001", 100_000)
	priyaAcc := seedAccount(t, db, priya.ID, "ACC2001", 0)
	payee := seedBeneficiary(t, db, rahul.ID, "priya", priyaAcc.AccountNumber)

	draft, err := settlements.CreateDraft(ctx, CreateDraftRequest{
		SourceAccountID: rahulAcc.ID,
		BeneficiaryID:   payee.ID,
		AmountPaise:     20_000,
		Channel:         domain.ChannelIMPS,
		ScheduleType:    domain.ScheduleNow,
	})
	require.NoError(t, err)
	_, err = settlements.Finalize(ctx, draft.ID)
	require.NoError(t, err)

	// Simulate a corrupted ledger by deleting the credit leg.
	_, err = db.Exec(ctx, "DELETE FROM transactions WHERE source_tx_id = $1", draft.ID)
	require.NoError(t, err)

	unpaired, err := store.Queries().ListUnpairedDebits(ctx)
	require.NoError(t, err)
	require.Len(t, unpaired, 1)
	assert.Equal(t, draft.ID, unpaired[0].ID)
	assert.Equal(t, int64(20_000), unpaired[0].AmountPaise)

	// Run only reports, it never mutates the ledger.
	require.NoError(t, recon.Run(ctx))
	var count int
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count))
	assert.Equal(t, 1, count)
}
