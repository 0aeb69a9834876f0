package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rahulj/bank-settlement/internal/models"
)

const transactionColumns = `id, account_id, beneficiary_id, type, channel, amount_paise, charges_paise,
	status, scheduled_for, utr, failure_reason, counterparty_account_number, source_tx_id, remarks,
	created_at, updated_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	t := &models.Transaction{}
	err := row.Scan(&t.ID, &t.AccountID, &t.BeneficiaryID, &t.Type, &t.Channel, &t.AmountPaise, &t.ChargesPaise,
		&t.Status, &t.ScheduledFor, &t.UTR, &t.FailureReason, &t.CounterpartyAccountNumber, &t.SourceTxID,
		&t.Remarks, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

func (q *Queries) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	query := `INSERT INTO transactions (id, account_id, beneficiary_id, type, channel, amount_paise, charges_paise,
			status, scheduled_for, utr, failure_reason, counterparty_account_number, source_tx_id, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := q.db.QueryRow(ctx, query,
		t.ID, t.AccountID, t.BeneficiaryID, t.Type, t.Channel, t.AmountPaise, t.ChargesPaise,
		t.Status, t.ScheduledFor, t.UTR, t.FailureReason, t.CounterpartyAccountNumber, t.SourceTxID, t.Remarks,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// InsertCreditLeg appends the CREDIT record paired to a DEBIT. The unique
// constraint on source_tx_id makes a second insert for the same debit a
// no-op; the bool reports whether this call created the row.
func (q *Queries) InsertCreditLeg(ctx context.Context, t *models.Transaction) (bool, error) {
	query := `INSERT INTO transactions (id, account_id, beneficiary_id, type, channel, amount_paise, charges_paise,
			status, scheduled_for, utr, failure_reason, counterparty_account_number, source_tx_id, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		ON CONFLICT (source_tx_id) DO NOTHING`
	tag, err := q.db.Exec(ctx, query,
		t.ID, t.AccountID, t.BeneficiaryID, t.Type, t.Channel, t.AmountPaise, t.ChargesPaise,
		t.Status, t.ScheduledFor, t.UTR, t.FailureReason, t.CounterpartyAccountNumber, t.SourceTxID, t.Remarks)
	if err != nil {
		return false, fmt.Errorf("insert credit leg: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (q *Queries) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(q.db.QueryRow(ctx, query, id))
}

// GetTransactionForUpdate locks the transaction row so concurrent finalize
// attempts serialize on it.
func (q *Queries) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	return scanTransaction(q.db.QueryRow(ctx, query, id))
}

// GetCreditBySource returns the CREDIT leg recorded for a debit, if any.
func (q *Queries) GetCreditBySource(ctx context.Context, sourceTxID uuid.UUID) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE source_tx_id = $1`
	return scanTransaction(q.db.QueryRow(ctx, query, sourceTxID))
}

// MarkTransactionTerminal writes the single terminal transition for a
// transaction: SUCCESS with a UTR, or FAILED with a reason.
func (q *Queries) MarkTransactionTerminal(ctx context.Context, id uuid.UUID, status string, utr, failureReason *string) (int64, error) {
	query := `UPDATE transactions SET status = $1, utr = $2, failure_reason = $3, updated_at = NOW() WHERE id = $4`
	tag, err := q.db.Exec(ctx, query, status, utr, failureReason, id)
	if err != nil {
		return 0, fmt.Errorf("mark transaction terminal: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpdateTransactionStatus moves a transaction to a non-terminal status.
func (q *Queries) UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE transactions SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return 0, fmt.Errorf("update transaction status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// TransactionFilter narrows ListTransactionsByAccount. Zero values match all.
type TransactionFilter struct {
	Status  string
	Type    string
	Channel string
	Limit   int
	Offset  int
}

func (q *Queries) ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID, f TransactionFilter) ([]models.Transaction, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE account_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR type = $3)
		  AND ($4 = '' OR channel = $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`
	rows, err := q.db.Query(ctx, query, accountID, f.Status, f.Type, f.Channel, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListDueTransactionIDs returns ids ready for settlement: SCHEDULED rows
// whose execution time has arrived, and PENDING immediate rows that were
// never finalized (drafts orphaned by a crash between draft and finalize).
// SKIP LOCKED keeps concurrent worker passes from claiming the same rows.
func (q *Queries) ListDueTransactionIDs(ctx context.Context, now time.Time, staleCutoff time.Time, limit int32) ([]uuid.UUID, error) {
	query := `SELECT id FROM transactions
		WHERE type = 'DEBIT'
		  AND ((status = 'SCHEDULED' AND scheduled_for <= $1)
		    OR (status = 'PENDING' AND scheduled_for IS NULL AND created_at <= $2))
		ORDER BY scheduled_for NULLS FIRST
		LIMIT $3
		FOR UPDATE SKIP LOCKED`
	rows, err := q.db.Query(ctx, query, now, staleCutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list due transactions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnpairedDebit is a SUCCESS DEBIT whose CREDIT leg is missing or diverges.
type UnpairedDebit struct {
	ID          uuid.UUID
	AmountPaise int64
	UTR         *string
}

// ListUnpairedDebits finds SUCCESS debits without exactly one SUCCESS credit
// of equal amount sharing the UTR.
func (q *Queries) ListUnpairedDebits(ctx context.Context) ([]UnpairedDebit, error) {
	query := `SELECT d.id, d.amount_paise, d.utr
		FROM transactions d
		WHERE d.type = 'DEBIT' AND d.status = 'SUCCESS'
		  AND NOT EXISTS (
			SELECT 1 FROM transactions c
			WHERE c.source_tx_id = d.id
			  AND c.type = 'CREDIT'
			  AND c.status = 'SUCCESS'
			  AND c.amount_paise = d.amount_paise
			  AND c.utr = d.utr
		  )`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list unpaired debits: %w", err)
	}
	defer rows.Close()

	var unpaired []UnpairedDebit
	for rows.Next() {
		var u UnpairedDebit
		if err := rows.Scan(&u.ID, &u.AmountPaise, &u.UTR); err != nil {
			return nil, fmt.Errorf("scan unpaired debit: %w", err)
		}
		unpaired = append(unpaired, u)
	}
	return unpaired, rows.Err()
}

func collectTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.AccountID, &t.BeneficiaryID, &t.Type, &t.Channel, &t.AmountPaise, &t.ChargesPaise,
			&t.Status, &t.ScheduledFor, &t.UTR, &t.FailureReason, &t.CounterpartyAccountNumber, &t.SourceTxID,
			&t.Remarks, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
