package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rahulj/bank-settlement/internal/models"
)

func (q *Queries) CreateCustomer(ctx context.Context, c *models.Customer) error {
	query := `INSERT INTO customers (id, name, email, role, created_at) VALUES ($1, $2, $3, $4, NOW()) RETURNING created_at`
	if err := q.db.QueryRow(ctx, query, c.ID, c.Name, c.Email, c.Role).Scan(&c.CreatedAt); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	c := &models.Customer{}
	query := `SELECT id, name, email, role, created_at FROM customers WHERE id = $1`
	err := q.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.Role, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (q *Queries) CreateAccount(ctx context.Context, a *models.Account) error {
	query := `INSERT INTO accounts (id, customer_id, account_number, account_type, balance_paise, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, a.ID, a.CustomerID, a.AccountNumber, a.AccountType, a.BalancePaise, a.Status).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

const accountColumns = `id, customer_id, account_number, account_type, balance_paise, status, created_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.CustomerID, &a.AccountNumber, &a.AccountType, &a.BalancePaise, &a.Status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

func (q *Queries) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(q.db.QueryRow(ctx, query, id))
}

// GetAccountForUpdate locks the account row for the duration of the
// enclosing transaction.
func (q *Queries) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(q.db.QueryRow(ctx, query, id))
}

// GetAccountByNumber resolves the credit leg's account by its account number.
func (q *Queries) GetAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return scanAccount(q.db.QueryRow(ctx, query, accountNumber))
}

func (q *Queries) ListAccountsByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE customer_id = $1 ORDER BY created_at`
	rows, err := q.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.AccountNumber, &a.AccountType, &a.BalancePaise, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// AdjustAccountBalance applies a signed delta to the balance. The schema's
// non-negative check makes an over-debit fail rather than go negative.
func (q *Queries) AdjustAccountBalance(ctx context.Context, id uuid.UUID, deltaPaise int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE accounts SET balance_paise = balance_paise + $1 WHERE id = $2`, deltaPaise, id)
	if err != nil {
		return 0, fmt.Errorf("adjust account balance: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) CreateBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	query := `INSERT INTO beneficiaries (id, customer_id, name, bank, account_number, ifsc, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, b.ID, b.CustomerID, b.Name, b.Bank, b.AccountNumber, b.IFSC, b.Verified).Scan(&b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create beneficiary: %w", err)
	}
	return nil
}

func (q *Queries) GetBeneficiary(ctx context.Context, id uuid.UUID) (*models.Beneficiary, error) {
	b := &models.Beneficiary{}
	query := `SELECT id, customer_id, name, bank, account_number, ifsc, verified, created_at FROM beneficiaries WHERE id = $1`
	err := q.db.QueryRow(ctx, query, id).Scan(&b.ID, &b.CustomerID, &b.Name, &b.Bank, &b.AccountNumber, &b.IFSC, &b.Verified, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrBeneficiaryNotFound
		}
		return nil, fmt.Errorf("get beneficiary: %w", err)
	}
	return b, nil
}

func (q *Queries) ListBeneficiariesByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Beneficiary, error) {
	query := `SELECT id, customer_id, name, bank, account_number, ifsc, verified, created_at
		FROM beneficiaries WHERE customer_id = $1 ORDER BY created_at`
	rows, err := q.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	defer rows.Close()

	var beneficiaries []models.Beneficiary
	for rows.Next() {
		var b models.Beneficiary
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.Name, &b.Bank, &b.AccountNumber, &b.IFSC, &b.Verified, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan beneficiary: %w", err)
		}
		beneficiaries = append(beneficiaries, b)
	}
	return beneficiaries, rows.Err()
}
