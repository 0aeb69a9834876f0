package models

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Account struct {
	ID            uuid.UUID `json:"id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	AccountNumber string    `json:"account_number"`
	AccountType   string    `json:"account_type"` // "savings" or "current"
	BalancePaise  int64     `json:"balance_paise"`
	Status        string    `json:"status"` // "active" or "frozen"
	CreatedAt     time.Time `json:"created_at"`
}

type Beneficiary struct {
	ID            uuid.UUID `json:"id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Name          string    `json:"name"`
	Bank          string    `json:"bank"`
	AccountNumber string    `json:"account_number"`
	IFSC          string    `json:"ifsc"`
	Verified      bool      `json:"verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Transaction is a single ledger leg. A settled transfer is a DEBIT leg on
// the sender plus a CREDIT leg on the receiver; the credit carries the
// debit's id in SourceTxID and both share one UTR.
type Transaction struct {
	ID                        uuid.UUID  `json:"id"`
	AccountID                 uuid.UUID  `json:"account_id"`
	BeneficiaryID             *uuid.UUID `json:"beneficiary_id,omitempty"`
	Type                      string     `json:"type"`    // DEBIT or CREDIT
	Channel                   string     `json:"channel"` // NEFT, RTGS or IMPS
	AmountPaise               int64      `json:"amount_paise"`
	ChargesPaise              int64      `json:"charges_paise"`
	Status                    string     `json:"status"` // PENDING, SCHEDULED, SUCCESS or FAILED
	ScheduledFor              *time.Time `json:"scheduled_for,omitempty"`
	UTR                       *string    `json:"utr,omitempty"`
	FailureReason             *string    `json:"failure_reason,omitempty"`
	CounterpartyAccountNumber string     `json:"counterparty_account_number"`
	SourceTxID                *uuid.UUID `json:"source_tx_id,omitempty"`
	Remarks                   string     `json:"remarks"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// Terminal reports whether the transaction has reached a final state.
func (t *Transaction) Terminal() bool {
	return t.Status == "SUCCESS" || t.Status == "FAILED"
}
