package models

import "errors"

var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAccountNotFound     = errors.New("account not found")
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)
