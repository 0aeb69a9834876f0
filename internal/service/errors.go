package service

import (
	"errors"
	"fmt"
)

// Validation rule identifiers surfaced to API clients.
const (
	RuleInvalidAmount       = "InvalidAmount"
	RuleUnknownChannel      = "UnknownChannel"
	RuleBelowMinimum        = "BelowMinimum"
	RuleAboveMaximum        = "AboveMaximum"
	RuleUnsupportedSchedule = "UnsupportedSchedule"
	RuleMissingSchedule     = "MissingSchedule"
	RuleScheduleInPast      = "ScheduleInPast"
	RuleSourceAccountFrozen = "SourceAccountFrozen"
	RuleAccountNotFound     = "AccountNotFound"
	RuleBeneficiaryNotFound = "BeneficiaryNotFound"
	RuleRemarksTooLong      = "RemarksTooLong"
)

// ValidationError rejects a draft before anything is written. Rule names the
// violated constraint so clients can branch on it.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

func validationErr(rule, format string, args ...any) error {
	return &ValidationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// AsValidationError unwraps a ValidationError if err carries one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Settlement decline reasons recorded on FAILED transactions. These are
// terminal business outcomes, never Go errors.
const (
	ReasonSourceAccountNotFound  = "Source account not found"
	ReasonInsufficientBalance    = "Insufficient balance"
	ReasonBeneficiaryUnverified  = "Beneficiary verification failed"
	ReasonBeneficiaryAccountGone = "Beneficiary account not found"
)

func reasonLimitViolation(channel string) string {
	return channel + " limit violation"
}
