// Package shared holds the error taxonomy common to all ledger packages.
package shared

import (
	"errors"
	"fmt"
)

// ReasonCode identifies a ledger validation failure on the API surface.
type ReasonCode string

const (
	ReasonNone                 ReasonCode = ""
	CodeUnbalancedTransaction  ReasonCode = "UNBALANCED_TRANSACTION"
	CodeTagDimensionUnbalanced ReasonCode = "TAG_DIMENSION_UNBALANCED"
	CodeScheduledInFuture      ReasonCode = "SCHEDULED_IN_FUTURE"
	CodeAlreadyPosted          ReasonCode = "ALREADY_POSTED"
	CodeTimePeriodClosed       ReasonCode = "TIME_PERIOD_CLOSED"
	CodeTimePeriodNotFound     ReasonCode = "TIME_PERIOD_NOT_FOUND"
	CodeCycleDetected          ReasonCode = "CYCLE_DETECTED"
	CodeCannotPost             ReasonCode = "CANNOT_POST"
	CodeOverApplication        ReasonCode = "OVER_APPLICATION"
)

var (
	// ErrUnbalanced indicates total debits != total credits for a currency.
	ErrUnbalanced = errors.New("ledger: transaction debits and credits must balance")
	// ErrTagDimensionUnbalanced indicates a balance-required dimension nets nonzero.
	ErrTagDimensionUnbalanced = errors.New("ledger: accounting tag dimension does not balance")
	// ErrScheduledInFuture indicates the scheduled posting date has not arrived.
	ErrScheduledInFuture = errors.New("ledger: transaction scheduled in the future")
	// ErrAlreadyPosted indicates the transaction was posted before.
	ErrAlreadyPosted = errors.New("ledger: transaction already posted")
	// ErrTimePeriodClosed indicates an ACTUAL posting targets a closed period.
	ErrTimePeriodClosed = errors.New("ledger: time period closed")
	// ErrTimePeriodNotFound indicates no period covers the posting date.
	ErrTimePeriodNotFound = errors.New("ledger: time period not found")
	// ErrCycleDetected indicates the account rows do not form a forest.
	ErrCycleDetected = errors.New("ledger: account hierarchy cycle detected")
	// ErrTransactionNotFound indicates a missing accounting transaction.
	ErrTransactionNotFound = errors.New("ledger: accounting transaction not found")
	// ErrAccountNotFound indicates a missing general ledger account.
	ErrAccountNotFound = errors.New("ledger: gl account not found")
	// ErrOpenChildPeriods indicates a close attempted before child periods closed.
	ErrOpenChildPeriods = errors.New("ledger: child periods still open")
	// ErrPeriodLockHeld indicates a concurrent close holds the period lock.
	ErrPeriodLockHeld = errors.New("ledger: period close already in progress")
	// ErrOverApplication indicates a payment application exceeds the open amount.
	ErrOverApplication = errors.New("ledger: applied amount exceeds open amount")
)

// Code maps a sentinel error to its reason code, or empty when unmapped.
func Code(err error) ReasonCode {
	switch {
	case errors.Is(err, ErrUnbalanced):
		return CodeUnbalancedTransaction
	case errors.Is(err, ErrTagDimensionUnbalanced):
		return CodeTagDimensionUnbalanced
	case errors.Is(err, ErrScheduledInFuture):
		return CodeScheduledInFuture
	case errors.Is(err, ErrAlreadyPosted):
		return CodeAlreadyPosted
	case errors.Is(err, ErrTimePeriodClosed):
		return CodeTimePeriodClosed
	case errors.Is(err, ErrTimePeriodNotFound):
		return CodeTimePeriodNotFound
	case errors.Is(err, ErrCycleDetected):
		return CodeCycleDetected
	case errors.Is(err, ErrOverApplication):
		return CodeOverApplication
	}
	return ReasonNone
}

// PostingError decorates a validation failure with the CANNOT_POST surface code
// and, when the failure is a tag imbalance, the offending dimension diagnostic.
type PostingError struct {
	Err       error
	Dimension int
	Amount    string
}

func (e *PostingError) Error() string {
	if e.Dimension > 0 {
		return fmt.Sprintf("%v (dimension %d, amount %s)", e.Err, e.Dimension, e.Amount)
	}
	return e.Err.Error()
}

func (e *PostingError) Unwrap() error { return e.Err }
