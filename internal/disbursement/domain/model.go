// Package domain defines the disbursement boundary: dispatching approved
// payouts to an external money-movement processor and reconciling the
// ledger afterwards.
package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	payoutdomain "github.com/smallbiznis/payrail/internal/payout/domain"
)

// BatchItem is one payout as submitted to the processor.
type BatchItem struct {
	PayoutID   snowflake.ID
	PayeeEmail string
	Amount     int64
	Currency   string
}

// Processor dispatches a batch and returns the processor's batch id, or a
// typed failure. Implementations must not write any local state.
type Processor interface {
	Provider() string
	DispatchBatch(ctx context.Context, items []BatchItem) (string, error)
}

// Dispatch failure codes.
const (
	FailureInsufficientFunds = "insufficient_funds"
	FailureValidation        = "validation_failed"
	FailureDuplicateBatch    = "duplicate_batch"
)

// DispatchError is the processor's typed rejection. Retryable failures
// (insufficient funds) may be re-run by an operator after correcting the
// cause; validation and duplicate failures may not.
type DispatchError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("disbursement dispatch failed: %s: %s", e.Code, e.Message)
}

type Service interface {
	// Dispatch submits the given processing payouts to the processor and,
	// only on success, finalizes them against the returned batch id. A
	// processor failure leaves every local row untouched.
	Dispatch(ctx context.Context, payoutIDs []snowflake.ID) (string, []payoutdomain.Payout, error)

	// FinalizeDisbursement transitions payouts and their items to terminal
	// states under a confirmed batch id, and sweeps platform-owned funds
	// stuck without a payout method into retained.
	FinalizeDisbursement(ctx context.Context, advancedIDs, refundingIDs []snowflake.ID, batchID string) ([]payoutdomain.Payout, error)
}

var (
	ErrProviderNotFound    = errors.New("disbursement_provider_not_found")
	ErrNoPayouts           = errors.New("no_dispatchable_payouts")
	ErrInvalidBatch        = errors.New("invalid_batch_id")
	ErrPayoutNotProcessing = errors.New("payout_not_processing")
)
