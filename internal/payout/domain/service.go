package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service aggregates outstanding payout items into payouts and runs the
// approval workflow that releases them for disbursement.
type Service interface {
	// CreatePayoutRun groups every outstanding item in the period into one
	// payout per payee. The triggering approver is recorded as the first
	// signature on payable payouts.
	CreatePayoutRun(ctx context.Context, period Period, approverID string) ([]Payout, error)

	// SignPayouts records one approver signature on each payout. Signing is
	// idempotent per approver; a payout reaching quorum moves to processing
	// (or refunded, on the refund path) together with all of its items.
	SignPayouts(ctx context.Context, payoutIDs []snowflake.ID, approverID string) (*SignResult, error)
}

// SignResult partitions one signing call's payouts by outcome.
type SignResult struct {
	Advanced     []Payout
	StillPending []Payout
}

var (
	ErrInvalidPeriod     = errors.New("invalid_period")
	ErrInvalidApprover   = errors.New("invalid_approver")
	ErrPayoutNotFound    = errors.New("payout_not_found")
	ErrPayoutNotSignable = errors.New("payout_not_signable")
)
