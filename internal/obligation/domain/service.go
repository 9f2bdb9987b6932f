// Package domain defines the obligation generator's contract: turning an
// order's line items into payout ledger lines.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	payoutdomain "github.com/smallbiznis/payrail/internal/payout/domain"
)

// PlatformPayeeID is the ledger identity the platform's own share is
// booked under.
const PlatformPayeeID = "platform"

// LineItem is one purchasable row of an order.
type LineItem struct {
	OrderItemID   string
	StorePayeeID  string
	Subtotal      int64
	ProcessingFee int64
}

// ComputeInput carries one completed order into the generator.
type ComputeInput struct {
	OrderID             string
	LineItems           []LineItem
	SourceTransactionID string
	Currency            string
	OccurredAt          time.Time

	// BuyerAffiliatePayeeID is set when a buyer-affiliate referred the
	// purchase. Its policy is resolved once per order and shared across
	// all line items.
	BuyerAffiliatePayeeID string
}

type Service interface {
	// ComputeObligations resolves the applicable policies, invokes the
	// split calculator and persists one payout item per payee per line
	// item, all in one transaction.
	ComputeObligations(ctx context.Context, in ComputeInput) ([]payoutdomain.PayoutItem, error)

	// MirrorRefund writes the refund mirror of an existing payout item:
	// fresh identity, negated amount and fee, refunding status. The
	// original row is never touched.
	MirrorRefund(ctx context.Context, payoutItemID snowflake.ID, refundTransactionID string) (*payoutdomain.PayoutItem, error)
}

var (
	ErrInvalidOrder       = errors.New("invalid_order")
	ErrInvalidLineItem    = errors.New("invalid_line_item")
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrInvalidTransaction = errors.New("invalid_transaction")
	ErrItemNotFound       = errors.New("payout_item_not_found")
	ErrItemAlreadyMirror  = errors.New("payout_item_already_refund")
)
