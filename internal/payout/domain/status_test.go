package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayeeType(t *testing.T) {
	for _, raw := range []string{"store", "platform", "buyer_affiliate", "seller_affiliate"} {
		parsed, err := ParsePayeeType(raw)
		require.NoError(t, err)
		assert.Equal(t, PayeeType(raw), parsed)
	}

	_, err := ParsePayeeType("vendor")
	assert.ErrorIs(t, err, ErrUnknownPayeeType)
}

func TestParseItemStatus(t *testing.T) {
	for _, raw := range []string{
		"unpaid", "pending_approval", "processing", "paid",
		"refunding", "refunded", "missing_payout_method", "retained",
	} {
		parsed, err := ParseItemStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, ItemStatus(raw), parsed)
	}

	_, err := ParseItemStatus("PAID")
	assert.ErrorIs(t, err, ErrUnknownItemStatus)
}

func TestParsePayoutStatus(t *testing.T) {
	for _, raw := range []string{
		"pending_approval", "processing", "paid", "pending_refund",
		"refunded", "missing_payout_method", "retained",
	} {
		parsed, err := ParsePayoutStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, PayoutStatus(raw), parsed)
	}

	_, err := ParsePayoutStatus("unpaid")
	assert.ErrorIs(t, err, ErrUnknownPayoutStatus)
}

func TestHasApprover(t *testing.T) {
	p := Payout{ApproverIDs: []string{"approver_a"}}

	assert.True(t, p.HasApprover("approver_a"))
	assert.False(t, p.HasApprover("approver_b"))
	assert.False(t, (&Payout{}).HasApprover("approver_a"))
}
