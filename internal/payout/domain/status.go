package domain

import "errors"

var (
	ErrUnknownPayeeType    = errors.New("unknown_payee_type")
	ErrUnknownItemStatus   = errors.New("unknown_item_status")
	ErrUnknownPayoutStatus = errors.New("unknown_payout_status")
)

// PayeeType identifies which party an amount is owed to.
type PayeeType string

const (
	PayeeTypeStore           PayeeType = "store"
	PayeeTypePlatform        PayeeType = "platform"
	PayeeTypeBuyerAffiliate  PayeeType = "buyer_affiliate"
	PayeeTypeSellerAffiliate PayeeType = "seller_affiliate"
)

// ParsePayeeType decodes a stored payee type. Unrecognized values are a
// recoverable error, never a crash.
func ParsePayeeType(raw string) (PayeeType, error) {
	switch PayeeType(raw) {
	case PayeeTypeStore, PayeeTypePlatform, PayeeTypeBuyerAffiliate, PayeeTypeSellerAffiliate:
		return PayeeType(raw), nil
	default:
		return "", ErrUnknownPayeeType
	}
}

// ItemStatus is the lifecycle state of one payout item.
type ItemStatus string

const (
	ItemStatusUnpaid              ItemStatus = "unpaid"
	ItemStatusPendingApproval     ItemStatus = "pending_approval"
	ItemStatusProcessing          ItemStatus = "processing"
	ItemStatusPaid                ItemStatus = "paid"
	ItemStatusRefunding           ItemStatus = "refunding"
	ItemStatusRefunded            ItemStatus = "refunded"
	ItemStatusMissingPayoutMethod ItemStatus = "missing_payout_method"
	ItemStatusRetained            ItemStatus = "retained"
)

func ParseItemStatus(raw string) (ItemStatus, error) {
	switch ItemStatus(raw) {
	case ItemStatusUnpaid, ItemStatusPendingApproval, ItemStatusProcessing,
		ItemStatusPaid, ItemStatusRefunding, ItemStatusRefunded,
		ItemStatusMissingPayoutMethod, ItemStatusRetained:
		return ItemStatus(raw), nil
	default:
		return "", ErrUnknownItemStatus
	}
}

// PayoutStatus is the lifecycle state of a payout.
//
//	pending_approval → processing → paid
//	pending_refund   → refunded
//
// missing_payout_method and retained are side states: the former waits for
// the payee to add a disbursement method, the latter marks platform-owned
// funds withheld instead of disbursed.
type PayoutStatus string

const (
	PayoutStatusPendingApproval     PayoutStatus = "pending_approval"
	PayoutStatusProcessing          PayoutStatus = "processing"
	PayoutStatusPaid                PayoutStatus = "paid"
	PayoutStatusPendingRefund       PayoutStatus = "pending_refund"
	PayoutStatusRefunded            PayoutStatus = "refunded"
	PayoutStatusMissingPayoutMethod PayoutStatus = "missing_payout_method"
	PayoutStatusRetained            PayoutStatus = "retained"
)

func ParsePayoutStatus(raw string) (PayoutStatus, error) {
	switch PayoutStatus(raw) {
	case PayoutStatusPendingApproval, PayoutStatusProcessing, PayoutStatusPaid,
		PayoutStatusPendingRefund, PayoutStatusRefunded,
		PayoutStatusMissingPayoutMethod, PayoutStatusRetained:
		return PayoutStatus(raw), nil
	default:
		return "", ErrUnknownPayoutStatus
	}
}
