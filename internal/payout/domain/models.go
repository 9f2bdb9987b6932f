// Package domain contains persistence models for the payout ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PayoutItem is one obligation line linking a payee, an order item and an
// amount. Amounts are signed minor currency units; refunds are mirror rows
// with negated amounts, never edits.
type PayoutItem struct {
	ID                  snowflake.ID  `json:"id" gorm:"primaryKey"`
	PayeeID             string        `json:"payee_id" gorm:"type:text;not null;index"`
	PayeeType           PayeeType     `json:"payee_type" gorm:"type:text;not null"`
	Amount              int64         `json:"amount" gorm:"not null"`
	ProcessingFee       int64         `json:"processing_fee" gorm:"not null"`
	Status              ItemStatus    `json:"status" gorm:"type:text;not null;index"`
	Currency            string        `json:"currency" gorm:"type:text;not null"`
	OrderItemID         string        `json:"order_item_id" gorm:"type:text;not null;index"`
	SourceTransactionID string        `json:"source_transaction_id" gorm:"type:text;not null;index"`
	PayoutID            *snowflake.ID `json:"payout_id,omitempty" gorm:"index"`
	CreatedAt           time.Time     `json:"created_at" gorm:"not null"`
}

// TableName sets the database table name.
func (PayoutItem) TableName() string { return "payout_items" }

// Payout groups a payee's outstanding items for one period into a single
// approvable disbursement unit. The item set is immutable after creation;
// late items roll into the next period's payout.
type Payout struct {
	ID                    snowflake.ID                      `json:"id" gorm:"primaryKey"`
	PayeeID               string                            `json:"payee_id" gorm:"type:text;not null;index"`
	PayeeType             PayeeType                         `json:"payee_type" gorm:"type:text;not null"`
	Amount                int64                             `json:"amount" gorm:"not null"`
	PeriodStart           time.Time                         `json:"period_start" gorm:"not null"`
	PeriodEnd             time.Time                         `json:"period_end" gorm:"not null"`
	PayoutDate            time.Time                         `json:"payout_date" gorm:"not null"`
	Status                PayoutStatus                      `json:"status" gorm:"type:text;not null;index"`
	PayoutEmail           string                            `json:"payout_email" gorm:"type:text"`
	Currency              string                            `json:"currency" gorm:"type:text;not null"`
	PayoutItemIDs         datatypes.JSONSlice[snowflake.ID] `json:"payout_item_ids" gorm:"type:jsonb"`
	ApproverIDs           datatypes.JSONSlice[string]       `json:"approver_ids" gorm:"type:jsonb"`
	DisbursementBatchID   *string                           `json:"disbursement_batch_id,omitempty" gorm:"type:text"`
	PaidToPaymentMethodID *string                           `json:"paid_to_payment_method_id,omitempty" gorm:"type:text"`
	CreatedAt             time.Time                         `json:"created_at" gorm:"not null"`
}

// TableName sets the database table name.
func (Payout) TableName() string { return "payouts" }

// HasApprover reports whether approverID already signed this payout.
func (p *Payout) HasApprover(approverID string) bool {
	for _, id := range p.ApproverIDs {
		if id == approverID {
			return true
		}
	}
	return false
}
