package domain

import (
	"context"
	"time"
)

// Payee is the directory row mapping a payee to its disbursement routing.
// A payee with no email cannot be paid and its payouts park in
// missing_payout_method until one is added.
type Payee struct {
	PayeeID         string    `gorm:"primaryKey;type:text"`
	Email           string    `gorm:"type:text"`
	PaymentMethodID *string   `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (Payee) TableName() string { return "payees" }

// Contact is the resolved routing info for one payee.
type Contact struct {
	Email           string
	PaymentMethodID *string
}

// Directory resolves payout routing for a set of payees.
type Directory interface {
	Contacts(ctx context.Context, payeeIDs []string) (map[string]Contact, error)
}
