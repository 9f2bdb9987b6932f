package repository

import (
	"context"

	payoutdomain "github.com/smallbiznis/payrail/internal/payout/domain"
	"gorm.io/gorm"
)

type directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) payoutdomain.Directory {
	return &directory{db: db}
}

func (r *directory) Contacts(ctx context.Context, payeeIDs []string) (map[string]payoutdomain.Contact, error) {
	out := make(map[string]payoutdomain.Contact, len(payeeIDs))
	if len(payeeIDs) == 0 {
		return out, nil
	}

	var rows []payoutdomain.Payee
	if err := r.db.WithContext(ctx).Where("payee_id IN ?", payeeIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PayeeID] = payoutdomain.Contact{
			Email:           row.Email,
			PaymentMethodID: row.PaymentMethodID,
		}
	}
	return out, nil
}
