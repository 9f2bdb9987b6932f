// Package seed bootstraps development fixtures: a couple of payees and a
// seller policy so the payout flow works on a fresh database. Production
// environments never run it.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/payrail/internal/config"
	payoutdomain "github.com/smallbiznis/payrail/internal/payout/domain"
	policydomain "github.com/smallbiznis/payrail/internal/policy/domain"
	"github.com/smallbiznis/payrail/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(run),
)

func run(cfg config.Config, db *gorm.DB, genID *snowflake.Node) error {
	if cfg.Environment != "development" {
		return nil
	}
	return EnsureDevFixtures(db, genID)
}

// EnsureDevFixtures inserts the demo payees and policies when missing.
// Running it twice is a no-op.
func EnsureDevFixtures(db *gorm.DB, genID *snowflake.Node) error {
	if db == nil || genID == nil {
		return errors.New("seed requires a database handle and id generator")
	}

	ctx := context.Background()
	now := time.Now().UTC()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payees := []payoutdomain.Payee{
			{PayeeID: "demo_store", Email: "store@payrail.dev", CreatedAt: now, UpdatedAt: now},
			{PayeeID: "demo_affiliate", Email: "affiliate@payrail.dev", CreatedAt: now, UpdatedAt: now},
		}
		for _, payee := range payees {
			if err := ensurePayee(ctx, tx, payee); err != nil {
				return err
			}
		}

		return ensureSellerPolicy(ctx, tx, genID, "demo_store", 0.85, now)
	})
}

func ensurePayee(ctx context.Context, tx *gorm.DB, payee payoutdomain.Payee) error {
	err := tx.WithContext(ctx).Create(&payee).Error
	if err != nil && !db.IsDuplicateKeyErr(err) {
		return err
	}
	return nil
}

func ensureSellerPolicy(ctx context.Context, tx *gorm.DB, genID *snowflake.Node, payeeID string, rate float64, now time.Time) error {
	var count int64
	err := tx.WithContext(ctx).Model(&policydomain.RevenueSplitPolicy{}).
		Where("payee_id = ? AND role = ?", payeeID, policydomain.PolicyRoleSeller).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&policydomain.RevenueSplitPolicy{
		ID:        genID.Generate(),
		PayeeID:   payeeID,
		Role:      policydomain.PolicyRoleSeller,
		Rate:      rate,
		CreatedAt: now,
	}).Error
}
