package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/payrail/internal/audit/domain"
	"github.com/smallbiznis/payrail/internal/config"
	"github.com/smallbiznis/payrail/internal/disbursement/adapters"
	disbursementdomain "github.com/smallbiznis/payrail/internal/disbursement/domain"
	obsmetrics "github.com/smallbiznis/payrail/internal/observability/metrics"
	payoutdomain "github.com/smallbiznis/payrail/internal/payout/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Config     config.Config
	Registry   *adapters.Registry
	AuditSvc   auditdomain.Service `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	provider   string
	registry   *adapters.Registry
	auditSvc   auditdomain.Service
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) disbursementdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("disbursement.service"),
		provider:   p.Config.DisbursementProvider,
		registry:   p.Registry,
		auditSvc:   p.AuditSvc,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Dispatch(ctx context.Context, payoutIDs []snowflake.ID) (string, []payoutdomain.Payout, error) {
	processor, err := s.registry.Get(s.provider)
	if err != nil {
		return "", nil, err
	}

	var payouts []payoutdomain.Payout
	err = s.db.WithContext(ctx).
		Where("id IN ? AND status = ?", payoutIDs, payoutdomain.PayoutStatusProcessing).
		Order("id").
		Find(&payouts).Error
	if err != nil {
		return "", nil, err
	}
	if len(payouts) == 0 {
		return "", nil, disbursementdomain.ErrNoPayouts
	}
	if len(payouts) != len(payoutIDs) {
		return "", nil, disbursementdomain.ErrPayoutNotProcessing
	}

	items := make([]disbursementdomain.BatchItem, 0, len(payouts))
	for _, payout := range payouts {
		items = append(items, disbursementdomain.BatchItem{
			PayoutID:   payout.ID,
			PayeeEmail: payout.PayoutEmail,
			Amount:     payout.Amount,
			Currency:   payout.Currency,
		})
	}

	// The processor call happens before any local write: a rejected batch
	// leaves every payout exactly as it was.
	batchID, err := processor.DispatchBatch(ctx, items)
	if err != nil {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordDisbursement(ctx, s.provider, "failed")
		}
		s.log.Warn("disbursement dispatch rejected",
			zap.String("provider", s.provider),
			zap.Int("payouts", len(payouts)),
			zap.Error(err),
		)
		return "", nil, err
	}

	finalized, err := s.FinalizeDisbursement(ctx, payoutIDs, nil, batchID)
	if err != nil {
		return "", nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordDisbursement(ctx, s.provider, "dispatched")
	}
	return batchID, finalized, nil
}

func (s *Service) FinalizeDisbursement(ctx context.Context, advancedIDs, refundingIDs []snowflake.ID, batchID string) ([]payoutdomain.Payout, error) {
	batchID = strings.TrimSpace(batchID)
	if batchID == "" {
		return nil, disbursementdomain.ErrInvalidBatch
	}

	finalized := make([]payoutdomain.Payout, 0, len(advancedIDs)+len(refundingIDs))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, payoutID := range advancedIDs {
			payout, err := s.finalizeOne(tx, payoutID, batchID,
				payoutdomain.PayoutStatusProcessing,
				payoutdomain.PayoutStatusPaid, payoutdomain.ItemStatusPaid)
			if err != nil {
				return err
			}
			finalized = append(finalized, *payout)
		}

		// Refund-marked payouts also travel through processing; they land
		// in refunded instead of paid.
		for _, payoutID := range refundingIDs {
			payout, err := s.finalizeOne(tx, payoutID, batchID,
				payoutdomain.PayoutStatusProcessing,
				payoutdomain.PayoutStatusRefunded, payoutdomain.ItemStatusRefunded)
			if err != nil {
				return err
			}
			finalized = append(finalized, *payout)
		}

		// Platform-owned funds with nowhere to go are withheld, not
		// disbursed to ourselves. Only items already folded into a payout
		// qualify; a refund mirror that has not been through a run yet
		// still belongs to the next run.
		if err := tx.Exec(
			`UPDATE payout_items SET status = ?
			 WHERE payee_type = ? AND payout_id IS NOT NULL AND status IN ?`,
			payoutdomain.ItemStatusRetained,
			payoutdomain.PayeeTypePlatform,
			[]payoutdomain.ItemStatus{
				payoutdomain.ItemStatusMissingPayoutMethod,
				payoutdomain.ItemStatusRefunding,
			},
		).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			`UPDATE payouts SET status = ?
			 WHERE payee_type = ? AND status IN ?`,
			payoutdomain.PayoutStatusRetained,
			payoutdomain.PayeeTypePlatform,
			[]payoutdomain.PayoutStatus{
				payoutdomain.PayoutStatusMissingPayoutMethod,
				payoutdomain.PayoutStatusPendingRefund,
			},
		).Error; err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.writeAuditLog(ctx, "disbursement.finalized", batchID, map[string]any{
		"paid":         len(advancedIDs),
		"refunded":     len(refundingIDs),
		"finalized_at": time.Now().UTC().Format(time.RFC3339),
	})

	return finalized, nil
}

func (s *Service) finalizeOne(
	tx *gorm.DB,
	payoutID snowflake.ID,
	batchID string,
	expected payoutdomain.PayoutStatus,
	nextPayout payoutdomain.PayoutStatus,
	nextItem payoutdomain.ItemStatus,
) (*payoutdomain.Payout, error) {

	result := tx.Model(&payoutdomain.Payout{}).
		Where("id = ? AND status = ?", payoutID, expected).
		Updates(map[string]any{
			"status":                nextPayout,
			"disbursement_batch_id": batchID,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, disbursementdomain.ErrPayoutNotProcessing
	}

	if err := tx.Exec(
		`UPDATE payout_items SET status = ? WHERE payout_id = ?`,
		nextItem, payoutID,
	).Error; err != nil {
		return nil, err
	}

	var payout payoutdomain.Payout
	if err := tx.Where("id = ?", payoutID).First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (s *Service) writeAuditLog(ctx context.Context, action, batchID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, "system", action, "disbursement_batch", &batchID, metadata); err != nil {
		s.log.Warn("failed to write disbursement audit log", zap.String("action", action), zap.Error(err))
	}
}
