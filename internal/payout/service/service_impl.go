package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/payrail/internal/audit/domain"
	"github.com/smallbiznis/payrail/internal/config"
	obsmetrics "github.com/smallbiznis/payrail/internal/observability/metrics"
	payoutdomain "github.com/smallbiznis/payrail/internal/payout/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	FeeHolder  *config.FeeConfigHolder
	Directory  payoutdomain.Directory
	AuditSvc   auditdomain.Service `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	feeHolder  *config.FeeConfigHolder
	directory  payoutdomain.Directory
	auditSvc   auditdomain.Service
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) payoutdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payout.service"),
		genID:      p.GenID,
		feeHolder:  p.FeeHolder,
		directory:  p.Directory,
		auditSvc:   p.AuditSvc,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) CreatePayoutRun(ctx context.Context, period payoutdomain.Period, approverID string) ([]payoutdomain.Payout, error) {
	approverID = strings.TrimSpace(approverID)
	if approverID == "" {
		return nil, payoutdomain.ErrInvalidApprover
	}
	if period.Start.IsZero() || !period.Start.Before(period.End) {
		return nil, payoutdomain.ErrInvalidPeriod
	}

	// Grouping folds consecutive rows, so the payee ordering here is a
	// precondition, not an optimization.
	var items []payoutdomain.PayoutItem
	err := s.db.WithContext(ctx).
		Where("payout_id IS NULL AND status IN ? AND created_at >= ? AND created_at < ?",
			[]payoutdomain.ItemStatus{payoutdomain.ItemStatusUnpaid, payoutdomain.ItemStatusRefunding},
			period.Start, period.End).
		Order("payee_id, id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []payoutdomain.Payout{}, nil
	}

	payeeIDs := make([]string, 0, 8)
	for i, item := range items {
		if i == 0 || items[i-1].PayeeID != item.PayeeID {
			payeeIDs = append(payeeIDs, item.PayeeID)
		}
	}
	contacts, err := s.directory.Contacts(ctx, payeeIDs)
	if err != nil {
		return nil, err
	}

	// The whole run commits as one unit: a failed write on any payee rolls
	// back every payout and item already touched, so a re-run starts clean.
	created := make([]payoutdomain.Payout, 0, len(payeeIDs))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(items); {
			end := start
			for end < len(items) && items[end].PayeeID == items[start].PayeeID {
				end++
			}
			group := items[start:end]
			start = end

			payouts, err := s.writePayeePayouts(tx, period, approverID, group, contacts[group[0].PayeeID])
			if err != nil {
				return err
			}
			created = append(created, payouts...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordPayoutRun(ctx, len(created))
	}
	s.writeAuditLog(ctx, approverID, "payout.run_created", "payout_run", nil, map[string]any{
		"period_start": period.Start.Format(time.RFC3339),
		"period_end":   period.End.Format(time.RFC3339),
		"payouts":      len(created),
	})

	return created, nil
}

// writePayeePayouts folds one payee's items into at most two payouts: one
// for forward obligations and one deduction unit for refund mirrors.
func (s *Service) writePayeePayouts(
	tx *gorm.DB,
	period payoutdomain.Period,
	approverID string,
	group []payoutdomain.PayoutItem,
	contact payoutdomain.Contact,
) ([]payoutdomain.Payout, error) {

	var forward, refunds []payoutdomain.PayoutItem
	for _, item := range group {
		if item.Status == payoutdomain.ItemStatusRefunding {
			refunds = append(refunds, item)
			continue
		}
		forward = append(forward, item)
	}

	out := make([]payoutdomain.Payout, 0, 2)

	if len(forward) > 0 {
		status := payoutdomain.PayoutStatusPendingApproval
		itemStatus := payoutdomain.ItemStatusPendingApproval
		approvers := []string{approverID}
		if strings.TrimSpace(contact.Email) == "" {
			status = payoutdomain.PayoutStatusMissingPayoutMethod
			itemStatus = payoutdomain.ItemStatusMissingPayoutMethod
			approvers = nil
		}
		payout, err := s.writePayout(tx, period, forward, contact, status, itemStatus, approvers)
		if err != nil {
			return nil, err
		}
		out = append(out, *payout)
	}

	if len(refunds) > 0 {
		payout, err := s.writePayout(tx, period, refunds, contact,
			payoutdomain.PayoutStatusPendingRefund, payoutdomain.ItemStatusRefunding,
			[]string{approverID})
		if err != nil {
			return nil, err
		}
		out = append(out, *payout)
	}

	return out, nil
}

func (s *Service) writePayout(
	tx *gorm.DB,
	period payoutdomain.Period,
	items []payoutdomain.PayoutItem,
	contact payoutdomain.Contact,
	status payoutdomain.PayoutStatus,
	itemStatus payoutdomain.ItemStatus,
	approvers []string,
) (*payoutdomain.Payout, error) {

	payout := payoutdomain.Payout{
		ID:                    s.genID.Generate(),
		PayeeID:               items[0].PayeeID,
		PayeeType:             items[0].PayeeType,
		PeriodStart:           period.Start,
		PeriodEnd:             period.End,
		PayoutDate:            period.PayoutDate(),
		Status:                status,
		PayoutEmail:           contact.Email,
		Currency:              items[0].Currency,
		ApproverIDs:           approvers,
		PaidToPaymentMethodID: contact.PaymentMethodID,
		CreatedAt:             time.Now().UTC(),
	}
	itemIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		payout.Amount += item.Amount
		itemIDs = append(itemIDs, item.ID)
	}
	payout.PayoutItemIDs = itemIDs

	// Items first, payout second: a failure mid-statement must not leave
	// a payout referencing items still marked unpaid.
	if err := tx.Exec(
		`UPDATE payout_items SET status = ?, payout_id = ? WHERE id IN ?`,
		itemStatus, payout.ID, itemIDs,
	).Error; err != nil {
		return nil, err
	}
	if err := tx.Create(&payout).Error; err != nil {
		return nil, err
	}

	return &payout, nil
}

func (s *Service) SignPayouts(ctx context.Context, payoutIDs []snowflake.ID, approverID string) (*payoutdomain.SignResult, error) {
	approverID = strings.TrimSpace(approverID)
	if approverID == "" {
		return nil, payoutdomain.ErrInvalidApprover
	}
	if len(payoutIDs) == 0 {
		return &payoutdomain.SignResult{}, nil
	}

	quorum := s.feeHolder.Get().Quorum
	result := &payoutdomain.SignResult{}

	for _, payoutID := range payoutIDs {
		payout, advanced, err := s.signOne(ctx, payoutID, approverID, quorum)
		if err != nil {
			return nil, err
		}
		if advanced {
			result.Advanced = append(result.Advanced, *payout)
		} else {
			result.StillPending = append(result.StillPending, *payout)
		}
	}

	return result, nil
}

// signOne records one signature inside one transaction. The payout row is
// locked for the duration so racing approvals serialize and the second
// writer observes the first writer's signature.
func (s *Service) signOne(ctx context.Context, payoutID snowflake.ID, approverID string, quorum int) (*payoutdomain.Payout, bool, error) {
	var payout payoutdomain.Payout
	advanced := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("id = ?", payoutID)
		// sqlite has no FOR UPDATE; its single writer gives the same
		// serialization.
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&payout).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return payoutdomain.ErrPayoutNotFound
			}
			return err
		}

		switch payout.Status {
		case payoutdomain.PayoutStatusPendingApproval, payoutdomain.PayoutStatusPendingRefund:
		case payoutdomain.PayoutStatusProcessing, payoutdomain.PayoutStatusPaid, payoutdomain.PayoutStatusRefunded:
			// Already past approval; the call is idempotent.
			advanced = true
			return nil
		default:
			return payoutdomain.ErrPayoutNotSignable
		}

		if !payout.HasApprover(approverID) {
			payout.ApproverIDs = append(payout.ApproverIDs, approverID)
		}

		if len(payout.ApproverIDs) < quorum {
			if err := tx.Model(&payoutdomain.Payout{}).
				Where("id = ?", payout.ID).
				Update("approver_ids", payout.ApproverIDs).Error; err != nil {
				return err
			}
			return nil
		}

		// Quorum reached: payout and every item it references move
		// together, or not at all.
		nextPayout := payoutdomain.PayoutStatusProcessing
		nextItem := payoutdomain.ItemStatusProcessing
		if payout.Status == payoutdomain.PayoutStatusPendingRefund {
			nextPayout = payoutdomain.PayoutStatusRefunded
			nextItem = payoutdomain.ItemStatusRefunded
		}

		if err := tx.Model(&payoutdomain.Payout{}).
			Where("id = ?", payout.ID).
			Updates(map[string]any{
				"approver_ids": payout.ApproverIDs,
				"status":       nextPayout,
			}).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			`UPDATE payout_items SET status = ? WHERE payout_id = ?`,
			nextItem, payout.ID,
		).Error; err != nil {
			return err
		}

		payout.Status = nextPayout
		advanced = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	outcome := "pending"
	if advanced {
		outcome = "advanced"
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordSignature(ctx, outcome)
	}
	targetID := payout.ID.String()
	s.writeAuditLog(ctx, approverID, "payout.signed", "payout", &targetID, map[string]any{
		"outcome":   outcome,
		"status":    string(payout.Status),
		"approvers": len(payout.ApproverIDs),
	})

	return &payout, advanced, nil
}

func (s *Service) writeAuditLog(ctx context.Context, actorID, action, targetType string, targetID *string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, actorID, action, targetType, targetID, metadata); err != nil {
		s.log.Warn("failed to write payout audit log", zap.String("action", action), zap.Error(err))
	}
}
