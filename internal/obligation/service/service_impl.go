package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/payrail/internal/config"
	"github.com/smallbiznis/payrail/internal/feesplit"
	obligationdomain "github.com/smallbiznis/payrail/internal/obligation/domain"
	obsmetrics "github.com/smallbiznis/payrail/internal/observability/metrics"
	payoutdomain "github.com/smallbiznis/payrail/internal/payout/domain"
	policydomain "github.com/smallbiznis/payrail/internal/policy/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	FeeHolder  *config.FeeConfigHolder
	PolicySvc  policydomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	feeHolder  *config.FeeConfigHolder
	policySvc  policydomain.Service
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) obligationdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("obligation.service"),
		genID:      p.GenID,
		feeHolder:  p.FeeHolder,
		policySvc:  p.PolicySvc,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) ComputeObligations(ctx context.Context, in obligationdomain.ComputeInput) ([]payoutdomain.PayoutItem, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	cfg := s.feeHolder.Get()
	at := in.OccurredAt.UTC()

	// The buyer-affiliate policy is shared by every line item of the
	// order, so it is resolved (and auto-created) exactly once.
	var buyerRate float64
	if in.BuyerAffiliatePayeeID != "" {
		buyerPolicy, err := s.policySvc.EnsureBuyerAffiliatePolicy(ctx, in.BuyerAffiliatePayeeID, at)
		if err != nil {
			return nil, err
		}
		buyerRate = buyerPolicy.EffectiveRate(at, 0)
	}

	items := make([]payoutdomain.PayoutItem, 0, len(in.LineItems)*2)
	now := time.Now().UTC()

	for _, line := range in.LineItems {
		split, err := s.policySvc.ResolveSellerSplit(ctx, line.StorePayeeID, at)
		if err != nil {
			return nil, err
		}

		result, err := feesplit.Split(cfg, feesplit.Input{
			Subtotal:            line.Subtotal,
			ProcessingFee:       line.ProcessingFee,
			SellerRate:          split.SellerRate,
			BuyerAffiliateRate:  buyerRate,
			SellerAffiliateRate: split.SellerAffiliateRate,
		})
		if err != nil {
			return nil, err
		}

		items = append(items, s.newItem(&in, line.OrderItemID, line.StorePayeeID,
			payoutdomain.PayeeTypeStore, result.SellerEarnings, result.ProcessingFee, now))
		items = append(items, s.newItem(&in, line.OrderItemID, obligationdomain.PlatformPayeeID,
			payoutdomain.PayeeTypePlatform, result.PlatformEarnings, 0, now))

		// Affiliate lines only exist when there is something to pay;
		// zero rows are dropped, not persisted.
		if result.BuyerAffiliateEarnings > 0 {
			items = append(items, s.newItem(&in, line.OrderItemID, in.BuyerAffiliatePayeeID,
				payoutdomain.PayeeTypeBuyerAffiliate, result.BuyerAffiliateEarnings, 0, now))
		}
		if result.SellerAffiliateEarnings > 0 && split.SellerAffiliatePayeeID != "" {
			items = append(items, s.newItem(&in, line.OrderItemID, split.SellerAffiliatePayeeID,
				payoutdomain.PayeeTypeSellerAffiliate, result.SellerAffiliateEarnings, 0, now))
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordObligations(ctx, len(items))
	}
	s.log.Info("computed obligations",
		zap.String("order_id", in.OrderID),
		zap.String("source_transaction_id", in.SourceTransactionID),
		zap.Int("items", len(items)),
	)

	return items, nil
}

func (s *Service) MirrorRefund(ctx context.Context, payoutItemID snowflake.ID, refundTransactionID string) (*payoutdomain.PayoutItem, error) {
	refundTransactionID = strings.TrimSpace(refundTransactionID)
	if refundTransactionID == "" {
		return nil, obligationdomain.ErrInvalidTransaction
	}

	var original payoutdomain.PayoutItem
	err := s.db.WithContext(ctx).Where("id = ?", payoutItemID).First(&original).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, obligationdomain.ErrItemNotFound
		}
		return nil, err
	}
	if original.Status == payoutdomain.ItemStatusRefunding || original.Status == payoutdomain.ItemStatusRefunded {
		return nil, obligationdomain.ErrItemAlreadyMirror
	}

	mirror := payoutdomain.PayoutItem{
		ID:                  s.genID.Generate(),
		PayeeID:             original.PayeeID,
		PayeeType:           original.PayeeType,
		Amount:              -original.Amount,
		ProcessingFee:       -original.ProcessingFee,
		Status:              payoutdomain.ItemStatusRefunding,
		Currency:            original.Currency,
		OrderItemID:         original.OrderItemID,
		SourceTransactionID: refundTransactionID,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&mirror).Error; err != nil {
		return nil, err
	}

	s.log.Info("mirrored refund",
		zap.String("payout_item_id", original.ID.String()),
		zap.String("refund_transaction_id", refundTransactionID),
	)

	return &mirror, nil
}

func (s *Service) newItem(
	in *obligationdomain.ComputeInput,
	orderItemID string,
	payeeID string,
	payeeType payoutdomain.PayeeType,
	amount int64,
	processingFee int64,
	now time.Time,
) payoutdomain.PayoutItem {
	return payoutdomain.PayoutItem{
		ID:                  s.genID.Generate(),
		PayeeID:             payeeID,
		PayeeType:           payeeType,
		Amount:              amount,
		ProcessingFee:       processingFee,
		Status:              payoutdomain.ItemStatusUnpaid,
		Currency:            in.Currency,
		OrderItemID:         orderItemID,
		SourceTransactionID: in.SourceTransactionID,
		CreatedAt:           now,
	}
}

func validateInput(in *obligationdomain.ComputeInput) error {
	in.OrderID = strings.TrimSpace(in.OrderID)
	if in.OrderID == "" || len(in.LineItems) == 0 {
		return obligationdomain.ErrInvalidOrder
	}
	in.SourceTransactionID = strings.TrimSpace(in.SourceTransactionID)
	if in.SourceTransactionID == "" {
		return obligationdomain.ErrInvalidTransaction
	}
	in.Currency = strings.ToLower(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		return obligationdomain.ErrInvalidCurrency
	}
	if in.OccurredAt.IsZero() {
		return obligationdomain.ErrInvalidOrder
	}
	in.BuyerAffiliatePayeeID = strings.TrimSpace(in.BuyerAffiliatePayeeID)
	for i := range in.LineItems {
		in.LineItems[i].OrderItemID = strings.TrimSpace(in.LineItems[i].OrderItemID)
		in.LineItems[i].StorePayeeID = strings.TrimSpace(in.LineItems[i].StorePayeeID)
		if in.LineItems[i].OrderItemID == "" || in.LineItems[i].StorePayeeID == "" {
			return obligationdomain.ErrInvalidLineItem
		}
		if in.LineItems[i].Subtotal < 0 || in.LineItems[i].ProcessingFee < 0 {
			return obligationdomain.ErrInvalidLineItem
		}
	}
	return nil
}
