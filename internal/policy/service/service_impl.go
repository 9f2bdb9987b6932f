package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/payrail/internal/config"
	policydomain "github.com/smallbiznis/payrail/internal/policy/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	FeeHolder *config.FeeConfigHolder
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	feeHolder *config.FeeConfigHolder
}

func NewService(p Params) policydomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("policy.service"),
		genID:     p.GenID,
		feeHolder: p.FeeHolder,
	}
}

func (s *Service) ResolveSellerSplit(ctx context.Context, payeeID string, at time.Time) (*policydomain.SellerSplit, error) {
	payeeID = strings.TrimSpace(payeeID)
	if payeeID == "" {
		return nil, policydomain.ErrInvalidPayee
	}

	cfg := s.feeHolder.Get()

	sellerPolicy, err := s.currentPolicy(ctx, payeeID,
		policydomain.PolicyRoleReferredSeller, policydomain.PolicyRoleSeller)
	if err != nil {
		return nil, err
	}

	if sellerPolicy == nil || sellerPolicy.Expired(at) {
		if cfg.DefaultSellerRate <= 0 {
			return nil, policydomain.ErrNoPolicy
		}
		return &policydomain.SellerSplit{SellerRate: cfg.DefaultSellerRate}, nil
	}

	split := &policydomain.SellerSplit{SellerRate: sellerPolicy.Rate}

	if sellerPolicy.ReferrerPolicyID != nil {
		referrer, err := s.policyByID(ctx, *sellerPolicy.ReferrerPolicyID)
		if err != nil {
			return nil, err
		}
		if referrer != nil && referrer.Role == policydomain.PolicyRoleSellerAffiliate && !referrer.Expired(at) {
			split.SellerAffiliatePayeeID = referrer.PayeeID
			split.SellerAffiliateRate = referrer.Rate
		}
	}

	return split, nil
}

func (s *Service) EnsureBuyerAffiliatePolicy(ctx context.Context, payeeID string, at time.Time) (*policydomain.RevenueSplitPolicy, error) {
	payeeID = strings.TrimSpace(payeeID)
	if payeeID == "" {
		return nil, policydomain.ErrInvalidPayee
	}

	existing, err := s.currentPolicy(ctx, payeeID, policydomain.PolicyRoleBuyerAffiliate)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	cfg := s.feeHolder.Get()
	created := policydomain.RevenueSplitPolicy{
		ID:        s.genID.Generate(),
		PayeeID:   payeeID,
		Role:      policydomain.PolicyRoleBuyerAffiliate,
		Rate:      cfg.DefaultBuyerAffiliateRate,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, err
	}

	s.log.Info("created buyer affiliate policy on first use",
		zap.String("payee_id", payeeID),
		zap.Float64("rate", created.Rate),
	)

	// Reread so a racing creator's row wins deterministically.
	current, err := s.currentPolicy(ctx, payeeID, policydomain.PolicyRoleBuyerAffiliate)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return &created, nil
	}
	return current, nil
}

// currentPolicy returns the newest policy for the payee across the given
// roles, or nil when none exists.
func (s *Service) currentPolicy(ctx context.Context, payeeID string, roles ...policydomain.PolicyRole) (*policydomain.RevenueSplitPolicy, error) {
	var policy policydomain.RevenueSplitPolicy
	err := s.db.WithContext(ctx).
		Where("payee_id = ? AND role IN ?", payeeID, roles).
		Order("created_at DESC, id DESC").
		First(&policy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &policy, nil
}

func (s *Service) policyByID(ctx context.Context, id snowflake.ID) (*policydomain.RevenueSplitPolicy, error) {
	var policy policydomain.RevenueSplitPolicy
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&policy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &policy, nil
}
