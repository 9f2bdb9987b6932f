// Package feesplit divides an order subtotal among seller, platform and
// affiliates. All amounts are minor currency units; all rates are fractions
// already resolved for policy expiry by the caller.
package feesplit

import (
	"errors"
	"math"

	"github.com/smallbiznis/payrail/internal/config"
)

var (
	ErrInvalidSubtotal = errors.New("invalid_subtotal")

	// ErrConservationViolated means the split no longer sums back to the
	// subtotal. This is a programmer error and must never be swallowed.
	ErrConservationViolated = errors.New("conservation_violated")
)

type Input struct {
	Subtotal            int64
	ProcessingFee       int64
	SellerRate          float64
	BuyerAffiliateRate  float64
	SellerAffiliateRate float64
}

type Result struct {
	SellerEarnings          int64
	ProcessingFee           int64
	PlatformEarnings        int64
	BuyerAffiliateEarnings  int64
	SellerAffiliateEarnings int64
}

// Split computes the conservation-respecting division of in.Subtotal.
//
// The seller's gross cut rounds up; every remainder lands in the platform
// share, which is always computed as what is left over rather than from a
// rate. The seller bears the processing fee.
func Split(cfg config.FeeConfig, in Input) (Result, error) {
	if in.Subtotal < 0 {
		return Result{}, ErrInvalidSubtotal
	}

	fee := in.ProcessingFee
	if fee == 0 {
		fee = roundHalfUp(float64(in.Subtotal)*cfg.PaymentFeePercent) + cfg.PaymentFeeFixed
	}

	sellerGross := int64(math.Ceil(float64(in.Subtotal) * in.SellerRate))
	platformShare := in.Subtotal - sellerGross

	// The seller-affiliate cut is a fraction of the platform's share,
	// scaled by the default platform rate. Downstream reconciliation
	// depends on this exact formula; do not restate it against the
	// subtotal.
	var sellerAffiliate int64
	switch {
	case in.SellerAffiliateRate <= 0:
		sellerAffiliate = 0
	case in.SellerAffiliateRate <= cfg.DefaultPlatformRate:
		sellerAffiliate = roundHalfUp(in.SellerAffiliateRate * float64(platformShare) / cfg.DefaultPlatformRate)
	default:
		sellerAffiliate = platformShare
	}
	platform := platformShare - sellerAffiliate

	buyerRate := in.BuyerAffiliateRate
	if buyerRate > cfg.MaxBuyerAffiliateRate {
		buyerRate = cfg.MaxBuyerAffiliateRate
	}
	var buyerAffiliate int64
	if buyerRate > 0 && cfg.DefaultPlatformRate < 1 {
		buyerAffiliate = roundHalfUp(buyerRate * float64(sellerGross) / (1 - cfg.DefaultPlatformRate))
	}
	sellerNet := sellerGross - buyerAffiliate - fee

	out := Result{
		SellerEarnings:          sellerNet,
		ProcessingFee:           fee,
		PlatformEarnings:        platform,
		BuyerAffiliateEarnings:  buyerAffiliate,
		SellerAffiliateEarnings: sellerAffiliate,
	}

	total := out.SellerEarnings + out.ProcessingFee + out.PlatformEarnings +
		out.BuyerAffiliateEarnings + out.SellerAffiliateEarnings
	if total != in.Subtotal {
		return Result{}, ErrConservationViolated
	}

	return out, nil
}

func roundHalfUp(v float64) int64 {
	return int64(math.Round(v))
}
