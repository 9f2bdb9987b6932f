package feesplit

import (
	"testing"

	"github.com/smallbiznis/payrail/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ReferenceScenario(t *testing.T) {
	cfg := config.DefaultFeeConfig()

	out, err := Split(cfg, Input{
		Subtotal:           2345,
		ProcessingFee:      0,
		SellerRate:         cfg.DefaultSellerRate,
		BuyerAffiliateRate: 0.25,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(114), out.ProcessingFee)
	assert.Equal(t, int64(351), out.PlatformEarnings)
	assert.Equal(t, int64(0), out.SellerAffiliateEarnings)
	assert.Equal(t, int64(586), out.BuyerAffiliateEarnings)
	assert.Equal(t, int64(1294), out.SellerEarnings)
	assert.Equal(t, int64(2345),
		out.SellerEarnings+out.ProcessingFee+out.PlatformEarnings+
			out.BuyerAffiliateEarnings+out.SellerAffiliateEarnings)
}

func TestSplit_Conservation(t *testing.T) {
	cfg := config.DefaultFeeConfig()

	subtotals := []int64{0, 1, 2, 3, 99, 100, 101, 999, 2345, 10_000, 123_457, 9_999_999}
	sellerRates := []float64{0, 0.5, 0.7, 0.85, 1}
	buyerRates := []float64{0, 0.1, 0.25, 0.5, 0.9}
	sellerAffRates := []float64{0, 0.05, 0.15, 0.3}

	for _, subtotal := range subtotals {
		for _, sellerRate := range sellerRates {
			for _, buyerRate := range buyerRates {
				for _, affRate := range sellerAffRates {
					out, err := Split(cfg, Input{
						Subtotal:            subtotal,
						SellerRate:          sellerRate,
						BuyerAffiliateRate:  buyerRate,
						SellerAffiliateRate: affRate,
					})
					require.NoError(t, err)

					total := out.SellerEarnings + out.ProcessingFee +
						out.PlatformEarnings + out.BuyerAffiliateEarnings +
						out.SellerAffiliateEarnings
					assert.Equal(t, subtotal, total,
						"subtotal=%d seller=%v buyer=%v aff=%v",
						subtotal, sellerRate, buyerRate, affRate)
				}
			}
		}
	}
}

func TestSplit_IncomingFeePassesThrough(t *testing.T) {
	cfg := config.DefaultFeeConfig()

	out, err := Split(cfg, Input{
		Subtotal:      1000,
		ProcessingFee: 59,
		SellerRate:    cfg.DefaultSellerRate,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(59), out.ProcessingFee)
}

func TestSplit_BuyerAffiliateClamped(t *testing.T) {
	cfg := config.DefaultFeeConfig()

	clamped, err := Split(cfg, Input{
		Subtotal:           10_000,
		SellerRate:         cfg.DefaultSellerRate,
		BuyerAffiliateRate: 0.95,
	})
	require.NoError(t, err)

	atMax, err := Split(cfg, Input{
		Subtotal:           10_000,
		SellerRate:         cfg.DefaultSellerRate,
		BuyerAffiliateRate: cfg.MaxBuyerAffiliateRate,
	})
	require.NoError(t, err)

	assert.Equal(t, atMax.BuyerAffiliateEarnings, clamped.BuyerAffiliateEarnings)
}

func TestSplit_SellerAffiliateCarveOut(t *testing.T) {
	cfg := config.DefaultFeeConfig()

	// Half the default platform rate takes half the platform share.
	out, err := Split(cfg, Input{
		Subtotal:            10_000,
		ProcessingFee:       50,
		SellerRate:          cfg.DefaultSellerRate,
		SellerAffiliateRate: 0.075,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(750), out.SellerAffiliateEarnings)
	assert.Equal(t, int64(750), out.PlatformEarnings)

	// Above the default platform rate the affiliate takes the whole share.
	out, err = Split(cfg, Input{
		Subtotal:            10_000,
		ProcessingFee:       50,
		SellerRate:          cfg.DefaultSellerRate,
		SellerAffiliateRate: 0.40,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1500), out.SellerAffiliateEarnings)
	assert.Equal(t, int64(0), out.PlatformEarnings)
}

func TestSplit_NegativeSubtotal(t *testing.T) {
	_, err := Split(config.DefaultFeeConfig(), Input{Subtotal: -1})
	assert.ErrorIs(t, err, ErrInvalidSubtotal)
}
