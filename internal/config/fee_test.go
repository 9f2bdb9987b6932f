package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFeeConfigIsValid(t *testing.T) {
	cfg := DefaultFeeConfig()

	require.NoError(t, validateFeeConfig(cfg))
	assert.InDelta(t, 1.0, cfg.DefaultPlatformRate+cfg.DefaultSellerRate, 1e-9)
	assert.Equal(t, 2, cfg.Quorum)
}

func TestValidateFeeConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*FeeConfig)
	}{
		{"rate above one", func(c *FeeConfig) { c.DefaultSellerRate = 1.5 }},
		{"negative rate", func(c *FeeConfig) { c.MaxBuyerAffiliateRate = -0.1 }},
		{"negative fixed fee", func(c *FeeConfig) { c.PaymentFeeFixed = -1 }},
		{"zero quorum", func(c *FeeConfig) { c.Quorum = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultFeeConfig()
			tc.mutate(&cfg)
			assert.Error(t, validateFeeConfig(cfg))
		})
	}
}

func TestStaticHolderServesSnapshot(t *testing.T) {
	cfg := DefaultFeeConfig()
	cfg.Quorum = 3

	holder := NewStaticFeeConfigHolder(cfg)
	assert.Equal(t, 3, holder.Get().Quorum)
}
