package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// FeeConfig holds the mutable fee constants used by the split calculator
// and the approval workflow. It is passed by value so callers always
// compute against one consistent snapshot.
type FeeConfig struct {
	// DefaultPlatformRate is the platform's cut of an order when no
	// seller policy overrides it. DefaultSellerRate is its complement.
	DefaultPlatformRate float64 `mapstructure:"defaultPlatformRate"`
	DefaultSellerRate   float64 `mapstructure:"defaultSellerRate"`

	// PaymentFeePercent and PaymentFeeFixed reconstruct the processor
	// fee when the charge did not carry one.
	PaymentFeePercent float64 `mapstructure:"paymentFeePercent"`
	PaymentFeeFixed   int64   `mapstructure:"paymentFeeFixed"`

	// MaxBuyerAffiliateRate is a hard ceiling; higher configured rates
	// are clamped, never rejected.
	MaxBuyerAffiliateRate float64 `mapstructure:"maxBuyerAffiliateRate"`

	// DefaultBuyerAffiliateRate seeds buyer-affiliate policies created
	// on first use.
	DefaultBuyerAffiliateRate float64 `mapstructure:"defaultBuyerAffiliateRate"`

	// Quorum is the number of distinct approver signatures required
	// before a payout may be disbursed.
	Quorum int `mapstructure:"quorum"`
}

func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		DefaultPlatformRate:       0.15,
		DefaultSellerRate:         0.85,
		PaymentFeePercent:         0.036,
		PaymentFeeFixed:           30,
		MaxBuyerAffiliateRate:     0.50,
		DefaultBuyerAffiliateRate: 0.10,
		Quorum:                    2,
	}
}

// FeeConfigHolder serves fee config snapshots and hot-reloads them from
// a volume-mounted fees.yml when present.
type FeeConfigHolder struct {
	current atomic.Value // holds FeeConfig
}

func NewFeeConfigHolder() (*FeeConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("fees")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/payrail/config")
	v.AddConfigPath("/etc/payrail")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PAYRAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultFeeConfig()
		v.SetDefault("fees.defaultPlatformRate", defaults.DefaultPlatformRate)
		v.SetDefault("fees.defaultSellerRate", defaults.DefaultSellerRate)
		v.SetDefault("fees.paymentFeePercent", defaults.PaymentFeePercent)
		v.SetDefault("fees.paymentFeeFixed", defaults.PaymentFeeFixed)
		v.SetDefault("fees.maxBuyerAffiliateRate", defaults.MaxBuyerAffiliateRate)
		v.SetDefault("fees.defaultBuyerAffiliateRate", defaults.DefaultBuyerAffiliateRate)
		v.SetDefault("fees.quorum", defaults.Quorum)
	}

	var cfg FeeConfig
	if err := v.UnmarshalKey("fees", &cfg); err != nil {
		return nil, err
	}
	if err := validateFeeConfig(cfg); err != nil {
		return nil, err
	}

	holder := &FeeConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated FeeConfig
		if err := v.UnmarshalKey("fees", &updated); err != nil {
			log.Printf("[fee-config] reload failed: %v", err)
			return
		}
		if err := validateFeeConfig(updated); err != nil {
			log.Printf("[fee-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[fee-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticFeeConfigHolder returns a holder pinned to cfg. Tests use it
// to vary fee constants without touching the filesystem.
func NewStaticFeeConfigHolder(cfg FeeConfig) *FeeConfigHolder {
	holder := &FeeConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *FeeConfigHolder) Get() FeeConfig {
	return h.current.Load().(FeeConfig)
}

func validateFeeConfig(cfg FeeConfig) error {
	rates := []float64{
		cfg.DefaultPlatformRate,
		cfg.DefaultSellerRate,
		cfg.PaymentFeePercent,
		cfg.MaxBuyerAffiliateRate,
		cfg.DefaultBuyerAffiliateRate,
	}
	for _, rate := range rates {
		if rate < 0 || rate > 1 {
			return errors.New("fees: rates must be fractions in [0, 1]")
		}
	}
	if cfg.PaymentFeeFixed < 0 {
		return errors.New("fees: paymentFeeFixed cannot be negative")
	}
	if cfg.Quorum < 1 {
		return errors.New("fees: quorum must be at least 1")
	}
	return nil
}
