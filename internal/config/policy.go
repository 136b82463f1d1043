package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingPolicy tunes how the scheduler and ledger treat overdue bills.
// It lives in billing.yml so operators can adjust it without a redeploy.
type BillingPolicy struct {
	// PenaltyGraceDays is how many days after the due date a pending
	// bill may sit before the overdue sweep flags it.
	PenaltyGraceDays int `mapstructure:"penaltyGraceDays"`
	// OverdueSweepMinutes is the interval between overdue sweeps.
	OverdueSweepMinutes int `mapstructure:"overdueSweepMinutes"`
	// GenerationHour is the hour of day (UTC) the monthly generation
	// job runs on the 1st.
	GenerationHour int `mapstructure:"generationHour"`
}

func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{
		PenaltyGraceDays:    0,
		OverdueSweepMinutes: 60,
		GenerationHour:      2,
	}
}

type BillingPolicyHolder struct {
	current atomic.Value // holds BillingPolicy
}

func NewBillingPolicyHolder() (*BillingPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/upkeep/config")
	v.AddConfigPath("/etc/upkeep")
	v.AddConfigPath(".")

	v.SetEnvPrefix("UPKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultBillingPolicy()
		v.SetDefault("billing.penaltyGraceDays", defaults.PenaltyGraceDays)
		v.SetDefault("billing.overdueSweepMinutes", defaults.OverdueSweepMinutes)
		v.SetDefault("billing.generationHour", defaults.GenerationHour)
	}

	var policy BillingPolicy
	if err := v.UnmarshalKey("billing", &policy); err != nil {
		return nil, err
	}
	if err := validateBillingPolicy(policy); err != nil {
		return nil, err
	}

	holder := &BillingPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingPolicy
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-policy] reload failed: %v", err)
			return
		}
		if err := validateBillingPolicy(updated); err != nil {
			log.Printf("[billing-policy] invalid policy ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingPolicyHolder) Get() BillingPolicy {
	return h.current.Load().(BillingPolicy)
}

func validateBillingPolicy(policy BillingPolicy) error {
	if policy.PenaltyGraceDays < 0 {
		return errors.New("billing.penaltyGraceDays cannot be negative")
	}
	if policy.OverdueSweepMinutes <= 0 {
		return errors.New("billing.overdueSweepMinutes must be positive")
	}
	if policy.GenerationHour < 0 || policy.GenerationHour > 23 {
		return errors.New("billing.generationHour out of range")
	}
	return nil
}
