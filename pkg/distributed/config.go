package distributed

import (
	"time"

	gserrors "github.com/vnykmshr/gosem/pkg/common/errors"
	"github.com/vnykmshr/gosem/pkg/common/validation"
)

func validateConfig(config Config) error {
	if err := validation.ValidateNotNil("distributed", "redis", config.Redis); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("distributed", "key", config.Key); err != nil {
		return err
	}
	if err := validation.ValidatePositive("distributed", "capacity", config.Capacity); err != nil {
		return err
	}
	if config.LeaseTTL < 0 {
		return gserrors.NewValidationError("distributed", "lease_ttl", config.LeaseTTL,
			"must not be negative")
	}
	if config.SweepSchedule != 0 && config.SweepSchedule < time.Second {
		return gserrors.NewValidationError("distributed", "sweep_schedule", config.SweepSchedule,
			"must be at least one second").
			WithHint("the sweeper runs on a cron schedule with second granularity")
	}
	return nil
}

func applyConfigDefaults(config Config) Config {
	if config.InstanceID == "" {
		config.InstanceID = generateInstanceID()
	}
	if config.LeaseTTL == 0 {
		config.LeaseTTL = 30 * time.Second
	}
	if config.RedisTimeout == 0 {
		config.RedisTimeout = 500 * time.Millisecond
	}
	if config.RetryInterval == 0 {
		config.RetryInterval = 50 * time.Millisecond
	}
	if config.SweepSchedule == 0 {
		config.SweepSchedule = 5 * time.Second
	}
	return config
}
