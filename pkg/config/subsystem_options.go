package config

import (
	"time"

	"github.com/creasty/defaults"
)

// SubsystemOptions is the resolved per-subsystem runtime configuration a
// poller.Poller is built from: request timeout, poll cadence, and series
// TTL. defaults.Set populates the struct defaults before any subsystem_*
// override from Config is layered on top.
type SubsystemOptions struct {
	Timeout      time.Duration `default:"10s"`
	PollInterval time.Duration `default:"30s"`
	Lifetime     time.Duration `default:"30s"`
}

// SubsystemOptionsFor builds the resolved options for subsystem: start
// from SubsystemOptions's struct defaults, apply Config's global
// defaults, then apply any subsystem-specific override.
func (c *Config) SubsystemOptionsFor(subsystem string) SubsystemOptions {
	opts := SubsystemOptions{}
	_ = defaults.Set(&opts)

	if c.ElasticsearchGlobalTimeout > 0 {
		opts.Timeout = c.ElasticsearchGlobalTimeout
	}
	if c.PollDefaultInterval > 0 {
		opts.PollInterval = c.PollDefaultInterval
	}
	if c.MetricsLifetimeDefaultInterval > 0 || len(c.MetricsLifetimeInterval) > 0 {
		opts.Lifetime = c.LifetimeFor(subsystem)
	}

	if d, ok := c.SubsystemTimeouts[subsystem]; ok {
		opts.Timeout = d
	}
	if d, ok := c.PollIntervals[subsystem]; ok {
		opts.PollInterval = d
	}

	return opts
}
