// Package worker provides background job processing for Switchback.
package worker

import (
	"time"
)

// RefreshConfig holds configuration for the saved route refresh job.
type RefreshConfig struct {
	// Staleness is how old a route's stored path must be before it is
	// re-computed. Default: 7 days.
	Staleness time.Duration

	// BatchSize is the maximum number of routes refreshed per run.
	// Default: 100
	BatchSize int

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each route's path computation.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Staleness:   7 * 24 * time.Hour,
		BatchSize:   100,
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// withDefaults fills zero fields with their defaults.
func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if c.Staleness <= 0 {
		c.Staleness = def.Staleness
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
