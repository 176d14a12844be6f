package dispatch

import "fmt"

// Config defines the simulation parameters of the dispatch lifecycle.
type Config struct {
	// TickSeconds is the period of the ETA countdown timer.
	TickSeconds int `json:"tick_seconds" yaml:"tick_seconds"`
	// ETAMinMinutes and ETAMaxMinutes bound the initial ETA drawn when a
	// request goes en route.
	ETAMinMinutes int `json:"eta_min_minutes" yaml:"eta_min_minutes"`
	ETAMaxMinutes int `json:"eta_max_minutes" yaml:"eta_max_minutes"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TickSeconds == 0 {
		c.TickSeconds = 60
	}
	if c.ETAMinMinutes == 0 {
		c.ETAMinMinutes = 10
	}
	if c.ETAMaxMinutes == 0 {
		c.ETAMaxMinutes = 40
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.TickSeconds < 0 {
		return fmt.Errorf("tick_seconds must be positive")
	}
	if c.ETAMinMinutes <= 0 || c.ETAMaxMinutes < c.ETAMinMinutes {
		return fmt.Errorf("eta bounds must satisfy 0 < min <= max")
	}
	return nil
}
