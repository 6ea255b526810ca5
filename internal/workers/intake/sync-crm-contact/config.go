// internal/workers/intake/sync-crm-contact/config.go
package synccrmcontact

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled      bool          `mapstructure:"enabled"`
	Timeout      time.Duration `mapstructure:"timeout"`
	LeadSource   string        `mapstructure:"lead_source"`
	MaxBatchSize int           `mapstructure:"max_batch_size"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		Timeout:      30 * time.Second,
		LeadSource:   "Afriwork Talent Intake",
		MaxBatchSize: 100,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	return nil
}
