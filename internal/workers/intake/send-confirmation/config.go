// internal/workers/intake/send-confirmation/config.go
package sendconfirmation

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled   bool          `mapstructure:"enabled"`
	Timeout   time.Duration `mapstructure:"timeout"`
	FromEmail string        `mapstructure:"from_email"`
	Subject   string        `mapstructure:"subject"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Timeout: 10 * time.Second,
		Subject: "We received your Afriwork application",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Enabled && c.FromEmail == "" {
		return fmt.Errorf("from_email is required when enabled")
	}
	return nil
}
