// internal/workers/intake/notify-recruiters/config.go
package notifyrecruiters

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled      bool          `mapstructure:"enabled"`
	Timeout      time.Duration `mapstructure:"timeout"`
	TopicARN     string        `mapstructure:"recruiter_topic_arn"`
	DashboardURL string        `mapstructure:"dashboard_url"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Timeout: 10 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Enabled && c.TopicARN == "" {
		return fmt.Errorf("recruiter_topic_arn is required when enabled")
	}
	return nil
}
