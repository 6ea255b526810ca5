// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Storage      StorageConfig           `mapstructure:"storage"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Auth         AuthConfig              `mapstructure:"auth"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	Intake       IntakeConfig            `mapstructure:"intake"`
	Dashboard    DashboardConfig         `mapstructure:"dashboard"`
	Logging      LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RequestTimeout int      `mapstructure:"request_timeout"` // milliseconds
	ShutdownGrace  int      `mapstructure:"shutdown_grace"`  // milliseconds
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds

	// BPMN process ids started by the API after a submission or a screening change.
	IntakeProcessID    string `mapstructure:"intake_process_id"`
	ScreeningProcessID string `mapstructure:"screening_process_id"`
}

// Enabled reports whether follow-up processes should be started.
func (c CamundaConfig) Enabled() bool {
	return c.BrokerAddress != ""
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses        []string `mapstructure:"addresses"`
	Username         string   `mapstructure:"username"`
	Password         string   `mapstructure:"password"`
	URL              string   `mapstructure:"url"`
	ApplicationIndex string   `mapstructure:"application_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig holds the object storage used for CV files.
type StorageConfig struct {
	S3 struct {
		Region        string `mapstructure:"region"`
		Endpoint      string `mapstructure:"endpoint"` // optional, for S3-compatible stores
		UsePathStyle  bool   `mapstructure:"use_path_style"`
		CVBucket      string `mapstructure:"cv_bucket"`
		SignedURLTTL  int    `mapstructure:"signed_url_ttl"` // seconds
		UploadTimeout int    `mapstructure:"upload_timeout"` // milliseconds
	} `mapstructure:"s3"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// AuthConfig holds the identity provider and session settings.
type AuthConfig struct {
	Keycloak struct {
		URL          string `mapstructure:"url"`
		Realm        string `mapstructure:"realm"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
	} `mapstructure:"keycloak"`

	Session struct {
		TTL           int    `mapstructure:"ttl"` // seconds
		EventsChannel string `mapstructure:"events_channel"`
	} `mapstructure:"session"`
}

// IntegrationConfig holds settings for CRM, Email, and other external services.
type IntegrationConfig struct {
	Zoho struct {
		APIKey    string `mapstructure:"api_key"`
		AuthToken string `mapstructure:"oauth_token"`
	} `mapstructure:"zoho"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled           bool   `mapstructure:"enabled"`
			RecruiterTopicARN string `mapstructure:"recruiter_topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`

	Sheets struct {
		CredentialsPath string `mapstructure:"credentials_path"`
		SpreadsheetID   string `mapstructure:"spreadsheet_id"`
		Range           string `mapstructure:"range"`
	} `mapstructure:"sheets"`
}

// IntakeConfig tunes the application form.
type IntakeConfig struct {
	DraftTTL   int   `mapstructure:"draft_ttl"`    // seconds
	MaxCVBytes int64 `mapstructure:"max_cv_bytes"` // upper bound for a single CV upload
}

// DashboardConfig tunes the recruiter dashboard.
type DashboardConfig struct {
	Timezone string `mapstructure:"timezone"`
	CacheTTL int    `mapstructure:"cache_ttl"` // milliseconds

	// PublicURL is the dashboard address used in recruiter alert deep links.
	PublicURL string `mapstructure:"public_url"`
}

// Location resolves the configured timezone, falling back to UTC.
func (d DashboardConfig) Location() *time.Location {
	if d.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
