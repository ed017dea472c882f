package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Credential storage. EncryptionKey is the process-wide secret the
	// at-rest cipher is derived from; it is never logged.
	EncryptionKey     string `envconfig:"ENCRYPTION_KEY"`
	CredentialBackend string `envconfig:"CREDENTIAL_BACKEND" default:"sqlite"` // sqlite, keyring, memory
	DatabasePath      string `envconfig:"DATABASE_PATH" default:"labelrun.db"`

	// Rate shopping
	ProviderCallTimeout time.Duration `envconfig:"PROVIDER_CALL_TIMEOUT" default:"10s"`
	HistoryCapacity     int           `envconfig:"HISTORY_CAPACITY" default:"100"`

	// EasyPost
	EasyPostBaseURL string `envconfig:"EASYPOST_BASE_URL" default:"https://api.easypost.com"`
	EasyPostEnabled bool   `envconfig:"EASYPOST_ENABLED" default:"true"`
	EasyPostUseMock bool   `envconfig:"EASYPOST_USE_MOCK" default:"false"`

	// PirateShip
	PirateShipBaseURL string `envconfig:"PIRATESHIP_BASE_URL" default:"https://api.pirateship.com"`
	PirateShipEnabled bool   `envconfig:"PIRATESHIP_ENABLED" default:"true"`
	PirateShipUseMock bool   `envconfig:"PIRATESHIP_USE_MOCK" default:"false"`

	// Stamps.com
	StampsBaseURL string `envconfig:"STAMPS_BASE_URL" default:"https://api.stamps.com"`
	StampsEnabled bool   `envconfig:"STAMPS_ENABLED" default:"true"`
	StampsUseMock bool   `envconfig:"STAMPS_USE_MOCK" default:"false"`

	// Shippo
	ShippoBaseURL string `envconfig:"SHIPPO_BASE_URL" default:"https://api.goshippo.com"`
	ShippoEnabled bool   `envconfig:"SHIPPO_ENABLED" default:"true"`
	ShippoUseMock bool   `envconfig:"SHIPPO_USE_MOCK" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"labelrun"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.EncryptionKey == "" {
		return nil, errors.New("ENCRYPTION_KEY must be set")
	}
	switch cfg.CredentialBackend {
	case "sqlite", "keyring", "memory":
	default:
		return nil, fmt.Errorf("unknown CREDENTIAL_BACKEND %q", cfg.CredentialBackend)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("credential.backend", c.CredentialBackend),
		attribute.Bool("easypost.enabled", c.EasyPostEnabled),
		attribute.Bool("pirateship.enabled", c.PirateShipEnabled),
		attribute.Bool("stamps.enabled", c.StampsEnabled),
		attribute.Bool("shippo.enabled", c.ShippoEnabled),
	}
}
