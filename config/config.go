package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration settings for the messaging relay service.
type Config struct {
	NATS          NATSConfig          `yaml:"nats"`
	JWT           JWTConfig           `yaml:"jwt"`
	AuthCallout   AuthCalloutConfig   `yaml:"auth_callout"`
	HTTP          HTTPConfig          `yaml:"http"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// NATSConfig holds the broker connection settings.
type NATSConfig struct {
	URL string `yaml:"url"`
	// User and Password authenticate the relay's own backend connection.
	// The backend user bypasses the auth callout on the broker side.
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// SystemUser and SystemPassword authenticate an optional system
	// account connection used to observe client disconnect events and
	// query subscription interest. Without them clients that vanish keep
	// their relays until revoke or shutdown.
	SystemUser     string `yaml:"system_user"`
	SystemPassword string `yaml:"system_password"`
}

// JWTConfig holds application token settings.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// AuthCalloutConfig holds NATS auth callout configuration.
// IssuerSeed is the account nkey seed used to sign user JWTs; it must
// correspond to the auth_callout issuer configured on the broker.
type AuthCalloutConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Subject       string `yaml:"subject"`
	IssuerSeed    string `yaml:"issuer_seed"`
	IssuerAccount string `yaml:"issuer_account"`
}

// HTTPConfig holds settings for the HTTP API.
type HTTPConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds settings for logging and metrics.
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// LoadConfig loads the configuration from a YAML file, falling back to
// environment variables when the file is absent. Environment variables
// override file values either way.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL not configured")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET not configured")
	}
	if cfg.AuthCallout.Enabled && cfg.AuthCallout.IssuerSeed == "" {
		return nil, fmt.Errorf("AUTH_CALLOUT_ISSUER_SEED required when auth callout is enabled")
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_USER"); v != "" {
		cfg.NATS.User = v
	}
	if v := os.Getenv("NATS_PASSWORD"); v != "" {
		cfg.NATS.Password = v
	}
	if v := os.Getenv("NATS_SYSTEM_USER"); v != "" {
		cfg.NATS.SystemUser = v
	}
	if v := os.Getenv("NATS_SYSTEM_PASSWORD"); v != "" {
		cfg.NATS.SystemPassword = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_DEFAULT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JWT.DefaultTTL = d
		}
	}
	if v := os.Getenv("AUTH_CALLOUT_ENABLED"); v != "" {
		cfg.AuthCallout.Enabled = v == "true"
	}
	if v := os.Getenv("AUTH_CALLOUT_SUBJECT"); v != "" {
		cfg.AuthCallout.Subject = v
	}
	if v := os.Getenv("AUTH_CALLOUT_ISSUER_SEED"); v != "" {
		cfg.AuthCallout.IssuerSeed = v
	}
	if v := os.Getenv("AUTH_CALLOUT_ISSUER_ACCOUNT"); v != "" {
		cfg.AuthCallout.IssuerAccount = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.JWT.DefaultTTL == 0 {
		cfg.JWT.DefaultTTL = 24 * time.Hour
	}
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.Observability.Environment == "" {
		cfg.Observability.Environment = "development"
	}
}
