package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultOrgName is the Open Collective organization synced when none is configured
const DefaultOrgName = "bazzite-eu"

// Handle extraction modes
const (
	HandleModeStrict = "strict"
	HandleModeLegacy = "legacy"
)

// ErrMissingToken is returned when DISCORD_TOKEN is not set outside of tests
var ErrMissingToken = errors.New("DISCORD_TOKEN is required")

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string
	GuildID      string // Target Discord guild ID, may be empty

	// Open Collective configuration
	OrgName               string        `validate:"required"`
	OpenCollectiveBaseURL string        `validate:"required,url"`
	OpenCollectiveTimeout time.Duration `validate:"gt=0"`

	// Sync configuration
	TierRolesFile string // Optional YAML file overriding the built-in tier map
	HandleMode    string `validate:"oneof=strict legacy"`
	DryRun        bool

	// NATS configuration
	NATSServers string // Empty disables event publishing

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string `validate:"omitempty,oneof=console otlp none"`
	OTelServiceName          string
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int `validate:"gte=0"`

	// Slack configuration
	SlackWebhookURL string `validate:"omitempty,url"`

	// Logging
	LogLevel string

	// Environment
	Environment string `validate:"oneof=development production test"` // "development", "production" or "test"
}

var (
	instance *Config
	loadErr  error
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Get returns the global configuration instance, loading it on first use
func Get() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance, loadErr
	}

	once.Do(func() {
		instance, loadErr = Load()
	})
	return instance, loadErr
}

// Load reads configuration from the environment, seeding it from .env files if present.
// A missing token is reported as ErrMissingToken alongside an otherwise valid config.
func Load() (*Config, error) {
	// Missing .env files are fine, the environment is authoritative
	_ = godotenv.Load(".env", ".env.local")

	config := &Config{
		// Discord
		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		GuildID:      os.Getenv("DISCORD_GUILD_ID"),

		// Open Collective
		OrgName:               getEnvWithDefault("OPENCOLLECTIVE_ORG_NAME", DefaultOrgName),
		OpenCollectiveBaseURL: strings.TrimRight(getEnvWithDefault("OPENCOLLECTIVE_BASE_URL", "https://opencollective.com"), "/"),
		OpenCollectiveTimeout: 30 * time.Second,

		// Sync
		TierRolesFile: os.Getenv("TIER_ROLES_FILE"),
		HandleMode:    getEnvWithDefault("DISCORD_HANDLE_MODE", HandleModeStrict),
		DryRun:        os.Getenv("DRY_RUN") == "true",

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "backersync"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),
		OTelExportIntervalMillis: 10000,

		// Slack
		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),

		// Logging
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		// Environment
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	// Override defaults if environment variables are set
	if timeout := os.Getenv("OPENCOLLECTIVE_TIMEOUT"); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid OPENCOLLECTIVE_TIMEOUT %q: %w", timeout, err)
		}
		config.OpenCollectiveTimeout = parsed
	}
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil {
			config.OTelExportIntervalMillis = parsed
		}
	}

	if err := config.Validate(); err != nil {
		if errors.Is(err, ErrMissingToken) {
			// Commands that never reach Discord can still use the rest of the config
			return config, err
		}
		return nil, err
	}

	return config, nil
}

// Validate checks field constraints and required settings
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The token has no fallback, a run without it cannot authenticate
	if c.Environment != "test" && c.DiscordToken == "" {
		return ErrMissingToken
	}

	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
	loadErr = nil
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	loadErr = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:              "test",
		OrgName:                  DefaultOrgName,
		OpenCollectiveBaseURL:    "http://localhost",
		OpenCollectiveTimeout:    5 * time.Second,
		HandleMode:               HandleModeStrict,
		OTelExporterType:         "none",
		OTelServiceName:          "backersync-test",
		OTelExportIntervalMillis: 1000,
		LogLevel:                 "debug",
	}
}
