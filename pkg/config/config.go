package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/crewdeck/crewdeck/pkg/domainlock"
	"github.com/crewdeck/crewdeck/pkg/notify"
	"github.com/crewdeck/crewdeck/pkg/observability"
	"github.com/crewdeck/crewdeck/pkg/register"
	"github.com/crewdeck/crewdeck/pkg/storage"
	"github.com/crewdeck/crewdeck/pkg/waitlist"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Waitlist engine knobs
	Waitlist waitlist.Config

	// Registration gate switches
	Register register.Config

	// Domain claim lock
	Lock domainlock.Config

	// Outbound mail and SMS
	Mail notify.EmailConfig
	SMS  notify.SMSConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Waitlist:      loadWaitlistConfig(),
		Register:      loadRegisterConfig(),
		Lock:          loadLockConfig(),
		Mail:          loadMailConfig(),
		SMS:           loadSMSConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("CREWDECK_HOST", "0.0.0.0"),
		Port:            getEnv("CREWDECK_PORT", "8080"),
		ReadTimeout:     getEnvDuration("CREWDECK_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("CREWDECK_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("CREWDECK_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("CREWDECK_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if pgURL := getEnv("CREWDECK_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if maxConns := getEnvInt("CREWDECK_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("CREWDECK_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("CREWDECK_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}

	if redisAddr := getEnv("CREWDECK_REDIS_ADDR", ""); redisAddr != "" {
		cfg.RedisAddr = redisAddr
	}
	if redisPassword := getEnv("CREWDECK_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("CREWDECK_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisPoolSize := getEnvInt("CREWDECK_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	return cfg
}

// loadWaitlistConfig loads waitlist engine knobs from environment
func loadWaitlistConfig() waitlist.Config {
	cfg := waitlist.DefaultConfig()

	if v := getEnvInt("CREWDECK_CODE_LENGTH", 0); v > 0 {
		cfg.CodeLength = v
	}
	if v := getEnvDuration("CREWDECK_VERIFICATION_TTL", 0); v > 0 {
		cfg.VerificationTTL = v
	}
	if v := getEnvInt("CREWDECK_MAX_ATTEMPTS_PER_CODE", 0); v > 0 {
		cfg.MaxAttemptsPerCode = v
	}
	if v := getEnvInt("CREWDECK_MAX_TOTAL_ATTEMPTS", 0); v > 0 {
		cfg.MaxTotalAttempts = v
	}
	if v := getEnvInt("CREWDECK_MAX_RESENDS", 0); v > 0 {
		cfg.MaxResends = v
	}
	if v := getEnvDuration("CREWDECK_BLOCK_DURATION", 0); v > 0 {
		cfg.BlockDuration = v
	}
	if v := getEnvDuration("CREWDECK_RESEND_COOLDOWN", 0); v > 0 {
		cfg.ResendCooldown = v
	}

	cfg.InviteGateEnabled = getEnvBool("CREWDECK_INVITE_GATE_ENABLED", cfg.InviteGateEnabled)
	cfg.DomainGateEnabled = getEnvBool("CREWDECK_DOMAIN_GATE_ENABLED", cfg.DomainGateEnabled)
	cfg.RequireInviteToken = getEnvBool("CREWDECK_REQUIRE_INVITE_TOKEN", cfg.RequireInviteToken)
	if v := getEnvDuration("CREWDECK_INVITE_TOKEN_TTL", 0); v > 0 {
		cfg.InviteTokenTTL = v
	}

	// Extra denied domains on top of the built-in list.
	if v := getEnv("CREWDECK_DOMAIN_DENYLIST", ""); v != "" {
		for _, d := range strings.Split(v, ",") {
			if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
				cfg.DomainDenylist = append(cfg.DomainDenylist, d)
			}
		}
	}

	if v := getEnv("CREWDECK_DEFAULT_COHORT_TAG", ""); v != "" {
		cfg.DefaultCohortTag = v
	}
	if v := getEnv("CREWDECK_REGISTER_LINK_BASE", ""); v != "" {
		cfg.RegisterLinkBase = v
	}

	if v := getEnvInt("CREWDECK_INVITE_BATCH_LIMIT", 0); v > 0 {
		cfg.InviteBatchLimit = v
	}
	if v := getEnvDuration("CREWDECK_INVITE_MIN_ENTRY_AGE", 0); v > 0 {
		cfg.InviteMinEntryAge = v
	}
	if v := getEnv("CREWDECK_INVITE_WINDOW_START", ""); v != "" {
		cfg.InviteWindowStart = v
	}
	if v := getEnv("CREWDECK_INVITE_WINDOW_END", ""); v != "" {
		cfg.InviteWindowEnd = v
	}
	if v := getEnv("CREWDECK_INVITE_WINDOW_TZ", ""); v != "" {
		cfg.InviteWindowTZ = v
	}

	if v := getEnv("CREWDECK_CAMPAIGN_START", ""); v != "" {
		if start, err := time.Parse(time.RFC3339, v); err == nil {
			cfg.CampaignStart = start
		}
	}
	if v := getEnvInt("CREWDECK_BASELINE_COUNT", 0); v > 0 {
		cfg.BaselineCount = v
	}
	if v := getEnvInt("CREWDECK_TARGET_COUNT", 0); v > 0 {
		cfg.TargetCount = v
	}
	if v := getEnvInt("CREWDECK_TARGET_DAYS", 0); v > 0 {
		cfg.TargetDays = v
	}
	if v := getEnvInt("CREWDECK_JITTER_RANGE", -1); v >= 0 {
		cfg.JitterRange = v
	}
	if v := os.Getenv("CREWDECK_OVERRIDE_DISPLAY_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OverrideDisplayCount = &n
		}
	}
	if v := getEnvInt("CREWDECK_FREE_SEATS_PER_ORG", 0); v > 0 {
		cfg.FreeSeatsPerOrg = v
	}

	return cfg
}

// loadRegisterConfig loads registration gate switches from environment. The
// gate flags mirror the waitlist ones so both sides agree.
func loadRegisterConfig() register.Config {
	return register.Config{
		InviteGateEnabled:    getEnvBool("CREWDECK_INVITE_GATE_ENABLED", true),
		DomainGateEnabled:    getEnvBool("CREWDECK_DOMAIN_GATE_ENABLED", true),
		RequireInviteToken:   getEnvBool("CREWDECK_REQUIRE_INVITE_TOKEN", true),
		VerificationTokenTTL: getEnvDuration("CREWDECK_VERIFICATION_TOKEN_TTL", 24*time.Hour),
		VerifyLinkBase:       getEnv("CREWDECK_VERIFY_LINK_BASE", "https://app.crewdeck.io/auth/verify-email"),
	}
}

// loadLockConfig loads domain claim lock settings from environment
func loadLockConfig() domainlock.Config {
	return domainlock.Config{
		TTL:      getEnvDuration("CREWDECK_DOMAIN_LOCK_TTL", domainlock.DefaultTTL),
		FailOpen: getEnvBool("CREWDECK_DOMAIN_LOCK_FAIL_OPEN", false),
	}
}

// loadMailConfig loads SMTP settings from environment
func loadMailConfig() notify.EmailConfig {
	return notify.EmailConfig{
		Host:     getEnv("CREWDECK_SMTP_HOST", "localhost"),
		Port:     getEnvInt("CREWDECK_SMTP_PORT", 587),
		Username: getEnv("CREWDECK_SMTP_USERNAME", ""),
		Password: getEnv("CREWDECK_SMTP_PASSWORD", ""),
		From:     getEnv("CREWDECK_SMTP_FROM", "no-reply@crewdeck.io"),
		AppName:  getEnv("CREWDECK_APP_NAME", "Crewdeck"),
	}
}

// loadSMSConfig loads Twilio settings from environment. An empty account SID
// switches the sender into stub mode.
func loadSMSConfig() notify.SMSConfig {
	return notify.SMSConfig{
		AccountSID: getEnv("CREWDECK_TWILIO_ACCOUNT_SID", ""),
		AuthToken:  getEnv("CREWDECK_TWILIO_AUTH_TOKEN", ""),
		FromNumber: getEnv("CREWDECK_TWILIO_FROM_NUMBER", ""),
		BaseURL:    getEnv("CREWDECK_TWILIO_BASE_URL", ""),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("CREWDECK_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("CREWDECK_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Storage.RedisAddr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Waitlist.CodeLength < 4 || c.Waitlist.CodeLength > 12 {
		return fmt.Errorf("code length must be between 4 and 12")
	}
	if c.Waitlist.MaxAttemptsPerCode <= 0 {
		return fmt.Errorf("max attempts per code must be positive")
	}
	if c.Waitlist.RegisterLinkBase == "" {
		return fmt.Errorf("register link base is required")
	}
	if _, err := time.LoadLocation(c.Waitlist.InviteWindowTZ); err != nil {
		return fmt.Errorf("invalid invite window timezone: %w", err)
	}
	for _, clock := range []string{c.Waitlist.InviteWindowStart, c.Waitlist.InviteWindowEnd} {
		if _, err := time.Parse("15:04", clock); err != nil {
			return fmt.Errorf("invalid invite window time %q: %w", clock, err)
		}
	}
	if c.Waitlist.TargetCount < c.Waitlist.BaselineCount {
		return fmt.Errorf("target count must not be below baseline count")
	}

	if c.Register.InviteGateEnabled != c.Waitlist.InviteGateEnabled {
		return fmt.Errorf("invite gate flags disagree between waitlist and register")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
