// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	CREWDECK_HOST="0.0.0.0"
//	CREWDECK_PORT="8080"
//	CREWDECK_READ_TIMEOUT="15s"
//	CREWDECK_WRITE_TIMEOUT="15s"
//
// Storage settings:
//
//	CREWDECK_POSTGRES_URL="postgres://localhost/crewdeck"
//	CREWDECK_POSTGRES_MAX_CONNS="25"
//	CREWDECK_REDIS_ADDR="localhost:6379"
//	CREWDECK_REDIS_POOL_SIZE="10"
//
// Verification throttling:
//
//	CREWDECK_CODE_LENGTH="6"
//	CREWDECK_VERIFICATION_TTL="30m"
//	CREWDECK_MAX_ATTEMPTS_PER_CODE="5"
//	CREWDECK_MAX_TOTAL_ATTEMPTS="12"
//	CREWDECK_MAX_RESENDS="6"
//	CREWDECK_BLOCK_DURATION="1h"
//	CREWDECK_RESEND_COOLDOWN="2m"
//
// Admission gating:
//
//	CREWDECK_INVITE_GATE_ENABLED="true"
//	CREWDECK_DOMAIN_GATE_ENABLED="true"
//	CREWDECK_REQUIRE_INVITE_TOKEN="true"
//	CREWDECK_DOMAIN_LOCK_TTL="5m"
//	CREWDECK_DOMAIN_LOCK_FAIL_OPEN="false"
//	CREWDECK_DOMAIN_DENYLIST="example.org,example.net"  # appended to built-ins
//
// Invite batches:
//
//	CREWDECK_INVITE_BATCH_LIMIT="15"
//	CREWDECK_INVITE_MIN_ENTRY_AGE="36h"
//	CREWDECK_INVITE_WINDOW_START="09:00"
//	CREWDECK_INVITE_WINDOW_END="17:00"
//	CREWDECK_INVITE_WINDOW_TZ="America/New_York"
//
// Outbound delivery:
//
//	CREWDECK_SMTP_HOST="smtp.example.com"
//	CREWDECK_SMTP_PORT="587"
//	CREWDECK_SMTP_FROM="no-reply@crewdeck.io"
//	CREWDECK_TWILIO_ACCOUNT_SID=""  # empty = log-only stub mode
//
// Observability settings:
//
//	CREWDECK_LOG_LEVEL="info"  # debug, info, warn, error
//	CREWDECK_METRICS_ENABLED="true"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/waitlist: Uses waitlist engine knobs
//   - pkg/observability: Uses observability configuration
package config
