package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// OpenPostgres opens the primary database connection, configures the pool
// and verifies connectivity.
func OpenPostgres(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.PostgresMaxConns)
	db.SetMaxIdleConns(cfg.PostgresMinConns)
	db.SetConnMaxLifetime(cfg.PostgresMaxLifetime)
	db.SetConnMaxIdleTime(cfg.PostgresMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PostgresTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// Migrate creates the application tables if they don't exist. The audit
// logger manages its own table.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS waitlist_entries (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		phone VARCHAR(32) NOT NULL DEFAULT '',
		name VARCHAR(255) NOT NULL DEFAULT '',
		role VARCHAR(100) NOT NULL DEFAULT '',
		source VARCHAR(100) NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL DEFAULT 'pending-cohort',

		email_verify_status VARCHAR(20) NOT NULL DEFAULT 'unverified',
		email_code VARCHAR(12),
		email_code_expires_at TIMESTAMP WITH TIME ZONE,
		email_attempts INT NOT NULL DEFAULT 0,
		email_attempt_total INT NOT NULL DEFAULT 0,
		email_resends INT NOT NULL DEFAULT 0,
		email_last_sent_at TIMESTAMP WITH TIME ZONE,
		email_verified_at TIMESTAMP WITH TIME ZONE,
		email_blocked_at TIMESTAMP WITH TIME ZONE,
		email_blocked_until TIMESTAMP WITH TIME ZONE,

		phone_verify_status VARCHAR(20) NOT NULL DEFAULT 'unverified',
		phone_code VARCHAR(12),
		phone_code_expires_at TIMESTAMP WITH TIME ZONE,
		phone_attempts INT NOT NULL DEFAULT 0,
		phone_attempt_total INT NOT NULL DEFAULT 0,
		phone_resends INT NOT NULL DEFAULT 0,
		phone_last_sent_at TIMESTAMP WITH TIME ZONE,
		phone_verified_at TIMESTAMP WITH TIME ZONE,
		phone_blocked_at TIMESTAMP WITH TIME ZONE,
		phone_blocked_until TIMESTAMP WITH TIME ZONE,

		pre_create_account BOOLEAN NOT NULL DEFAULT FALSE,
		marketing_consent BOOLEAN NOT NULL DEFAULT FALSE,
		cohort_tag VARCHAR(100),
		invited_at TIMESTAMP WITH TIME ZONE,
		activated_at TIMESTAMP WITH TIME ZONE,
		invite_token_hash VARCHAR(64),
		invite_token_expires_at TIMESTAMP WITH TIME ZONE,
		invite_failure_count INT NOT NULL DEFAULT 0,
		pii_stripped BOOLEAN NOT NULL DEFAULT FALSE,
		legal_hold BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		archived_at TIMESTAMP WITH TIME ZONE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_waitlist_entries_status ON waitlist_entries(status)`,
	`CREATE INDEX IF NOT EXISTS idx_waitlist_entries_created_at ON waitlist_entries(created_at)`,

	`CREATE TABLE IF NOT EXISTS organizations (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		primary_domain VARCHAR(255) NOT NULL DEFAULT '',
		owner_id BIGINT,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_organizations_primary_domain ON organizations(primary_domain) WHERE is_active = TRUE`,

	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		last_name VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		organization_id BIGINT NOT NULL REFERENCES organizations(id),
		role VARCHAR(32) NOT NULL DEFAULT 'member',
		is_org_owner BOOLEAN NOT NULL DEFAULT FALSE,
		is_email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		verification_token_hash VARCHAR(64),
		verification_token_expiry TIMESTAMP WITH TIME ZONE,
		pii_stripped BOOLEAN NOT NULL DEFAULT FALSE,
		legal_hold BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		archived_at TIMESTAMP WITH TIME ZONE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_organization_id ON users(organization_id)`,
}
