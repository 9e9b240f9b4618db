package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// DBLogger writes audit events to PostgreSQL. Write failures are logged to
// stderr and dropped; the audit sink must never fail the calling operation.
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a new database-backed audit logger
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	logger := &DBLogger{db: db}
	if err := logger.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure audit_events table: %w", err)
	}

	return logger, nil
}

// ensureTable creates the audit_events table if it doesn't exist
func (l *DBLogger) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_events (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		event_type VARCHAR(100) NOT NULL,
		status VARCHAR(20) NOT NULL,
		actor VARCHAR(255),
		user_id BIGINT,
		org_id BIGINT,
		request_id VARCHAR(100),
		ip_address VARCHAR(45),
		message TEXT,
		metadata JSONB,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_audit_events_event_type ON audit_events(event_type);
	CREATE INDEX IF NOT EXISTS idx_audit_events_actor ON audit_events(actor);
	`

	_, err := l.db.Exec(query)
	return err
}

// Record logs an audit event to the database. Errors are swallowed after
// being logged locally.
func (l *DBLogger) Record(ctx context.Context, event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Status == "" {
		event.Status = EventStatusSuccess
	}

	var metadataJSON []byte
	if event.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			log.Printf("audit: failed to marshal metadata for %s: %v", event.EventType, err)
			metadataJSON = nil
		}
	}

	query := `
		INSERT INTO audit_events (timestamp, event_type, status, actor, user_id, org_id, request_id, ip_address, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := l.db.ExecContext(ctx, query,
		event.Timestamp, event.EventType, event.Status, nullable(event.Actor),
		event.UserID, event.OrgID, nullable(event.RequestID), nullable(event.IPAddress),
		nullable(event.Message), metadataJSON,
	)
	if err != nil {
		log.Printf("audit: failed to record %s: %v", event.EventType, err)
	}
}

// Close is a no-op for the database logger; the pool is owned by the caller.
func (l *DBLogger) Close() error { return nil }

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
