package waitlist

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store is the durable home of waitlist entries. FindByEmail reports
// existence explicitly so callers cannot treat a nil entry as control flow.
type Store interface {
	// FindByEmail returns the unarchived entry for a normalized email.
	FindByEmail(ctx context.Context, email string) (*Entry, bool, error)

	// Upsert inserts the entry or, when the email already exists, applies
	// the entry's current field values to the stored row. Sets entry.ID.
	Upsert(ctx context.Context, entry *Entry) error

	// Save persists the entry's current state by ID.
	Save(ctx context.Context, entry *Entry) error

	// CountActive counts unarchived entries.
	CountActive(ctx context.Context) (int, error)

	// ListInvitable returns fully verified pending-cohort entries created
	// before the cutoff, oldest first.
	ListInvitable(ctx context.Context, createdBefore time.Time, limit int) ([]*Entry, error)
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `
	id, email, phone, name, role, source, status,
	email_verify_status, email_code, email_code_expires_at, email_attempts,
	email_attempt_total, email_resends, email_last_sent_at, email_verified_at,
	email_blocked_at, email_blocked_until,
	phone_verify_status, phone_code, phone_code_expires_at, phone_attempts,
	phone_attempt_total, phone_resends, phone_last_sent_at, phone_verified_at,
	phone_blocked_at, phone_blocked_until,
	pre_create_account, marketing_consent, cohort_tag, invited_at, activated_at,
	invite_token_hash, invite_token_expires_at, invite_failure_count,
	pii_stripped, legal_hold, created_at, updated_at, archived_at`

func scanEntry(row interface{ Scan(...interface{}) error }) (*Entry, error) {
	e := &Entry{}
	err := row.Scan(
		&e.ID, &e.Email, &e.Phone, &e.Name, &e.Role, &e.Source, &e.Status,
		&e.EmailState.Status, &e.EmailState.Code, &e.EmailState.CodeExpiresAt, &e.EmailState.Attempts,
		&e.EmailState.AttemptTotal, &e.EmailState.Resends, &e.EmailState.LastSentAt, &e.EmailState.VerifiedAt,
		&e.EmailState.BlockedAt, &e.EmailState.BlockedUntil,
		&e.PhoneState.Status, &e.PhoneState.Code, &e.PhoneState.CodeExpiresAt, &e.PhoneState.Attempts,
		&e.PhoneState.AttemptTotal, &e.PhoneState.Resends, &e.PhoneState.LastSentAt, &e.PhoneState.VerifiedAt,
		&e.PhoneState.BlockedAt, &e.PhoneState.BlockedUntil,
		&e.PreCreateAccount, &e.MarketingConsent, &e.CohortTag, &e.InvitedAt, &e.ActivatedAt,
		&e.InviteTokenHash, &e.InviteTokenExpiresAt, &e.InviteFailureCount,
		&e.PIIStripped, &e.LegalHold, &e.CreatedAt, &e.UpdatedAt, &e.ArchivedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// FindByEmail retrieves the unarchived entry for an email
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Entry, bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM waitlist_entries WHERE email = $1 AND archived_at IS NULL`, entryColumns)
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find waitlist entry: %w", err)
	}
	return entry, true, nil
}

// Upsert inserts or replaces the mutable fields of the entry keyed by email
func (s *PostgresStore) Upsert(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO waitlist_entries (
			email, phone, name, role, source, status,
			email_verify_status, email_code, email_code_expires_at, email_attempts,
			email_attempt_total, email_resends, email_last_sent_at, email_verified_at,
			email_blocked_at, email_blocked_until,
			phone_verify_status, phone_code, phone_code_expires_at, phone_attempts,
			phone_attempt_total, phone_resends, phone_last_sent_at, phone_verified_at,
			phone_blocked_at, phone_blocked_until,
			pre_create_account, marketing_consent, cohort_tag, invited_at, activated_at,
			invite_token_hash, invite_token_expires_at, invite_failure_count,
			pii_stripped, legal_hold
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
		        $31, $32, $33, $34, $35, $36)
		ON CONFLICT (email) DO UPDATE SET
			phone = EXCLUDED.phone,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			source = EXCLUDED.source,
			status = EXCLUDED.status,
			email_verify_status = EXCLUDED.email_verify_status,
			email_code = EXCLUDED.email_code,
			email_code_expires_at = EXCLUDED.email_code_expires_at,
			email_attempts = EXCLUDED.email_attempts,
			email_attempt_total = EXCLUDED.email_attempt_total,
			email_resends = EXCLUDED.email_resends,
			email_last_sent_at = EXCLUDED.email_last_sent_at,
			email_verified_at = EXCLUDED.email_verified_at,
			email_blocked_at = EXCLUDED.email_blocked_at,
			email_blocked_until = EXCLUDED.email_blocked_until,
			phone_verify_status = EXCLUDED.phone_verify_status,
			phone_code = EXCLUDED.phone_code,
			phone_code_expires_at = EXCLUDED.phone_code_expires_at,
			phone_attempts = EXCLUDED.phone_attempts,
			phone_attempt_total = EXCLUDED.phone_attempt_total,
			phone_resends = EXCLUDED.phone_resends,
			phone_last_sent_at = EXCLUDED.phone_last_sent_at,
			phone_verified_at = EXCLUDED.phone_verified_at,
			phone_blocked_at = EXCLUDED.phone_blocked_at,
			phone_blocked_until = EXCLUDED.phone_blocked_until,
			pre_create_account = EXCLUDED.pre_create_account,
			marketing_consent = EXCLUDED.marketing_consent,
			cohort_tag = EXCLUDED.cohort_tag,
			invited_at = EXCLUDED.invited_at,
			activated_at = EXCLUDED.activated_at,
			invite_token_hash = EXCLUDED.invite_token_hash,
			invite_token_expires_at = EXCLUDED.invite_token_expires_at,
			invite_failure_count = EXCLUDED.invite_failure_count,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, s.writeArgs(entry)...).
		Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert waitlist entry: %w", err)
	}
	return nil
}

// Save persists the entry's full mutable state by ID
func (s *PostgresStore) Save(ctx context.Context, entry *Entry) error {
	query := `
		UPDATE waitlist_entries SET
			phone = $2, name = $3, role = $4, source = $5, status = $6,
			email_verify_status = $7, email_code = $8, email_code_expires_at = $9,
			email_attempts = $10, email_attempt_total = $11, email_resends = $12,
			email_last_sent_at = $13, email_verified_at = $14,
			email_blocked_at = $15, email_blocked_until = $16,
			phone_verify_status = $17, phone_code = $18, phone_code_expires_at = $19,
			phone_attempts = $20, phone_attempt_total = $21, phone_resends = $22,
			phone_last_sent_at = $23, phone_verified_at = $24,
			phone_blocked_at = $25, phone_blocked_until = $26,
			pre_create_account = $27, marketing_consent = $28, cohort_tag = $29,
			invited_at = $30, activated_at = $31,
			invite_token_hash = $32, invite_token_expires_at = $33,
			invite_failure_count = $34, pii_stripped = $35, legal_hold = $36,
			updated_at = NOW()
		WHERE id = $1
	`
	// writeArgs leads with the immutable email; the id key takes its slot.
	args := append([]interface{}{entry.ID}, s.writeArgs(entry)[1:]...)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save waitlist entry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("waitlist entry %d not found", entry.ID)
	}
	return nil
}

func (s *PostgresStore) writeArgs(e *Entry) []interface{} {
	return []interface{}{
		e.Email, e.Phone, e.Name, e.Role, e.Source, e.Status,
		e.EmailState.Status, e.EmailState.Code, e.EmailState.CodeExpiresAt, e.EmailState.Attempts,
		e.EmailState.AttemptTotal, e.EmailState.Resends, e.EmailState.LastSentAt, e.EmailState.VerifiedAt,
		e.EmailState.BlockedAt, e.EmailState.BlockedUntil,
		e.PhoneState.Status, e.PhoneState.Code, e.PhoneState.CodeExpiresAt, e.PhoneState.Attempts,
		e.PhoneState.AttemptTotal, e.PhoneState.Resends, e.PhoneState.LastSentAt, e.PhoneState.VerifiedAt,
		e.PhoneState.BlockedAt, e.PhoneState.BlockedUntil,
		e.PreCreateAccount, e.MarketingConsent, e.CohortTag, e.InvitedAt, e.ActivatedAt,
		e.InviteTokenHash, e.InviteTokenExpiresAt, e.InviteFailureCount,
		e.PIIStripped, e.LegalHold,
	}
}

// CountActive counts unarchived entries
func (s *PostgresStore) CountActive(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM waitlist_entries WHERE archived_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count waitlist entries: %w", err)
	}
	return count, nil
}

// ListInvitable returns fully verified pending-cohort entries created before
// the cutoff, oldest first
func (s *PostgresStore) ListInvitable(ctx context.Context, createdBefore time.Time, limit int) ([]*Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM waitlist_entries
		WHERE status = $1
		  AND email_verify_status = $2
		  AND phone_verify_status = $2
		  AND archived_at IS NULL
		  AND created_at <= $3
		ORDER BY created_at ASC
		LIMIT $4
	`, entryColumns)

	rows, err := s.db.QueryContext(ctx, query, StatusPendingCohort, VerifyVerified, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitable entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan waitlist entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
