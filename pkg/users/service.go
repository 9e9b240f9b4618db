package users

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Service manages user accounts for the registration gate.
type Service interface {
	// ExistsActive reports whether an active, unarchived account exists for
	// the normalized email.
	ExistsActive(ctx context.Context, email string) (bool, error)

	FindByEmail(ctx context.Context, email string) (*User, bool, error)

	// FindByVerificationToken retrieves the unarchived user holding the
	// given pending verification token hash.
	FindByVerificationToken(ctx context.Context, tokenHash string) (*User, bool, error)

	// Create hashes req.Password with bcrypt and inserts the user.
	Create(ctx context.Context, req CreateRequest) (*User, error)

	// ClearVerificationToken marks the user's email verified and drops the
	// pending token.
	ClearVerificationToken(ctx context.Context, userID int64) error
}

// CreateRequest carries the fields needed to create a user.
type CreateRequest struct {
	Username       string
	Email          string
	FirstName      string
	LastName       string
	Password       string
	OrganizationID int64
	Role           Role
	IsOrgOwner     bool

	// EmailVerified marks the email verified at creation, for users whose
	// identity was already proven upstream.
	EmailVerified bool

	// VerificationTokenHash and expiry seed a pending email verification
	// when EmailVerified is false.
	VerificationTokenHash   *string
	VerificationTokenExpiry *time.Time
}

// PostgresService implements the Service interface using PostgreSQL
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

const userColumns = `
	id, username, email, first_name, last_name, password_hash,
	organization_id, role, is_org_owner, is_email_verified,
	verification_token_hash, verification_token_expiry,
	pii_stripped, legal_hold, is_active, created_at, updated_at, archived_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.OrganizationID, &u.Role, &u.IsOrgOwner, &u.IsEmailVerified,
		&u.VerificationTokenHash, &u.VerificationTokenExpiry,
		&u.PIIStripped, &u.LegalHold, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.ArchivedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ExistsActive reports whether an active account exists for the email
func (s *PostgresService) ExistsActive(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND is_active = TRUE AND archived_at IS NULL)`,
		email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// FindByEmail retrieves the unarchived user for an email
func (s *PostgresService) FindByEmail(ctx context.Context, email string) (*User, bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 AND archived_at IS NULL`, userColumns)
	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}
	return user, true, nil
}

// FindByVerificationToken retrieves the user for a pending token hash
func (s *PostgresService) FindByVerificationToken(ctx context.Context, tokenHash string) (*User, bool, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE verification_token_hash = $1 AND archived_at IS NULL`,
		userColumns)
	user, err := scanUser(s.db.QueryRowContext(ctx, query, tokenHash))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find user by verification token: %w", err)
	}
	return user, true, nil
}

// Create hashes the password and inserts the user
func (s *PostgresService) Create(ctx context.Context, req CreateRequest) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = RoleMember
	}

	user := &User{
		Username:                req.Username,
		Email:                   req.Email,
		FirstName:               req.FirstName,
		LastName:                req.LastName,
		PasswordHash:            string(hash),
		OrganizationID:          req.OrganizationID,
		Role:                    role,
		IsOrgOwner:              req.IsOrgOwner,
		IsEmailVerified:         req.EmailVerified,
		VerificationTokenHash:   req.VerificationTokenHash,
		VerificationTokenExpiry: req.VerificationTokenExpiry,
		IsActive:                true,
	}

	query := `
		INSERT INTO users (
			username, email, first_name, last_name, password_hash,
			organization_id, role, is_org_owner, is_email_verified,
			verification_token_hash, verification_token_expiry, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash,
		user.OrganizationID, user.Role, user.IsOrgOwner, user.IsEmailVerified,
		user.VerificationTokenHash, user.VerificationTokenExpiry, user.IsActive).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// ClearVerificationToken marks the email verified and drops the token
func (s *PostgresService) ClearVerificationToken(ctx context.Context, userID int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			is_email_verified = TRUE,
			verification_token_hash = NULL,
			verification_token_expiry = NULL,
			updated_at = NOW()
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear verification token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %d not found", userID)
	}
	return nil
}

// CheckPassword compares a candidate password to the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
