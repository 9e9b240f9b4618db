package orgs

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Service manages organizations. FindByDomain reports existence explicitly.
type Service interface {
	Create(ctx context.Context, org *Organization) error
	FindByID(ctx context.Context, id int64) (*Organization, error)
	FindByDomain(ctx context.Context, domain string) (*Organization, bool, error)
	SetOwner(ctx context.Context, orgID, userID int64) error
}

// PostgresService implements the Service interface using PostgreSQL
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

// Create creates a new organization
func (s *PostgresService) Create(ctx context.Context, org *Organization) error {
	if org.Slug == "" {
		org.Slug = generateSlug(org.Name)
	}
	if org.Status == "" {
		org.Status = OrgStatusActive
	}
	org.IsActive = org.Status == OrgStatusActive
	org.PrimaryDomain = strings.ToLower(strings.TrimSpace(org.PrimaryDomain))

	query := `
		INSERT INTO organizations (name, slug, primary_domain, owner_id, status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, org.Name, org.Slug, org.PrimaryDomain,
		org.OwnerID, org.Status, org.IsActive).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// FindByID retrieves an organization by ID
func (s *PostgresService) FindByID(ctx context.Context, id int64) (*Organization, error) {
	query := `
		SELECT id, name, slug, primary_domain, owner_id, status, is_active, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	org := &Organization{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&org.ID, &org.Name, &org.Slug, &org.PrimaryDomain,
		&org.OwnerID, &org.Status, &org.IsActive, &org.CreatedAt, &org.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organization not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// FindByDomain retrieves the active organization owning an email domain
func (s *PostgresService) FindByDomain(ctx context.Context, domain string) (*Organization, bool, error) {
	query := `
		SELECT id, name, slug, primary_domain, owner_id, status, is_active, created_at, updated_at
		FROM organizations
		WHERE primary_domain = $1 AND is_active = TRUE
	`
	org := &Organization{}
	err := s.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(domain))).Scan(
		&org.ID, &org.Name, &org.Slug, &org.PrimaryDomain,
		&org.OwnerID, &org.Status, &org.IsActive, &org.CreatedAt, &org.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find organization by domain: %w", err)
	}
	return org, true, nil
}

// SetOwner records the organization's owning user
func (s *PostgresService) SetOwner(ctx context.Context, orgID, userID int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE organizations SET owner_id = $2, updated_at = NOW() WHERE id = $1`,
		orgID, userID)
	if err != nil {
		return fmt.Errorf("failed to set organization owner: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("organization %d not found", orgID)
	}
	return nil
}

// generateSlug derives a url-safe slug from an organization name
func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, slug)
	return slug
}
