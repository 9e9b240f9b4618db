package users

import "time"

// Role represents organization-level roles
type Role string

const (
	RoleOrgOwner Role = "org_owner" // Created the organization
	RoleMember   Role = "member"    // Default role
)

// User represents a registered account. PasswordHash is a bcrypt hash and
// never leaves the package.
type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	PasswordHash   string `json:"-"`
	OrganizationID int64  `json:"organization_id"`
	Role           Role   `json:"role"`
	IsOrgOwner     bool   `json:"is_org_owner"`

	IsEmailVerified         bool       `json:"is_email_verified"`
	VerificationTokenHash   *string    `json:"-"`
	VerificationTokenExpiry *time.Time `json:"-"`

	PIIStripped bool       `json:"-"`
	LegalHold   bool       `json:"-"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// ComplianceFlags implements audit.HasComplianceFlags.
func (u *User) ComplianceFlags() (piiStripped, legalHold bool) {
	return u.PIIStripped, u.LegalHold
}

// FullName joins the name parts, skipping empty ones.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}
