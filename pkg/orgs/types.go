package orgs

import "time"

// OrgStatus represents organization status
type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
	OrgStatusDeleted   OrgStatus = "deleted"
)

// Organization represents a customer organization. PrimaryDomain is the
// email domain claimed at registration; with the domain gate enabled, at
// most one active organization may own a domain.
type Organization struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	PrimaryDomain string    `json:"primary_domain"`
	OwnerID       *int64    `json:"owner_id,omitempty"`
	Status        OrgStatus `json:"status"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
