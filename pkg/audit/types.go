package audit

import "time"

// EventType represents the category of audit event
type EventType string

const (
	// Waitlist lifecycle events
	EventTypeWaitlistSubmitted  EventType = "waitlist.submitted"
	EventTypeWaitlistSkipActive EventType = "waitlist.skip_active"
	EventTypeWaitlistVerified   EventType = "waitlist.verified"
	EventTypeWaitlistResent     EventType = "waitlist.verification_resent"
	EventTypeWaitlistBlocked    EventType = "waitlist.blocked"
	EventTypeWaitlistInvited    EventType = "waitlist.invited"
	EventTypeWaitlistActivated  EventType = "waitlist.activated"
	EventTypeWaitlistInviteFail EventType = "waitlist.invite_failed"

	// Registration gate events
	EventTypeRegisterAdmitted          EventType = "register.admitted"
	EventTypeRegisterEmailVerified     EventType = "register.email_verified"
	EventTypeRegisterBlocked           EventType = "register.blocked"
	EventTypeRegisterBlockedUnverified EventType = "register.blocked_unverified"
	EventTypeRegisterBlockedDomain     EventType = "register.blocked_domain"
	EventTypeRegisterDomainRace        EventType = "register.blocked_domain_race"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// Event represents a single audit log entry. Actor is the applicant email
// (or operator identity for admin actions); it may be redacted for entries
// under PII stripping.
type Event struct {
	ID        int64                  `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	EventType EventType              `json:"event_type"`
	Status    EventStatus            `json:"status"`
	Actor     string                 `json:"actor,omitempty"`
	UserID    *int64                 `json:"user_id,omitempty"`
	OrgID     *int64                 `json:"org_id,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
