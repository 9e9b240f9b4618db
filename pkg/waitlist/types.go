package waitlist

import (
	"time"
)

// Status is the waitlist entry lifecycle state. It only moves forward:
// pending-cohort -> invited -> activated.
type Status string

const (
	StatusPendingCohort Status = "pending-cohort"
	StatusInvited       Status = "invited"
	StatusActivated     Status = "activated"
)

// VerifyStatus is the state of one verification channel.
type VerifyStatus string

const (
	VerifyUnverified VerifyStatus = "unverified"
	VerifyVerified   VerifyStatus = "verified"
	VerifyBlocked    VerifyStatus = "blocked"
)

// Channel identifies one of the two independent verification tracks.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// ChannelState is the verification sub-record for a single channel.
//
// Invariants: Code is present only while Status is unverified and the code
// is unexpired; Attempts counts submissions against the current code and
// resets whenever a new code is issued; AttemptTotal and Resends are
// lifetime counters that survive new codes (Resends is cleared on unblock,
// AttemptTotal only by operator action).
type ChannelState struct {
	Status        VerifyStatus
	Code          *string
	CodeExpiresAt *time.Time
	Attempts      int
	AttemptTotal  int
	Resends       int
	LastSentAt    *time.Time
	VerifiedAt    *time.Time
	BlockedAt     *time.Time
	BlockedUntil  *time.Time
}

// Verified reports whether the channel has been verified.
func (s *ChannelState) Verified() bool {
	return s.Status == VerifyVerified
}

// BlockActive reports whether the channel is blocked and the block has not
// yet expired at now.
func (s *ChannelState) BlockActive(now time.Time) bool {
	return s.Status == VerifyBlocked && s.BlockedUntil != nil && s.BlockedUntil.After(now)
}

// CodeUsable reports whether a code is present and unexpired at now.
func (s *ChannelState) CodeUsable(now time.Time) bool {
	return s.Code != nil && s.CodeExpiresAt != nil && s.CodeExpiresAt.After(now)
}

// clearCode removes the current code and its expiry.
func (s *ChannelState) clearCode() {
	s.Code = nil
	s.CodeExpiresAt = nil
}

// Entry is the per-applicant record tracking verification and invite status
// before an account exists. Keyed by normalized email.
type Entry struct {
	ID     int64
	Email  string
	Phone  string
	Name   string
	Role   string
	Source string

	Status     Status
	EmailState ChannelState
	PhoneState ChannelState

	PreCreateAccount bool
	MarketingConsent bool

	CohortTag   *string
	InvitedAt   *time.Time
	ActivatedAt *time.Time

	InviteTokenHash      *string
	InviteTokenExpiresAt *time.Time
	InviteFailureCount   int

	PIIStripped bool
	LegalHold   bool

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ArchivedAt *time.Time
}

// State returns the verification sub-record for the given channel.
func (e *Entry) State(ch Channel) *ChannelState {
	if ch == ChannelPhone {
		return &e.PhoneState
	}
	return &e.EmailState
}

// FullyVerified reports whether both channels are verified.
func (e *Entry) FullyVerified() bool {
	return e.EmailState.Verified() && e.PhoneState.Verified()
}

// Admittable reports whether the entry's status admits registration when the
// invite gate is enabled.
func (e *Entry) Admittable() bool {
	return e.Status == StatusInvited || e.Status == StatusActivated
}

// InviteTokenMatches reports whether the supplied token hash matches the
// stored hash and the token has not expired at now.
func (e *Entry) InviteTokenMatches(tokenHash string, now time.Time) bool {
	if e.InviteTokenHash == nil || *e.InviteTokenHash != tokenHash {
		return false
	}
	if e.InviteTokenExpiresAt != nil && e.InviteTokenExpiresAt.Before(now) {
		return false
	}
	return true
}

// ComplianceFlags implements audit.HasComplianceFlags.
func (e *Entry) ComplianceFlags() (piiStripped, legalHold bool) {
	return e.PIIStripped, e.LegalHold
}

// StartState describes the outcome of a Start call: which channels still
// required a fresh code.
type StartState string

const (
	// StartVerified means neither channel needed a code.
	StartVerified StartState = "verified"
	// StartVerificationSent means both channels received fresh codes.
	StartVerificationSent StartState = "verification_sent"
	// StartEmailVerificationSent means only the email channel needed a code.
	StartEmailVerificationSent StartState = "email_verification_sent"
	// StartPhoneVerificationSent means only the phone channel needed a code.
	StartPhoneVerificationSent StartState = "phone_verification_sent"
	// StartOK means the email already belongs to an active account and the
	// call was a deliberate no-op. The caller is not told which case it hit.
	StartOK StartState = "ok"
)

// Stats is the public waitlist counter snapshot.
type Stats struct {
	WaitlistCount        int `json:"waitlistCount"`
	WaitlistDisplayCount int `json:"waitlistDisplayCount"`
	FreeSeatsPerOrg      int `json:"freeSeatsPerOrg"`
}
