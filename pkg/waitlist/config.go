package waitlist

import "time"

// Config holds the admission-control knobs for the waitlist engine.
type Config struct {
	// Verification throttling (identical for both channels)
	CodeLength         int
	VerificationTTL    time.Duration
	MaxAttemptsPerCode int
	MaxTotalAttempts   int
	MaxResends         int
	BlockDuration      time.Duration
	ResendCooldown     time.Duration

	// Gating
	InviteGateEnabled  bool
	DomainGateEnabled  bool
	RequireInviteToken bool
	InviteTokenTTL     time.Duration

	// Domain policy: personal/disposable providers rejected outright.
	DomainDenylist []string

	// Invite issuance
	DefaultCohortTag string
	RegisterLinkBase string

	// Automated invite batches
	InviteBatchLimit  int
	InviteMinEntryAge time.Duration
	InviteWindowStart string // "HH:MM" wall clock
	InviteWindowEnd   string
	InviteWindowTZ    string

	// Marketing display projection
	CampaignStart        time.Time
	BaselineCount        int
	TargetCount          int
	TargetDays           int
	JitterRange          int
	OverrideDisplayCount *int
	FreeSeatsPerOrg      int
}

// DefaultDomainDenylist blocks disposable and common personal email
// providers; the waitlist is for company domains.
var DefaultDomainDenylist = []string{
	"mailinator.com",
	"10minutemail.com",
	"tempmail.com",
	"gmail.com",
	"yahoo.com",
	"yahoo.ca",
	"outlook.com",
	"outlook.fr",
	"hotmail.com",
	"live.com",
	"icloud.com",
	"me.com",
	"proton.me",
	"protonmail.com",
	"aol.com",
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CodeLength:         6,
		VerificationTTL:    30 * time.Minute,
		MaxAttemptsPerCode: 5,
		MaxTotalAttempts:   12,
		MaxResends:         6,
		BlockDuration:      60 * time.Minute,
		ResendCooldown:     2 * time.Minute,

		InviteGateEnabled:  true,
		DomainGateEnabled:  true,
		RequireInviteToken: true,
		InviteTokenTTL:     7 * 24 * time.Hour,

		DomainDenylist: DefaultDomainDenylist,

		DefaultCohortTag: "wave-1",
		RegisterLinkBase: "https://app.crewdeck.io/auth/register",

		InviteBatchLimit:  15,
		InviteMinEntryAge: 36 * time.Hour,
		InviteWindowStart: "09:00",
		InviteWindowEnd:   "17:00",
		InviteWindowTZ:    "America/New_York",

		CampaignStart:   time.Date(2024, time.November, 15, 0, 0, 0, 0, time.UTC),
		BaselineCount:   118,
		TargetCount:     275,
		TargetDays:      90,
		JitterRange:     4,
		FreeSeatsPerOrg: 5,
	}
}

// DeniedDomain reports whether domain is on the denylist.
func (c Config) DeniedDomain(domain string) bool {
	for _, d := range c.DomainDenylist {
		if d == domain {
			return true
		}
	}
	return false
}
