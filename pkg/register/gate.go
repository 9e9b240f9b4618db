// Package register implements the registration admission gate: an ordered
// chain of checks between a signup request and the creation of an
// organization and user. Checks short-circuit; no step leaves partial side
// effects behind a failed predecessor.
package register

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/crewdeck/crewdeck/pkg/apperr"
	"github.com/crewdeck/crewdeck/pkg/audit"
	"github.com/crewdeck/crewdeck/pkg/notify"
	"github.com/crewdeck/crewdeck/pkg/observability"
	"github.com/crewdeck/crewdeck/pkg/orgs"
	"github.com/crewdeck/crewdeck/pkg/tokens"
	"github.com/crewdeck/crewdeck/pkg/users"
	"github.com/crewdeck/crewdeck/pkg/waitlist"
)

// WaitlistGate is the slice of the waitlist the admission gate consults.
type WaitlistGate interface {
	// Find returns the entry for an email, a NotFound error when absent.
	Find(ctx context.Context, email string) (*waitlist.Entry, error)

	// MarkActivated records a completed registration; missing entries are a
	// no-op.
	MarkActivated(ctx context.Context, email, cohortTag string) error

	// EnsurePending backfills a tracked entry for an applicant arriving
	// through a trusted path, without issuing verification codes.
	EnsurePending(ctx context.Context, email, source string) (*waitlist.Entry, error)
}

// DomainArbiter is the distributed domain-claim lock.
type DomainArbiter interface {
	Acquire(ctx context.Context, domain string) (bool, error)
	Release(ctx context.Context, domain string) error
}

// Config holds the gate switches.
type Config struct {
	// InviteGateEnabled requires waitlist admission before registration.
	InviteGateEnabled bool

	// DomainGateEnabled restricts one active organization per email domain.
	DomainGateEnabled bool

	// RequireInviteToken additionally demands the invite link's token.
	RequireInviteToken bool

	// VerificationTokenTTL bounds the post-registration email verification
	// token minted when the invite gate is disabled. Zero means 24h.
	VerificationTokenTTL time.Duration

	// VerifyLinkBase is the email-verification landing URL.
	VerifyLinkBase string
}

// Request is a signup attempt.
type Request struct {
	Email     string
	Password  string
	Username  string
	FirstName string
	LastName  string

	OrganizationID   *int64
	OrganizationName string

	InviteToken   string
	LegalAccepted bool
}

// Gate is the registration admission gate.
type Gate struct {
	waitlist WaitlistGate
	orgs     orgs.Service
	users    users.Service
	arbiter  DomainArbiter
	notifier notify.Notifier
	cfg      Config
	auditor  audit.Logger
	metrics  *observability.Metrics
	logger   *observability.Logger
	clock    func() time.Time
}

// NewGate creates a registration gate.
func NewGate(wl WaitlistGate, orgSvc orgs.Service, userSvc users.Service, arbiter DomainArbiter, notifier notify.Notifier, cfg Config, auditor audit.Logger, metrics *observability.Metrics, logger *observability.Logger) *Gate {
	if auditor == nil {
		auditor = audit.NopLogger{}
	}
	if notifier == nil {
		notifier = notify.NewStubNotifier()
	}
	if cfg.VerificationTokenTTL <= 0 {
		cfg.VerificationTokenTTL = 24 * time.Hour
	}
	return &Gate{
		waitlist: wl,
		orgs:     orgSvc,
		users:    userSvc,
		arbiter:  arbiter,
		notifier: notifier,
		cfg:      cfg,
		auditor:  auditor,
		metrics:  metrics,
		logger:   logger,
		clock:    time.Now,
	}
}

// Register runs the admission checks in order and, when all pass, creates
// the organization (unless one was supplied) and the user. Any domain claim
// acquired along the way is released on every exit path.
func (g *Gate) Register(ctx context.Context, req Request) (*users.User, error) {
	if !req.LegalAccepted {
		return nil, apperr.BadRequest("you must accept the privacy policy and terms to create an account")
	}
	if !ValidPassword(req.Password) {
		return nil, apperr.BadRequest("password does not meet strength requirements")
	}

	email := waitlist.NormalizeEmail(req.Email)
	if !waitlist.ValidEmail(email) {
		return nil, apperr.BadRequest("invalid email address")
	}
	domain := waitlist.DomainOf(email)
	if domain == "" {
		return nil, apperr.BadRequest("invalid email domain")
	}
	username := deriveUsername(req.Username, req.FirstName, req.LastName, email)

	// The gates apply to every request, including ones naming an existing
	// organization. The caller is anonymous; an org id proves nothing.
	cohortTag := ""
	if g.cfg.InviteGateEnabled {
		tag, err := g.checkInviteGate(ctx, email, req.InviteToken)
		if err != nil {
			return nil, err
		}
		cohortTag = tag
	} else if _, err := g.waitlist.EnsurePending(ctx, email, "direct-register"); err != nil {
		return nil, err
	}

	if g.cfg.DomainGateEnabled {
		release, err := g.checkDomainGate(ctx, email, domain)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	org, created, err := g.resolveOrg(ctx, req, username, domain)
	if err != nil {
		return nil, err
	}

	role := users.RoleMember
	if created {
		role = users.RoleOrgOwner
	}

	// With the invite gate on, the waitlist already proved the email; no
	// second verification round. Otherwise mint a 24h verification token.
	var verifyLink string
	createReq := users.CreateRequest{
		Username:       username,
		Email:          email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Password:       req.Password,
		OrganizationID: org.ID,
		Role:           role,
		IsOrgOwner:     created,
		EmailVerified:  g.cfg.InviteGateEnabled,
	}
	if !g.cfg.InviteGateEnabled {
		token, hash, err := tokens.GenerateInviteToken()
		if err != nil {
			return nil, apperr.Internal("failed to generate verification token", err)
		}
		expiry := g.clock().Add(g.cfg.VerificationTokenTTL)
		createReq.VerificationTokenHash = &hash
		createReq.VerificationTokenExpiry = &expiry
		verifyLink = g.verifyLink(token, email)
	}

	user, err := g.users.Create(ctx, createReq)
	if err != nil {
		return nil, apperr.Internal("failed to create user", err)
	}

	if created {
		if err := g.orgs.SetOwner(ctx, org.ID, user.ID); err != nil {
			return nil, apperr.Internal("failed to set organization owner", err)
		}
	}

	if err := g.waitlist.MarkActivated(ctx, email, cohortTag); err != nil && g.logger != nil {
		g.logger.WithError(err).WithField("email", email).Warn("failed to mark waitlist entry activated")
	}

	g.metrics.RegistrationAdmitted()
	g.auditor.Record(ctx, &audit.Event{
		EventType: audit.EventTypeRegisterAdmitted,
		Status:    audit.EventStatusSuccess,
		Actor:     audit.ActorFor(user, email),
		UserID:    &user.ID,
		OrgID:     &org.ID,
	})

	g.sendPostRegistration(ctx, user, verifyLink)
	return user, nil
}

// VerifyEmail consumes a post-registration verification token: the user
// holding the token's hash is marked verified and the token is dropped.
func (g *Gate) VerifyEmail(ctx context.Context, token string) (*users.User, error) {
	if token == "" {
		return nil, apperr.BadRequest("verification token required")
	}
	user, found, err := g.users.FindByVerificationToken(ctx, tokens.HashToken(token))
	if err != nil {
		return nil, apperr.Internal("failed to look up verification token", err)
	}
	if !found {
		return nil, apperr.BadRequest("verification token invalid or already used")
	}
	if user.VerificationTokenExpiry == nil || user.VerificationTokenExpiry.Before(g.clock()) {
		return nil, apperr.BadRequest("verification token expired")
	}
	if err := g.users.ClearVerificationToken(ctx, user.ID); err != nil {
		return nil, apperr.Internal("failed to mark email verified", err)
	}
	user.IsEmailVerified = true
	user.VerificationTokenHash = nil
	user.VerificationTokenExpiry = nil

	g.auditor.Record(ctx, &audit.Event{
		EventType: audit.EventTypeRegisterEmailVerified,
		Status:    audit.EventStatusSuccess,
		Actor:     audit.ActorFor(user, user.Email),
		UserID:    &user.ID,
	})
	return user, nil
}

// checkInviteGate enforces waitlist admission: entry invited or activated,
// both channels verified, and a matching unexpired invite token when
// required. Returns the entry's cohort tag for activation bookkeeping.
func (g *Gate) checkInviteGate(ctx context.Context, email, inviteToken string) (string, error) {
	entry, err := g.waitlist.Find(ctx, email)
	if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return "", err
	}
	if entry == nil || !entry.Admittable() {
		status := "missing"
		if entry != nil {
			status = string(entry.Status)
		}
		g.reject(ctx, audit.EventTypeRegisterBlocked, email, "not_invited", map[string]interface{}{"status": status})
		return "", apperr.Forbidden("invite required: request early access, verify your email and phone, and we will invite your company in a wave")
	}
	if !entry.FullyVerified() {
		g.reject(ctx, audit.EventTypeRegisterBlockedUnverified, email, "unverified", map[string]interface{}{
			"email_status": entry.EmailState.Status,
			"phone_status": entry.PhoneState.Status,
		})
		return "", apperr.Forbidden("please verify your email and phone before creating your account")
	}
	if g.cfg.RequireInviteToken {
		if inviteToken == "" {
			g.reject(ctx, audit.EventTypeRegisterBlocked, email, "missing_token", nil)
			return "", apperr.Forbidden("invite link required: please use the invite email to register")
		}
		if !entry.InviteTokenMatches(tokens.HashToken(inviteToken), g.clock()) {
			g.reject(ctx, audit.EventTypeRegisterBlocked, email, "bad_token", nil)
			return "", apperr.Forbidden("invite link invalid or expired, please request a fresh invite")
		}
	}
	if entry.CohortTag != nil {
		return *entry.CohortTag, nil
	}
	return "", nil
}

// checkDomainGate rejects when an active organization already owns the
// domain, then takes the domain claim. The returned release func must run
// on every exit path once the claim is held.
func (g *Gate) checkDomainGate(ctx context.Context, email, domain string) (func(), error) {
	_, owned, err := g.orgs.FindByDomain(ctx, domain)
	if err != nil {
		return nil, apperr.Internal("failed to look up domain", err)
	}
	if owned {
		g.reject(ctx, audit.EventTypeRegisterBlockedDomain, email, "domain_owned", map[string]interface{}{"domain": domain})
		return nil, apperr.Forbidden("your company already has access, please ask your org admin to invite you")
	}

	acquired, err := g.arbiter.Acquire(ctx, domain)
	if err != nil {
		return nil, apperr.Internal("domain claim backend unavailable", err)
	}
	if !acquired {
		g.metrics.DomainClaimRace()
		g.reject(ctx, audit.EventTypeRegisterDomainRace, email, "domain_race", map[string]interface{}{"domain": domain})
		return nil, apperr.Forbidden("your company already has access, please ask your org admin to invite you")
	}

	return func() {
		if err := g.arbiter.Release(ctx, domain); err != nil && g.logger != nil {
			g.logger.WithError(err).WithField("domain", domain).Warn("failed to release domain claim")
		}
	}, nil
}

func (g *Gate) resolveOrg(ctx context.Context, req Request, username, domain string) (*orgs.Organization, bool, error) {
	if req.OrganizationID != nil {
		org, err := g.orgs.FindByID(ctx, *req.OrganizationID)
		if err != nil {
			return nil, false, apperr.BadRequest("organization not found")
		}
		return org, false, nil
	}

	name := req.OrganizationName
	if name == "" {
		name = fmt.Sprintf("%s's Organization", username)
	}
	org := &orgs.Organization{Name: name, PrimaryDomain: domain}
	if err := g.orgs.Create(ctx, org); err != nil {
		return nil, false, apperr.Internal("failed to create organization", err)
	}
	return org, true, nil
}

func (g *Gate) reject(ctx context.Context, eventType audit.EventType, email, reason string, metadata map[string]interface{}) {
	g.metrics.RegistrationRejected(reason)
	g.auditor.Record(ctx, &audit.Event{
		EventType: eventType,
		Status:    audit.EventStatusDenied,
		Actor:     email,
		Metadata:  metadata,
	})
}

func (g *Gate) verifyLink(token, email string) string {
	u, err := url.Parse(g.cfg.VerifyLinkBase)
	if err != nil {
		return g.cfg.VerifyLinkBase
	}
	q := u.Query()
	q.Set("token", token)
	q.Set("email", email)
	u.RawQuery = q.Encode()
	return u.String()
}

// sendPostRegistration best-effort dispatches the verification or welcome
// email; a failure never fails the registration.
func (g *Gate) sendPostRegistration(ctx context.Context, user *users.User, verifyLink string) {
	var err error
	if verifyLink != "" {
		err = g.notifier.SendEmailVerification(ctx, user.Email, verifyLink)
	} else {
		err = g.notifier.SendWelcome(ctx, user.Email, user.FullName())
	}
	if err != nil {
		g.metrics.NotificationFailed("post_registration")
		if g.logger != nil {
			g.logger.WithError(err).WithField("email", user.Email).Warn("post-registration email dispatch failed")
		}
	}
}
