package waitlist

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/crewdeck/crewdeck/pkg/apperr"
	"github.com/crewdeck/crewdeck/pkg/audit"
	"github.com/crewdeck/crewdeck/pkg/notify"
	"github.com/crewdeck/crewdeck/pkg/observability"
	"github.com/crewdeck/crewdeck/pkg/tokens"
)

// UserDirectory answers whether an active account already exists for an
// email. The waitlist never creates accounts; it only needs this one check.
type UserDirectory interface {
	ExistsActive(ctx context.Context, email string) (bool, error)
}

// Service owns the waitlist entry lifecycle: submission, dual-channel
// verification, invite issuance and activation.
type Service struct {
	store    Store
	users    UserDirectory
	notifier notify.Notifier
	throttle *Throttle
	cfg      Config
	auditor  audit.Logger
	metrics  *observability.Metrics
	logger   *observability.Logger
	clock    func() time.Time
}

// NewService creates a waitlist service.
func NewService(store Store, users UserDirectory, notifier notify.Notifier, cfg Config, auditor audit.Logger, metrics *observability.Metrics, logger *observability.Logger) *Service {
	if auditor == nil {
		auditor = audit.NopLogger{}
	}
	if notifier == nil {
		notifier = notify.NewStubNotifier()
	}
	return &Service{
		store:    store,
		users:    users,
		notifier: notifier,
		throttle: NewThrottle(store, cfg, auditor, metrics),
		cfg:      cfg,
		auditor:  auditor,
		metrics:  metrics,
		logger:   logger,
		clock:    time.Now,
	}
}

// StartRequest is a waitlist submission.
type StartRequest struct {
	Email            string
	Phone            string
	Name             string
	Role             string
	Source           string
	PreCreateAccount bool
	MarketingConsent bool
}

// Start submits an email/phone pair to the waitlist. It creates or refreshes
// the entry and issues verification codes for whichever channels still need
// one. Code dispatch is best-effort.
func (s *Service) Start(ctx context.Context, req StartRequest) (StartState, error) {
	email := NormalizeEmail(req.Email)
	if !ValidEmail(email) {
		return "", apperr.BadRequest("invalid email address")
	}
	phone := NormalizePhone(req.Phone)
	if !ValidPhone(phone) {
		return "", apperr.BadRequest("invalid phone number, expected E.164 format")
	}
	if s.cfg.DeniedDomain(DomainOf(email)) {
		return "", apperr.Forbidden("please use your work email address")
	}

	// An email that already belongs to an active account is a deliberate
	// no-op; the caller is not told which case it hit.
	active, err := s.users.ExistsActive(ctx, email)
	if err != nil {
		return "", apperr.Internal("failed to check existing accounts", err)
	}
	if active {
		s.auditor.Record(ctx, &audit.Event{
			EventType: audit.EventTypeWaitlistSkipActive,
			Status:    audit.EventStatusSuccess,
			Actor:     email,
		})
		return StartOK, nil
	}

	entry, found, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", apperr.Internal("failed to load waitlist entry", err)
	}
	phoneChanged := false
	if !found {
		entry = &Entry{
			Email:      email,
			Status:     StatusPendingCohort,
			EmailState: ChannelState{Status: VerifyUnverified},
			PhoneState: ChannelState{Status: VerifyUnverified},
		}
	} else {
		phoneChanged = entry.Phone != phone
	}
	entry.Phone = phone
	entry.Name = req.Name
	entry.Role = req.Role
	entry.Source = req.Source
	entry.PreCreateAccount = req.PreCreateAccount
	entry.MarketingConsent = req.MarketingConsent

	// A changed phone number invalidates its previous verification.
	if phoneChanged && entry.PhoneState.Verified() {
		entry.PhoneState = ChannelState{
			Status:       VerifyUnverified,
			AttemptTotal: entry.PhoneState.AttemptTotal,
			Resends:      entry.PhoneState.Resends,
		}
	}

	if err := s.store.Upsert(ctx, entry); err != nil {
		return "", apperr.Internal("failed to save waitlist entry", err)
	}
	s.auditor.Record(ctx, &audit.Event{
		EventType: audit.EventTypeWaitlistSubmitted,
		Status:    audit.EventStatusSuccess,
		Actor:     email,
		Metadata:  map[string]interface{}{"source": req.Source, "returning": found},
	})

	needEmail := !entry.EmailState.Verified()
	needPhone := !entry.PhoneState.Verified()
	if !needEmail && !needPhone {
		return StartVerified, nil
	}

	if needEmail {
		if err := s.issueAndDispatch(ctx, entry, ChannelEmail); err != nil {
			return "", err
		}
	}
	if needPhone {
		if err := s.issueAndDispatch(ctx, entry, ChannelPhone); err != nil {
			return "", err
		}
	}

	switch {
	case needEmail && needPhone:
		return StartVerificationSent, nil
	case needEmail:
		return StartEmailVerificationSent, nil
	default:
		return StartPhoneVerificationSent, nil
	}
}

// issueAndDispatch issues a fresh code for the channel and best-effort sends
// it. Dispatch failure is logged and counted, never fatal.
func (s *Service) issueAndDispatch(ctx context.Context, entry *Entry, ch Channel) error {
	code, err := s.throttle.IssueCode(ctx, entry, ch)
	if err != nil {
		return err
	}
	recipient := entry.Email
	if ch == ChannelPhone {
		recipient = entry.Phone
	}
	if err := s.notifier.SendVerificationCode(ctx, string(ch), recipient, code); err != nil {
		s.metrics.NotificationFailed("verification_" + string(ch))
		if s.logger != nil {
			s.logger.WithError(err).WithField("channel", ch).Warn("verification code dispatch failed")
		}
	}
	return nil
}

// VerifyEmail checks a submitted email verification code.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	return s.verify(ctx, email, ChannelEmail, code)
}

// VerifyPhone checks a submitted phone verification code.
func (s *Service) VerifyPhone(ctx context.Context, email, code string) error {
	return s.verify(ctx, email, ChannelPhone, code)
}

func (s *Service) verify(ctx context.Context, email string, ch Channel, code string) error {
	entry, err := s.load(ctx, email)
	if err != nil {
		return err
	}
	if err := s.throttle.VerifyCode(ctx, entry, ch, code); err != nil {
		return err
	}
	s.auditor.Record(ctx, &audit.Event{
		EventType: audit.EventTypeWaitlistVerified,
		Status:    audit.EventStatusSuccess,
		Actor:     audit.ActorFor(entry, entry.Email),
		Metadata:  map[string]interface{}{"channel": ch},
	})
	return nil
}

// ResendEmail re-issues the email verification code.
func (s *Service) ResendEmail(ctx context.Context, email string) (StartState, error) {
	return s.resend(ctx, email, ChannelEmail)
}

// ResendPhone re-issues the phone verification code.
func (s *Service) ResendPhone(ctx context.Context, email string) (StartState, error) {
	return s.resend(ctx, email, ChannelPhone)
}

func (s *Service) resend(ctx context.Context, email string, ch Channel) (StartState, error) {
	entry, err := s.load(ctx, email)
	if err != nil {
		return "", err
	}
	if entry.State(ch).Verified() {
		return StartVerified, nil
	}
	if err := s.issueAndDispatch(ctx, entry, ch); err != nil {
		return "", err
	}
	s.auditor.Record(ctx, &audit.Event{
		EventType: audit.EventTypeWaitlistResent,
		Status:    audit.EventStatusSuccess,
		Actor:     audit.ActorFor(entry, entry.Email),
		Metadata:  map[string]interface{}{"channel": ch},
	})
	if ch == ChannelPhone {
		return StartPhoneVerificationSent, nil
	}
	return StartEmailVerificationSent, nil
}

// MarkInvited admits an entry into a cohort: mints an invite token when the
// deployment requires one, dispatches the invite, and transitions the entry
// to invited. Unlike verification codes, a failed invite dispatch is
// surfaced to the caller.
func (s *Service) MarkInvited(ctx context.Context, email, cohortTag string) (*Entry, error) {
	entry, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if entry.Status == StatusActivated {
		return nil, apperr.Forbidden("entry already activated")
	}
	if !entry.FullyVerified() || !ValidPhone(entry.Phone) {
		return nil, apperr.Forbidden("entry is not fully verified")
	}

	link := s.cfg.RegisterLinkBase
	if s.cfg.RequireInviteToken {
		token, hash, err := tokens.GenerateInviteToken()
		if err != nil {
			return nil, apperr.Internal("failed to generate invite token", err)
		}
		expires := s.clock().Add(s.cfg.InviteTokenTTL)
		entry.InviteTokenHash = &hash
		entry.InviteTokenExpiresAt = &expires

		u, err := url.Parse(s.cfg.RegisterLinkBase)
		if err != nil {
			return nil, apperr.Internal("invalid register link base", err)
		}
		q := u.Query()
		q.Set("token", token)
		q.Set("email", entry.Email)
		u.RawQuery = q.Encode()
		link = u.String()
	}

	if err := s.notifier.SendInvite(ctx, entry.Email, link); err != nil {
		entry.InviteFailureCount++
		entry.InviteTokenHash = nil
		entry.InviteTokenExpiresAt = nil
		if saveErr := s.store.Save(ctx, entry); saveErr != nil {
			if s.logger != nil {
				s.logger.WithError(saveErr).Warn("failed to record invite dispatch failure")
			}
		}
		s.metrics.InviteFailed()
		s.auditor.Record(ctx, &audit.Event{
			EventType: audit.EventTypeWaitlistInviteFail,
			Status:    audit.EventStatusFailure,
			Actor:     audit.ActorFor(entry, entry.Email),
			Message:   err.Error(),
		})
		return nil, apperr.Internal("failed to send invite", err)
	}

	now := s.clock()
	entry.Status = StatusInvited
	entry.InvitedAt = &now
	tag := cohortTag
	if tag == "" {
		tag = s.cfg.DefaultCohortTag
	}
	entry.CohortTag = &tag
	entry.EmailState.clearCode()
	entry.PhoneState.clearCode()

	if err := s.store.Save(ctx, entry); err != nil {
		return nil, apperr.Internal("failed to save waitlist entry", err)
	}
	s.metrics.InviteSent()
	s.auditor.Record(ctx, &audit.Event{
		EventType: audit.EventTypeWaitlistInvited,
		Status:    audit.EventStatusSuccess,
		Actor:     audit.ActorFor(entry, entry.Email),
		Metadata:  map[string]interface{}{"cohort": tag},
	})
	return entry, nil
}

// MarkActivated records that the applicant finished registration. A missing
// entry is a silent no-op: registration must succeed for users who never
// touched the waitlist, e.g. token-based org joins.
func (s *Service) MarkActivated(ctx context.Context, email, cohortTag string) error {
	entry, found, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return apperr.Internal("failed to load waitlist entry", err)
	}
	if !found {
		return nil
	}

	now := s.clock()
	entry.Status = StatusActivated
	entry.ActivatedAt = &now
	entry.InviteTokenHash = nil
	entry.InviteTokenExpiresAt = nil
	if cohortTag != "" && entry.CohortTag == nil {
		entry.CohortTag = &cohortTag
	}
	entry.EmailState.clearCode()
	entry.PhoneState.clearCode()

	if err := s.store.Save(ctx, entry); err != nil {
		return apperr.Internal("failed to save waitlist entry", err)
	}
	s.auditor.Record(ctx, &audit.Event{
		EventType: audit.EventTypeWaitlistActivated,
		Status:    audit.EventStatusSuccess,
		Actor:     audit.ActorFor(entry, entry.Email),
	})
	return nil
}

// EnsurePending upserts a pre-trusted entry for an email without issuing
// verification codes. Used when an applicant arrives through a trusted path
// such as a token-based org join and should be tracked without gating.
func (s *Service) EnsurePending(ctx context.Context, email, source string) (*Entry, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, apperr.BadRequest("invalid email address")
	}
	entry, found, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("failed to load waitlist entry", err)
	}
	if found {
		return entry, nil
	}
	entry = &Entry{
		Email:      email,
		Source:     source,
		Status:     StatusPendingCohort,
		EmailState: ChannelState{Status: VerifyUnverified},
		PhoneState: ChannelState{Status: VerifyUnverified},
	}
	if err := s.store.Upsert(ctx, entry); err != nil {
		return nil, apperr.Internal("failed to save waitlist entry", err)
	}
	return entry, nil
}

// Find returns the entry for an email, NotFound when absent.
func (s *Service) Find(ctx context.Context, email string) (*Entry, error) {
	return s.load(ctx, email)
}

func (s *Service) load(ctx context.Context, email string) (*Entry, error) {
	entry, found, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, apperr.Internal("failed to load waitlist entry", err)
	}
	if !found {
		return nil, apperr.NotFound("waitlist entry not found")
	}
	return entry, nil
}

// Config returns the service configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Stats returns the public counter snapshot. The display count is a
// marketing projection, not the real count; see displayCount.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	count, err := s.store.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count waitlist entries: %w", err)
	}
	return &Stats{
		WaitlistCount:        count,
		WaitlistDisplayCount: s.displayCount(count),
		FreeSeatsPerOrg:      s.cfg.FreeSeatsPerOrg,
	}, nil
}
