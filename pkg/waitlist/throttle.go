package waitlist

import (
	"context"
	"strings"
	"time"

	"github.com/crewdeck/crewdeck/pkg/apperr"
	"github.com/crewdeck/crewdeck/pkg/audit"
	"github.com/crewdeck/crewdeck/pkg/observability"
	"github.com/crewdeck/crewdeck/pkg/tokens"
)

// Throttle owns verification-code issuance and checking for a single entry
// channel, including attempt counting, cooldowns and blocking. Behavior is
// identical for the email and phone channels.
type Throttle struct {
	store   Store
	cfg     Config
	auditor audit.Logger
	metrics *observability.Metrics
	clock   func() time.Time
}

// NewThrottle creates a throttle controller.
func NewThrottle(store Store, cfg Config, auditor audit.Logger, metrics *observability.Metrics) *Throttle {
	if auditor == nil {
		auditor = audit.NopLogger{}
	}
	return &Throttle{
		store:   store,
		cfg:     cfg,
		auditor: auditor,
		metrics: metrics,
		clock:   time.Now,
	}
}

// IssueCode generates and stores a fresh code for the channel. It rejects
// while a block is active and inside the resend cooldown. The caller is
// responsible for dispatching the returned cleartext code.
func (t *Throttle) IssueCode(ctx context.Context, entry *Entry, ch Channel) (string, error) {
	now := t.clock()
	state := entry.State(ch)

	if state.Status == VerifyBlocked {
		if state.BlockActive(now) {
			return "", apperr.Forbidden("too many attempts, please try later")
		}
		t.unblock(state)
	}

	if state.LastSentAt != nil && now.Sub(*state.LastSentAt) < t.cfg.ResendCooldown {
		return "", apperr.Forbidden("please wait before requesting another code")
	}

	code, err := tokens.GenerateNumericCode(t.cfg.CodeLength)
	if err != nil {
		return "", apperr.Internal("failed to generate verification code", err)
	}

	expires := now.Add(t.cfg.VerificationTTL)
	state.Status = VerifyUnverified
	state.Code = &code
	state.CodeExpiresAt = &expires
	state.Attempts = 0
	state.Resends++
	sent := now
	state.LastSentAt = &sent

	if err := t.store.Save(ctx, entry); err != nil {
		return "", apperr.Internal("failed to save waitlist entry", err)
	}
	t.metrics.CodeIssued(string(ch))

	// Lifetime ceilings are enforced after the save so the resend that
	// crossed the line is itself recorded.
	if err := t.assertTotalLimits(ctx, entry, ch); err != nil {
		return "", err
	}

	return code, nil
}

// VerifyCode checks a submitted code against the channel's stored code.
// Verifying an already-verified channel succeeds without consuming an
// attempt.
func (t *Throttle) VerifyCode(ctx context.Context, entry *Entry, ch Channel, submitted string) error {
	now := t.clock()
	state := entry.State(ch)

	if state.Status == VerifyVerified {
		return nil
	}

	if state.Status == VerifyBlocked {
		if state.BlockActive(now) {
			return apperr.Forbidden("too many attempts, please try later")
		}
		t.unblock(state)
		if err := t.store.Save(ctx, entry); err != nil {
			return apperr.Internal("failed to save waitlist entry", err)
		}
	}

	if !state.CodeUsable(now) {
		return apperr.BadRequest("verification code expired, please request a new code")
	}

	state.Attempts++
	state.AttemptTotal++

	// Exceeding the per-code limit blocks regardless of whether this
	// submission happened to be correct.
	if state.Attempts > t.cfg.MaxAttemptsPerCode {
		if err := t.block(ctx, entry, ch, "max_attempts_per_code"); err != nil {
			return err
		}
		return apperr.Forbidden("too many attempts, please try later")
	}

	if strings.TrimSpace(submitted) != strings.TrimSpace(deref(state.Code)) {
		if err := t.store.Save(ctx, entry); err != nil {
			return apperr.Internal("failed to save waitlist entry", err)
		}
		t.metrics.CodeRejected(string(ch))
		if err := t.assertTotalLimits(ctx, entry, ch); err != nil {
			return err
		}
		return apperr.BadRequest("invalid verification code")
	}

	state.Status = VerifyVerified
	verified := now
	state.VerifiedAt = &verified
	state.clearCode()
	state.Attempts = 0

	if err := t.store.Save(ctx, entry); err != nil {
		return apperr.Internal("failed to save waitlist entry", err)
	}
	t.metrics.CodeVerified(string(ch))
	return nil
}

// EnsureNotBlocked lifts an expired block or rejects while one is active.
// Persists the unblock when it happens.
func (t *Throttle) EnsureNotBlocked(ctx context.Context, entry *Entry, ch Channel) error {
	state := entry.State(ch)
	if state.Status != VerifyBlocked {
		return nil
	}
	if state.BlockActive(t.clock()) {
		return apperr.Forbidden("too many attempts, please try later")
	}
	t.unblock(state)
	if err := t.store.Save(ctx, entry); err != nil {
		return apperr.Internal("failed to save waitlist entry", err)
	}
	return nil
}

// assertTotalLimits blocks the channel once lifetime ceilings are reached,
// capping total abuse surface independent of per-code limits.
func (t *Throttle) assertTotalLimits(ctx context.Context, entry *Entry, ch Channel) error {
	state := entry.State(ch)
	if state.AttemptTotal >= t.cfg.MaxTotalAttempts {
		if err := t.block(ctx, entry, ch, "max_total_attempts"); err != nil {
			return err
		}
		return apperr.Forbidden("too many attempts, please try later")
	}
	if state.Resends >= t.cfg.MaxResends {
		if err := t.block(ctx, entry, ch, "max_total_resends"); err != nil {
			return err
		}
		return apperr.Forbidden("too many attempts, please try later")
	}
	return nil
}

// block transitions the channel to blocked, clearing the code in the same
// write so no blocked row ever carries a usable code.
func (t *Throttle) block(ctx context.Context, entry *Entry, ch Channel, reason string) error {
	now := t.clock()
	until := now.Add(t.cfg.BlockDuration)

	state := entry.State(ch)
	state.Status = VerifyBlocked
	state.BlockedAt = &now
	state.BlockedUntil = &until
	state.clearCode()

	if err := t.store.Save(ctx, entry); err != nil {
		return apperr.Internal("failed to save waitlist entry", err)
	}

	t.metrics.ChannelBlocked(string(ch), reason)
	t.auditor.Record(ctx, &audit.Event{
		EventType: audit.EventTypeWaitlistBlocked,
		Status:    audit.EventStatusDenied,
		Actor:     audit.ActorFor(entry, entry.Email),
		Metadata:  map[string]interface{}{"channel": ch, "reason": reason},
	})
	return nil
}

// unblock lifts an expired block. Per-code attempts and the resend counter
// reset; the lifetime attempt total survives so repeated abuse re-blocks
// via the total-attempts ceiling.
func (t *Throttle) unblock(state *ChannelState) {
	state.Status = VerifyUnverified
	state.BlockedAt = nil
	state.BlockedUntil = nil
	state.Attempts = 0
	state.Resends = 0
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
