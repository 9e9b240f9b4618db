package notify

import (
	"context"
	"fmt"
	"sync"
)

// Channel names accepted by SendVerificationCode.
const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
)

// Notifier dispatches applicant-facing messages. Implementations may fail;
// callers decide whether a dispatch failure is fatal.
type Notifier interface {
	// SendVerificationCode delivers a verification code over the given
	// channel ("email" or "phone"). recipient is an email address or an
	// E.164 phone number accordingly.
	SendVerificationCode(ctx context.Context, channel, recipient, code string) error

	// SendInvite delivers a registration invite link.
	SendInvite(ctx context.Context, email, link string) error

	// SendEmailVerification delivers a post-registration email verification
	// link, for deployments where registration did not already prove the
	// address.
	SendEmailVerification(ctx context.Context, email, link string) error

	// SendWelcome delivers the post-registration welcome message.
	SendWelcome(ctx context.Context, email, name string) error
}

// Message is a captured outbound message, used by StubNotifier.
type Message struct {
	Kind      string // "code", "invite", "welcome"
	Channel   string
	Recipient string
	Body      string
}

// StubNotifier records messages instead of sending them. Used in tests and
// as the default sender when no provider is configured.
type StubNotifier struct {
	mu       sync.Mutex
	messages []Message

	// FailWith, when set, is returned from every send.
	FailWith error
}

// NewStubNotifier creates an in-memory notifier.
func NewStubNotifier() *StubNotifier {
	return &StubNotifier{}
}

func (s *StubNotifier) record(m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.messages = append(s.messages, m)
	return nil
}

// SendVerificationCode records a verification code message.
func (s *StubNotifier) SendVerificationCode(ctx context.Context, channel, recipient, code string) error {
	return s.record(Message{Kind: "code", Channel: channel, Recipient: recipient, Body: code})
}

// SendInvite records an invite message.
func (s *StubNotifier) SendInvite(ctx context.Context, email, link string) error {
	return s.record(Message{Kind: "invite", Channel: ChannelEmail, Recipient: email, Body: link})
}

// SendEmailVerification records a verification-link message.
func (s *StubNotifier) SendEmailVerification(ctx context.Context, email, link string) error {
	return s.record(Message{Kind: "verify_link", Channel: ChannelEmail, Recipient: email, Body: link})
}

// SendWelcome records a welcome message.
func (s *StubNotifier) SendWelcome(ctx context.Context, email, name string) error {
	return s.record(Message{Kind: "welcome", Channel: ChannelEmail, Recipient: email, Body: fmt.Sprintf("welcome %s", name)})
}

// Messages returns a copy of everything recorded so far.
func (s *StubNotifier) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// ByKind returns recorded messages of one kind.
func (s *StubNotifier) ByKind(kind string) []Message {
	var out []Message
	for _, m := range s.Messages() {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}
