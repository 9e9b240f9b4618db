package notify

import "context"

// Router fans dispatches out to per-channel senders: verification codes go
// to the sender matching their channel, invites and welcomes always go over
// email.
type Router struct {
	Email Notifier
	SMS   Notifier
}

// NewRouter wires an email sender and an SMS sender behind one Notifier.
func NewRouter(email, sms Notifier) *Router {
	return &Router{Email: email, SMS: sms}
}

// SendVerificationCode routes the code to the channel's sender.
func (r *Router) SendVerificationCode(ctx context.Context, channel, recipient, code string) error {
	if channel == ChannelPhone {
		return r.SMS.SendVerificationCode(ctx, channel, recipient, code)
	}
	return r.Email.SendVerificationCode(ctx, channel, recipient, code)
}

// SendInvite delivers over email.
func (r *Router) SendInvite(ctx context.Context, email, link string) error {
	return r.Email.SendInvite(ctx, email, link)
}

// SendEmailVerification delivers over email.
func (r *Router) SendEmailVerification(ctx context.Context, email, link string) error {
	return r.Email.SendEmailVerification(ctx, email, link)
}

// SendWelcome delivers over email.
func (r *Router) SendWelcome(ctx context.Context, email, name string) error {
	return r.Email.SendWelcome(ctx, email, name)
}
