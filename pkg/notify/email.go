package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"
)

// EmailConfig configures the SMTP sender.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	AppName  string
}

var (
	codeEmailTmpl = template.Must(template.New("code").Parse(
		`Your {{.AppName}} verification code is {{.Code}}.

It expires in 30 minutes. If you did not request this, you can ignore this email.`))

	inviteEmailTmpl = template.Must(template.New("invite").Parse(
		`You're in! Your spot on {{.AppName}} is ready.

Finish setting up your account here:

{{.Link}}

The link is valid for 7 days.`))

	verifyLinkEmailTmpl = template.Must(template.New("verify_link").Parse(
		`Confirm your email address to finish setting up your {{.AppName}} account:

{{.Link}}

The link is valid for 24 hours.`))

	welcomeEmailTmpl = template.Must(template.New("welcome").Parse(
		`Hi {{.Name}},

Welcome to {{.AppName}}. Your account is ready to go.`))
)

// EmailSender delivers messages over SMTP.
type EmailSender struct {
	cfg    EmailConfig
	dialer *gomail.Dialer
}

// NewEmailSender creates an SMTP-backed sender.
func NewEmailSender(cfg EmailConfig) *EmailSender {
	if cfg.AppName == "" {
		cfg.AppName = "Crewdeck"
	}
	return &EmailSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *EmailSender) send(to, subject string, tmpl *template.Template, data interface{}) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendVerificationCode emails a verification code. Phone-channel codes are
// not deliverable over SMTP; pair this sender with an SMS sender.
func (s *EmailSender) SendVerificationCode(ctx context.Context, channel, recipient, code string) error {
	if channel != ChannelEmail {
		return fmt.Errorf("email sender cannot deliver to channel %q", channel)
	}
	return s.send(recipient,
		fmt.Sprintf("%s verification code", s.cfg.AppName),
		codeEmailTmpl,
		struct{ AppName, Code string }{s.cfg.AppName, code})
}

// SendInvite emails a registration invite link.
func (s *EmailSender) SendInvite(ctx context.Context, email, link string) error {
	return s.send(email,
		fmt.Sprintf("Your %s invite is here", s.cfg.AppName),
		inviteEmailTmpl,
		struct{ AppName, Link string }{s.cfg.AppName, link})
}

// SendEmailVerification emails a verification link.
func (s *EmailSender) SendEmailVerification(ctx context.Context, email, link string) error {
	return s.send(email,
		fmt.Sprintf("Confirm your %s email", s.cfg.AppName),
		verifyLinkEmailTmpl,
		struct{ AppName, Link string }{s.cfg.AppName, link})
}

// SendWelcome emails the post-registration welcome message.
func (s *EmailSender) SendWelcome(ctx context.Context, email, name string) error {
	if name == "" {
		name = "there"
	}
	return s.send(email,
		fmt.Sprintf("Welcome to %s", s.cfg.AppName),
		welcomeEmailTmpl,
		struct{ AppName, Name string }{s.cfg.AppName, name})
}
