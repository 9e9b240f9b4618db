package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSConfig configures the Twilio sender. When AccountSID is empty the
// sender runs in stub mode: messages are logged instead of sent.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
}

// SMSSender delivers verification codes over the Twilio REST API.
type SMSSender struct {
	cfg    SMSConfig
	client *http.Client
}

// NewSMSSender creates a Twilio-backed SMS sender.
func NewSMSSender(cfg SMSConfig) *SMSSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	return &SMSSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SMSSender) stubbed() bool {
	return s.cfg.AccountSID == ""
}

func (s *SMSSender) sendSMS(ctx context.Context, to, body string) error {
	if s.stubbed() {
		log.Printf("sms (stub): to=%s body=%q", to, body)
		return nil
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.cfg.FromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, s.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms provider returned %d: %s", resp.StatusCode, string(payload))
	}
	return nil
}

// SendVerificationCode texts a verification code to an E.164 number.
func (s *SMSSender) SendVerificationCode(ctx context.Context, channel, recipient, code string) error {
	if channel != ChannelPhone {
		return fmt.Errorf("sms sender cannot deliver to channel %q", channel)
	}
	return s.sendSMS(ctx, recipient, fmt.Sprintf("Your Crewdeck verification code is %s. It expires in 30 minutes.", code))
}

// SendInvite is not supported over SMS.
func (s *SMSSender) SendInvite(ctx context.Context, email, link string) error {
	return fmt.Errorf("sms sender cannot deliver invites")
}

// SendEmailVerification is not supported over SMS.
func (s *SMSSender) SendEmailVerification(ctx context.Context, email, link string) error {
	return fmt.Errorf("sms sender cannot deliver verification links")
}

// SendWelcome is not supported over SMS.
func (s *SMSSender) SendWelcome(ctx context.Context, email, name string) error {
	return fmt.Errorf("sms sender cannot deliver welcome messages")
}
