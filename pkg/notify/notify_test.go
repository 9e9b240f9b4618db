package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubNotifier_Records(t *testing.T) {
	stub := NewStubNotifier()
	ctx := context.Background()

	require.NoError(t, stub.SendVerificationCode(ctx, ChannelEmail, "a@acme.com", "123456"))
	require.NoError(t, stub.SendVerificationCode(ctx, ChannelPhone, "+15551234567", "654321"))
	require.NoError(t, stub.SendInvite(ctx, "a@acme.com", "https://example.com/register?token=x"))
	require.NoError(t, stub.SendWelcome(ctx, "a@acme.com", "Ada"))

	assert.Len(t, stub.Messages(), 4)
	assert.Len(t, stub.ByKind("code"), 2)
	assert.Len(t, stub.ByKind("invite"), 1)
	assert.Len(t, stub.ByKind("welcome"), 1)

	codes := stub.ByKind("code")
	assert.Equal(t, ChannelEmail, codes[0].Channel)
	assert.Equal(t, "123456", codes[0].Body)
}

func TestStubNotifier_FailWith(t *testing.T) {
	stub := NewStubNotifier()
	stub.FailWith = errors.New("smtp down")

	err := stub.SendInvite(context.Background(), "a@acme.com", "link")

	assert.Error(t, err)
	assert.Empty(t, stub.Messages())
}

func TestRouter_RoutesByChannel(t *testing.T) {
	email := NewStubNotifier()
	sms := NewStubNotifier()
	router := &Router{Email: email, SMS: sms}
	ctx := context.Background()

	require.NoError(t, router.SendVerificationCode(ctx, ChannelEmail, "a@acme.com", "111111"))
	require.NoError(t, router.SendVerificationCode(ctx, ChannelPhone, "+15551234567", "222222"))

	assert.Len(t, email.ByKind("code"), 1)
	assert.Len(t, sms.ByKind("code"), 1)
	assert.Equal(t, "+15551234567", sms.ByKind("code")[0].Recipient)
}

func TestRouter_InvitesAlwaysEmail(t *testing.T) {
	email := NewStubNotifier()
	sms := NewStubNotifier()
	router := &Router{Email: email, SMS: sms}
	ctx := context.Background()

	require.NoError(t, router.SendInvite(ctx, "a@acme.com", "link"))
	require.NoError(t, router.SendEmailVerification(ctx, "a@acme.com", "link"))
	require.NoError(t, router.SendWelcome(ctx, "a@acme.com", "Ada"))

	assert.Len(t, email.Messages(), 3)
	assert.Empty(t, sms.Messages())
}

func TestSMSSender_StubMode(t *testing.T) {
	sender := NewSMSSender(SMSConfig{})

	err := sender.SendVerificationCode(context.Background(), ChannelPhone, "+15551234567", "123456")

	assert.NoError(t, err)
}

func TestSMSSender_RejectsEmailChannel(t *testing.T) {
	sender := NewSMSSender(SMSConfig{})

	err := sender.SendVerificationCode(context.Background(), ChannelEmail, "a@acme.com", "123456")

	assert.Error(t, err)
}

func TestSMSSender_PostsToProvider(t *testing.T) {
	var gotPath, gotTo, gotBody string
	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _, gotAuth = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotTo = r.PostForm.Get("To")
		gotBody = r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewSMSSender(SMSConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550000000",
		BaseURL:    srv.URL,
	})

	err := sender.SendVerificationCode(context.Background(), ChannelPhone, "+15551234567", "123456")

	require.NoError(t, err)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.True(t, gotAuth)
	assert.Equal(t, "+15551234567", gotTo)
	assert.Contains(t, gotBody, "123456")
}

func TestSMSSender_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code": 21211}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := NewSMSSender(SMSConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550000000",
		BaseURL:    srv.URL,
	})

	err := sender.SendVerificationCode(context.Background(), ChannelPhone, "+15551234567", "123456")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestSMSSender_NoInvites(t *testing.T) {
	sender := NewSMSSender(SMSConfig{})
	ctx := context.Background()

	assert.Error(t, sender.SendInvite(ctx, "a@acme.com", "link"))
	assert.Error(t, sender.SendEmailVerification(ctx, "a@acme.com", "link"))
	assert.Error(t, sender.SendWelcome(ctx, "a@acme.com", "Ada"))
}

func TestEmailSender_RejectsPhoneChannel(t *testing.T) {
	sender := NewEmailSender(EmailConfig{Host: "localhost", Port: 2525, From: "no-reply@crewdeck.io"})

	err := sender.SendVerificationCode(context.Background(), ChannelPhone, "+15551234567", "123456")

	assert.Error(t, err)
}
