package otp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pysugar/careertracker/internal/api"
	"github.com/pysugar/careertracker/internal/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	sendStatus   int
	sendBody     string
	verifyStatus int
	verifyBody   string
	calls        int32
	lastVerify   map[string]string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&b.calls, 1)
	switch r.URL.Path {
	case "/api/users/send-otp/":
		w.WriteHeader(b.sendStatus)
		w.Write([]byte(b.sendBody))
	case "/api/users/verify-otp/":
		json.NewDecoder(r.Body).Decode(&b.lastVerify)
		w.WriteHeader(b.verifyStatus)
		w.Write([]byte(b.verifyBody))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFlow(t *testing.T, b *fakeBackend) (*Flow, *credential.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	store := credential.NewMemoryStore(credential.Credential{APIBase: srv.URL + "/api/"})
	client := api.NewClient(store, nil, api.WithTransport(srv.Client().Transport))
	return NewFlow(client, nil), store
}

func TestFlow_HappyPath(t *testing.T) {
	b := &fakeBackend{
		sendStatus:   http.StatusOK,
		sendBody:     `{"message":"OTP sent"}`,
		verifyStatus: http.StatusOK,
		verifyBody:   `{"access":"a1","refresh":"r1"}`,
	}
	flow, store := newFlow(t, b)
	ctx := context.Background()

	flow.Begin()
	assert.Equal(t, AwaitingEmail, flow.State())

	require.NoError(t, flow.RequestCode(ctx, " me@example.com "))
	assert.Equal(t, AwaitingCode, flow.State())
	assert.Equal(t, "me@example.com", flow.PendingEmail())

	require.NoError(t, flow.VerifyCode(ctx, "123456"))
	assert.Equal(t, Authenticated, flow.State())
	assert.Empty(t, flow.PendingEmail())
	assert.Equal(t, map[string]string{"email": "me@example.com", "otp": "123456"}, b.lastVerify)

	cred, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", cred.AccessToken)
	assert.Equal(t, "r1", cred.RefreshToken)
	assert.Equal(t, "me@example.com", cred.UserEmail)
}

func TestFlow_InvalidEmailMakesNoCall(t *testing.T) {
	b := &fakeBackend{}
	flow, _ := newFlow(t, b)

	for _, email := range []string{"", "   ", "not-an-email", "a b@c"} {
		err := flow.RequestCode(context.Background(), email)
		assert.ErrorIs(t, err, ErrInvalidEmail, email)
	}
	assert.Zero(t, atomic.LoadInt32(&b.calls))
	assert.Equal(t, Idle, flow.State())
}

func TestFlow_SendFailureKeepsAwaitingEmail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "detail", status: http.StatusTooManyRequests, body: `{"detail":"Request was throttled."}`, want: "Request was throttled."},
		{name: "email field", status: http.StatusBadRequest, body: `{"email":["Enter a valid email address."]}`, want: "Enter a valid email address."},
		{name: "error key", status: http.StatusBadRequest, body: `{"error":"User not found"}`, want: "User not found"},
		{name: "no message", status: http.StatusInternalServerError, body: `oops`, want: SendFailedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow, _ := newFlow(t, &fakeBackend{sendStatus: tt.status, sendBody: tt.body})
			flow.Begin()

			err := flow.RequestCode(context.Background(), "me@example.com")
			require.Error(t, err)
			assert.Equal(t, tt.want, api.UserMessage(err, SendFailedMessage))
			assert.Equal(t, AwaitingEmail, flow.State())
			assert.Empty(t, flow.PendingEmail())
		})
	}
}

func TestFlow_SendNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/api/"
	srv.Close()
	store := credential.NewMemoryStore(credential.Credential{APIBase: base})
	flow := NewFlow(api.NewClient(store, nil), nil)

	err := flow.RequestCode(context.Background(), "me@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrTransport))
	assert.Equal(t, api.NetworkErrorDetail, api.UserMessage(err, SendFailedMessage))
}

func TestFlow_VerifyRequiresPendingLogin(t *testing.T) {
	b := &fakeBackend{}
	flow, _ := newFlow(t, b)

	assert.ErrorIs(t, flow.VerifyCode(context.Background(), "123456"), ErrNoPendingLogin)
	assert.Zero(t, atomic.LoadInt32(&b.calls))
}

func TestFlow_VerifyRejectsWrongLength(t *testing.T) {
	b := &fakeBackend{}
	flow, _ := newFlow(t, b)
	require.NoError(t, flow.RestorePending("me@example.com"))

	for _, code := range []string{"", "12345", "1234567"} {
		assert.ErrorIs(t, flow.VerifyCode(context.Background(), code), ErrInvalidCode)
	}
	assert.Zero(t, atomic.LoadInt32(&b.calls))
	assert.Equal(t, AwaitingCode, flow.State())
}

func TestFlow_VerifyFailureKeepsAwaitingCode(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "otp field", status: http.StatusBadRequest, body: `{"otp":["Invalid OTP"]}`, want: "Invalid OTP"},
		{name: "detail", status: http.StatusBadRequest, body: `{"detail":"OTP expired"}`, want: "OTP expired"},
		{name: "empty", status: http.StatusBadRequest, body: ``, want: VerifyFailedMessage},
		{name: "2xx without access", status: http.StatusOK, body: `{"refresh":"r"}`, want: VerifyFailedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow, store := newFlow(t, &fakeBackend{verifyStatus: tt.status, verifyBody: tt.body})
			require.NoError(t, flow.RestorePending("me@example.com"))

			err := flow.VerifyCode(context.Background(), "000000")
			require.Error(t, err)
			assert.Equal(t, tt.want, api.UserMessage(err, VerifyFailedMessage))
			assert.Equal(t, AwaitingCode, flow.State())
			assert.Equal(t, "me@example.com", flow.PendingEmail())

			cred, _ := store.Get(context.Background())
			assert.False(t, cred.LoggedIn())
		})
	}
}

func TestFlow_Back(t *testing.T) {
	flow, _ := newFlow(t, &fakeBackend{})
	require.NoError(t, flow.RestorePending("me@example.com"))

	flow.Back()
	assert.Equal(t, AwaitingEmail, flow.State())
	assert.Empty(t, flow.PendingEmail())
}

func TestFlow_LogoutClearsEverything(t *testing.T) {
	flow, store := newFlow(t, &fakeBackend{})
	ctx := context.Background()
	base := func() string { c, _ := store.Get(ctx); return c.APIBase }()
	require.NoError(t, store.Set(ctx, credential.Patch{
		AccessToken:  credential.String("a"),
		RefreshToken: credential.String("r"),
		UserEmail:    credential.String("me@example.com"),
	}))

	state, err := flow.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, Authenticated, state)

	flow.Logout(ctx)
	assert.Equal(t, Idle, flow.State())

	cred, _ := store.Get(ctx)
	assert.Empty(t, cred.AccessToken)
	assert.Empty(t, cred.RefreshToken)
	assert.Empty(t, cred.UserEmail)
	assert.Equal(t, base, cred.APIBase)
}

func TestFlow_LogoutDuringAwaitingCode(t *testing.T) {
	flow, _ := newFlow(t, &fakeBackend{})
	require.NoError(t, flow.RestorePending("me@example.com"))

	flow.Logout(context.Background())
	assert.Equal(t, Idle, flow.State())
	assert.Empty(t, flow.PendingEmail())
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@b"))
	assert.True(t, ValidEmail("first.last+tag@example.co.uk"))
	assert.False(t, ValidEmail("@"))
	assert.False(t, ValidEmail("no-at-sign"))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Please enter a valid email address.", Message(ErrInvalidEmail, SendFailedMessage))
	assert.Equal(t, "Please enter the 6-digit code.", Message(ErrInvalidCode, VerifyFailedMessage))
	assert.Equal(t, "Request a code first.", Message(ErrNoPendingLogin, VerifyFailedMessage))
	assert.Equal(t, "Invalid OTP", Message(&api.APIError{Status: 200, Detail: "Invalid OTP"}, VerifyFailedMessage))
	assert.Equal(t, api.SessionExpiredDetail, Message(api.ErrSessionExpired, ""))
}
