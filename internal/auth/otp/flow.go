// Package otp drives the email one-time-code login handshake.
package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/pysugar/careertracker/internal/api"
	"github.com/pysugar/careertracker/internal/credential"
)

// CodeLength is the exact length of a one-time code.
const CodeLength = 6

// Fallback messages when the backend gives no reason.
const (
	SendFailedMessage   = "Failed to send OTP."
	VerifyFailedMessage = "Invalid or expired code."
)

var (
	ErrInvalidEmail   = errors.New("enter a valid email address")
	ErrInvalidCode    = fmt.Errorf("enter the %d-digit code", CodeLength)
	ErrNoPendingLogin = errors.New("no login in progress, request a code first")
)

var emailPattern = regexp.MustCompile(`^\S+@\S+$`)

// State is the login handshake position.
type State int

const (
	Idle State = iota
	AwaitingEmail
	AwaitingCode
	Authenticated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingEmail:
		return "awaiting_email"
	case AwaitingCode:
		return "awaiting_code"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Flow is the login state machine. A failed step leaves the state unchanged.
type Flow struct {
	mu      sync.Mutex
	client  *api.Client
	store   credential.Store
	logger  *slog.Logger
	state   State
	pending string
}

// NewFlow creates a flow in the Idle state. It writes tokens to the
// client's credential store.
func NewFlow(client *api.Client, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{client: client, store: client.Store(), logger: logger}
}

// State returns the current position.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// PendingEmail returns the address a code was sent to, if any.
func (f *Flow) PendingEmail() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Begin opens the email prompt.
func (f *Flow) Begin() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Idle {
		f.state = AwaitingEmail
	}
}

// Back abandons a code prompt and returns to the email prompt.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == AwaitingCode {
		f.state = AwaitingEmail
		f.pending = ""
	}
}

// Restore derives the starting state from the stored credential.
func (f *Flow) Restore(ctx context.Context) (State, error) {
	cred, err := f.store.Get(ctx)
	if err != nil {
		return Idle, fmt.Errorf("restore session: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if cred.LoggedIn() {
		f.state = Authenticated
	} else if f.state == Authenticated {
		f.state = Idle
	}
	return f.state, nil
}

// RestorePending re-enters the code prompt for email. Used by runtimes that
// keep the pending address outside the process.
func (f *Flow) RestorePending(email string) error {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = email
	f.state = AwaitingCode
	return nil
}

// RequestCode asks the backend to mail a code to email.
func (f *Flow) RequestCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Idle {
		f.state = AwaitingEmail
	}

	resp, err := f.client.Public(ctx, http.MethodPost, "users/send-otp/", map[string]string{"email": email})
	if err != nil {
		f.logger.WarnContext(ctx, "send otp failed", "error", err)
		return err
	}
	if !resp.OK {
		detail := resp.Message("email")
		if detail == "" {
			detail = SendFailedMessage
		}
		return &api.APIError{Status: resp.Status, Detail: detail, Fields: resp.FieldErrors()}
	}

	f.pending = email
	f.state = AwaitingCode
	f.logger.InfoContext(ctx, "otp sent", "email", email)
	return nil
}

type verifyResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// VerifyCode exchanges the code for tokens and stores them.
func (f *Flow) VerifyCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == "" {
		return ErrNoPendingLogin
	}
	if len(code) != CodeLength {
		return ErrInvalidCode
	}

	resp, err := f.client.Public(ctx, http.MethodPost, "users/verify-otp/", map[string]string{
		"email": f.pending,
		"otp":   code,
	})
	if err != nil {
		f.logger.WarnContext(ctx, "verify otp failed", "error", err)
		return err
	}

	var tokens verifyResponse
	if resp.OK {
		_ = resp.Decode(&tokens)
	}
	if !resp.OK || tokens.Access == "" {
		detail := resp.Message("otp")
		if detail == "" {
			detail = VerifyFailedMessage
		}
		return &api.APIError{Status: resp.Status, Detail: detail, Fields: resp.FieldErrors()}
	}

	patch := credential.Patch{
		AccessToken: credential.String(tokens.Access),
		UserEmail:   credential.String(f.pending),
	}
	if tokens.Refresh != "" {
		patch.RefreshToken = credential.String(tokens.Refresh)
	}
	if err := f.store.Set(ctx, patch); err != nil {
		return fmt.Errorf("store tokens: %w", err)
	}

	f.logger.InfoContext(ctx, "logged in", "email", f.pending)
	f.pending = ""
	f.state = Authenticated
	return nil
}

// Logout drops the session and any pending login. It always ends Idle.
func (f *Flow) Logout(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.store.Clear(ctx); err != nil {
		f.logger.ErrorContext(ctx, "clear credential failed", "error", err)
	}
	f.pending = ""
	f.state = Idle
}

// Message renders a flow error for display.
func Message(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, ErrInvalidCode):
		return fmt.Sprintf("Please enter the %d-digit code.", CodeLength)
	case errors.Is(err, ErrNoPendingLogin):
		return "Request a code first."
	}
	return api.UserMessage(err, fallback)
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
