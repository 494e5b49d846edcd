// Package credential holds the session credentials shared by the request
// pipeline, the OTP login flow and the refresh coordinator.
package credential

import (
	"context"
	"strings"
)

// DefaultAPIBase is used until the user configures another backend.
const DefaultAPIBase = "http://localhost:8000/api/"

// Credential is the full persisted session record.
// Empty strings mean the field is absent.
type Credential struct {
	AccessToken  string `yaml:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty"`
	APIBase      string `yaml:"api_base,omitempty"`
	UserEmail    string `yaml:"user_email,omitempty"`
}

// LoggedIn reports whether an access token is present.
// Computed on demand, never cached.
func (c Credential) LoggedIn() bool {
	return c.AccessToken != ""
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	AccessToken  *string
	RefreshToken *string
	APIBase      *string
	UserEmail    *string
}

// Apply merges p into c and returns the result.
func (p Patch) Apply(c Credential) Credential {
	if p.AccessToken != nil {
		c.AccessToken = *p.AccessToken
	}
	if p.RefreshToken != nil {
		c.RefreshToken = *p.RefreshToken
	}
	if p.APIBase != nil {
		c.APIBase = NormalizeAPIBase(*p.APIBase)
	}
	if p.UserEmail != nil {
		c.UserEmail = *p.UserEmail
	}
	return c
}

// String returns a pointer to s, for building patches.
func String(s string) *string {
	return &s
}

// Store persists a single Credential. Implementations must make Set and
// Clear atomic with respect to concurrent Get calls in the same process.
type Store interface {
	Get(ctx context.Context) (Credential, error)
	Set(ctx context.Context, p Patch) error
	// Clear removes tokens and the user email. The API base is a setting
	// and survives logout.
	Clear(ctx context.Context) error
}

// NormalizeAPIBase trims whitespace and ensures a trailing slash.
// An empty value falls back to DefaultAPIBase.
func NormalizeAPIBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return DefaultAPIBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// WithDefaults fills derived defaults on read.
func WithDefaults(c Credential) Credential {
	if c.APIBase == "" {
		c.APIBase = DefaultAPIBase
	}
	return c
}

// Cleared returns c with every session field removed.
func Cleared(c Credential) Credential {
	return Credential{APIBase: c.APIBase}
}
