package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pysugar/careertracker/internal/credential"
	"github.com/pysugar/careertracker/internal/logging"
	"github.com/pysugar/careertracker/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// refreshKey is the single singleflight slot: one exchange per process.
const refreshKey = "refresh"

var apiRootPattern = regexp.MustCompile(`/api/.*$`)

var (
	errNoRefreshToken = errors.New("no refresh token")
	errRotatedAway    = errors.New("credential changed during refresh")
)

// refreshError is a non-2xx answer from the renewal endpoint.
type refreshError struct {
	Status int
	Body   string
}

func (e *refreshError) Error() string {
	return fmt.Sprintf("refresh failed (%d): %s", e.Status, e.Body)
}

// Coordinator exchanges the refresh token for a new access token.
// Concurrent callers share one in-flight exchange.
type Coordinator struct {
	store      credential.Store
	httpClient *http.Client
	group      singleflight.Group
	logger     *slog.Logger
}

// NewCoordinator creates a coordinator over store. A nil httpClient gets a
// client with a 30s timeout.
func NewCoordinator(store credential.Store, httpClient *http.Client, logger *slog.Logger) *Coordinator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:      store,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Refresh returns a new access token, or false when none could be obtained.
// Callers arriving while an exchange is in flight wait for its result; once
// it settles the slot is free and the next call starts a fresh exchange.
func (c *Coordinator) Refresh(ctx context.Context) (string, bool) {
	// The exchange outlives any single waiter's cancellation; the HTTP
	// client timeout bounds it.
	exchangeCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		return c.exchange(exchangeCtx)
	})

	select {
	case <-ctx.Done():
		return "", false
	case res := <-ch:
		if res.Shared {
			metrics.RefreshShared.Inc()
		}
		if res.Err != nil {
			return "", false
		}
		return res.Val.(string), true
	}
}

// exchange performs one renewal round trip and persists the result.
func (c *Coordinator) exchange(ctx context.Context) (string, error) {
	cred, err := c.store.Get(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "read credential for refresh", "error", err)
		metrics.RecordRefresh(metrics.RefreshTransient)
		return "", err
	}
	if cred.RefreshToken == "" {
		metrics.RecordRefresh(metrics.RefreshSkipped)
		return "", errNoRefreshToken
	}

	access, rotated, err := c.post(ctx, RefreshURL(cred.APIBase), cred.RefreshToken)
	if err != nil {
		if isPermanentRefreshError(err) {
			c.logger.WarnContext(ctx, "refresh token rejected, login required", "error", err)
			metrics.RecordRefresh(metrics.RefreshPermanent)
		} else {
			c.logger.WarnContext(ctx, "transient refresh failure", "error", err)
			metrics.RecordRefresh(metrics.RefreshTransient)
		}
		return "", err
	}

	// A logout or re-login while the exchange was in flight wins.
	current, err := c.store.Get(ctx)
	if err != nil {
		metrics.RecordRefresh(metrics.RefreshTransient)
		return "", err
	}
	if current.RefreshToken != cred.RefreshToken {
		c.logger.InfoContext(ctx, "discarding refreshed token, credential changed")
		metrics.RecordRefresh(metrics.RefreshSkipped)
		return "", errRotatedAway
	}

	patch := credential.Patch{AccessToken: credential.String(access)}
	if rotated != "" && rotated != cred.RefreshToken {
		c.logger.DebugContext(ctx, "rotating refresh token", "refresh", maskToken(rotated))
		patch.RefreshToken = credential.String(rotated)
	}
	if err := c.store.Set(ctx, patch); err != nil {
		c.logger.ErrorContext(ctx, "save refreshed token", "error", err)
		metrics.RecordRefresh(metrics.RefreshTransient)
		return "", err
	}

	metrics.RecordRefresh(metrics.RefreshSuccess)
	c.logger.InfoContext(ctx, "access token refreshed", "access", maskToken(access))
	return access, nil
}

func (c *Coordinator) post(ctx context.Context, endpoint, refreshToken string) (string, string, error) {
	payload, _ := json.Marshal(map[string]string{"refresh": refreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := logging.GetRequestID(ctx); id != "" {
		req.Header.Set(logging.HeaderRequestID, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", &refreshError{Status: resp.StatusCode, Body: string(body)}
	}

	var tokenResp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", "", fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if tokenResp.Access == "" {
		return "", "", errors.New("refresh response missing access token")
	}
	return tokenResp.Access, tokenResp.Refresh, nil
}

// RefreshURL derives the renewal endpoint from the configured API base: any
// sub-path below /api/ is dropped, so ".../api/users/" and ".../api/" both
// renew at ".../api/refresh/".
func RefreshURL(apiBase string) string {
	base := credential.NormalizeAPIBase(apiBase)
	u, err := url.Parse(base)
	if err != nil {
		return base + "refresh/"
	}
	u.Path = apiRootPattern.ReplaceAllString(u.Path, "/api/")
	u.RawQuery, u.Fragment = "", ""
	return u.String() + "refresh/"
}

func maskToken(t string) string {
	if len(t) < 20 {
		return "****"
	}
	return "..." + t[len(t)-12:]
}

// isPermanentRefreshError reports failures that retrying cannot fix: the
// backend rejected the refresh token itself.
func isPermanentRefreshError(err error) bool {
	if err == nil {
		return false
	}
	var rerr *refreshError
	if errors.As(err, &rerr) {
		switch rerr.Status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	permanentMarkers := []string{
		"token_not_valid",
		"token is invalid or expired",
		"blacklisted",
	}
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
