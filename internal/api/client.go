// Package api is the authenticated request pipeline shared by the extension
// daemon and the CLI. It injects the access token into every call, and on a
// 401 asks the refresher for a new token and reissues the call exactly once.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pysugar/careertracker/internal/credential"
	"github.com/pysugar/careertracker/internal/logging"
	"github.com/pysugar/careertracker/internal/metrics"
	"github.com/pysugar/careertracker/internal/util"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds a single HTTP exchange.
const DefaultTimeout = 30 * time.Second

// Refresher renews the access token. It returns false when no new token
// could be obtained.
type Refresher interface {
	Refresh(ctx context.Context) (string, bool)
}

// CallRecord describes one finished pipeline call.
type CallRecord struct {
	RequestID string
	Method    string
	Path      string
	Status    int
	Duration  time.Duration
	Refreshed bool
	Retried   bool
	Err       error
}

// Observer is notified after every authenticated call.
type Observer func(ctx context.Context, rec CallRecord)

// Request is a raw pipeline request. Body is buffered so a retry can replay it.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
}

// Client is the authenticated request pipeline.
type Client struct {
	store     credential.Store
	refresher Refresher
	transport http.RoundTripper
	timeout   time.Duration
	logger    *slog.Logger
	observer  Observer
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithTimeout sets the per-exchange timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver registers a callback invoked after each authenticated call.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a pipeline over store. refresher may be nil, in which
// case every 401 is reported as an expired session.
func NewClient(store credential.Store, refresher Refresher, opts ...Option) *Client {
	c := &Client{
		store:     store,
		refresher: refresher,
		transport: http.DefaultTransport,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the credential store the pipeline reads from.
func (c *Client) Store() credential.Store {
	return c.store
}

// Call issues an authenticated JSON request. body is marshalled when non-nil.
// The returned Response is never nil; the error is non-nil only for
// transport failures (ErrTransport).
func (c *Client) Call(ctx context.Context, method, path string, body any) (*Response, error) {
	payload, err := marshalBody(body)
	if err != nil {
		return NetworkErrorResponse(), err
	}
	return c.Do(ctx, Request{Method: method, Path: path, Body: payload})
}

// Public issues an unauthenticated JSON request with no refresh handling.
func (c *Client) Public(ctx context.Context, method, path string, body any) (*Response, error) {
	ctx, _ = logging.EnsureRequestID(ctx)
	payload, err := marshalBody(body)
	if err != nil {
		return NetworkErrorResponse(), err
	}
	cred, err := c.store.Get(ctx)
	if err != nil {
		return NetworkErrorResponse(), fmt.Errorf("read credential: %w", err)
	}
	resp, err := c.send(ctx, cred.APIBase, "", Request{Method: method, Path: path, Body: payload})
	if err != nil {
		return NetworkErrorResponse(), err
	}
	return resp, nil
}

// Do issues an authenticated raw request.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	ctx, reqID := logging.EnsureRequestID(ctx)
	start := time.Now()
	rec := CallRecord{RequestID: reqID, Method: r.Method, Path: r.Path}

	resp, err := c.do(ctx, r, &rec)

	rec.Duration = time.Since(start)
	rec.Status = resp.Status
	rec.Err = err
	metrics.RecordCall(r.Method, rec.Status, rec.Duration.Seconds(), rec.Retried)
	if err != nil {
		c.logger.WarnContext(ctx, "backend call failed", "method", r.Method, "path", r.Path, "error", err)
	} else {
		c.logger.DebugContext(ctx, "backend call", "method", r.Method, "path", r.Path,
			"status", resp.Status, "retried", rec.Retried, "duration_ms", rec.Duration.Milliseconds(),
			"body", util.TruncateBytes(resp.Data))
	}
	if c.observer != nil {
		c.observer(ctx, rec)
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, r Request, rec *CallRecord) (*Response, error) {
	cred, err := c.store.Get(ctx)
	if err != nil {
		return NetworkErrorResponse(), fmt.Errorf("read credential: %w", err)
	}

	resp, err := c.send(ctx, cred.APIBase, cred.AccessToken, r)
	if err != nil {
		return NetworkErrorResponse(), err
	}
	if resp.Status != http.StatusUnauthorized {
		return resp, nil
	}

	// One refresh and at most one retry per call.
	rec.Refreshed = true
	token, ok := c.refresh(ctx)
	if !ok {
		c.logger.InfoContext(ctx, "session expired", "path", r.Path)
		return SessionExpiredResponse(), nil
	}

	rec.Retried = true
	resp, err = c.send(ctx, cred.APIBase, token, r)
	if err != nil {
		return NetworkErrorResponse(), err
	}
	return resp, nil
}

func (c *Client) refresh(ctx context.Context) (string, bool) {
	if c.refresher == nil {
		return "", false
	}
	return c.refresher.Refresh(ctx)
}

func (c *Client) send(ctx context.Context, base, token string, r Request) (*Response, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, ResolveURL(base, r.Path), body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}

	contentType := r.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if id := logging.GetRequestID(ctx); id != "" {
		req.Header.Set(logging.HeaderRequestID, id)
	}

	res, err := c.httpClient(token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer res.Body.Close()
	return readResponse(res), nil
}

// httpClient returns a client that attaches token as a bearer credential.
func (c *Client) httpClient(token string) *http.Client {
	rt := c.transport
	if token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.transport,
		}
	}
	return &http.Client{Transport: rt, Timeout: c.timeout}
}

// ResolveURL joins an API base and a relative path. Absolute URLs pass through.
func ResolveURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return credential.NormalizeAPIBase(base) + strings.TrimLeft(path, "/")
}

func marshalBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return data, nil
}
