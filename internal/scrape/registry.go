package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pysugar/careertracker/internal/jobs"
	"github.com/pysugar/careertracker/internal/metrics"
	"github.com/pysugar/careertracker/internal/util"
)

const (
	maxPageBytes       = 5 << 20
	descriptionExcerpt = 500
	userAgent          = "Mozilla/5.0 (compatible; careertracker-clipper/1.0)"
)

// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("invalid page url")

type entry struct {
	host     string
	strategy Strategy
}

// Registry dispatches pages to strategies by host suffix.
type Registry struct {
	entries  []entry
	fallback Strategy
	client   *http.Client
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithHTTPClient sets the client used to fetch pages.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Registry) { r.client = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry returns a registry with the built-in job boards.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		fallback: MetaStrategy{},
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   slog.Default(),
	}
	r.Register("linkedin.com", LinkedIn)
	r.Register("indeed.com", Indeed)
	r.Register("glassdoor.com", Glassdoor)
	r.Register("naukri.com", Naukri)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds host and its subdomains to s. Later registrations win.
func (r *Registry) Register(host string, s Strategy) {
	r.entries = append([]entry{{host: strings.ToLower(host), strategy: s}}, r.entries...)
}

// Lookup returns the strategy for host and whether it is a known board.
func (r *Registry) Lookup(host string) (Strategy, bool) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, e := range r.entries {
		if hostMatches(host, e.host) {
			return e.strategy, true
		}
	}
	return r.fallback, false
}

// IsSupported reports whether rawURL belongs to a known job board.
func (r *Registry) IsSupported(rawURL string) bool {
	u, err := parsePageURL(rawURL)
	if err != nil {
		return false
	}
	_, ok := r.Lookup(u.Hostname())
	return ok
}

// Extract parses html and runs the strategy for pageURL.
func (r *Registry) Extract(pageURL, html string) (JobRecord, error) {
	u, err := parsePageURL(pageURL)
	if err != nil {
		return JobRecord{URL: pageURL}, err
	}
	return r.extract(u, strings.NewReader(html))
}

// Capture extracts a record from html, fetching pageURL when html is empty.
// The returned record always carries the URL so manual entry can proceed
// when extraction fails.
func (r *Registry) Capture(ctx context.Context, pageURL, html string) (JobRecord, error) {
	u, err := parsePageURL(pageURL)
	if err != nil {
		return JobRecord{URL: pageURL}, err
	}
	if html != "" {
		return r.extract(u, strings.NewReader(html))
	}

	body, err := r.fetch(ctx, u)
	if err != nil {
		r.logger.WarnContext(ctx, "fetch page failed", "url", u.String(), "error", err)
		return JobRecord{URL: u.String()}, err
	}
	defer body.Close()
	return r.extract(u, body)
}

func (r *Registry) fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")
	res, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		res.Body.Close()
		return nil, fmt.Errorf("fetch page: %s", res.Status)
	}
	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(res.Body, maxPageBytes), res.Body}, nil
}

func (r *Registry) extract(u *url.URL, html io.Reader) (JobRecord, error) {
	strategy, _ := r.Lookup(u.Hostname())
	doc, err := goquery.NewDocumentFromReader(html)
	if err != nil {
		metrics.RecordScrape(strategy.Name(), false)
		return JobRecord{URL: u.String()}, fmt.Errorf("parse page: %w", err)
	}
	rec, found := strategy.Extract(doc, u)
	metrics.RecordScrape(strategy.Name(), found)
	r.logger.Debug("page captured", "strategy", strategy.Name(), "found", found, "title", rec.Title)
	return rec, nil
}

func parsePageURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u, nil
}

// SourceFromURL maps a posting URL to the backend source value.
func SourceFromURL(rawURL string) jobs.Source {
	u, err := url.Parse(rawURL)
	if err != nil {
		return jobs.SourceOther
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case hostMatches(host, "linkedin.com"):
		return jobs.SourceLinkedIn
	case hostMatches(host, "indeed.com"), hostMatches(host, "glassdoor.com"), hostMatches(host, "naukri.com"):
		return jobs.SourceJobPortal
	}
	return jobs.SourceOther
}

func hostMatches(host, suffix string) bool {
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

// ToDraft prefills a job draft from a capture. Required fields the page
// did not provide stay empty for the user to fill.
func ToDraft(rec JobRecord) jobs.Draft {
	d := jobs.Draft{
		JobTitle:        rec.Title,
		Company:         rec.Company,
		Location:        rec.Location,
		ApplicationLink: rec.URL,
		Source:          SourceFromURL(rec.URL),
	}
	if rec.Description != "" {
		d.Notes = "Description:\n" + util.Excerpt(rec.Description, descriptionExcerpt)
	}
	return d
}
