package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pysugar/careertracker/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linkedInPage = `<html><head><title>Backend Engineer | Acme | LinkedIn</title></head><body>
<div class="job-details-jobs-unified-top-card__job-title"><h1>  Backend
  Engineer </h1></div>
<div class="job-details-jobs-unified-top-card__company-name"><a href="/company/acme">Acme</a></div>
<span class="job-details-jobs-unified-top-card__bullet">Bengaluru, Karnataka, India</span>
<div class="jobs-description__content"><p>Build APIs.</p><ul><li>Go</li><li>Postgres</li></ul></div>
</body></html>`

const indeedPage = `<html><body>
<h1 class="jobsearch-JobInfoHeader-title">Data Analyst</h1>
<div data-company-name="true">Globex</div>
<div data-testid="inlineHeader-companyLocation">Remote</div>
<div id="jobDescriptionText">Analyse things.<br>SQL required.</div>
</body></html>`

const glassdoorPage = `<html><body>
<h1 data-test="jobTitle">Product Manager</h1>
<div data-test="employer-name">Initech</div>
<div data-test="location">Austin, TX</div>
<div class="JobDetails_jobDescription__uW_fK">Own the roadmap.</div>
</body></html>`

const naukriPage = `<html><body>
<h1 class="styles_jd-header-title__rZwM1">SDE II</h1>
<div class="styles_jd-header-comp-name__MvqAI"><a>Umbrella</a></div>
<div class="styles_jhc__location__W_pVs"><a>Hyderabad</a></div>
<section class="styles_job-desc-container__txpYf"><div>Design systems.</div></section>
</body></html>`

const genericPage = `<html><head>
<meta property="og:title" content="Staff Engineer at Hooli" />
<meta property="og:description" content="Join the platform team." />
<title>Careers</title>
</head><body></body></html>`

func TestRegistry_BoardStrategies(t *testing.T) {
	tests := []struct {
		name string
		url  string
		html string
		want JobRecord
	}{
		{
			name: "linkedin",
			url:  "https://www.linkedin.com/jobs/view/123",
			html: linkedInPage,
			want: JobRecord{
				Title:       "Backend Engineer",
				Company:     "Acme",
				Location:    "Bengaluru, Karnataka, India",
				Description: "Build APIs.\nGo\nPostgres",
				URL:         "https://www.linkedin.com/jobs/view/123",
				Source:      "LinkedIn",
			},
		},
		{
			name: "indeed regional host",
			url:  "https://in.indeed.com/viewjob?jk=abc",
			html: indeedPage,
			want: JobRecord{
				Title:       "Data Analyst",
				Company:     "Globex",
				Location:    "Remote",
				Description: "Analyse things.\nSQL required.",
				URL:         "https://in.indeed.com/viewjob?jk=abc",
				Source:      "Indeed",
			},
		},
		{
			name: "glassdoor",
			url:  "https://www.glassdoor.com/job-listing/pm",
			html: glassdoorPage,
			want: JobRecord{
				Title:       "Product Manager",
				Company:     "Initech",
				Location:    "Austin, TX",
				Description: "Own the roadmap.",
				URL:         "https://www.glassdoor.com/job-listing/pm",
				Source:      "Glassdoor",
			},
		},
		{
			name: "naukri",
			url:  "https://www.naukri.com/job-listings-sde",
			html: naukriPage,
			want: JobRecord{
				Title:       "SDE II",
				Company:     "Umbrella",
				Location:    "Hyderabad",
				Description: "Design systems.",
				URL:         "https://www.naukri.com/job-listings-sde",
				Source:      "Naukri",
			},
		},
		{
			name: "meta fallback",
			url:  "https://careers.hooli.xyz/jobs/42",
			html: genericPage,
			want: JobRecord{
				Title:       "Staff Engineer at Hooli",
				Description: "Join the platform team.",
				URL:         "https://careers.hooli.xyz/jobs/42",
				Source:      "careers.hooli.xyz",
			},
		},
	}

	reg := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Extract(tt.url, tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_FallbackUsesTitleTag(t *testing.T) {
	got, err := NewRegistry().Extract("https://example.org/x", `<html><head><title> Jobs   at Example </title></head></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Jobs at Example", got.Title)
	assert.Equal(t, "example.org", got.Source)
}

func TestRegistry_UnrecognisedMarkupKeepsURL(t *testing.T) {
	got, err := NewRegistry().Extract("https://www.linkedin.com/feed/", `<html><body><p>feed</p></body></html>`)
	require.NoError(t, err)
	assert.True(t, got.Empty())
	assert.Equal(t, "https://www.linkedin.com/feed/", got.URL)
}

func TestRegistry_IsSupported(t *testing.T) {
	reg := NewRegistry()
	assert.True(t, reg.IsSupported("https://www.linkedin.com/jobs/view/1"))
	assert.True(t, reg.IsSupported("https://uk.indeed.com/viewjob"))
	assert.True(t, reg.IsSupported("https://glassdoor.com/job"))
	assert.True(t, reg.IsSupported("https://www.naukri.com/job"))
	assert.False(t, reg.IsSupported("https://notlinkedin.com/jobs"))
	assert.False(t, reg.IsSupported("https://example.com/careers"))
	assert.False(t, reg.IsSupported("chrome://extensions"))
	assert.False(t, reg.IsSupported(""))
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	reg := NewRegistry()
	custom := SelectorStrategy{Label: "Hooli", Selectors: Selectors{Title: []string{"h2.role"}}}
	reg.Register("hooli.xyz", custom)

	s, ok := reg.Lookup("careers.hooli.xyz")
	assert.True(t, ok)
	assert.Equal(t, "Hooli", s.Name())

	got, err := reg.Extract("https://careers.hooli.xyz/1", `<h2 class="role">SRE</h2>`)
	require.NoError(t, err)
	assert.Equal(t, "SRE", got.Title)
}

func TestRegistry_CaptureFetchesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "careertracker")
		w.Write([]byte(genericPage))
	}))
	t.Cleanup(srv.Close)

	got, err := NewRegistry(WithHTTPClient(srv.Client())).Capture(context.Background(), srv.URL+"/jobs/1", "")
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer at Hooli", got.Title)
	assert.Equal(t, srv.URL+"/jobs/1", got.URL)
}

func TestRegistry_CaptureFailureReturnsURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	got, err := NewRegistry(WithHTTPClient(srv.Client())).Capture(context.Background(), srv.URL+"/jobs/1", "")
	require.Error(t, err)
	assert.Equal(t, JobRecord{URL: srv.URL + "/jobs/1"}, got)

	got, err = NewRegistry().Capture(context.Background(), "not a url", "")
	assert.True(t, errors.Is(err, ErrInvalidURL))
	assert.Equal(t, "not a url", got.URL)
}

func TestRegistry_CapturePrefersSuppliedHTML(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected fetch of %s", r.URL)
		return nil, nil
	})}
	got, err := NewRegistry(WithHTTPClient(client)).Capture(context.Background(), "https://www.glassdoor.com/job", glassdoorPage)
	require.NoError(t, err)
	assert.Equal(t, "Initech", got.Company)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestSourceFromURL(t *testing.T) {
	tests := map[string]jobs.Source{
		"https://www.linkedin.com/jobs/view/1": jobs.SourceLinkedIn,
		"https://in.indeed.com/viewjob":        jobs.SourceJobPortal,
		"https://www.glassdoor.co.in/job":      jobs.SourceOther,
		"https://www.glassdoor.com/job":        jobs.SourceJobPortal,
		"https://www.naukri.com/job":           jobs.SourceJobPortal,
		"https://careers.acme.com/1":           jobs.SourceOther,
		"":                                     jobs.SourceOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, SourceFromURL(in), in)
	}
}

func TestToDraft(t *testing.T) {
	long := strings.Repeat("é", 600)
	d := ToDraft(JobRecord{
		Title:       "Backend Engineer",
		Company:     "Acme",
		Location:    "Remote",
		Description: long,
		URL:         "https://www.linkedin.com/jobs/view/1",
		Source:      "LinkedIn",
	})

	assert.Equal(t, "Backend Engineer", d.JobTitle)
	assert.Equal(t, "Acme", d.Company)
	assert.Equal(t, jobs.SourceLinkedIn, d.Source)
	assert.Equal(t, "https://www.linkedin.com/jobs/view/1", d.ApplicationLink)
	assert.Equal(t, "Description:\n"+strings.Repeat("é", 500), d.Notes)

	// Role type and duration are never on the page, so the draft is not yet submittable.
	assert.True(t, jobs.IsValidationError(jobs.Validate(d.Normalize())))
}

func TestToDraft_NoDescription(t *testing.T) {
	d := ToDraft(JobRecord{URL: "https://example.com"})
	assert.Empty(t, d.Notes)
	assert.Equal(t, jobs.SourceOther, d.Source)
}
