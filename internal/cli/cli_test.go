package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/pysugar/careertracker/internal/jobs"
	"github.com/pysugar/careertracker/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobsJSON = `[
	{"id":1,"job_title":"Engineer","company":"Acme","status":"APPLIED","source":"LINKEDIN"},
	{"id":2,"job_title":"Designer","company":"Globex","status":"INTERVIEW","source":"REFERRAL"},
	{"id":3,"job_title":"Analyst","company":"Initech","status":"OFFER","source":"OTHER"},
	{"id":4,"job_title":"Manager","company":"Umbrella","status":"REJECTED","source":"OTHER"}
]`

type fakeBackend struct {
	calls int32
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&b.calls, 1)
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/users/send-otp/":
		w.Write([]byte(`{"message":"OTP sent"}`))
	case "/api/users/verify-otp/":
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["otp"] != "123456" {
			w.Write([]byte(`{"error":"Invalid OTP"}`))
			return
		}
		w.Write([]byte(`{"access":"a1","refresh":"r1"}`))
	case "/api/jobs/":
		if r.Header.Get("Authorization") != "Bearer a1" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Authentication credentials were not provided."}`))
			return
		}
		w.Write([]byte(jobsJSON))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Not found."}`))
	}
}

type env struct {
	cfgFile string
	backend *fakeBackend
	apiBase string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	b := &fakeBackend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "tracker.yaml")
	cfg := fmt.Sprintf("api_base: %s/api/\nstate_file: %s\noutput:\n  colors: false\n",
		srv.URL, filepath.Join(dir, "state.yaml"))
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0o600))
	return &env{cfgFile: cfgFile, backend: b, apiBase: srv.URL + "/api/"}
}

func (e *env) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", e.cfgFile}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (e *env) login(t *testing.T) {
	t.Helper()
	_, _, err := e.run(t, "login", "me@example.com")
	require.NoError(t, err)
	_, _, err = e.run(t, "verify", "123456")
	require.NoError(t, err)
}

func TestLoginVerifyWhoamiLogout(t *testing.T) {
	e := newEnv(t)

	out, _, err := e.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")

	out, _, err = e.run(t, "login", "me@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Code sent to me@example.com")

	out, _, err = e.run(t, "--json", "whoami")
	require.NoError(t, err)
	var info whoami
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.False(t, info.LoggedIn)
	assert.Equal(t, "me@example.com", info.Pending)

	_, _, err = e.run(t, "verify", "000000")
	var cliErr *output.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, "Invalid OTP", cliErr.Detail)

	out, _, err = e.run(t, "verify", "123456")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as me@example.com")

	out, _, err = e.run(t, "--json", "whoami")
	require.NoError(t, err)
	info = whoami{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.True(t, info.LoggedIn)
	assert.Equal(t, "me@example.com", info.UserEmail)
	assert.Empty(t, info.Pending)

	_, _, err = e.run(t, "logout")
	require.NoError(t, err)
	out, _, err = e.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")
	assert.Contains(t, out, e.apiBase)
}

func TestVerifyWithoutLogin(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.run(t, "verify", "123456")
	var cliErr *output.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, output.ExitUsageError, cliErr.ExitCode)
	assert.Zero(t, atomic.LoadInt32(&e.backend.calls))
}

func TestLoginRejectsBadEmail(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.run(t, "login", "not-an-email")
	var cliErr *output.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, "Please enter a valid email address.", cliErr.Detail)
	assert.Zero(t, atomic.LoadInt32(&e.backend.calls))
}

func TestJobsAddValidationMakesNoCall(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	before := atomic.LoadInt32(&e.backend.calls)

	_, _, err := e.run(t, "jobs", "add", "--title", "Engineer", "--role-type", "Full-time", "--duration", "Full-time")
	require.Error(t, err)
	cliErr := output.FromError("jobs add failed", err)
	assert.Equal(t, output.ExitUsageError, cliErr.ExitCode)
	assert.Contains(t, cliErr.Detail, "Company name is required.")
	assert.Equal(t, before, atomic.LoadInt32(&e.backend.calls))
}

func TestJobsList(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	out, _, err := e.run(t, "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Engineer")
	assert.Contains(t, out, "Globex")

	out, _, err = e.run(t, "jobs", "list", "--status", "offer")
	require.NoError(t, err)
	assert.Contains(t, out, "Analyst")
	assert.NotContains(t, out, "Engineer")

	out, _, err = e.run(t, "--json", "jobs", "list")
	require.NoError(t, err)
	var apps []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &apps))
	assert.Len(t, apps, 4)
}

func TestJobsListBadStatus(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.run(t, "jobs", "list", "--status", "hired")
	var cliErr *output.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, output.ExitUsageError, cliErr.ExitCode)
}

func TestJobsNeedSession(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.run(t, "jobs", "list")
	require.Error(t, err)
	assert.Equal(t, output.ExitSessionError, output.FromError("jobs list failed", err).ExitCode)
}

func TestStatsLocal(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	out, _, err := e.run(t, "--json", "stats", "--local")
	require.NoError(t, err)
	var snap struct {
		Total     int `json:"total_applications"`
		Analytics struct {
			OfferRate     int `json:"offer_rate"`
			InterviewRate int `json:"interview_rate"`
		} `json:"analytics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 4, snap.Total)
	assert.Equal(t, 25, snap.Analytics.OfferRate)
	assert.Equal(t, 50, snap.Analytics.InterviewRate)

	out, _, err = e.run(t, "stats", "--local")
	require.NoError(t, err)
	assert.Contains(t, out, "Offer rate:")
	assert.Contains(t, out, "25%")
}

func TestConfigAPIBase(t *testing.T) {
	e := newEnv(t)

	out, _, err := e.run(t, "config", "get-api-base")
	require.NoError(t, err)
	assert.Equal(t, e.apiBase+"\n", out)

	_, _, err = e.run(t, "config", "set-api-base", "https://tracker.example.com/api")
	require.NoError(t, err)

	out, _, err = e.run(t, "config", "get-api-base")
	require.NoError(t, err)
	assert.Equal(t, "https://tracker.example.com/api/\n", out)

	_, _, err = e.run(t, "config", "set-api-base", "  ")
	require.Error(t, err)
}

func TestParseInterviewTime(t *testing.T) {
	got, err := parseInterviewTime("2025-01-31T14:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 14, got.UTC().Hour())

	got, err = parseInterviewTime("2025-01-31 09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 30, got.Minute())

	_, err = parseInterviewTime("tomorrow")
	assert.Error(t, err)
}

func TestMergeDraft(t *testing.T) {
	salary := 100
	captured := jobs.Draft{JobTitle: "Captured Title", Company: "Captured Co", Source: jobs.SourceLinkedIn}
	given := jobs.Draft{Company: "Override Inc", RoleType: "Internship", SalaryEst: &salary}

	merged := mergeDraft(captured, given)
	assert.Equal(t, "Captured Title", merged.JobTitle)
	assert.Equal(t, "Override Inc", merged.Company)
	assert.Equal(t, "Internship", merged.RoleType)
	assert.Equal(t, jobs.SourceLinkedIn, merged.Source)
	require.NotNil(t, merged.SalaryEst)
	assert.Equal(t, 100, *merged.SalaryEst)
}

func TestVersionSkipsConfig(t *testing.T) {
	root := NewRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing", "bad.toml"), "version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "tracker")
}
