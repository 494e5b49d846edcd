package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pysugar/careertracker/internal/api"
	"github.com/pysugar/careertracker/internal/auth/otp"
	"github.com/pysugar/careertracker/internal/credential"
	"github.com/pysugar/careertracker/internal/db/models"
	"github.com/pysugar/careertracker/internal/jobs"
	"github.com/pysugar/careertracker/internal/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCalls struct {
	logs     []models.CallLog
	gotLimit int
	gotSince int
	cleared  bool
	statsErr error
}

func (f *fakeCalls) Recent(_ context.Context, limit, since int) ([]models.CallLog, error) {
	f.gotLimit, f.gotSince = limit, since
	return f.logs, nil
}

func (f *fakeCalls) Stats(context.Context) (models.CallStats, error) {
	return models.CallStats{TotalCalls: int64(len(f.logs)), SuccessCount: int64(len(f.logs))}, f.statsErr
}

func (f *fakeCalls) Clear(context.Context) error {
	f.cleared = true
	f.logs = nil
	return nil
}

func newAdminRouter(t *testing.T, calls CallHistory, rotate KeyRotator) http.Handler {
	t.Helper()
	store := credential.NewMemoryStore(credential.Credential{})
	client := api.NewClient(store, nil)
	d := NewDispatcher(store, otp.NewFlow(client, nil), jobs.NewService(client, nil), scrape.NewRegistry(), nil)
	key := testKey
	keyFn := func() string { return key }
	if rotate == nil {
		rotate = func() (string, error) {
			key = "ct-rotated"
			return key, nil
		}
	}
	return NewRouter(d, keyFn, nil, nil, WithAdmin(calls, rotate, nil))
}

func adminRequest(t *testing.T, h http.Handler, method, target, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("x-api-key", key)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdmin_Calls(t *testing.T) {
	calls := &fakeCalls{logs: []models.CallLog{
		{ID: "1", Method: "GET", Path: "jobs/", Status: 200},
		{ID: "2", Method: "POST", Path: "jobs/", Status: 201, Retried: true},
	}}
	h := newAdminRouter(t, calls, nil)

	rec := adminRequest(t, h, http.MethodGet, "/admin/calls?limit=5&since=30", testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Calls []models.CallLog `json:"calls"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, 5, calls.gotLimit)
	assert.Equal(t, 30, calls.gotSince)

	rec = adminRequest(t, h, http.MethodGet, "/admin/calls/stats", testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_calls":2,"success_count":2,"error_count":0,"retried_count":0}`, rec.Body.String())

	rec = adminRequest(t, h, http.MethodDelete, "/admin/calls", testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, calls.cleared)
}

func TestAdmin_CallsBadQueryUsesDefaults(t *testing.T) {
	calls := &fakeCalls{}
	h := newAdminRouter(t, calls, nil)

	rec := adminRequest(t, h, http.MethodGet, "/admin/calls?limit=abc&since=-4", testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, calls.gotLimit)
	assert.Zero(t, calls.gotSince)
}

func TestAdmin_StatsError(t *testing.T) {
	h := newAdminRouter(t, &fakeCalls{statsErr: errors.New("disk full")}, nil)

	rec := adminRequest(t, h, http.MethodGet, "/admin/calls/stats", testKey)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdmin_RequiresKey(t *testing.T) {
	h := newAdminRouter(t, &fakeCalls{}, nil)

	rec := adminRequest(t, h, http.MethodGet, "/admin/calls", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_RegenerateKeyInvalidatesOld(t *testing.T) {
	h := newAdminRouter(t, &fakeCalls{}, nil)

	rec := adminRequest(t, h, http.MethodPost, "/admin/bridge-key/regenerate", testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bridge_key":"ct-rotated"}`, rec.Body.String())

	rec = adminRequest(t, h, http.MethodGet, "/admin/calls", testKey)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = adminRequest(t, h, http.MethodGet, "/admin/calls", "ct-rotated")
	assert.Equal(t, http.StatusOK, rec.Code)
}
