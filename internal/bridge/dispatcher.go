// Package bridge serves the browser extension's message protocol over local
// HTTP. Each message is one request and one JSON reply.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/pysugar/careertracker/internal/api"
	"github.com/pysugar/careertracker/internal/auth/otp"
	"github.com/pysugar/careertracker/internal/credential"
	"github.com/pysugar/careertracker/internal/jobs"
	"github.com/pysugar/careertracker/internal/metrics"
	"github.com/pysugar/careertracker/internal/scrape"
)

// Message types.
const (
	TypeRequestOTP   = "REQUEST_OTP"
	TypeVerifyOTP    = "VERIFY_OTP"
	TypeLogout       = "LOGOUT"
	TypeGetAuthState = "GET_AUTH_STATE"
	TypeCreateJob    = "CREATE_JOB"
	TypeGetAPIBase   = "GET_API_BASE"
	TypeSetAPIBase   = "SET_API_BASE"
	TypeGetJobData   = "GET_JOB_DATA"
)

const unknownTypeDetail = "Unknown message type"

// Message is one request from the extension.
type Message struct {
	Type    string          `json:"type"`
	Email   string          `json:"email,omitempty"`
	OTP     string          `json:"otp,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	APIBase string          `json:"apiBase,omitempty"`
	URL     string          `json:"url,omitempty"`
	HTML    string          `json:"html,omitempty"`
}

// Detail is the {detail} body used for locally produced failures.
type Detail struct {
	Detail string              `json:"detail"`
	Errors []jobs.FieldError   `json:"errors,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// Result is the {ok, data} reply for login and unknown messages.
type Result struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

// Ack is the {ok} reply for settings and logout.
type Ack struct {
	OK bool `json:"ok"`
}

// AuthState reports the stored session.
type AuthState struct {
	LoggedIn  bool   `json:"loggedIn"`
	UserEmail string `json:"userEmail,omitempty"`
}

// APIBase reports the configured backend.
type APIBase struct {
	APIBase string `json:"apiBase"`
}

// JobData is a page capture plus the prefilled form draft.
type JobData struct {
	scrape.JobRecord
	Supported bool       `json:"supported"`
	Draft     jobs.Draft `json:"draft"`
}

type handlerFunc func(ctx context.Context, msg Message) (any, bool)

// Dispatcher routes messages by type.
type Dispatcher struct {
	store    credential.Store
	flow     *otp.Flow
	jobs     *jobs.Service
	scraper  *scrape.Registry
	logger   *slog.Logger
	handlers map[string]handlerFunc
}

func NewDispatcher(store credential.Store, flow *otp.Flow, svc *jobs.Service, scraper *scrape.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{store: store, flow: flow, jobs: svc, scraper: scraper, logger: logger}
	d.handlers = map[string]handlerFunc{
		TypeRequestOTP:   d.requestOTP,
		TypeVerifyOTP:    d.verifyOTP,
		TypeLogout:       d.logout,
		TypeGetAuthState: d.authState,
		TypeCreateJob:    d.createJob,
		TypeGetAPIBase:   d.getAPIBase,
		TypeSetAPIBase:   d.setAPIBase,
		TypeGetJobData:   d.jobData,
	}
	return d
}

// Handle answers msg. It never fails; errors are encoded in the reply.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) any {
	h, ok := d.handlers[msg.Type]
	if !ok {
		metrics.RecordBridgeMessage("unknown", false)
		d.logger.WarnContext(ctx, "unknown bridge message", "type", msg.Type)
		return Result{OK: false, Data: Detail{Detail: unknownTypeDetail}}
	}
	reply, succeeded := h(ctx, msg)
	metrics.RecordBridgeMessage(msg.Type, succeeded)
	d.logger.DebugContext(ctx, "bridge message", "type", msg.Type, "ok", succeeded)
	return reply
}

func (d *Dispatcher) requestOTP(ctx context.Context, msg Message) (any, bool) {
	if err := d.flow.RequestCode(ctx, msg.Email); err != nil {
		return failure(err, otp.SendFailedMessage), false
	}
	return Result{OK: true, Data: map[string]string{"email": d.flow.PendingEmail()}}, true
}

func (d *Dispatcher) verifyOTP(ctx context.Context, msg Message) (any, bool) {
	if email := strings.TrimSpace(msg.Email); email != "" && email != d.flow.PendingEmail() {
		if err := d.flow.RestorePending(email); err != nil {
			return failure(err, otp.VerifyFailedMessage), false
		}
	}
	if err := d.flow.VerifyCode(ctx, msg.OTP); err != nil {
		return failure(err, otp.VerifyFailedMessage), false
	}
	cred, err := d.store.Get(ctx)
	if err != nil {
		return failure(err, otp.VerifyFailedMessage), false
	}
	return Result{OK: true, Data: map[string]string{"email": cred.UserEmail}}, true
}

func (d *Dispatcher) logout(ctx context.Context, _ Message) (any, bool) {
	d.flow.Logout(ctx)
	return Ack{OK: true}, true
}

func (d *Dispatcher) authState(ctx context.Context, _ Message) (any, bool) {
	cred, err := d.store.Get(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "read credential failed", "error", err)
		return AuthState{}, false
	}
	return AuthState{LoggedIn: cred.LoggedIn(), UserEmail: cred.UserEmail}, true
}

func (d *Dispatcher) createJob(ctx context.Context, msg Message) (any, bool) {
	var draft jobs.Draft
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &draft); err != nil {
			return &api.Response{OK: false, Data: mustJSON(Detail{Detail: "Invalid job payload."})}, false
		}
	}
	resp, err := d.jobs.Submit(ctx, draft)
	var ve *jobs.ValidationError
	if errors.As(err, &ve) {
		return &api.Response{OK: false, Data: mustJSON(Detail{Detail: ve.Error(), Errors: ve.Fields})}, false
	}
	if resp == nil {
		return api.NetworkErrorResponse(), false
	}
	return resp, resp.OK
}

func (d *Dispatcher) getAPIBase(ctx context.Context, _ Message) (any, bool) {
	cred, err := d.store.Get(ctx)
	if err != nil {
		return APIBase{APIBase: credential.DefaultAPIBase}, false
	}
	return APIBase{APIBase: cred.APIBase}, true
}

func (d *Dispatcher) setAPIBase(ctx context.Context, msg Message) (any, bool) {
	base := strings.TrimSpace(msg.APIBase)
	if base == "" {
		return Result{OK: false, Data: Detail{Detail: "Backend URL cannot be empty."}}, false
	}
	if err := d.store.Set(ctx, credential.Patch{APIBase: credential.String(base)}); err != nil {
		d.logger.ErrorContext(ctx, "save api base failed", "error", err)
		return Result{OK: false, Data: Detail{Detail: "Failed to save settings."}}, false
	}
	return Ack{OK: true}, true
}

func (d *Dispatcher) jobData(ctx context.Context, msg Message) (any, bool) {
	rec, err := d.scraper.Capture(ctx, msg.URL, msg.HTML)
	if err != nil {
		d.logger.InfoContext(ctx, "capture failed, manual entry", "url", msg.URL, "error", err)
	}
	return JobData{
		JobRecord: rec,
		Supported: d.scraper.IsSupported(msg.URL),
		Draft:     scrape.ToDraft(rec),
	}, err == nil
}

// failure renders a login error as {ok:false, data:{detail}}.
func failure(err error, fallback string) Result {
	detail := Detail{Detail: otp.Message(err, fallback)}
	if apiErr, ok := api.AsAPIError(err); ok {
		detail.Fields = apiErr.Fields
	}
	return Result{OK: false, Data: detail}
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
