package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pysugar/careertracker/internal/api"
)

// Fallback messages when the backend gives no reason.
const (
	msgLoadFailed   = "Failed to load jobs."
	msgSaveFailed   = "Failed to save job."
	msgDeleteFailed = "Failed to delete job."
)

// ErrNothingToUpdate is returned for an update with no fields set.
var ErrNothingToUpdate = errors.New("nothing to update")

// Caller is the part of the request pipeline the resources use.
type Caller interface {
	Call(ctx context.Context, method, path string, body any) (*api.Response, error)
	Do(ctx context.Context, r api.Request) (*api.Response, error)
}

// Service talks to the jobs, interviews, documents and profile endpoints.
type Service struct {
	api    Caller
	logger *slog.Logger
}

func NewService(c Caller, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: c, logger: logger}
}

// List returns the user's applications, newest first.
func (s *Service) List(ctx context.Context) ([]JobApplication, error) {
	resp, err := s.api.Call(ctx, http.MethodGet, "jobs/", nil)
	return result[[]JobApplication](resp, err, msgLoadFailed)
}

func (s *Service) Get(ctx context.Context, id int64) (*JobApplication, error) {
	resp, err := s.api.Call(ctx, http.MethodGet, jobPath(id), nil)
	job, err := result[JobApplication](resp, err, "Failed to load job.")
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Submit validates d and posts it, returning the raw envelope. A validation
// failure returns a *ValidationError and no request is made.
func (s *Service) Submit(ctx context.Context, d Draft) (*api.Response, error) {
	d = d.Normalize()
	if err := Validate(d); err != nil {
		return nil, err
	}
	resp, err := s.api.Call(ctx, http.MethodPost, "jobs/", d)
	if err == nil && resp.OK {
		s.logger.InfoContext(ctx, "job created", "company", d.Company, "title", d.JobTitle)
	}
	return resp, err
}

// Create validates d, posts it and decodes the stored application.
func (s *Service) Create(ctx context.Context, d Draft) (*JobApplication, error) {
	resp, err := s.Submit(ctx, d)
	if resp == nil {
		return nil, err
	}
	job, err := result[JobApplication](resp, err, msgSaveFailed)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Update applies a partial change. Status changes are not checked against
// CanTransition.
func (s *Service) Update(ctx context.Context, id int64, u Update) (*JobApplication, error) {
	if u.Empty() {
		return nil, ErrNothingToUpdate
	}
	u = u.Normalize()
	if err := Validate(u); err != nil {
		return nil, err
	}
	resp, err := s.api.Call(ctx, http.MethodPatch, jobPath(id), u)
	job, err := result[JobApplication](resp, err, msgSaveFailed)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.remove(ctx, jobPath(id), msgDeleteFailed)
}

func (s *Service) remove(ctx context.Context, path, fallback string) error {
	resp, err := s.api.Call(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return resp.Err(fallback)
}

func jobPath(id int64) string {
	return fmt.Sprintf("jobs/%d/", id)
}

// result turns a pipeline outcome into a decoded value or an error.
func result[T any](resp *api.Response, err error, fallback string) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if err := resp.Err(fallback); err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
