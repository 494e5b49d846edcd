package jobs

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// InterviewType is the kind of interview round.
type InterviewType string

const (
	InterviewHR          InterviewType = "HR"
	InterviewBehavioural InterviewType = "BEHAVIOURAL"
	InterviewTechnical   InterviewType = "TECHNICAL"
	InterviewManagerial  InterviewType = "MANAGERIAL"
	InterviewGroup       InterviewType = "GD"
	InterviewOthers      InterviewType = "OTHERS"
)

// Placeholders the backend requires when the user leaves a field blank.
const (
	placeholderMeetingLink = "https://placeholder.com"
	placeholderWith        = "TBD"
)

// Interview is one scheduled round for an application.
type Interview struct {
	ID            int64         `json:"id"`
	Job           int64         `json:"job"`
	InterviewAt   time.Time     `json:"interview_at"`
	MeetingLink   string        `json:"meeting_link"`
	InterviewWith string        `json:"interview_with"`
	Type          InterviewType `json:"type"`
	Feedback      string        `json:"feedback"`
}

// NewInterview is the schedule payload.
type NewInterview struct {
	Job           int64         `json:"job" validate:"gt=0"`
	InterviewAt   time.Time     `json:"interview_at" validate:"required"`
	MeetingLink   string        `json:"meeting_link" validate:"omitempty,url"`
	InterviewWith string        `json:"interview_with"`
	Type          InterviewType `json:"type" validate:"oneof=HR BEHAVIOURAL TECHNICAL MANAGERIAL GD OTHERS"`
	Feedback      string        `json:"feedback"`
}

func (n NewInterview) normalize() NewInterview {
	n.MeetingLink = strings.TrimSpace(n.MeetingLink)
	n.InterviewWith = strings.TrimSpace(n.InterviewWith)
	n.Feedback = strings.TrimSpace(n.Feedback)
	if n.Type == "" {
		n.Type = InterviewHR
	}
	n.Type = InterviewType(strings.ToUpper(string(n.Type)))
	if n.MeetingLink == "" {
		n.MeetingLink = placeholderMeetingLink
	}
	if n.InterviewWith == "" {
		n.InterviewWith = placeholderWith
	}
	n.InterviewAt = n.InterviewAt.UTC()
	return n
}

// Interviews lists interview rounds. A positive jobID keeps only that job's rounds.
func (s *Service) Interviews(ctx context.Context, jobID int64) ([]Interview, error) {
	resp, err := s.api.Call(ctx, http.MethodGet, "jobs/interviews/", nil)
	all, err := result[[]Interview](resp, err, "Failed to load interviews.")
	if err != nil || jobID <= 0 {
		return all, err
	}
	var out []Interview
	for _, iv := range all {
		if iv.Job == jobID {
			out = append(out, iv)
		}
	}
	return out, nil
}

// ScheduleInterview validates n and creates the round.
func (s *Service) ScheduleInterview(ctx context.Context, n NewInterview) (*Interview, error) {
	n = n.normalize()
	if err := Validate(n); err != nil {
		return nil, err
	}
	resp, err := s.api.Call(ctx, http.MethodPost, "jobs/interviews/", n)
	iv, err := result[Interview](resp, err, "Failed to schedule interview.")
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

func (s *Service) DeleteInterview(ctx context.Context, id int64) error {
	return s.remove(ctx, fmt.Sprintf("jobs/interviews/%d/", id), "Failed to delete interview.")
}
