// Package jobs holds the job application entity and the backend resources
// built around it: applications, interviews, documents and the user profile.
package jobs

import (
	"fmt"
	"strings"
	"time"
)

// Status is the application lifecycle position.
type Status string

const (
	StatusApplied   Status = "APPLIED"
	StatusInterview Status = "INTERVIEW"
	StatusOffer     Status = "OFFER"
	StatusRejected  Status = "REJECTED"
	StatusGhosted   Status = "GHOSTED"
	StatusReplied   Status = "REPLIED"
)

// Statuses lists every status in canonical order.
var Statuses = []Status{StatusApplied, StatusInterview, StatusOffer, StatusRejected, StatusGhosted, StatusReplied}

var transitions = map[Status][]Status{
	StatusApplied:   {StatusInterview, StatusRejected, StatusGhosted, StatusReplied},
	StatusInterview: {StatusOffer, StatusRejected, StatusGhosted},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends the lifecycle for analytics.
func (s Status) Terminal() bool {
	return s == StatusOffer || s == StatusRejected
}

// CanTransition reports whether from → to is a nominal lifecycle step.
// It is advisory; updates are never blocked on it.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Confidence is the applicant's own estimate of their chances.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Source is where the posting was found.
type Source string

const (
	SourceLinkedIn       Source = "LINKEDIN"
	SourceReferral       Source = "REFERRAL"
	SourceJobPortal      Source = "JOB_PORTAL"
	SourceCompanyWebsite Source = "COMPANY_WEBSITE"
	SourceCollege        Source = "COLLEGE"
	SourceNetworking     Source = "NETWORKING"
	SourceRecruiter      Source = "RECRUITER"
	SourceOther          Source = "OTHER"
)

// Sources lists every source value.
var Sources = []Source{
	SourceLinkedIn, SourceReferral, SourceJobPortal, SourceCompanyWebsite,
	SourceCollege, SourceNetworking, SourceRecruiter, SourceOther,
}

// JobApplication is one tracked application as the backend serializes it.
type JobApplication struct {
	ID              int64      `json:"id"`
	JobTitle        string     `json:"job_title"`
	Company         string     `json:"company"`
	RoleType        string     `json:"role_type"`
	Status          Status     `json:"status"`
	Confidence      Confidence `json:"confidence"`
	Source          Source     `json:"source"`
	Location        string     `json:"location"`
	SalaryEst       *int       `json:"salary_est"`
	ResumeMatch     *float64   `json:"resume_match,omitempty"`
	AppliedAt       time.Time  `json:"applied_at"`
	Notes           string     `json:"notes"`
	ApplicationLink string     `json:"application_link"`
	Contacts        string     `json:"contacts"`
	Duration        string     `json:"duration"`
	Remote          bool       `json:"remote"`
}

// Draft is the create payload. The four required fields are checked before
// any request is sent.
type Draft struct {
	JobTitle        string     `json:"job_title" validate:"required,max=200"`
	Company         string     `json:"company" validate:"required,max=50"`
	RoleType        string     `json:"role_type" validate:"required,max=200"`
	Duration        string     `json:"duration" validate:"required,max=30"`
	Status          Status     `json:"status" validate:"omitempty,oneof=APPLIED INTERVIEW OFFER REJECTED GHOSTED REPLIED"`
	Confidence      Confidence `json:"confidence" validate:"omitempty,oneof=HIGH MEDIUM LOW"`
	Source          Source     `json:"source" validate:"omitempty,oneof=LINKEDIN REFERRAL JOB_PORTAL COMPANY_WEBSITE COLLEGE NETWORKING RECRUITER OTHER"`
	Notes           string     `json:"notes"`
	ApplicationLink string     `json:"application_link" validate:"omitempty,url"`
	Location        string     `json:"location"`
	SalaryEst       *int       `json:"salary_est" validate:"omitnil,gte=0"`
	Contacts        string     `json:"contacts,omitempty"`
	Remote          bool       `json:"remote,omitempty"`
}

// Normalize trims text fields and fills the form defaults.
func (d Draft) Normalize() Draft {
	d.JobTitle = strings.TrimSpace(d.JobTitle)
	d.Company = strings.TrimSpace(d.Company)
	d.RoleType = strings.TrimSpace(d.RoleType)
	d.Duration = strings.TrimSpace(d.Duration)
	d.Notes = strings.TrimSpace(d.Notes)
	d.ApplicationLink = strings.TrimSpace(d.ApplicationLink)
	d.Location = strings.TrimSpace(d.Location)
	d.Contacts = strings.TrimSpace(d.Contacts)
	if d.Status == "" {
		d.Status = StatusApplied
	}
	if d.Confidence == "" {
		d.Confidence = ConfidenceMedium
	}
	if d.Source == "" {
		d.Source = SourceOther
	}
	return d
}

// Update is a partial change. Nil fields are left untouched by the backend.
type Update struct {
	JobTitle        *string     `json:"job_title,omitempty" validate:"omitnil,min=1,max=200"`
	Company         *string     `json:"company,omitempty" validate:"omitnil,min=1,max=50"`
	RoleType        *string     `json:"role_type,omitempty" validate:"omitnil,min=1,max=200"`
	Duration        *string     `json:"duration,omitempty" validate:"omitnil,min=1,max=30"`
	Status          *Status     `json:"status,omitempty" validate:"omitnil,oneof=APPLIED INTERVIEW OFFER REJECTED GHOSTED REPLIED"`
	Confidence      *Confidence `json:"confidence,omitempty" validate:"omitnil,oneof=HIGH MEDIUM LOW"`
	Source          *Source     `json:"source,omitempty" validate:"omitnil,oneof=LINKEDIN REFERRAL JOB_PORTAL COMPANY_WEBSITE COLLEGE NETWORKING RECRUITER OTHER"`
	Notes           *string     `json:"notes,omitempty"`
	ApplicationLink *string     `json:"application_link,omitempty" validate:"omitempty,url"`
	Location        *string     `json:"location,omitempty"`
	SalaryEst       *int        `json:"salary_est,omitempty" validate:"omitnil,gte=0"`
	Contacts        *string     `json:"contacts,omitempty"`
	Remote          *bool       `json:"remote,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u == Update{}
}

// Normalize trims every present text field.
func (u Update) Normalize() Update {
	u.JobTitle = trimmed(u.JobTitle)
	u.Company = trimmed(u.Company)
	u.RoleType = trimmed(u.RoleType)
	u.Duration = trimmed(u.Duration)
	u.Notes = trimmed(u.Notes)
	u.ApplicationLink = trimmed(u.ApplicationLink)
	u.Location = trimmed(u.Location)
	u.Contacts = trimmed(u.Contacts)
	return u
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}
