package jobs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var labels = map[string]string{
	"job_title":        "Job title",
	"company":          "Company name",
	"role_type":        "Role type",
	"duration":         "Duration",
	"status":           "Status",
	"confidence":       "Confidence",
	"source":           "Source",
	"application_link": "Application link",
	"salary_est":       "Salary estimate",
	"job":              "Job",
	"interview_at":     "Interview time",
	"meeting_link":     "Meeting link",
	"type":             "Interview type",
	"doc_types":        "Document type",
	"file":             "File",
	"linkedin_url":     "LinkedIn URL",
	"portfolio_url":    "Portfolio URL",
	"github_url":       "GitHub URL",
}

var hints = map[string]string{
	"role_type": " (e.g. Full-time)",
	"duration":  " (e.g. Full-time, 6 months)",
}

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
})

// FieldError is one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists rejected fields in declaration order.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return e.Fields[0].Message
}

// Messages returns every field message.
func (e *ValidationError) Messages() []string {
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Message
	}
	return out
}

// IsValidationError reports whether err was raised before any network call.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks v against its struct tags.
func Validate(v any) error {
	err := validate().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	return newValidationError(verrs)
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{}
	for _, fe := range errs {
		field := fe.Field()
		label := labels[field]
		if label == "" {
			label = field
		}
		var msg string
		switch fe.Tag() {
		case "required", "min", "gt":
			msg = fmt.Sprintf("%s is required%s.", label, hints[field])
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		case "oneof":
			msg = fmt.Sprintf("%s must be one of %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
		case "url":
			msg = fmt.Sprintf("%s must be a valid URL.", label)
		case "gte":
			msg = fmt.Sprintf("%s must not be negative.", label)
		default:
			msg = fmt.Sprintf("%s is invalid.", label)
		}
		out.Fields = append(out.Fields, FieldError{Field: field, Message: msg})
	}
	return out
}
