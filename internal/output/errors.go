package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pysugar/careertracker/internal/api"
	"github.com/pysugar/careertracker/internal/jobs"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitGeneral      = 1
	ExitUsageError   = 2
	ExitSessionError = 3
	ExitConfigError  = 4
	ExitNetworkError = 5
)

// CLIError is a structured error with user-facing context.
type CLIError struct {
	Summary    string
	Detail     string
	Suggestion string
	ExitCode   int
}

func (e *CLIError) Error() string {
	return e.Summary
}

// FromError classifies err for display. summary describes the failed action.
func FromError(summary string, err error) *CLIError {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	var ve *jobs.ValidationError
	switch {
	case errors.Is(err, api.ErrSessionExpired):
		return &CLIError{
			Summary:    api.SessionExpiredDetail,
			Suggestion: "Run 'tracker login <email>' to start a new session",
			ExitCode:   ExitSessionError,
		}
	case errors.Is(err, api.ErrTransport):
		return &CLIError{
			Summary:    summary,
			Detail:     api.NetworkErrorDetail,
			Suggestion: "Check the backend with 'tracker config get-api-base'",
			ExitCode:   ExitNetworkError,
		}
	case errors.As(err, &ve):
		return &CLIError{Summary: summary, Detail: strings.Join(ve.Messages(), "\n         "), ExitCode: ExitUsageError}
	}
	return &CLIError{Summary: summary, Detail: api.UserMessage(err, ""), ExitCode: ExitGeneral}
}

// FormatError prints e to the error writer.
func (p *Printer) FormatError(e *CLIError) {
	if p.useColors {
		color.New(color.FgRed, color.Bold).Fprintf(p.err, "Error: %s\n", e.Summary)
	} else {
		fmt.Fprintf(p.err, "[ERROR] %s\n", e.Summary)
	}
	if e.Detail != "" {
		fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
	}
	if e.Suggestion != "" {
		if p.useColors {
			color.New(color.FgCyan).Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		} else {
			fmt.Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	}
}
