package cli

import (
	"errors"

	"github.com/pysugar/careertracker/internal/api"
	"github.com/pysugar/careertracker/internal/auth/otp"
	"github.com/pysugar/careertracker/internal/output"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Email a one-time login code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.flow.RequestCode(cmd.Context(), args[0]); err != nil {
				return flowError("could not send login code", err, otp.SendFailedMessage)
			}
			email := a.flow.PendingEmail()
			if err := a.pending.Save(email); err != nil {
				return err
			}
			if ok, err := a.emit(map[string]string{"email": email}); ok {
				return err
			}
			a.printer.Success("Code sent to %s", email)
			a.printer.Print("Run 'tracker verify <code>' to finish signing in.")
			return nil
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <code>",
		Short: "Finish signing in with the emailed code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, ok, err := a.pending.Load()
			if err != nil {
				return err
			}
			if !ok {
				return flowError("could not verify code", otp.ErrNoPendingLogin, otp.VerifyFailedMessage)
			}
			if err := a.flow.RestorePending(pending.Email); err != nil {
				return flowError("could not verify code", err, otp.VerifyFailedMessage)
			}
			if err := a.flow.VerifyCode(cmd.Context(), args[0]); err != nil {
				return flowError("could not verify code", err, otp.VerifyFailedMessage)
			}
			if err := a.pending.Clear(); err != nil {
				a.logger.Warn("clear pending login failed", "error", err)
			}
			if ok, err := a.emit(map[string]any{"loggedIn": true, "userEmail": pending.Email}); ok {
				return err
			}
			a.printer.Success("Logged in as %s", pending.Email)
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.flow.Logout(cmd.Context())
			if err := a.pending.Clear(); err != nil {
				a.logger.Warn("clear pending login failed", "error", err)
			}
			a.printer.Success("Logged out")
			return nil
		},
	}
}

type whoami struct {
	LoggedIn  bool   `json:"loggedIn"`
	UserEmail string `json:"userEmail,omitempty"`
	APIBase   string `json:"apiBase"`
	Pending   string `json:"pendingEmail,omitempty"`
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := a.store.Get(cmd.Context())
			if err != nil {
				return err
			}
			info := whoami{LoggedIn: cred.LoggedIn(), UserEmail: cred.UserEmail, APIBase: cred.APIBase}
			if p, ok, _ := a.pending.Load(); ok {
				info.Pending = p.Email
			}
			if ok, err := a.emit(info); ok {
				return err
			}
			if !info.LoggedIn {
				a.printer.Print("Not logged in.")
				if info.Pending != "" {
					a.printer.Print("A code was sent to %s. Run 'tracker verify <code>'.", info.Pending)
				}
			} else {
				a.printer.Field("Email", info.UserEmail)
			}
			a.printer.Field("API base", info.APIBase)
			return nil
		},
	}
}

// flowError turns a login flow error into a CLI error with the message the
// extension popup would show.
func flowError(summary string, err error, fallback string) error {
	cliErr := &output.CLIError{Summary: summary, Detail: otp.Message(err, fallback), ExitCode: output.ExitGeneral}
	switch {
	case errors.Is(err, otp.ErrNoPendingLogin):
		cliErr.ExitCode = output.ExitUsageError
		cliErr.Suggestion = "Run 'tracker login <email>' first"
	case errors.Is(err, otp.ErrInvalidEmail), errors.Is(err, otp.ErrInvalidCode):
		cliErr.ExitCode = output.ExitUsageError
	case errors.Is(err, api.ErrTransport):
		cliErr.ExitCode = output.ExitNetworkError
		cliErr.Suggestion = "Check the backend with 'tracker config get-api-base'"
	}
	return cliErr
}
