package cli

import (
	"strings"

	"github.com/pysugar/careertracker/internal/credential"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change stored settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get-api-base",
			Short: "Print the backend API base URL",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cred, err := a.store.Get(cmd.Context())
				if err != nil {
					return err
				}
				if ok, err := a.emit(map[string]string{"apiBase": cred.APIBase}); ok {
					return err
				}
				a.printer.Print("%s", cred.APIBase)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-api-base <url>",
			Short: "Point tracker at another backend",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				base := strings.TrimSpace(args[0])
				if base == "" {
					return usageError("Backend URL cannot be empty.", "")
				}
				if err := a.store.Set(cmd.Context(), credential.Patch{APIBase: credential.String(base)}); err != nil {
					return err
				}
				a.printer.Success("API base set to %s", credential.NormalizeAPIBase(base))
				return nil
			},
		},
	)
	return cmd
}
