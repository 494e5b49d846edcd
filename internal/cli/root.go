// Package cli contains the tracker commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/pysugar/careertracker/internal/api"
	"github.com/pysugar/careertracker/internal/auth/otp"
	"github.com/pysugar/careertracker/internal/auth/token"
	"github.com/pysugar/careertracker/internal/config"
	"github.com/pysugar/careertracker/internal/credential"
	"github.com/pysugar/careertracker/internal/jobs"
	"github.com/pysugar/careertracker/internal/logging"
	"github.com/pysugar/careertracker/internal/output"
	"github.com/pysugar/careertracker/internal/scrape"
	"github.com/spf13/cobra"
)

// app holds the flags and the services built from them before each command.
type app struct {
	cfgFile string
	jsonOut bool
	verbose bool

	cfg     *config.Config
	logger  *slog.Logger
	printer *output.Printer
	store   credential.Store
	pending *pendingStore
	client  *api.Client
	flow    *otp.Flow
	jobs    *jobs.Service
	scraper *scrape.Registry
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tracker",
		Short: "Track job applications from the terminal",
		Long: `tracker records job applications, interviews and documents against
the CareerTracker backend.

Example usage:
  tracker login me@example.com   # Email a one-time code
  tracker verify 123456          # Finish signing in
  tracker jobs list              # List applications
  tracker stats                  # Conversion rates`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is .tracker.yaml)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newLoginCmd(a),
		newVerifyCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newConfigCmd(a),
		newJobsCmd(a),
		newStatsCmd(a),
		newInterviewsCmd(a),
		newDocumentsCmd(a),
		newProfileCmd(a),
		newCaptureCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return output.ExitSuccess
	}
	cliErr := output.FromError(fmt.Sprintf("%s failed", cmd.CommandPath()), err)
	output.NewPrinter(true).FormatError(cliErr)
	return cliErr.ExitCode
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return &output.CLIError{
			Summary:    "could not load configuration",
			Detail:     err.Error(),
			Suggestion: "Check .tracker.yaml syntax or use --config",
			ExitCode:   output.ExitConfigError,
		}
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	a.logger = logging.New(cmd.ErrOrStderr(), level)
	a.printer = output.NewPrinterTo(cmd.OutOrStdout(), cmd.ErrOrStderr(),
		cfg.Output.Colors && !a.jsonOut && output.ColorsAllowed())

	store := credential.NewFileStore(cfg.StateFile)
	if err := seedAPIBase(cmd.Context(), store, cfg.APIBase); err != nil {
		return err
	}
	a.store = store
	a.pending = newPendingStore(cfg.StateFile)

	coordinator := token.NewCoordinator(store, &http.Client{Timeout: cfg.HTTP.Timeout}, a.logger)
	a.client = api.NewClient(store, coordinator,
		api.WithTimeout(cfg.HTTP.Timeout),
		api.WithLogger(a.logger),
	)
	a.flow = otp.NewFlow(a.client, a.logger)
	a.jobs = jobs.NewService(a.client, a.logger)
	a.scraper = scrape.NewRegistry(scrape.WithLogger(a.logger))

	a.logger.Debug("configuration loaded", "state_file", cfg.StateFile, "api_base", cfg.APIBase)
	return nil
}

// seedAPIBase writes the configured API base into a fresh state file. Once
// the file exists, `config set-api-base` owns the value.
func seedAPIBase(ctx context.Context, store *credential.FileStore, base string) error {
	_, err := os.Stat(store.Path())
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat state file: %w", err)
	}
	return store.Set(ctx, credential.Patch{APIBase: credential.String(base)})
}

// emit writes v as JSON when --json is set and reports whether it did.
func (a *app) emit(v any) (bool, error) {
	if !a.jsonOut {
		return false, nil
	}
	return true, a.printer.JSON(v)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, &output.CLIError{
			Summary:  fmt.Sprintf("invalid id %q", arg),
			Detail:   "ids are positive integers",
			ExitCode: output.ExitUsageError,
		}
	}
	return id, nil
}

func usageError(summary, suggestion string) error {
	return &output.CLIError{Summary: summary, Suggestion: suggestion, ExitCode: output.ExitUsageError}
}
