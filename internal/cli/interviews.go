package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pysugar/careertracker/internal/jobs"
	"github.com/spf13/cobra"
)

// interviewTimeLayouts are accepted for --at, tried in order. Zone-less
// values are read in local time.
var interviewTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"}

func parseInterviewTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range interviewTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a time", s)
}

func newInterviewsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interviews",
		Aliases: []string{"interview"},
		Short:   "Manage interview rounds",
	}
	cmd.AddCommand(newInterviewsListCmd(a), newInterviewsAddCmd(a), newInterviewsDeleteCmd(a))
	return cmd
}

func newInterviewsListCmd(a *app) *cobra.Command {
	var jobID int64
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List interview rounds",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rounds, err := a.jobs.Interviews(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			if ok, err := a.emit(rounds); ok {
				return err
			}
			if len(rounds) == 0 {
				a.printer.Print("No interviews scheduled.")
				return nil
			}
			table := a.printer.Table([]string{"ID", "JOB", "WHEN", "TYPE", "WITH", "LINK"})
			for _, r := range rounds {
				table.AddRow(
					strconv.FormatInt(r.ID, 10),
					strconv.FormatInt(r.Job, 10),
					r.InterviewAt.Local().Format("2006-01-02 15:04"),
					string(r.Type),
					r.InterviewWith,
					r.MeetingLink,
				)
			}
			return table.Render()
		},
	}
	cmd.Flags().Int64Var(&jobID, "job", 0, "only show rounds for this application")
	return cmd
}

func newInterviewsAddCmd(a *app) *cobra.Command {
	var (
		n    jobs.NewInterview
		at   string
		kind string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Schedule an interview round",
		Long: `Schedule an interview round for an application.

--at accepts RFC 3339 or "YYYY-MM-DD HH:MM" in local time. --type is one of
HR, BEHAVIOURAL, TECHNICAL, MANAGERIAL, GD, OTHERS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseInterviewTime(at)
			if err != nil {
				return usageError(err.Error(), `Use --at "2025-01-31 14:00"`)
			}
			n.InterviewAt = when
			n.Type = jobs.InterviewType(kind)
			round, err := a.jobs.ScheduleInterview(cmd.Context(), n)
			if err != nil {
				return err
			}
			if ok, err := a.emit(round); ok {
				return err
			}
			a.printer.Success("Scheduled %s interview #%d for %s", round.Type, round.ID,
				round.InterviewAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().Int64Var(&n.Job, "job", 0, "application id")
	cmd.Flags().StringVar(&at, "at", "", "interview time")
	cmd.Flags().StringVar(&kind, "type", string(jobs.InterviewHR), "interview type")
	cmd.Flags().StringVar(&n.MeetingLink, "link", "", "meeting link")
	cmd.Flags().StringVar(&n.InterviewWith, "with", "", "interviewer")
	cmd.Flags().StringVar(&n.Feedback, "feedback", "", "feedback or notes")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newInterviewsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an interview round",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.jobs.DeleteInterview(cmd.Context(), id); err != nil {
				return err
			}
			a.printer.Success("Deleted interview #%d", id)
			return nil
		},
	}
}
