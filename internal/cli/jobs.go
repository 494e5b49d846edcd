package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/pysugar/careertracker/internal/jobs"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const dateLayout = "2006-01-02"

// jobFlags binds the application fields shared by `jobs add` and `jobs update`.
type jobFlags struct {
	title, company, roleType, duration string
	status, confidence, source         string
	location, link, notes, contacts    string
	salary                             int
	remote                             bool
}

func (f *jobFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "job title")
	fs.StringVar(&f.company, "company", "", "company name")
	fs.StringVar(&f.roleType, "role-type", "", "role type, e.g. Full-time")
	fs.StringVar(&f.duration, "duration", "", "duration, e.g. Full-time or 6 months")
	fs.StringVar(&f.status, "status", "", "status: APPLIED, INTERVIEW, OFFER, REJECTED, GHOSTED, REPLIED")
	fs.StringVar(&f.confidence, "confidence", "", "confidence: HIGH, MEDIUM, LOW")
	fs.StringVar(&f.source, "source", "", "where the posting was found, e.g. LINKEDIN")
	fs.StringVar(&f.location, "location", "", "location")
	fs.StringVar(&f.link, "link", "", "application link")
	fs.StringVar(&f.notes, "notes", "", "notes")
	fs.StringVar(&f.contacts, "contacts", "", "contacts")
	fs.IntVar(&f.salary, "salary", 0, "salary estimate")
	fs.BoolVar(&f.remote, "remote", false, "remote role")
}

func (f *jobFlags) draft(fs *pflag.FlagSet) jobs.Draft {
	d := jobs.Draft{
		JobTitle:        f.title,
		Company:         f.company,
		RoleType:        f.roleType,
		Duration:        f.duration,
		Status:          jobs.Status(strings.ToUpper(f.status)),
		Confidence:      jobs.Confidence(strings.ToUpper(f.confidence)),
		Source:          jobs.Source(strings.ToUpper(f.source)),
		Location:        f.location,
		ApplicationLink: f.link,
		Notes:           f.notes,
		Contacts:        f.contacts,
		Remote:          f.remote,
	}
	if fs.Changed("salary") {
		salary := f.salary
		d.SalaryEst = &salary
	}
	return d
}

// update sets only the fields whose flags were given.
func (f *jobFlags) update(fs *pflag.FlagSet) jobs.Update {
	var u jobs.Update
	str := func(name, v string) *string {
		if !fs.Changed(name) {
			return nil
		}
		return &v
	}
	u.JobTitle = str("title", f.title)
	u.Company = str("company", f.company)
	u.RoleType = str("role-type", f.roleType)
	u.Duration = str("duration", f.duration)
	u.Location = str("location", f.location)
	u.ApplicationLink = str("link", f.link)
	u.Notes = str("notes", f.notes)
	u.Contacts = str("contacts", f.contacts)
	if fs.Changed("status") {
		st := jobs.Status(strings.ToUpper(f.status))
		u.Status = &st
	}
	if fs.Changed("confidence") {
		c := jobs.Confidence(strings.ToUpper(f.confidence))
		u.Confidence = &c
	}
	if fs.Changed("source") {
		s := jobs.Source(strings.ToUpper(f.source))
		u.Source = &s
	}
	if fs.Changed("salary") {
		salary := f.salary
		u.SalaryEst = &salary
	}
	if fs.Changed("remote") {
		remote := f.remote
		u.Remote = &remote
	}
	return u
}

func newJobsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Manage job applications",
	}
	cmd.AddCommand(
		newJobsListCmd(a),
		newJobsShowCmd(a),
		newJobsAddCmd(a),
		newJobsUpdateCmd(a),
		newJobsDeleteCmd(a),
	)
	return cmd
}

func newJobsListCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List applications",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter jobs.Status
			if status != "" {
				st, err := jobs.ParseStatus(status)
				if err != nil {
					return usageError(err.Error(), "Valid statuses: APPLIED, INTERVIEW, OFFER, REJECTED, GHOSTED, REPLIED")
				}
				filter = st
			}
			apps, err := a.jobs.List(cmd.Context())
			if err != nil {
				return err
			}
			if filter != "" {
				kept := apps[:0]
				for _, job := range apps {
					if job.Status == filter {
						kept = append(kept, job)
					}
				}
				apps = kept
			}
			if ok, err := a.emit(apps); ok {
				return err
			}
			if len(apps) == 0 {
				a.printer.Print("No applications yet. Add one with 'tracker jobs add'.")
				return nil
			}
			table := a.printer.Table([]string{"ID", "TITLE", "COMPANY", "STATUS", "SOURCE", "APPLIED"})
			for _, job := range apps {
				table.AddRow(
					strconv.FormatInt(job.ID, 10),
					job.JobTitle,
					job.Company,
					a.printer.Status(string(job.Status)),
					string(job.Source),
					formatDate(job.AppliedAt),
				)
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only show applications with this status")
	return cmd
}

func newJobsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			job, err := a.jobs.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if ok, err := a.emit(job); ok {
				return err
			}
			printJob(a, job)
			return nil
		},
	}
}

func newJobsAddCmd(a *app) *cobra.Command {
	var f jobFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new application",
		Long: `Record a new application. --title, --company, --role-type and --duration
are required; status defaults to APPLIED, confidence to MEDIUM and source to OTHER.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.jobs.Create(cmd.Context(), f.draft(cmd.Flags()))
			if err != nil {
				return err
			}
			if ok, err := a.emit(job); ok {
				return err
			}
			a.printer.Success("Created application #%d: %s at %s", job.ID, job.JobTitle, job.Company)
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newJobsUpdateCmd(a *app) *cobra.Command {
	var f jobFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u := f.update(cmd.Flags())
			if u.Status != nil {
				a.warnUnusualTransition(cmd, id, *u.Status)
			}
			job, err := a.jobs.Update(cmd.Context(), id, u)
			if err != nil {
				return err
			}
			if ok, err := a.emit(job); ok {
				return err
			}
			a.printer.Success("Updated application #%d (%s)", job.ID, job.Status)
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}

// warnUnusualTransition notes a status change outside the usual lifecycle.
// The update still goes ahead.
func (a *app) warnUnusualTransition(cmd *cobra.Command, id int64, to jobs.Status) {
	current, err := a.jobs.Get(cmd.Context(), id)
	if err != nil || current.Status == to || jobs.CanTransition(current.Status, to) {
		return
	}
	a.printer.Warning("%s -> %s is not a usual step; updating anyway", current.Status, to)
}

func newJobsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an application",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.jobs.Delete(cmd.Context(), id); err != nil {
				return err
			}
			a.printer.Success("Deleted application #%d", id)
			return nil
		},
	}
}

func printJob(a *app, job *jobs.JobApplication) {
	p := a.printer
	p.Header(job.JobTitle + " at " + job.Company)
	p.Field("ID", strconv.FormatInt(job.ID, 10))
	p.Field("Status", p.Status(string(job.Status)))
	p.Field("Role type", job.RoleType)
	p.Field("Duration", job.Duration)
	p.Field("Confidence", string(job.Confidence))
	p.Field("Source", string(job.Source))
	if job.Location != "" {
		p.Field("Location", job.Location)
	}
	if job.SalaryEst != nil {
		p.Field("Salary", strconv.Itoa(*job.SalaryEst))
	}
	p.Field("Applied", formatDate(job.AppliedAt))
	if job.ApplicationLink != "" {
		p.Field("Link", job.ApplicationLink)
	}
	if job.Contacts != "" {
		p.Field("Contacts", job.Contacts)
	}
	if job.Notes != "" {
		p.Print("\n%s", job.Notes)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}
