package cli

import (
	"fmt"
	"os"

	"github.com/pysugar/careertracker/internal/jobs"
	"github.com/pysugar/careertracker/internal/scrape"
	"github.com/spf13/cobra"
)

func newCaptureCmd(a *app) *cobra.Command {
	var (
		htmlFile string
		save     bool
		f        jobFlags
	)
	cmd := &cobra.Command{
		Use:   "capture <url>",
		Short: "Read a job posting and optionally record it",
		Long: `Read the title, company, location and description from a job posting.

LinkedIn, Indeed, Glassdoor and Naukri are recognised; other pages fall back
to their title and description metadata. With --save the capture is recorded
as an application; --role-type and --duration are required then, and any
other job flag overrides the captured value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var html string
			if htmlFile != "" {
				data, err := os.ReadFile(htmlFile)
				if err != nil {
					return usageError(fmt.Sprintf("cannot read %s", htmlFile), err.Error())
				}
				html = string(data)
			}

			rec, err := a.scraper.Capture(cmd.Context(), args[0], html)
			if err != nil {
				a.printer.Warning("Could not read the page (%v); fill in the details manually", err)
			}

			if !save {
				if ok, err := a.emit(rec); ok {
					return err
				}
				printRecord(a, rec, a.scraper.IsSupported(args[0]))
				return nil
			}

			draft := mergeDraft(scrape.ToDraft(rec), f.draft(cmd.Flags()))
			job, err := a.jobs.Create(cmd.Context(), draft)
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
	cmd.Flags().StringVar(&htmlFile, "html-file", "", "read the page from a saved file instead of fetching it")
	cmd.Flags().BoolVar(&save, "save", false, "record the capture as an application")
	f.register(cmd.Flags())
	return cmd
}

func printRecord(a *app, rec scrape.JobRecord, supported bool) {
	p := a.printer
	if rec.Empty() {
		p.Print("Nothing recognisable on %s.", rec.URL)
		return
	}
	p.Header(rec.Title)
	p.Field("Company", rec.Company)
	p.Field("Location", rec.Location)
	p.Field("Source", rec.Source)
	if !supported {
		p.Field("Board", p.Dim("not a recognised job board"))
	}
	if rec.Description != "" {
		p.Print("\n%s", rec.Description)
	}
}

// mergeDraft fills captured values with any fields given on the command line.
func mergeDraft(captured, given jobs.Draft) jobs.Draft {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&captured.JobTitle, given.JobTitle)
	pick(&captured.Company, given.Company)
	pick(&captured.RoleType, given.RoleType)
	pick(&captured.Duration, given.Duration)
	pick(&captured.Location, given.Location)
	pick(&captured.ApplicationLink, given.ApplicationLink)
	pick(&captured.Notes, given.Notes)
	pick(&captured.Contacts, given.Contacts)
	if given.Status != "" {
		captured.Status = given.Status
	}
	if given.Confidence != "" {
		captured.Confidence = given.Confidence
	}
	if given.Source != "" {
		captured.Source = given.Source
	}
	if given.SalaryEst != nil {
		captured.SalaryEst = given.SalaryEst
	}
	captured.Remote = captured.Remote || given.Remote
	return captured
}
