package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pysugar/careertracker/internal/jobs"
	"github.com/spf13/cobra"
)

func newDocumentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Manage documents attached to applications",
	}
	cmd.AddCommand(newDocumentsListCmd(a), newDocumentsUploadCmd(a), newDocumentsDeleteCmd(a))
	return cmd
}

func newDocumentsListCmd(a *app) *cobra.Command {
	var jobID int64
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := a.jobs.Documents(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			if ok, err := a.emit(docs); ok {
				return err
			}
			if len(docs) == 0 {
				a.printer.Print("No documents uploaded.")
				return nil
			}
			table := a.printer.Table([]string{"ID", "JOB", "TYPE", "FILE", "UPLOADED"})
			for _, d := range docs {
				table.AddRow(
					strconv.FormatInt(d.ID, 10),
					strconv.FormatInt(d.Job, 10),
					string(d.DocTypes),
					d.Name(),
					formatDate(d.UploadedAt),
				)
			}
			return table.Render()
		},
	}
	cmd.Flags().Int64Var(&jobID, "job", 0, "only show documents for this application")
	return cmd
}

func newDocumentsUploadCmd(a *app) *cobra.Command {
	var (
		jobID   int64
		docType string
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Attach a file to an application",
		Long: `Attach a file to an application.

--type is one of RESUME, COVER_LETTER, COLD_EMAIL, OTHERS (default RESUME).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := jobs.ParseDocType(docType)
			if err != nil {
				return usageError(err.Error(), "Valid types: RESUME, COVER_LETTER, COLD_EMAIL, OTHERS")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return usageError(fmt.Sprintf("cannot open %s", args[0]), err.Error())
			}
			defer f.Close()

			doc, err := a.jobs.UploadDocument(cmd.Context(), jobs.Upload{
				Job:      jobID,
				FileName: filepath.Base(args[0]),
				DocType:  kind,
				Content:  f,
			})
			if err != nil {
				return err
			}
			if ok, err := a.emit(doc); ok {
				return err
			}
			a.printer.Success("Uploaded %s as document #%d (%s)", doc.Name(), doc.ID, doc.DocTypes)
			return nil
		},
	}
	cmd.Flags().Int64Var(&jobID, "job", 0, "application id")
	cmd.Flags().StringVar(&docType, "type", string(jobs.DocResume), "document type")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func newDocumentsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.jobs.DeleteDocument(cmd.Context(), id); err != nil {
				return err
			}
			a.printer.Success("Deleted document #%d", id)
			return nil
		},
	}
}
