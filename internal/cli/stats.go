package cli

import (
	"fmt"
	"strconv"

	"github.com/pysugar/careertracker/internal/analytics"
	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show conversion statistics",
		Long: `Show the status breakdown and offer, rejection and interview rates.

By default the backend computes the numbers; --local derives them from the
application list instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap *analytics.Snapshot
			var err error
			if local {
				snap, err = analytics.Local(cmd.Context(), a.jobs)
			} else {
				snap, err = analytics.Fetch(cmd.Context(), a.client)
			}
			if err != nil {
				return err
			}
			if ok, err := a.emit(snap); ok {
				return err
			}

			p := a.printer
			p.Header("Applications")
			p.Field("Total", strconv.Itoa(snap.TotalApplications))
			p.Field("Interviews", strconv.Itoa(snap.Analytics.InterviewCount))
			p.Field("Offers", strconv.Itoa(snap.Analytics.TotalOffers))
			p.Field("Interview rate", percent(snap.Analytics.InterviewRate))
			p.Field("Offer rate", percent(snap.Analytics.OfferRate))
			p.Field("Rejection rate", percent(snap.Analytics.RejectionRate))
			if len(snap.StatusBreakdown) == 0 {
				return nil
			}
			p.Print("")
			table := p.Table([]string{"STATUS", "COUNT"})
			for _, row := range snap.StatusBreakdown {
				table.AddRow(p.Status(string(row.Status)), strconv.Itoa(row.Count))
			}
			return table.Render()
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "compute from the application list")
	return cmd
}

func percent(v int) string {
	return fmt.Sprintf("%d%%", v)
}
