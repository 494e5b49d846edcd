package cli

import (
	"github.com/pysugar/careertracker/internal/jobs"
	"github.com/spf13/cobra"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}
	cmd.AddCommand(newProfileShowCmd(a), newProfileUpdateCmd(a))
	return cmd
}

func newProfileShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.jobs.Profile(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := a.emit(p); ok {
				return err
			}
			printProfile(a, p)
			return nil
		},
	}
}

func newProfileUpdateCmd(a *app) *cobra.Command {
	var firstName, lastName, bio, linkedIn, portfolio, github string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			opt := func(name, v string) *string {
				if !fs.Changed(name) {
					return nil
				}
				return &v
			}
			u := jobs.ProfileUpdate{
				Bio:          opt("bio", bio),
				LinkedInURL:  opt("linkedin", linkedIn),
				PortfolioURL: opt("portfolio", portfolio),
				GitHubURL:    opt("github", github),
			}
			if fs.Changed("first-name") || fs.Changed("last-name") {
				u.User = &jobs.UserUpdate{
					FirstName: opt("first-name", firstName),
					LastName:  opt("last-name", lastName),
				}
			}
			p, err := a.jobs.UpdateProfile(cmd.Context(), u)
			if err != nil {
				return err
			}
			if ok, err := a.emit(p); ok {
				return err
			}
			a.printer.Success("Profile updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&linkedIn, "linkedin", "", "LinkedIn profile URL")
	cmd.Flags().StringVar(&portfolio, "portfolio", "", "portfolio URL")
	cmd.Flags().StringVar(&github, "github", "", "GitHub profile URL")
	return cmd
}

func printProfile(a *app, p *jobs.Profile) {
	pr := a.printer
	pr.Header(p.Name())
	pr.Field("Email", p.User.Email)
	if p.Bio != "" {
		pr.Field("Bio", p.Bio)
	}
	for _, link := range []struct {
		label string
		url   *string
	}{
		{"LinkedIn", p.LinkedInURL},
		{"Portfolio", p.PortfolioURL},
		{"GitHub", p.GitHubURL},
	} {
		if link.url != nil && *link.url != "" {
			pr.Field(link.label, *link.url)
		}
	}
	pr.Field("Member since", formatDate(p.CreatedAt))
}
