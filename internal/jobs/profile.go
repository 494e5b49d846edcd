package jobs

import (
	"context"
	"net/http"
	"time"
)

const profilePath = "users/profile/"

type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Profile is the signed-in user's profile. The backend creates it on first read.
type Profile struct {
	User         User      `json:"user"`
	Bio          string    `json:"bio"`
	Phone        string    `json:"phone,omitempty"`
	Location     string    `json:"location,omitempty"`
	TargetRole   string    `json:"target_role,omitempty"`
	Skills       string    `json:"skills,omitempty"`
	YearsExp     *int      `json:"years_exp,omitempty"`
	LinkedInURL  *string   `json:"linkedin_url"`
	PortfolioURL *string   `json:"portfolio_url"`
	GitHubURL    *string   `json:"github_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// Name returns the user's full name, or the email when no name is set.
func (p Profile) Name() string {
	switch {
	case p.User.FirstName != "" && p.User.LastName != "":
		return p.User.FirstName + " " + p.User.LastName
	case p.User.FirstName != "":
		return p.User.FirstName
	case p.User.LastName != "":
		return p.User.LastName
	}
	return p.User.Email
}

type UserUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// ProfileUpdate is a partial profile change.
type ProfileUpdate struct {
	User         *UserUpdate `json:"user,omitempty"`
	Bio          *string     `json:"bio,omitempty"`
	LinkedInURL  *string     `json:"linkedin_url,omitempty" validate:"omitempty,url"`
	PortfolioURL *string     `json:"portfolio_url,omitempty" validate:"omitempty,url"`
	GitHubURL    *string     `json:"github_url,omitempty" validate:"omitempty,url"`
}

func (s *Service) Profile(ctx context.Context) (*Profile, error) {
	resp, err := s.api.Call(ctx, http.MethodGet, profilePath, nil)
	p, err := result[Profile](resp, err, "Failed to load profile.")
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile patches the profile and returns the stored result.
func (s *Service) UpdateProfile(ctx context.Context, u ProfileUpdate) (*Profile, error) {
	if u == (ProfileUpdate{}) {
		return nil, ErrNothingToUpdate
	}
	if err := Validate(u); err != nil {
		return nil, err
	}
	resp, err := s.api.Call(ctx, http.MethodPatch, profilePath, u)
	p, err := result[Profile](resp, err, "Failed to update profile.")
	if err != nil {
		return nil, err
	}
	return &p, nil
}
