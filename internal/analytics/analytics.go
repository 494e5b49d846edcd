// Package analytics projects a set of job applications into conversion
// statistics. The projection is pure; the same input always yields the same
// snapshot.
package analytics

import (
	"context"
	"math"
	"net/http"
	"sort"

	"github.com/pysugar/careertracker/internal/jobs"
)

// Status groups used for the rates.
var (
	interviewGroup = []jobs.Status{jobs.StatusInterview, jobs.StatusOffer}
	offerGroup     = []jobs.Status{jobs.StatusOffer}
	rejectionGroup = []jobs.Status{jobs.StatusRejected}
)

// StatusCount is one row of the breakdown.
type StatusCount struct {
	Status jobs.Status `json:"status"`
	Count  int         `json:"count"`
}

// Rates holds the derived percentages and counts.
type Rates struct {
	OfferRate      int `json:"offer_rate"`
	RejectionRate  int `json:"rejection_rate"`
	InterviewRate  int `json:"interview_rate"`
	TotalOffers    int `json:"total_offers"`
	InterviewCount int `json:"interview_count"`
}

// Snapshot has the same shape as the backend's jobs/stats/ response.
type Snapshot struct {
	TotalApplications int           `json:"total_applications"`
	StatusBreakdown   []StatusCount `json:"status_breakdown"`
	Analytics         Rates         `json:"analytics"`
}

// Count returns the breakdown entry for s, or 0.
func (s Snapshot) Count(st jobs.Status) int {
	for _, row := range s.StatusBreakdown {
		if row.Status == st {
			return row.Count
		}
	}
	return 0
}

// Compute builds a snapshot from apps. Breakdown rows follow the canonical
// status order, then any unknown statuses sorted by name; zero counts are omitted.
func Compute(apps []jobs.JobApplication) Snapshot {
	counts := make(map[jobs.Status]int, len(jobs.Statuses))
	for _, a := range apps {
		counts[a.Status]++
	}

	snap := Snapshot{TotalApplications: len(apps), StatusBreakdown: []StatusCount{}}
	seen := make(map[jobs.Status]bool, len(counts))
	for _, st := range jobs.Statuses {
		seen[st] = true
		if n := counts[st]; n > 0 {
			snap.StatusBreakdown = append(snap.StatusBreakdown, StatusCount{Status: st, Count: n})
		}
	}
	var extra []jobs.Status
	for st := range counts {
		if !seen[st] {
			extra = append(extra, st)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, st := range extra {
		snap.StatusBreakdown = append(snap.StatusBreakdown, StatusCount{Status: st, Count: counts[st]})
	}

	interviews := sum(counts, interviewGroup)
	offers := sum(counts, offerGroup)
	rejections := sum(counts, rejectionGroup)
	snap.Analytics = Rates{
		OfferRate:      Rate(offers, snap.TotalApplications),
		RejectionRate:  Rate(rejections, snap.TotalApplications),
		InterviewRate:  Rate(interviews, snap.TotalApplications),
		TotalOffers:    offers,
		InterviewCount: interviews,
	}
	return snap
}

// Rate is round(count/total × 100), and 0 when total is 0.
func Rate(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

func sum(counts map[jobs.Status]int, group []jobs.Status) int {
	n := 0
	for _, st := range group {
		n += counts[st]
	}
	return n
}

// Fetch reads the backend's own aggregation from jobs/stats/.
func Fetch(ctx context.Context, c jobs.Caller) (*Snapshot, error) {
	resp, err := c.Call(ctx, http.MethodGet, "jobs/stats/", nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err("Failed to load analytics"); err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := resp.Decode(&snap); err != nil {
		return nil, err
	}
	if snap.StatusBreakdown == nil {
		snap.StatusBreakdown = []StatusCount{}
	}
	return &snap, nil
}

// Local lists every application and computes the snapshot client-side.
func Local(ctx context.Context, svc *jobs.Service) (*Snapshot, error) {
	apps, err := svc.List(ctx)
	if err != nil {
		return nil, err
	}
	snap := Compute(apps)
	return &snap, nil
}
