package catalog

import (
	"context"
	"fmt"
)

// RatingService averages review ratings per session. The lookup is a single
// batched read so callers can rate a whole result set in one round trip.
type RatingService struct {
	repo Repository
}

// NewRatingService creates a rating aggregator over the catalog.
func NewRatingService(repo Repository) *RatingService {
	if repo == nil {
		panic("catalog: repository required")
	}
	return &RatingService{repo: repo}
}

// SessionRatings returns the average rating per session id. Sessions with no
// reviews are absent from the result map.
func (s *RatingService) SessionRatings(ctx context.Context, sessionIDs []string) (map[string]float64, error) {
	if len(sessionIDs) == 0 {
		return map[string]float64{}, nil
	}

	reviews, err := s.repo.ListReviewsForSessions(ctx, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("catalog: aggregate ratings: %w", err)
	}

	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, rev := range reviews {
		sums[rev.SessionID] += rev.Rating
		counts[rev.SessionID]++
	}

	out := make(map[string]float64, len(sums))
	for id, sum := range sums {
		out[id] = float64(sum) / float64(counts[id])
	}
	return out, nil
}
