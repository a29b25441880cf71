package matching

import (
	"context"
	"sort"

	"github.com/Rocketman2178/kairo-platform/internal/catalog"
)

// AlternativeCategory classifies how a substitute session differs from what
// the parent asked for.
type AlternativeCategory string

const (
	CategoryAdjacentDay         AlternativeCategory = "adjacent_day"
	CategoryAlternativeTime     AlternativeCategory = "alternative_time"
	CategoryAlternativeLocation AlternativeCategory = "alternative_location"
	CategorySimilarProgram      AlternativeCategory = "similar_program"
)

// Alternative scoring constants. The base scores rank categories by how
// close a substitute is to the original request; bonuses nudge within a
// category.
const (
	scoreSimilarProgram      = 50.0
	scoreAdjacentDay         = 90.0
	scoreAlternativeTime     = 85.0
	scoreAlternativeLocation = 80.0
	maxCoachRatingBonus      = 5.0
	lowFillBonus             = 5.0
	lowFillThreshold         = 0.5
)

// AlternativeCandidate is a scored substitute session.
type AlternativeCandidate struct {
	Session  SessionView         `json:"session"`
	Category AlternativeCategory `json:"category"`
	Score    float64             `json:"score"`
}

// AlternativeRequest anchors the scorer on what was originally asked for.
// PrimaryDay is the first preferred day; LocationID is the location of the
// requested session when one was resolved.
type AlternativeRequest struct {
	OrgID      string
	ChildAge   int
	Program    string
	Days       []int
	Time       TimeOfDay
	LocationID string
}

// AlternativesResult carries the ranked substitutes plus the waitlist
// recommendation signal.
type AlternativesResult struct {
	Alternatives      []AlternativeCandidate
	RecommendWaitlist bool
}

// ScoreAlternatives produces up to maxAlternatives ranked substitutes for a
// request that could not be satisfied exactly. Hard gates: active with open
// spots, organization scope, program substring when given, age containment.
// Everything past the gates is scored, never filtered.
//
// RecommendWaitlist is set when fewer than two usable alternatives exist, the
// signal that waitlisting the original session should be offered alongside
// whatever was found.
func (e *Engine) ScoreAlternatives(ctx context.Context, req AlternativeRequest) (AlternativesResult, error) {
	sessions, err := e.listBookable(ctx, req.OrgID)
	if err != nil {
		e.observeSearch("alternatives", "error")
		return AlternativesResult{}, err
	}

	gate := Criteria{
		OrgID:       req.OrgID,
		ChildAge:    req.ChildAge,
		RequireOpen: true,
		ProgramName: req.Program,
	}

	primaryDay := -1
	if len(req.Days) > 0 {
		primaryDay = req.Days[0]
	}

	type scored struct {
		session  catalog.Session
		category AlternativeCategory
		score    float64
	}
	var candidates []scored
	for i := range sessions {
		s := &sessions[i]
		if CheckEligibility(s, gate) != FailNone {
			continue
		}
		category, score := classify(s, primaryDay, req.Time, req.LocationID)
		if s.Coach != nil && s.Coach.Rating != nil {
			bonus := *s.Coach.Rating
			if bonus > maxCoachRatingBonus {
				bonus = maxCoachRatingBonus
			}
			score += bonus
		}
		if s.FillRate() < lowFillThreshold {
			score += lowFillBonus
		}
		candidates = append(candidates, scored{session: *s, category: category, score: score})
	}

	// Stable sort keeps catalog order as the tie-break for equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > e.maxAlternatives {
		candidates = candidates[:e.maxAlternatives]
	}

	picked := make([]catalog.Session, 0, len(candidates))
	for _, c := range candidates {
		picked = append(picked, c.session)
	}
	views := e.normalizer.Views(ctx, picked)

	result := AlternativesResult{RecommendWaitlist: len(candidates) < 2}
	for i, c := range candidates {
		result.Alternatives = append(result.Alternatives, AlternativeCandidate{
			Session:  views[i],
			Category: c.category,
			Score:    c.score,
		})
	}
	e.observeAlternatives(len(result.Alternatives))
	if len(result.Alternatives) == 0 {
		e.observeSearch("alternatives", "empty")
	} else {
		e.observeSearch("alternatives", "found")
	}
	return result, nil
}

// classify picks the candidate's category and base score relative to the
// primary requested day, time bucket, and location.
func classify(s *catalog.Session, primaryDay int, wantTime TimeOfDay, wantLocationID string) (AlternativeCategory, float64) {
	if primaryDay >= 0 {
		if daysAdjacent(s.DayOfWeek, primaryDay) && wantTime.MatchesHour(s.StartHour()) {
			return CategoryAdjacentDay, scoreAdjacentDay
		}
		if s.DayOfWeek == primaryDay {
			if wantTime != "" && wantTime != TimeAny && !wantTime.MatchesHour(s.StartHour()) {
				return CategoryAlternativeTime, scoreAlternativeTime
			}
			if wantLocationID != "" && s.Location.ID != wantLocationID {
				return CategoryAlternativeLocation, scoreAlternativeLocation
			}
		}
	}
	return CategorySimilarProgram, scoreSimilarProgram
}

// daysAdjacent reports whether two weekday indexes are neighbors on the
// 7-day cycle. A difference of 6 wraps the week, so Saturday and Sunday
// count as adjacent.
func daysAdjacent(a, b int) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff == 1 || diff == 6
}

func (e *Engine) observeAlternatives(count int) {
	if e.metrics != nil {
		e.metrics.ObserveAlternatives(count)
	}
}
