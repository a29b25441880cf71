package matching

import (
	"context"

	"github.com/Rocketman2178/kairo-platform/internal/catalog"
)

// SearchRequest is the criteria set for the bookable-session search.
type SearchRequest struct {
	OrgID    string
	ChildAge int
	Days     []int
	Time     TimeOfDay
	Program  string
	City     string
}

// FindMatches returns up to maxMatches bookable sessions satisfying the full
// eligibility chain, in catalog order. Full sessions are excluded here; this
// search only surfaces options the parent can actually book.
func (e *Engine) FindMatches(ctx context.Context, req SearchRequest) ([]SessionView, error) {
	sessions, err := e.listBookable(ctx, req.OrgID)
	if err != nil {
		e.observeSearch("matches", "error")
		return nil, err
	}

	criteria := Criteria{
		OrgID:       req.OrgID,
		ChildAge:    req.ChildAge,
		RequireOpen: true,
		ProgramName: req.Program,
		Days:        req.Days,
		Time:        req.Time,
		City:        req.City,
	}
	picked := e.filterFirst(sessions, criteria, e.maxMatches)
	if len(picked) == 0 {
		e.observeSearch("matches", "empty")
		return nil, nil
	}
	e.observeSearch("matches", "found")
	return e.normalizer.Views(ctx, picked), nil
}

// FindBroaderMatches relaxes the program-name and time-of-day constraints
// while keeping organization scope, age containment, the day filter, and
// open capacity. It exists so an age-appropriate catalog never answers
// "nothing exists" just because the named program has no seats.
func (e *Engine) FindBroaderMatches(ctx context.Context, req SearchRequest) ([]SessionView, error) {
	sessions, err := e.listBookable(ctx, req.OrgID)
	if err != nil {
		e.observeSearch("broader", "error")
		return nil, err
	}

	criteria := Criteria{
		OrgID:       req.OrgID,
		ChildAge:    req.ChildAge,
		RequireOpen: true,
		Days:        req.Days,
	}
	picked := e.filterFirst(sessions, criteria, e.maxBroader)
	if len(picked) == 0 {
		e.observeSearch("broader", "empty")
		return nil, nil
	}
	e.observeSearch("broader", "found")
	return e.normalizer.Views(ctx, picked), nil
}

// filterFirst takes the first limit sessions passing the criteria, preserving
// catalog order. The catalog guarantees start-date-then-id ordering, which is
// the deterministic tie-break for equal-quality candidates.
func (e *Engine) filterFirst(sessions []catalog.Session, c Criteria, limit int) []catalog.Session {
	var picked []catalog.Session
	for i := range sessions {
		s := &sessions[i]
		reason := CheckEligibility(s, c)
		if reason != FailNone {
			e.logger.Debug("session filtered",
				"session_id", s.ID,
				"reason", string(reason),
			)
			continue
		}
		picked = append(picked, *s)
		if len(picked) >= limit {
			break
		}
	}
	return picked
}
