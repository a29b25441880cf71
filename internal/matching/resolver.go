package matching

import (
	"context"
	"fmt"

	"github.com/Rocketman2178/kairo-platform/internal/catalog"
)

// SessionIssue classifies why a specifically requested session cannot be
// booked as asked.
type SessionIssue string

const (
	IssueNone            SessionIssue = ""
	IssueFull            SessionIssue = "full"
	IssueNoLocationMatch SessionIssue = "no_location_match"
)

// ResolveRequest carries everything the parent has told us about the
// specific session they want.
type ResolveRequest struct {
	OrgID    string
	ChildAge int
	Days     []int
	Time     TimeOfDay
	Program  string
	Location string // location id, name, or city fragment
}

// ResolveResult reports the requested session and its blocking issue, if any.
type ResolveResult struct {
	Found   bool
	Session *SessionView
	Issue   SessionIssue

	// raw is the matched catalog session, kept so the alternative scorer
	// can anchor on its location.
	raw *catalog.Session
}

// RawSession returns the underlying catalog record of a resolved session.
func (r ResolveResult) RawSession() *catalog.Session {
	return r.raw
}

// ResolveRequested finds the single session the request points at and
// classifies why it cannot be booked. Full sessions are deliberately kept in
// scope here: the point is to report on the session the parent asked about,
// not to hide it.
//
// Resolution is three-tier: an exact-location match wins immediately, a
// right-program-wrong-place candidate is remembered as fallback, and only
// when neither exists does the resolver report not-found.
func (e *Engine) ResolveRequested(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	if req.Program == "" || len(req.Days) == 0 {
		return ResolveResult{}, nil
	}

	sessions, err := e.catalog.ListSessions(ctx, catalog.Filter{
		OrgID:    req.OrgID,
		Statuses: []catalog.SessionStatus{catalog.StatusActive, catalog.StatusFull},
	})
	if err != nil {
		e.observeSearch("resolve", "error")
		return ResolveResult{}, fmt.Errorf("matching: resolve requested: %w", err)
	}

	criteria := Criteria{
		OrgID:       req.OrgID,
		ChildAge:    req.ChildAge,
		ProgramName: req.Program,
		Days:        req.Days,
		Time:        req.Time,
	}

	var fallback *catalog.Session
	for i := range sessions {
		s := &sessions[i]
		if reason := CheckEligibility(s, criteria); reason != FailNone {
			continue
		}
		if req.Location != "" && !locationMatches(s, req.Location) {
			if fallback == nil {
				fallback = s
			}
			continue
		}
		return e.resolved(ctx, s, issueFor(s, IssueNone)), nil
	}

	if fallback != nil {
		return e.resolved(ctx, fallback, IssueNoLocationMatch), nil
	}
	e.observeSearch("resolve", "not_found")
	return ResolveResult{}, nil
}

func (e *Engine) resolved(ctx context.Context, s *catalog.Session, issue SessionIssue) ResolveResult {
	views := e.normalizer.Views(ctx, []catalog.Session{*s})
	view := views[0]
	switch issue {
	case IssueNone:
		e.observeSearch("resolve", "exact")
	default:
		e.observeSearch("resolve", string(issue))
		e.observeIssue(string(issue))
	}
	return ResolveResult{Found: true, Session: &view, Issue: issue, raw: s}
}

// issueFor upgrades a clean match to IssueFull when capacity is exhausted.
func issueFor(s *catalog.Session, issue SessionIssue) SessionIssue {
	if issue == IssueNone && s.Full() {
		return IssueFull
	}
	return issue
}

// locationMatches accepts an exact location id or a case-insensitive
// name/city fragment.
func locationMatches(s *catalog.Session, want string) bool {
	if s.Location.ID == want {
		return true
	}
	if s.Location.Name != "" && (containsFold(s.Location.Name, want) || containsFold(want, s.Location.Name)) {
		return true
	}
	return s.Location.City != "" && cityMatches(s.Location.City, want)
}

// SessionByID loads one session for direct selection flows, bypassing
// search entirely. Returns catalog.ErrSessionNotFound when the id is stale.
func (e *Engine) SessionByID(ctx context.Context, id string) (*SessionView, error) {
	s, err := e.catalog.GetSessionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("matching: session by id: %w", err)
	}
	views := e.normalizer.Views(ctx, []catalog.Session{*s})
	return &views[0], nil
}

func (e *Engine) observeSearch(kind, outcome string) {
	if e.metrics != nil {
		e.metrics.ObserveSearch(kind, outcome)
	}
}

func (e *Engine) observeIssue(issue string) {
	if e.metrics != nil {
		e.metrics.ObserveSessionIssue(issue)
	}
}
