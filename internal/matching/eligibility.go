package matching

import (
	"strings"

	"github.com/Rocketman2178/kairo-platform/internal/catalog"
)

// FailReason names the first eligibility check a session failed. Checks run
// in a fixed order and short-circuit, so a session that is both full and the
// wrong age always reports capacity first.
type FailReason string

const (
	FailNone       FailReason = ""
	FailCapacity   FailReason = "capacity"
	FailOrg        FailReason = "org"
	FailAgeUnknown FailReason = "age_unknown"
	FailAge        FailReason = "age"
	FailDay        FailReason = "day"
	FailProgram    FailReason = "program"
	FailTimeOfDay  FailReason = "time_of_day"
	FailLocation   FailReason = "location"
)

// Criteria is the caller's accumulated preferences. Zero-valued fields are
// unconstrained: an empty ProgramName matches every program, nil Days every
// weekday, and so on.
type Criteria struct {
	OrgID       string
	ChildAge    int  // 0 means unknown
	RequireOpen bool // demand at least one open spot
	ProgramName string
	Days        []int // 0=Sunday..6=Saturday
	Time        TimeOfDay
	City        string
}

// HasDayConstraint reports whether Days actually narrows the week. A list
// covering all seven days is treated as no constraint.
func (c Criteria) HasDayConstraint() bool {
	return len(c.Days) > 0 && len(c.Days) < 7
}

func (c Criteria) wantsDay(day int) bool {
	for _, d := range c.Days {
		if d == day {
			return true
		}
	}
	return false
}

// CheckEligibility runs the ordered filter chain against one session and
// returns the first failing check, or FailNone when the session qualifies.
func CheckEligibility(s *catalog.Session, c Criteria) FailReason {
	if c.RequireOpen && !s.Available() {
		return FailCapacity
	}
	if c.OrgID != "" && s.Program.OrgID != c.OrgID {
		return FailOrg
	}
	if c.ChildAge > 0 {
		if !s.Program.AgesValid {
			return FailAgeUnknown
		}
		if !s.Program.Ages.Contains(c.ChildAge) {
			return FailAge
		}
	}
	if c.HasDayConstraint() && !c.wantsDay(s.DayOfWeek) {
		return FailDay
	}
	if c.ProgramName != "" && !containsFold(s.Program.Name, c.ProgramName) {
		return FailProgram
	}
	if !c.Time.MatchesHour(s.StartHour()) {
		return FailTimeOfDay
	}
	if c.City != "" && !cityMatches(s.Location.City, c.City) {
		return FailLocation
	}
	return FailNone
}

// Eligible is CheckEligibility collapsed to a boolean.
func Eligible(s *catalog.Session, c Criteria) bool {
	return CheckEligibility(s, c) == FailNone
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// cityMatches tolerates partial names in either direction so "Spring" hits
// "Springfield" and "Springfield North" hits "Springfield". A session whose
// location has no recorded city passes: the check only constrains rows that
// carry a city to compare against.
func cityMatches(sessionCity, wantCity string) bool {
	if sessionCity == "" {
		return true
	}
	return containsFold(sessionCity, wantCity) || containsFold(wantCity, sessionCity)
}
