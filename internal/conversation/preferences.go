package conversation

import (
	"github.com/Rocketman2178/kairo-platform/internal/matching"
)

// PreferenceSet is everything the family has told us so far. Fields fill in
// progressively over turns; the zero value of each field means "not yet
// known".
type PreferenceSet struct {
	ChildName string             `json:"childName,omitempty"`
	ChildAge  int                `json:"childAge,omitempty"`
	Days      []int              `json:"days,omitempty"`
	Time      matching.TimeOfDay `json:"timeOfDay,omitempty"`
	Program   string             `json:"program,omitempty"`
	City      string             `json:"city,omitempty"`
	Location  string             `json:"location,omitempty"`

	// SelectedSessionID jumps the flow straight to confirmation. It is
	// consumed by the engine on the turn it is set.
	SelectedSessionID string `json:"selectedSessionId,omitempty"`
	// WantsWaitlist is set when the user asks to join the waitlist.
	WantsWaitlist bool `json:"wantsWaitlist,omitempty"`
	// LastRequestedSessionID anchors waitlist joins to the session the
	// family was just told is unavailable.
	LastRequestedSessionID string `json:"lastRequestedSessionId,omitempty"`
}

// Merge folds newer extractions into the set. New non-zero values overwrite;
// zero or absent values never erase what an earlier turn established.
func (p PreferenceSet) Merge(update PreferenceSet) PreferenceSet {
	if update.ChildName != "" {
		p.ChildName = update.ChildName
	}
	if update.ChildAge > 0 {
		p.ChildAge = update.ChildAge
	}
	if len(update.Days) > 0 {
		p.Days = update.Days
	}
	if update.Time != "" {
		p.Time = update.Time
	}
	if update.Program != "" {
		p.Program = update.Program
	}
	if update.City != "" {
		p.City = update.City
	}
	if update.Location != "" {
		p.Location = update.Location
	}
	if update.SelectedSessionID != "" {
		p.SelectedSessionID = update.SelectedSessionID
	}
	if update.WantsWaitlist {
		p.WantsWaitlist = true
	}
	if update.LastRequestedSessionID != "" {
		p.LastRequestedSessionID = update.LastRequestedSessionID
	}
	return p
}

// ReadyForSearch reports whether enough signal exists to run the matching
// pipeline: a program, at least one day, and an age.
func (p PreferenceSet) ReadyForSearch() bool {
	return p.Program != "" && len(p.Days) > 0 && p.ChildAge > 0
}

// MissingChildInfo reports whether we still need the child's name or age.
func (p PreferenceSet) MissingChildInfo() bool {
	return p.ChildName == "" || p.ChildAge == 0
}
