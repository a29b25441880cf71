package matching

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Rocketman2178/kairo-platform/internal/catalog"
)

// TimeOfDay buckets a session start time for preference matching.
type TimeOfDay string

const (
	TimeAny       TimeOfDay = "any"
	TimeMorning   TimeOfDay = "morning"   // before 12:00
	TimeAfternoon TimeOfDay = "afternoon" // 12:00-16:59
	TimeEvening   TimeOfDay = "evening"   // 17:00 onward
)

// BucketForHour maps a 24h hour to its time-of-day bucket.
func BucketForHour(hour int) TimeOfDay {
	switch {
	case hour < 12:
		return TimeMorning
	case hour < 17:
		return TimeAfternoon
	default:
		return TimeEvening
	}
}

// MatchesHour reports whether an hour falls inside the bucket. The empty
// bucket and TimeAny match everything; an unparsable hour (-1) matches
// nothing specific.
func (t TimeOfDay) MatchesHour(hour int) bool {
	if t == "" || t == TimeAny {
		return true
	}
	if hour < 0 {
		return false
	}
	return BucketForHour(hour) == t
}

var dayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DayName renders a 0=Sunday..6=Saturday index as a weekday name.
func DayName(day int) string {
	if day < 0 || day > 6 {
		return ""
	}
	return dayNames[day]
}

// SessionView is the flattened, display-ready projection of a catalog session.
type SessionView struct {
	SessionID          string   `json:"sessionId"`
	ProgramName        string   `json:"programName"`
	ProgramDescription string   `json:"programDescription,omitempty"`
	AgeRange           string   `json:"ageRange"`
	PriceCents         int      `json:"priceInCents"`
	DurationWeeks      int      `json:"durationWeeks"`
	LocationID         string   `json:"locationId"`
	LocationName       string   `json:"locationName"`
	LocationAddress    string   `json:"locationAddress,omitempty"`
	LocationCity       string   `json:"locationCity,omitempty"`
	LocationRating     *float64 `json:"locationRating,omitempty"`
	CoachID            string   `json:"coachId,omitempty"`
	CoachName          string   `json:"coachName"`
	CoachRating        *float64 `json:"coachRating,omitempty"`
	SessionRating      *float64 `json:"sessionRating,omitempty"`
	DayOfWeek          string   `json:"dayOfWeek"`
	DayIndex           int      `json:"dayIndex"`
	StartTime          string   `json:"startTime"`
	StartDate          string   `json:"startDate"`
	EndDate            string   `json:"endDate"`
	Capacity           int      `json:"capacity"`
	Enrolled           int      `json:"enrolledCount"`
	SpotsRemaining     int      `json:"spotsRemaining"`
}

// Normalizer converts raw catalog sessions into SessionViews, attaching
// averaged review ratings in one batched lookup per result set.
type Normalizer struct {
	ratings *catalog.RatingService
}

// NewNormalizer builds a normalizer over the catalog's rating aggregation.
func NewNormalizer(ratings *catalog.RatingService) *Normalizer {
	return &Normalizer{ratings: ratings}
}

// Views normalizes a result set. A ratings lookup failure degrades to views
// without session ratings rather than failing the whole response.
func (n *Normalizer) Views(ctx context.Context, sessions []catalog.Session) []SessionView {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}

	var ratings map[string]float64
	if n.ratings != nil && len(ids) > 0 {
		if r, err := n.ratings.SessionRatings(ctx, ids); err == nil {
			ratings = r
		}
	}

	out := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		var rating *float64
		if r, ok := ratings[s.ID]; ok {
			value := r
			rating = &value
		}
		out = append(out, View(s, rating))
	}
	return out
}

// View flattens one session. The session rating, if known, is supplied by
// the caller so batch lookups stay batched.
func View(s catalog.Session, sessionRating *float64) SessionView {
	v := SessionView{
		SessionID:          s.ID,
		ProgramName:        s.Program.Name,
		ProgramDescription: s.Program.Description,
		AgeRange:           s.Program.Ages.String(),
		PriceCents:         s.Program.PriceCents,
		DurationWeeks:      s.Program.DurationWeeks,
		LocationID:         s.Location.ID,
		LocationName:       s.Location.Name,
		LocationAddress:    s.Location.Address,
		LocationCity:       s.Location.City,
		LocationRating:     s.Location.Rating,
		CoachName:          "TBD",
		SessionRating:      sessionRating,
		DayOfWeek:          DayName(s.DayOfWeek),
		DayIndex:           s.DayOfWeek,
		StartTime:          formatClock12h(s.StartTime),
		StartDate:          formatDate(s.StartDate),
		EndDate:            formatDate(s.EndDate),
		Capacity:           s.Capacity,
		Enrolled:           s.Enrolled,
		SpotsRemaining:     s.SpotsRemaining(),
	}
	if !s.Program.AgesValid {
		v.AgeRange = ""
	}
	if s.Coach != nil {
		v.CoachID = s.Coach.ID
		if s.Coach.Name != "" {
			v.CoachName = s.Coach.Name
		}
		v.CoachRating = s.Coach.Rating
	}
	return v
}

// formatClock12h converts "HH:MM" to "H:MM AM/PM" for display.
func formatClock12h(clock string) string {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return clock
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return clock
	}
	meridiem := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		display = hour - 12
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%s %s", display, parts[1], meridiem)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
