package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SessionStatus is the lifecycle state of a scheduled session.
type SessionStatus string

const (
	StatusActive   SessionStatus = "active"
	StatusFull     SessionStatus = "full"
	StatusInactive SessionStatus = "inactive"
)

// AgeRange is the inclusive-exclusive [Min,Max) age band of a program.
// It is parsed once when a row is loaded; eligibility checks never touch
// the raw string again.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

var ageRangePattern = regexp.MustCompile(`^\[(\d+)\s*,\s*(\d+)\)$`)

// ParseAgeRange parses the stored "[min,max)" interval notation.
func ParseAgeRange(raw string) (AgeRange, error) {
	m := ageRangePattern.FindStringSubmatch(raw)
	if m == nil {
		return AgeRange{}, fmt.Errorf("catalog: malformed age range %q", raw)
	}
	min, _ := strconv.Atoi(m[1])
	max, _ := strconv.Atoi(m[2])
	if max <= min {
		return AgeRange{}, fmt.Errorf("catalog: empty age range %q", raw)
	}
	return AgeRange{Min: min, Max: max}, nil
}

// Contains reports whether age falls inside [Min,Max).
func (r AgeRange) Contains(age int) bool {
	return age >= r.Min && age < r.Max
}

func (r AgeRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Min, r.Max)
}

// Program is an activity offering.
type Program struct {
	ID            string
	OrgID         string
	Name          string
	Description   string
	Ages          AgeRange
	AgesValid     bool // false when the stored range failed to parse
	PriceCents    int
	DurationWeeks int
}

// Location is a physical venue.
type Location struct {
	ID      string
	Name    string
	Address string
	City    string
	Rating  *float64
}

// Coach is optional staff attached to a session.
type Coach struct {
	ID     string
	Name   string
	Rating *float64
}

// Session is the central schedulable unit: one occurrence of a Program at a
// Location and time, with capacity counters.
type Session struct {
	ID        string
	Program   Program
	Location  Location
	Coach     *Coach
	DayOfWeek int    // 0=Sunday .. 6=Saturday
	StartTime string // 24h "HH:MM"
	StartDate time.Time
	EndDate   time.Time
	Capacity  int
	Enrolled  int
	Status    SessionStatus
}

// SpotsRemaining never reports a negative count even if enrollment
// overshoots capacity.
func (s *Session) SpotsRemaining() int {
	spots := s.Capacity - s.Enrolled
	if spots < 0 {
		return 0
	}
	return spots
}

// FillRate is enrolled/capacity, used as an urgency signal in scoring.
func (s *Session) FillRate() float64 {
	if s.Capacity <= 0 {
		return 1
	}
	return float64(s.Enrolled) / float64(s.Capacity)
}

// Full treats an exhausted capacity counter as full regardless of the stored
// status field, which may lag actual enrollment.
func (s *Session) Full() bool {
	return s.Status == StatusFull || s.SpotsRemaining() <= 0
}

// Available reports whether the session can accept a booking right now.
func (s *Session) Available() bool {
	return s.Status == StatusActive && s.SpotsRemaining() > 0
}

// StartHour returns the 24h start hour, or -1 for a malformed time.
// Both "HH:MM" and single-digit "H:MM" parse.
func (s *Session) StartHour() int {
	hours, _, ok := strings.Cut(s.StartTime, ":")
	if !ok {
		return -1
	}
	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 || h > 23 {
		return -1
	}
	return h
}

// Review is a parent rating attached to a session.
type Review struct {
	ID        string
	SessionID string
	Rating    int // 1..5
	Comment   string
}
