package matching

import (
	"testing"
	"time"

	"github.com/Rocketman2178/kairo-platform/internal/catalog"
)

func testSession(mutate ...func(*catalog.Session)) catalog.Session {
	s := catalog.Session{
		ID: "sess-1",
		Program: catalog.Program{
			ID:        "prog-1",
			OrgID:     "org-1",
			Name:      "Mini Soccer",
			Ages:      catalog.AgeRange{Min: 3, Max: 5},
			AgesValid: true,
		},
		Location: catalog.Location{
			ID:   "loc-1",
			Name: "Park A",
			City: "Springfield",
		},
		DayOfWeek: 6,
		StartTime: "09:00",
		StartDate: time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC),
		Capacity:  10,
		Enrolled:  2,
		Status:    catalog.StatusActive,
	}
	for _, m := range mutate {
		m(&s)
	}
	return s
}

func TestCheckEligibilityOrder(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*catalog.Session)
		criteria Criteria
		want     FailReason
	}{
		{
			name:     "all criteria satisfied",
			criteria: Criteria{OrgID: "org-1", ChildAge: 4, RequireOpen: true, ProgramName: "soccer", Days: []int{6}, Time: TimeMorning, City: "spring"},
			want:     FailNone,
		},
		{
			name:     "full reported before wrong age",
			mutate:   func(s *catalog.Session) { s.Enrolled = 10 },
			criteria: Criteria{OrgID: "org-1", ChildAge: 9, RequireOpen: true},
			want:     FailCapacity,
		},
		{
			name:     "wrong org",
			criteria: Criteria{OrgID: "org-2", ChildAge: 4},
			want:     FailOrg,
		},
		{
			name:     "unparsable age range",
			mutate:   func(s *catalog.Session) { s.Program.AgesValid = false },
			criteria: Criteria{OrgID: "org-1", ChildAge: 4},
			want:     FailAgeUnknown,
		},
		{
			name:     "age below minimum",
			criteria: Criteria{OrgID: "org-1", ChildAge: 2},
			want:     FailAge,
		},
		{
			name:     "age at exclusive maximum",
			criteria: Criteria{OrgID: "org-1", ChildAge: 5},
			want:     FailAge,
		},
		{
			name:     "age at inclusive minimum passes",
			criteria: Criteria{OrgID: "org-1", ChildAge: 3},
			want:     FailNone,
		},
		{
			name:     "day not in requested set",
			criteria: Criteria{OrgID: "org-1", Days: []int{1, 3}},
			want:     FailDay,
		},
		{
			name:     "seven day set is no constraint",
			criteria: Criteria{OrgID: "org-1", Days: []int{0, 1, 2, 3, 4, 5, 6}},
			want:     FailNone,
		},
		{
			name:     "program substring is case insensitive",
			criteria: Criteria{OrgID: "org-1", ProgramName: "SOCCER"},
			want:     FailNone,
		},
		{
			name:     "program mismatch",
			criteria: Criteria{OrgID: "org-1", ProgramName: "swim"},
			want:     FailProgram,
		},
		{
			name:     "wrong time bucket",
			criteria: Criteria{OrgID: "org-1", Time: TimeEvening},
			want:     FailTimeOfDay,
		},
		{
			name:     "any time bucket passes",
			criteria: Criteria{OrgID: "org-1", Time: TimeAny},
			want:     FailNone,
		},
		{
			name:     "city substring either direction",
			criteria: Criteria{OrgID: "org-1", City: "Springfield North"},
			want:     FailNone,
		},
		{
			name:     "city mismatch",
			criteria: Criteria{OrgID: "org-1", City: "Shelbyville"},
			want:     FailLocation,
		},
		{
			name:     "city given but session has none passes",
			mutate:   func(s *catalog.Session) { s.Location.City = "" },
			criteria: Criteria{OrgID: "org-1", ChildAge: 4, ProgramName: "soccer", Days: []int{6}, City: "Springfield"},
			want:     FailNone,
		},
		{
			name:     "single-digit start time matches its bucket",
			mutate:   func(s *catalog.Session) { s.StartTime = "9:00" },
			criteria: Criteria{OrgID: "org-1", Time: TimeMorning},
			want:     FailNone,
		},
		{
			name:     "zero age skips age checks",
			mutate:   func(s *catalog.Session) { s.Program.AgesValid = false },
			criteria: Criteria{OrgID: "org-1"},
			want:     FailNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSession()
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			got := CheckEligibility(&s, tt.criteria)
			if got != tt.want {
				t.Errorf("CheckEligibility() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAgeContainmentSweep(t *testing.T) {
	s := testSession()
	for age := 1; age <= 8; age++ {
		want := age >= 3 && age < 5
		got := Eligible(&s, Criteria{OrgID: "org-1", ChildAge: age})
		if got != want {
			t.Errorf("age %d: eligible = %v, want %v", age, got, want)
		}
	}
}

func TestBucketForHour(t *testing.T) {
	tests := []struct {
		hour int
		want TimeOfDay
	}{
		{0, TimeMorning},
		{11, TimeMorning},
		{12, TimeAfternoon},
		{16, TimeAfternoon},
		{17, TimeEvening},
		{23, TimeEvening},
	}
	for _, tt := range tests {
		if got := BucketForHour(tt.hour); got != tt.want {
			t.Errorf("BucketForHour(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}
