package matching

import (
	"context"
	"testing"
	"time"

	"github.com/Rocketman2178/kairo-platform/internal/catalog"
)

func TestDaysAdjacent(t *testing.T) {
	tests := []struct {
		a, b int
		want bool
	}{
		{5, 6, true},
		{6, 5, true},
		{0, 6, true}, // week wraps, Sunday and Saturday are neighbors
		{6, 0, true},
		{3, 3, false},
		{2, 4, false},
	}
	for _, tt := range tests {
		if got := daysAdjacent(tt.a, tt.b); got != tt.want {
			t.Errorf("daysAdjacent(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestClassifyCategories(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*catalog.Session)
		primaryDay int
		wantTime   TimeOfDay
		locationID string
		category   AlternativeCategory
		score      float64
	}{
		{
			name:       "adjacent day matching bucket",
			mutate:     func(s *catalog.Session) { s.DayOfWeek = 5 },
			primaryDay: 6,
			wantTime:   TimeMorning,
			category:   CategoryAdjacentDay,
			score:      90,
		},
		{
			name:       "adjacent day no bucket given",
			mutate:     func(s *catalog.Session) { s.DayOfWeek = 0 },
			primaryDay: 6,
			category:   CategoryAdjacentDay,
			score:      90,
		},
		{
			name:       "adjacent day wrong bucket falls through",
			mutate:     func(s *catalog.Session) { s.DayOfWeek = 5; s.StartTime = "18:00" },
			primaryDay: 6,
			wantTime:   TimeMorning,
			category:   CategorySimilarProgram,
			score:      50,
		},
		{
			name:       "same day different time",
			mutate:     func(s *catalog.Session) { s.StartTime = "18:00" },
			primaryDay: 6,
			wantTime:   TimeMorning,
			category:   CategoryAlternativeTime,
			score:      85,
		},
		{
			name:       "same day different location",
			mutate:     func(s *catalog.Session) { s.Location.ID = "loc-2" },
			primaryDay: 6,
			locationID: "loc-1",
			category:   CategoryAlternativeLocation,
			score:      80,
		},
		{
			name:       "same day same everything stays residual",
			primaryDay: 6,
			wantTime:   TimeMorning,
			locationID: "loc-1",
			category:   CategorySimilarProgram,
			score:      50,
		},
		{
			name:     "no primary day",
			category: CategorySimilarProgram,
			score:    50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSession()
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			primary := tt.primaryDay
			if tt.name == "no primary day" {
				primary = -1
			}
			category, score := classify(&s, primary, tt.wantTime, tt.locationID)
			if category != tt.category || score != tt.score {
				t.Errorf("classify() = (%q, %v), want (%q, %v)", category, score, tt.category, tt.score)
			}
		})
	}
}

func TestScoreAlternativesRanking(t *testing.T) {
	repo := catalog.NewInMemoryRepository()
	rating := 4.8
	// Adjacent-day Friday session with a rated coach and a quiet roster.
	repo.AddSession(testSession(func(s *catalog.Session) {
		s.ID = "sess-fri"
		s.DayOfWeek = 5
		s.Coach = &catalog.Coach{ID: "coach-1", Name: "Dana", Rating: &rating}
		s.Enrolled = 1
	}))
	// Same-day evening session, busy roster.
	repo.AddSession(testSession(func(s *catalog.Session) {
		s.ID = "sess-sat-eve"
		s.StartTime = "18:00"
		s.Enrolled = 8
	}))
	// Same program, unrelated Tuesday.
	repo.AddSession(testSession(func(s *catalog.Session) {
		s.ID = "sess-tue"
		s.DayOfWeek = 2
		s.StartTime = "18:00"
		s.Enrolled = 8
	}))
	// The full requested session must be gated out, not scored.
	repo.AddSession(testSession(func(s *catalog.Session) {
		s.ID = "sess-requested"
		s.Enrolled = 10
		s.Status = catalog.StatusFull
	}))
	engine := newTestEngine(t, repo)

	got, err := engine.ScoreAlternatives(context.Background(), AlternativeRequest{
		OrgID:      "org-1",
		ChildAge:   4,
		Program:    "soccer",
		Days:       []int{6},
		Time:       TimeMorning,
		LocationID: "loc-1",
	})
	if err != nil {
		t.Fatalf("ScoreAlternatives() error: %v", err)
	}
	if len(got.Alternatives) != 3 {
		t.Fatalf("got %d alternatives, want 3", len(got.Alternatives))
	}
	if got.RecommendWaitlist {
		t.Error("recommendWaitlist should be false with three alternatives")
	}

	first := got.Alternatives[0]
	if first.Session.SessionID != "sess-fri" || first.Category != CategoryAdjacentDay {
		t.Errorf("top = %s/%s, want sess-fri/adjacent_day", first.Session.SessionID, first.Category)
	}
	// 90 base + 4.8 coach + 5 low fill.
	if first.Score != 99.8 {
		t.Errorf("top score = %v, want 99.8", first.Score)
	}

	second := got.Alternatives[1]
	if second.Session.SessionID != "sess-sat-eve" || second.Category != CategoryAlternativeTime || second.Score != 85 {
		t.Errorf("second = %s/%s/%v, want sess-sat-eve/alternative_time/85", second.Session.SessionID, second.Category, second.Score)
	}

	third := got.Alternatives[2]
	if third.Session.SessionID != "sess-tue" || third.Category != CategorySimilarProgram || third.Score != 50 {
		t.Errorf("third = %s/%s/%v, want sess-tue/similar_program/50", third.Session.SessionID, third.Category, third.Score)
	}

	for _, alt := range got.Alternatives {
		if alt.Session.SessionID == "sess-requested" {
			t.Error("full requested session leaked into alternatives")
		}
	}
}

func TestScoreMonotonicityCoachBonus(t *testing.T) {
	repo := catalog.NewInMemoryRepository()
	rating := 5.0
	repo.AddSession(testSession(func(s *catalog.Session) {
		s.ID = "sess-plain"
		s.DayOfWeek = 2
		s.Enrolled = 8
	}))
	repo.AddSession(testSession(func(s *catalog.Session) {
		s.ID = "sess-rated"
		s.DayOfWeek = 2
		s.Enrolled = 8
		s.Coach = &catalog.Coach{ID: "coach-1", Name: "Dana", Rating: &rating}
		s.StartDate = s.StartDate.AddDate(0, 0, 3)
	}))
	engine := newTestEngine(t, repo)

	got, err := engine.ScoreAlternatives(context.Background(), AlternativeRequest{
		OrgID:    "org-1",
		ChildAge: 4,
		Program:  "soccer",
		Days:     []int{6},
	})
	if err != nil {
		t.Fatalf("ScoreAlternatives() error: %v", err)
	}
	scores := map[string]float64{}
	for _, alt := range got.Alternatives {
		scores[alt.Session.SessionID] = alt.Score
	}
	if scores["sess-rated"] != scores["sess-plain"]+maxCoachRatingBonus {
		t.Errorf("rated = %v, plain = %v, want a +%v coach bonus", scores["sess-rated"], scores["sess-plain"], maxCoachRatingBonus)
	}
	if scores["sess-rated"] < scores["sess-plain"] {
		t.Error("coach rating must never decrease a score")
	}
}

func TestScoreAlternativesRecommendsWaitlistWhenSparse(t *testing.T) {
	repo := catalog.NewInMemoryRepository()
	repo.AddSession(testSession(func(s *catalog.Session) {
		s.ID = "sess-only"
		s.DayOfWeek = 2
	}))
	engine := newTestEngine(t, repo)

	got, err := engine.ScoreAlternatives(context.Background(), AlternativeRequest{
		OrgID:    "org-1",
		ChildAge: 4,
		Program:  "soccer",
		Days:     []int{6},
	})
	if err != nil {
		t.Fatalf("ScoreAlternatives() error: %v", err)
	}
	if len(got.Alternatives) != 1 {
		t.Fatalf("got %d alternatives, want 1", len(got.Alternatives))
	}
	if !got.RecommendWaitlist {
		t.Error("fewer than two alternatives must recommend the waitlist")
	}
}

func TestScoreAlternativesStableTieBreak(t *testing.T) {
	repo := catalog.NewInMemoryRepository()
	base := time.Date(2026, 10, 6, 0, 0, 0, 0, time.UTC)
	// Three identical-score Tuesday sessions distinguished only by catalog order.
	for i, id := range []string{"sess-t1", "sess-t2", "sess-t3"} {
		start := base.AddDate(0, 0, 7*i)
		repo.AddSession(testSession(func(s *catalog.Session) {
			s.ID = id
			s.DayOfWeek = 2
			s.StartDate = start
			s.Enrolled = 8
		}))
	}
	engine := newTestEngine(t, repo)

	got, err := engine.ScoreAlternatives(context.Background(), AlternativeRequest{
		OrgID:    "org-1",
		ChildAge: 4,
		Program:  "soccer",
		Days:     []int{6},
	})
	if err != nil {
		t.Fatalf("ScoreAlternatives() error: %v", err)
	}
	want := []string{"sess-t1", "sess-t2", "sess-t3"}
	if len(got.Alternatives) != len(want) {
		t.Fatalf("got %d alternatives, want %d", len(got.Alternatives), len(want))
	}
	for i, w := range want {
		if got.Alternatives[i].Session.SessionID != w {
			t.Errorf("alternatives[%d] = %s, want %s", i, got.Alternatives[i].Session.SessionID, w)
		}
	}
}
