// Package matching implements the session-matching core: eligibility
// filtering, exact-request resolution, bounded search, broader fallback,
// and alternative scoring over the activity catalog.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/Rocketman2178/kairo-platform/internal/catalog"
	"github.com/Rocketman2178/kairo-platform/internal/observability/metrics"
	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

// Engine runs the matching pipeline against the catalog. It is stateless
// between calls and safe for concurrent use.
type Engine struct {
	catalog    catalog.Repository
	normalizer *Normalizer
	logger     *logging.Logger
	metrics    *metrics.MatchingMetrics

	now func() time.Time

	maxMatches      int
	maxBroader      int
	maxAlternatives int
}

// Option customizes Engine construction.
type Option func(*Engine)

// WithClock overrides the engine clock, used by tests to pin "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLimits overrides the result-set bounds.
func WithLimits(matches, broader, alternatives int) Option {
	return func(e *Engine) {
		e.maxMatches = matches
		e.maxBroader = broader
		e.maxAlternatives = alternatives
	}
}

// WithMetrics attaches search observability counters.
func WithMetrics(m *metrics.MatchingMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine builds the matching engine. Panics if repo, normalizer, or
// logger is nil since the engine cannot run without them.
func NewEngine(repo catalog.Repository, normalizer *Normalizer, logger *logging.Logger, opts ...Option) *Engine {
	if repo == nil {
		panic("matching: catalog repository is required")
	}
	if normalizer == nil {
		panic("matching: normalizer is required")
	}
	if logger == nil {
		panic("matching: logger is required")
	}
	e := &Engine{
		catalog:         repo,
		normalizer:      normalizer,
		logger:          logger,
		now:             time.Now,
		maxMatches:      3,
		maxBroader:      5,
		maxAlternatives: 3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// today truncates the engine clock to midnight UTC so "future or today"
// comparisons ignore the time of day.
func (e *Engine) today() time.Time {
	y, m, d := e.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (e *Engine) listBookable(ctx context.Context, orgID string) ([]catalog.Session, error) {
	start := e.today()
	sessions, err := e.catalog.ListSessions(ctx, catalog.Filter{
		OrgID:     orgID,
		Statuses:  []catalog.SessionStatus{catalog.StatusActive},
		StartFrom: &start,
	})
	if err != nil {
		return nil, fmt.Errorf("matching: list sessions: %w", err)
	}
	return sessions, nil
}
