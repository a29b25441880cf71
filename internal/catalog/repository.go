package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrSessionNotFound indicates the requested session id does not exist.
var ErrSessionNotFound = errors.New("catalog: session not found")

// Filter narrows a session listing. Zero values mean "no constraint" except
// OrgID, which is always required.
type Filter struct {
	OrgID     string
	Statuses  []SessionStatus
	StartFrom *time.Time // keep sessions starting on or after this date
}

// Repository is the read-only catalog query capability. Implementations must
// return sessions in a stable order (start date, then id) so downstream
// filtering and tie-breaks stay deterministic.
type Repository interface {
	ListSessions(ctx context.Context, filter Filter) ([]Session, error)
	GetSessionByID(ctx context.Context, id string) (*Session, error)
	ListPrograms(ctx context.Context, orgID string) ([]Program, error)
	ListReviewsForSessions(ctx context.Context, sessionIDs []string) ([]Review, error)
}

// InMemoryRepository serves the catalog from memory, mirroring the ordering
// guarantees of the Postgres implementation. Used in tests and local dev.
type InMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	reviews  []Review
}

// NewInMemoryRepository creates an empty in-memory catalog.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sessions: make(map[string]*Session),
	}
}

// AddSession registers a session.
func (r *InMemoryRepository) AddSession(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := s
	r.sessions[s.ID] = &copied
}

// AddReview registers a review.
func (r *InMemoryRepository) AddReview(rev Review) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews = append(r.reviews, rev)
}

// ListSessions returns sessions matching the filter, ordered by start date
// then id.
func (r *InMemoryRepository) ListSessions(ctx context.Context, filter Filter) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Session
	for _, s := range r.sessions {
		if filter.OrgID != "" && s.Program.OrgID != filter.OrgID {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(s.Status, filter.Statuses) {
			continue
		}
		if filter.StartFrom != nil && s.StartDate.Before(*filter.StartFrom) {
			continue
		}
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetSessionByID looks up a single session.
func (r *InMemoryRepository) GetSessionByID(ctx context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

// ListPrograms returns the distinct programs behind an org's sessions.
func (r *InMemoryRepository) ListPrograms(ctx context.Context, orgID string) ([]Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []Program
	for _, s := range r.sessions {
		if orgID != "" && s.Program.OrgID != orgID {
			continue
		}
		if _, ok := seen[s.Program.ID]; ok {
			continue
		}
		seen[s.Program.ID] = struct{}{}
		out = append(out, s.Program)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListReviewsForSessions returns reviews for the given session ids.
func (r *InMemoryRepository) ListReviewsForSessions(ctx context.Context, sessionIDs []string) ([]Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(sessionIDs))
	for _, id := range sessionIDs {
		wanted[id] = struct{}{}
	}

	var out []Review
	for _, rev := range r.reviews {
		if _, ok := wanted[rev.SessionID]; ok {
			out = append(out, rev)
		}
	}
	return out, nil
}

func statusIn(s SessionStatus, set []SessionStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}
