package waitlist

import (
	"context"

	"github.com/google/uuid"

	"github.com/Rocketman2178/kairo-platform/internal/observability/metrics"
	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

// JoinRequest asks for a spot in line. ChildRef and FamilyRef may be empty
// when the family has not identified themselves yet.
type JoinRequest struct {
	OrgID     string
	SessionID string
	ChildRef  string
	FamilyRef string
}

// Confirmation is the outcome of a join. Optimistic means the write failed
// and the position is a best-effort answer rather than a stored fact.
type Confirmation struct {
	Position   int  `json:"position"`
	Optimistic bool `json:"-"`
}

// Service applies the position rule on top of the repository: position is
// the count of existing active entries plus one.
type Service struct {
	repo    *Repository
	logger  *logging.Logger
	metrics *metrics.MatchingMetrics
}

// NewService builds the registrar. Panics without a repository or logger.
func NewService(repo *Repository, logger *logging.Logger, m *metrics.MatchingMetrics) *Service {
	if repo == nil {
		panic("waitlist: repository required")
	}
	if logger == nil {
		panic("waitlist: logger required")
	}
	return &Service{repo: repo, logger: logger, metrics: m}
}

// Join places the family in line and returns their 1-based position. A
// storage failure never fails the call: the conversation must be able to
// promise a callback even if the backend is briefly down, so the error is
// logged for operator reconciliation and an optimistic position returned.
func (s *Service) Join(ctx context.Context, req JoinRequest) Confirmation {
	entry := Entry{
		ID:        uuid.NewString(),
		OrgID:     req.OrgID,
		SessionID: req.SessionID,
		ChildRef:  req.ChildRef,
		FamilyRef: req.FamilyRef,
		Status:    StatusActive,
	}
	if entry.ChildRef == "" {
		entry.ChildRef = "anon-child-" + uuid.NewString()
	}
	if entry.FamilyRef == "" {
		entry.FamilyRef = "anon-family-" + uuid.NewString()
	}

	count, err := s.repo.CountActive(ctx, req.SessionID)
	if err != nil {
		s.logger.Error("waitlist join degraded: count failed, confirming optimistically",
			"session_id", req.SessionID,
			"error", err,
		)
		s.metrics.ObserveWaitlistJoin("degraded")
		return Confirmation{Position: 1, Optimistic: true}
	}
	position := count + 1

	if _, err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error("waitlist join degraded: insert failed, confirming optimistically",
			"session_id", req.SessionID,
			"position", position,
			"error", err,
		)
		s.metrics.ObserveWaitlistJoin("degraded")
		return Confirmation{Position: position, Optimistic: true}
	}

	s.logger.Info("waitlist joined",
		"session_id", req.SessionID,
		"position", position,
	)
	s.metrics.ObserveWaitlistJoin("ok")
	return Confirmation{Position: position}
}
