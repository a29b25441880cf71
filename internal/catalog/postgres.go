package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository serves the catalog from the relational database.
type PostgresRepository struct {
	q      pgxQuerier
	logger *logging.Logger
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool, logger *logging.Logger) *PostgresRepository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresRepository{q: pool, logger: logger}
}

// NewPostgresRepositoryWithQuerier allows injecting mocks for tests.
func NewPostgresRepositoryWithQuerier(q pgxQuerier, logger *logging.Logger) *PostgresRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresRepository{q: q, logger: logger}
}

const sessionColumns = `
	s.id, s.day_of_week, s.start_time, s.start_date, s.end_date,
	s.capacity, s.enrolled, s.status,
	p.id, p.org_id, p.name, p.description, p.age_range, p.price_cents, p.duration_weeks,
	l.id, l.name, l.address, l.city, l.rating,
	c.id, c.name, c.rating`

const sessionJoins = `
	FROM sessions s
	JOIN programs p ON p.id = s.program_id
	JOIN locations l ON l.id = s.location_id
	LEFT JOIN coaches c ON c.id = s.coach_id`

// ListSessions returns sessions for an org ordered by start date then id.
// The ORDER BY is a contract: search results and scorer tie-breaks rely on it.
func (r *PostgresRepository) ListSessions(ctx context.Context, filter Filter) ([]Session, error) {
	query := `SELECT ` + sessionColumns + sessionJoins + `
	WHERE p.org_id = $1`
	args := []any{filter.OrgID}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		query += fmt.Sprintf(" AND s.status = ANY($%d)", len(args))
	}
	if filter.StartFrom != nil {
		args = append(args, *filter.StartFrom)
		query += fmt.Sprintf(" AND s.start_date >= $%d", len(args))
	}
	query += " ORDER BY s.start_date, s.id"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := r.scanSession(rows)
		if err != nil {
			// One bad row must not sink the whole listing.
			r.logger.Error("skipping malformed session row", "error", err)
			continue
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list sessions: %w", err)
	}
	return out, nil
}

// GetSessionByID fetches a single session with its joined program/location/coach.
func (r *PostgresRepository) GetSessionByID(ctx context.Context, id string) (*Session, error) {
	query := `SELECT ` + sessionColumns + sessionJoins + `
	WHERE s.id = $1`

	rows, err := r.q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("catalog: get session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("catalog: get session: %w", err)
		}
		return nil, ErrSessionNotFound
	}
	return r.scanSession(rows)
}

// ListPrograms returns the org's program offerings ordered by name.
func (r *PostgresRepository) ListPrograms(ctx context.Context, orgID string) ([]Program, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, org_id, name, description, age_range, price_cents, duration_weeks
		FROM programs
		WHERE org_id = $1
		ORDER BY name`, orgID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list programs: %w", err)
	}
	defer rows.Close()

	var out []Program
	for rows.Next() {
		var p Program
		var agesRaw string
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Name, &p.Description, &agesRaw, &p.PriceCents, &p.DurationWeeks); err != nil {
			return nil, fmt.Errorf("catalog: scan program: %w", err)
		}
		p.Ages, p.AgesValid = parseAges(agesRaw, r.logger, p.ID)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListReviewsForSessions returns all reviews for the given session ids in one
// round trip.
func (r *PostgresRepository) ListReviewsForSessions(ctx context.Context, sessionIDs []string) ([]Review, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, session_id, rating, COALESCE(comment, '')
		FROM reviews
		WHERE session_id = ANY($1)`, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("catalog: list reviews: %w", err)
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.SessionID, &rev.Rating, &rev.Comment); err != nil {
			return nil, fmt.Errorf("catalog: scan review: %w", err)
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) scanSession(rows pgx.Rows) (*Session, error) {
	var (
		s           Session
		startDate   time.Time
		endDate     time.Time
		agesRaw     string
		coachID     *string
		coachName   *string
		coachRating *float64
	)
	if err := rows.Scan(
		&s.ID, &s.DayOfWeek, &s.StartTime, &startDate, &endDate,
		&s.Capacity, &s.Enrolled, &s.Status,
		&s.Program.ID, &s.Program.OrgID, &s.Program.Name, &s.Program.Description,
		&agesRaw, &s.Program.PriceCents, &s.Program.DurationWeeks,
		&s.Location.ID, &s.Location.Name, &s.Location.Address, &s.Location.City, &s.Location.Rating,
		&coachID, &coachName, &coachRating,
	); err != nil {
		return nil, fmt.Errorf("catalog: scan session: %w", err)
	}
	s.StartDate = startDate
	s.EndDate = endDate
	s.Program.Ages, s.Program.AgesValid = parseAges(agesRaw, r.logger, s.Program.ID)
	if coachID != nil {
		s.Coach = &Coach{ID: *coachID, Rating: coachRating}
		if coachName != nil {
			s.Coach.Name = *coachName
		}
	}
	return &s, nil
}

func parseAges(raw string, logger *logging.Logger, programID string) (AgeRange, bool) {
	ages, err := ParseAgeRange(raw)
	if err != nil {
		logger.Warn("program has unparsable age range", "program_id", programID, "raw", raw)
		return AgeRange{}, false
	}
	return ages, true
}
