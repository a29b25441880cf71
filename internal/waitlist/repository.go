// Package waitlist records interest in full sessions and reports 1-based
// queue positions.
package waitlist

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EntryStatus is the lifecycle state of a waitlist entry. Only active
// entries count toward positions.
type EntryStatus string

const (
	StatusActive   EntryStatus = "active"
	StatusNotified EntryStatus = "notified"
	StatusExpired  EntryStatus = "expired"
)

// Entry is one family's place in line for a session.
type Entry struct {
	ID        string      `json:"id"`
	OrgID     string      `json:"orgId"`
	SessionID string      `json:"sessionId"`
	ChildRef  string      `json:"childRef"`
	FamilyRef string      `json:"familyRef"`
	Status    EntryStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Repository persists waitlist entries.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repository over the shared database handle.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		panic("waitlist: db handle required")
	}
	return &Repository{db: db}
}

// CountActive returns the number of active entries for a session.
func (r *Repository) CountActive(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM waitlist_entries
		WHERE session_id = $1 AND status = $2`,
		sessionID, StatusActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("waitlist: count active: %w", err)
	}
	return count, nil
}

// Insert writes a new entry and returns it with the stored timestamp.
func (r *Repository) Insert(ctx context.Context, e Entry) (*Entry, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO waitlist_entries (id, org_id, session_id, child_ref, family_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		e.ID, e.OrgID, e.SessionID, e.ChildRef, e.FamilyRef, e.Status).Scan(&e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("waitlist: insert entry: %w", err)
	}
	return &e, nil
}

// ListForSession returns a session's entries in queue order, active first.
func (r *Repository) ListForSession(ctx context.Context, orgID, sessionID string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, org_id, session_id, child_ref, family_ref, status, created_at
		FROM waitlist_entries
		WHERE org_id = $1 AND session_id = $2
		ORDER BY status = 'active' DESC, created_at, id`,
		orgID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("waitlist: list entries: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OrgID, &e.SessionID, &e.ChildRef, &e.FamilyRef, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("waitlist: scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
