// internal/db/penalties.go
package db

import (
	"context"
	"database/sql"
	"time"
)

const penaltyColumns = `id, user_id, reason, severity, status, issued_date, expires_at`

func scanPenalty(row *sql.Row) (Penalty, error) {
	var p Penalty
	err := row.Scan(&p.ID, &p.UserID, &p.Reason, &p.Severity, &p.Status, &p.IssuedDate, &p.ExpiresAt)
	return p, err
}

type CreatePenaltyParams struct {
	UserID    int64
	Reason    string
	Severity  string
	Status    string
	ExpiresAt sql.NullTime
}

func (q *Queries) CreatePenalty(ctx context.Context, arg CreatePenaltyParams) (Penalty, error) {
	const query = `INSERT INTO penalties (user_id, reason, severity, status, expires_at) VALUES (?, ?, ?, ?, ?)`
	result, err := q.db.ExecContext(ctx, query, arg.UserID, arg.Reason, arg.Severity, arg.Status, arg.ExpiresAt)
	if err != nil {
		return Penalty{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Penalty{}, err
	}
	return q.GetPenalty(ctx, id)
}

func (q *Queries) GetPenalty(ctx context.Context, id int64) (Penalty, error) {
	const query = `SELECT ` + penaltyColumns + ` FROM penalties WHERE id = ?`
	return scanPenalty(q.db.QueryRowContext(ctx, query, id))
}

type UpdatePenaltyStatusParams struct {
	ID     int64
	Status string
}

func (q *Queries) UpdatePenaltyStatus(ctx context.Context, arg UpdatePenaltyStatusParams) (Penalty, error) {
	const query = `UPDATE penalties SET status = ? WHERE id = ?`
	result, err := q.db.ExecContext(ctx, query, arg.Status, arg.ID)
	if err != nil {
		return Penalty{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Penalty{}, err
	}
	if affected == 0 {
		return Penalty{}, sql.ErrNoRows
	}
	return q.GetPenalty(ctx, arg.ID)
}

func (q *Queries) ListPenaltiesForUser(ctx context.Context, userID int64) ([]Penalty, error) {
	const query = `SELECT ` + penaltyColumns + ` FROM penalties WHERE user_id = ? ORDER BY issued_date DESC`
	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var penalties []Penalty
	for rows.Next() {
		var p Penalty
		if err := rows.Scan(&p.ID, &p.UserID, &p.Reason, &p.Severity, &p.Status, &p.IssuedDate, &p.ExpiresAt); err != nil {
			return nil, err
		}
		penalties = append(penalties, p)
	}
	return penalties, rows.Err()
}

// PenaltyWithUser joins a penalty with the penalized user's identity for
// staff listings.
type PenaltyWithUser struct {
	Penalty
	User UserSummary `json:"user"`
}

func (q *Queries) ListAllPenalties(ctx context.Context) ([]PenaltyWithUser, error) {
	const query = `SELECT p.id, p.user_id, p.reason, p.severity, p.status, p.issued_date, p.expires_at,
       u.id, u.name, u.email
FROM penalties p
JOIN users u ON u.id = p.user_id
ORDER BY p.issued_date DESC`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var penalties []PenaltyWithUser
	for rows.Next() {
		var p PenaltyWithUser
		if err := rows.Scan(&p.ID, &p.UserID, &p.Reason, &p.Severity, &p.Status, &p.IssuedDate, &p.ExpiresAt,
			&p.User.ID, &p.User.Name, &p.User.Email); err != nil {
			return nil, err
		}
		penalties = append(penalties, p)
	}
	return penalties, rows.Err()
}

// ResolveExpiredPenalties flips active penalties whose expiry has passed to
// resolved and returns the number of rows changed.
func (q *Queries) ResolveExpiredPenalties(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE penalties SET status = 'resolved'
WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at <= ?`
	result, err := q.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
