// internal/db/events.go
package db

import (
	"context"
	"database/sql"
)

const eventColumns = `id, title, description, sport, date, start_time, end_time, location, max_participants, created_at, updated_at`

func scanEvent(row *sql.Row) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Sport, &e.Date, &e.StartTime, &e.EndTime,
		&e.Location, &e.MaxParticipants, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

type CreateEventParams struct {
	Title           string
	Description     sql.NullString
	Sport           string
	Date            string
	StartTime       string
	EndTime         string
	Location        string
	MaxParticipants sql.NullInt64
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	const query = `INSERT INTO events (title, description, sport, date, start_time, end_time, location, max_participants)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := q.db.ExecContext(ctx, query, arg.Title, arg.Description, arg.Sport, arg.Date,
		arg.StartTime, arg.EndTime, arg.Location, arg.MaxParticipants)
	if err != nil {
		return Event{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Event{}, err
	}
	return q.GetEvent(ctx, id)
}

func (q *Queries) GetEvent(ctx context.Context, id int64) (Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return scanEvent(q.db.QueryRowContext(ctx, query, id))
}

type UpdateEventParams struct {
	ID              int64
	Title           string
	Description     sql.NullString
	Sport           string
	Date            string
	StartTime       string
	EndTime         string
	Location        string
	MaxParticipants sql.NullInt64
}

func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) (Event, error) {
	const query = `UPDATE events
SET title = ?, description = ?, sport = ?, date = ?, start_time = ?, end_time = ?,
    location = ?, max_participants = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`
	result, err := q.db.ExecContext(ctx, query, arg.Title, arg.Description, arg.Sport, arg.Date,
		arg.StartTime, arg.EndTime, arg.Location, arg.MaxParticipants, arg.ID)
	if err != nil {
		return Event{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Event{}, err
	}
	if affected == 0 {
		return Event{}, sql.ErrNoRows
	}
	return q.GetEvent(ctx, arg.ID)
}

func (q *Queries) DeleteEvent(ctx context.Context, id int64) error {
	const query = `DELETE FROM events WHERE id = ?`
	result, err := q.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListUpcomingEvents returns events on or after fromDate, soonest first.
func (q *Queries) ListUpcomingEvents(ctx context.Context, fromDate string) ([]Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE date >= ? ORDER BY date, start_time`
	return q.listEvents(ctx, query, fromDate)
}

type EventDateRangeParams struct {
	StartDate string
	EndDate   string
}

// ListEventsBetween returns events within [StartDate, EndDate], used by the
// calendar's month view.
func (q *Queries) ListEventsBetween(ctx context.Context, arg EventDateRangeParams) ([]Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE date >= ? AND date <= ? ORDER BY date, start_time`
	return q.listEvents(ctx, query, arg.StartDate, arg.EndDate)
}

func (q *Queries) listEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Sport, &e.Date, &e.StartTime, &e.EndTime,
			&e.Location, &e.MaxParticipants, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
