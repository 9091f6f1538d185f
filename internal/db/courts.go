// internal/db/courts.go
package db

import "context"

const courtColumns = `id, name, sport, court_number, max_capacity`

func (q *Queries) GetCourt(ctx context.Context, id int64) (Court, error) {
	const query = `SELECT ` + courtColumns + ` FROM courts WHERE id = ?`
	var c Court
	err := q.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Sport, &c.CourtNumber, &c.MaxCapacity)
	return c, err
}

// ListCourts returns the court catalog, optionally filtered by sport.
// An empty sport returns every court.
func (q *Queries) ListCourts(ctx context.Context, sport string) ([]Court, error) {
	query := `SELECT ` + courtColumns + ` FROM courts`
	args := []any{}
	if sport != "" {
		query += ` WHERE sport = ?`
		args = append(args, sport)
	}
	query += ` ORDER BY sport, court_number`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		var c Court
		if err := rows.Scan(&c.ID, &c.Name, &c.Sport, &c.CourtNumber, &c.MaxCapacity); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}
