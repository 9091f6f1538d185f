// internal/db/bookings.go
package db

import (
	"context"
	"database/sql"
)

const bookingColumns = `id, user_id, court_id, date, start_time, end_time, participants, status, created_at, updated_at`

func scanBooking(row *sql.Row) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.UserID, &b.CourtID, &b.Date, &b.StartTime, &b.EndTime,
		&b.Participants, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

type CreateBookingParams struct {
	UserID       int64
	CourtID      int64
	Date         string
	StartTime    string
	EndTime      string
	Participants int64
	Status       string
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	const query = `INSERT INTO bookings (user_id, court_id, date, start_time, end_time, participants, status)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := q.db.ExecContext(ctx, query,
		arg.UserID, arg.CourtID, arg.Date, arg.StartTime, arg.EndTime, arg.Participants, arg.Status)
	if err != nil {
		return Booking{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Booking{}, err
	}
	return q.GetBooking(ctx, id)
}

func (q *Queries) GetBooking(ctx context.Context, id int64) (Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	return scanBooking(q.db.QueryRowContext(ctx, query, id))
}

type UpdateBookingStatusParams struct {
	ID     int64
	Status string
}

func (q *Queries) UpdateBookingStatus(ctx context.Context, arg UpdateBookingStatusParams) (Booking, error) {
	const query = `UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := q.db.ExecContext(ctx, query, arg.Status, arg.ID); err != nil {
		return Booking{}, err
	}
	return q.GetBooking(ctx, arg.ID)
}

func (q *Queries) DeleteBooking(ctx context.Context, id int64) error {
	const query = `DELETE FROM bookings WHERE id = ?`
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

// SlotParams identifies a bookable interval on one court.
type SlotParams struct {
	CourtID   int64
	Date      string
	StartTime string
}

// SumSlotParticipants totals participants across non-cancelled bookings for
// a slot. Run inside a transaction together with the insert that depends on
// the result.
func (q *Queries) SumSlotParticipants(ctx context.Context, arg SlotParams) (int64, error) {
	const query = `SELECT COALESCE(SUM(participants), 0) FROM bookings
WHERE court_id = ? AND date = ? AND start_time = ? AND status != 'cancelled'`
	var total int64
	err := q.db.QueryRowContext(ctx, query, arg.CourtID, arg.Date, arg.StartTime).Scan(&total)
	return total, err
}

type UserSlotParams struct {
	UserID    int64
	CourtID   int64
	Date      string
	StartTime string
}

// UserHasSlotBooking reports whether the user already holds a non-cancelled
// booking for the slot.
func (q *Queries) UserHasSlotBooking(ctx context.Context, arg UserSlotParams) (bool, error) {
	const query = `SELECT COUNT(1) FROM bookings
WHERE user_id = ? AND court_id = ? AND date = ? AND start_time = ? AND status != 'cancelled'`
	var count int64
	err := q.db.QueryRowContext(ctx, query, arg.UserID, arg.CourtID, arg.Date, arg.StartTime).Scan(&count)
	return count > 0, err
}

// BookingWithCourt is a booking joined with its court summary, returned by
// the self-service history listing.
type BookingWithCourt struct {
	Booking
	Court CourtSummary `json:"court"`
}

func (q *Queries) ListBookingsForUser(ctx context.Context, userID int64) ([]BookingWithCourt, error) {
	const query = `SELECT b.` + bookingColumnsQualified + `,
       c.id, c.name, c.sport
FROM bookings b
JOIN courts c ON c.id = b.court_id
WHERE b.user_id = ?
ORDER BY b.date DESC, b.start_time DESC`
	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []BookingWithCourt
	for rows.Next() {
		var b BookingWithCourt
		if err := rows.Scan(&b.ID, &b.UserID, &b.CourtID, &b.Date, &b.StartTime, &b.EndTime,
			&b.Participants, &b.Status, &b.CreatedAt, &b.UpdatedAt,
			&b.Court.ID, &b.Court.Name, &b.Court.Sport); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// BookingAdminRow extends a booking with user identity for staff listings.
type BookingAdminRow struct {
	Booking
	User  UserSummary  `json:"user"`
	Court CourtSummary `json:"court"`
}

func (q *Queries) ListAllBookings(ctx context.Context) ([]BookingAdminRow, error) {
	const query = `SELECT b.` + bookingColumnsQualified + `,
       u.id, u.name, u.email,
       c.id, c.name, c.sport
FROM bookings b
JOIN users u ON u.id = b.user_id
JOIN courts c ON c.id = b.court_id
ORDER BY b.date DESC, b.start_time DESC`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []BookingAdminRow
	for rows.Next() {
		var b BookingAdminRow
		if err := rows.Scan(&b.ID, &b.UserID, &b.CourtID, &b.Date, &b.StartTime, &b.EndTime,
			&b.Participants, &b.Status, &b.CreatedAt, &b.UpdatedAt,
			&b.User.ID, &b.User.Name, &b.User.Email,
			&b.Court.ID, &b.Court.Name, &b.Court.Sport); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// SlotOccupancy is the public per-date projection: enough to draw an
// occupancy grid without exposing who holds the slot.
type SlotOccupancy struct {
	CourtID      int64  `json:"courtId"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Participants int64  `json:"participants"`
}

func (q *Queries) ListSlotOccupancyByDate(ctx context.Context, date string) ([]SlotOccupancy, error) {
	const query = `SELECT court_id, date, start_time, end_time, participants
FROM bookings
WHERE date = ? AND status != 'cancelled'
ORDER BY court_id, start_time`
	rows, err := q.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []SlotOccupancy
	for rows.Next() {
		var s SlotOccupancy
		if err := rows.Scan(&s.CourtID, &s.Date, &s.StartTime, &s.EndTime, &s.Participants); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

type CourtDateParams struct {
	CourtID int64
	Date    string
}

// ListConfirmedBookingsForCourtDate feeds the court catalog's per-date
// booking annotation.
func (q *Queries) ListConfirmedBookingsForCourtDate(ctx context.Context, arg CourtDateParams) ([]Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings
WHERE court_id = ? AND date = ? AND status = 'confirmed'
ORDER BY start_time`
	rows, err := q.db.QueryContext(ctx, query, arg.CourtID, arg.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.CourtID, &b.Date, &b.StartTime, &b.EndTime,
			&b.Participants, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

type CompleteElapsedBookingsParams struct {
	Today   string
	NowTime string
}

// CompleteElapsedBookings marks confirmed bookings whose end time has passed
// as completed and returns the number of rows changed.
func (q *Queries) CompleteElapsedBookings(ctx context.Context, arg CompleteElapsedBookingsParams) (int64, error) {
	const query = `UPDATE bookings SET status = 'completed', updated_at = CURRENT_TIMESTAMP
WHERE status = 'confirmed' AND (date < ? OR (date = ? AND end_time <= ?))`
	result, err := q.db.ExecContext(ctx, query, arg.Today, arg.Today, arg.NowTime)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const bookingColumnsQualified = `id, b.user_id, b.court_id, b.date, b.start_time, b.end_time, b.participants, b.status, b.created_at, b.updated_at`
