// internal/db/models.go
package db

import (
	"database/sql"
	"time"
)

// Roles stored on users.role.
const (
	RoleStudent = "student"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

// Booking lifecycle states.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Penalty severities and states.
const (
	PenaltySeverityLow    = "low"
	PenaltySeverityMedium = "medium"
	PenaltySeverityHigh   = "high"

	PenaltyStatusActive   = "active"
	PenaltyStatusResolved = "resolved"
)

type User struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        sql.NullString `json:"-"`
	PasswordHash string         `json:"-"`
	Role         string         `json:"role"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// UserSummary is the identity projection attached to bookings and penalties.
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Court struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Sport       string `json:"sport"`
	CourtNumber int64  `json:"courtNumber"`
	MaxCapacity int64  `json:"maxCapacity"`
}

// CourtSummary is the court projection attached to bookings.
type CourtSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Sport string `json:"sport"`
}

// Booking dates are calendar days ("2006-01-02") and times are zero-padded
// wall-clock strings ("15:04"), so lexicographic ordering matches
// chronological ordering.
type Booking struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	CourtID      int64     `json:"courtId"`
	Date         string    `json:"date"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	Participants int64     `json:"participants"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Event struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	Description     sql.NullString `json:"-"`
	Sport           string         `json:"sport"`
	Date            string         `json:"date"`
	StartTime       string         `json:"startTime"`
	EndTime         string         `json:"endTime"`
	Location        string         `json:"location"`
	MaxParticipants sql.NullInt64  `json:"-"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

type Penalty struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"userId"`
	Reason     string       `json:"reason"`
	Severity   string       `json:"severity"`
	Status     string       `json:"status"`
	IssuedDate time.Time    `json:"issuedDate"`
	ExpiresAt  sql.NullTime `json:"-"`
}
