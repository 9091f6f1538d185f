package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	appdb "github.com/campusrec/sportsarena/internal/db"
)

const notificationTimeout = 5 * time.Second

// Notification is a rendered message ready for delivery.
type Notification struct {
	Subject string
	Body    string
}

// BookingConfirmation renders the email sent after a successful booking.
func BookingConfirmation(booking appdb.Booking, court appdb.Court) Notification {
	return Notification{
		Subject: "Booking confirmed: " + court.Name,
		Body: fmt.Sprintf(
			"Your booking is confirmed.\n\nCourt: %s\nDate: %s\nTime: %s - %s\nParticipants: %d\n",
			court.Name, booking.Date, booking.StartTime, booking.EndTime, booking.Participants),
	}
}

// BookingCancellation renders the email sent when staff cancel a booking.
// reason may be empty for no-show cancellations.
func BookingCancellation(booking appdb.Booking, court appdb.Court, reason string) Notification {
	body := fmt.Sprintf(
		"Your booking has been cancelled by facility staff.\n\nCourt: %s\nDate: %s\nTime: %s - %s\n",
		court.Name, booking.Date, booking.StartTime, booking.EndTime)
	if reason != "" {
		body += "Reason: " + reason + "\n"
	}
	return Notification{
		Subject: "Booking cancelled: " + court.Name,
		Body:    body,
	}
}

// SendNotification delivers a notification to the user's email address
// asynchronously. A nil sender disables delivery.
func SendNotification(ctx context.Context, q *appdb.Queries, sender Sender, userID int64, n Notification, logger *zerolog.Logger) {
	if sender == nil || q == nil {
		return
	}
	if n.Subject == "" || n.Body == "" {
		return
	}

	user, err := q.GetUserByID(ctx, userID)
	if err != nil {
		if logger != nil {
			logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user for notification email")
		}
		return
	}
	recipient := strings.TrimSpace(user.Email)
	if recipient == "" {
		return
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		if err := sender.Send(sendCtx, recipient, n.Subject, n.Body); err != nil && logger != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send notification email")
		}
	}()
}
