// internal/api/bookings/admission.go
package bookings

import (
	"fmt"
	"time"
)

// AdmissionWindow is how far ahead a slot may be booked. Slots open the
// moment they fall inside [now, now+AdmissionWindow).
const AdmissionWindow = 24 * time.Hour

const slotLayout = "2006-01-02 15:04"

// SlotStart combines a booking date and start time into a wall-clock instant
// in the given location.
func SlotStart(date, startTime string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(slotLayout, date+" "+startTime, loc)
}

// ValidateAdmissionWindow rejects slots already in the past and slots
// starting at or beyond now+AdmissionWindow.
func ValidateAdmissionWindow(slot, now time.Time) error {
	if slot.Before(now) {
		return fmt.Errorf("Cannot book a time slot in the past")
	}
	if !slot.Before(now.Add(AdmissionWindow)) {
		return fmt.Errorf("Bookings can only be made up to 24 hours in advance")
	}
	return nil
}

// SlotFullError reports a capacity rejection with current occupancy so the
// caller can surface it.
type SlotFullError struct {
	Booked   int64
	Capacity int64
}

func (e SlotFullError) Error() string {
	return fmt.Sprintf("Court is full (%d/%d booked)", e.Booked, e.Capacity)
}

// CheckCapacity verifies that admitting requested more participants keeps
// the slot within capacity. booked is the current non-cancelled total.
func CheckCapacity(booked, requested, capacity int64) error {
	if booked+requested > capacity {
		return SlotFullError{Booked: booked, Capacity: capacity}
	}
	return nil
}
