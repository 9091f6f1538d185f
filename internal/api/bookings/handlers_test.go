package bookings

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campusrec/sportsarena/internal/api/authz"
	"github.com/campusrec/sportsarena/internal/db"
	"github.com/campusrec/sportsarena/internal/testutil"
)

const squashCourtID = 6 // seeded with max_capacity 2

func setupBookingsTest(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)

	queries = nil
	store = nil
	sender = nil
	queriesOnce = sync.Once{}
	InitHandlers(database, nil)

	t.Cleanup(func() {
		queries = nil
		store = nil
		sender = nil
		queriesOnce = sync.Once{}
	})

	return database
}

func insertUser(t *testing.T, database *db.DB, name, role string) int64 {
	t.Helper()

	result, err := database.ExecContext(context.Background(),
		"INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)",
		name,
		strings.ToLower(name)+"@campus.edu",
		"x",
		role,
	)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	return id
}

func withPrincipal(req *http.Request, id int64, role string) *http.Request {
	p := &authz.Principal{UserID: id, Name: fmt.Sprintf("user-%d", id), Role: role}
	return req.WithContext(authz.ContextWithPrincipal(req.Context(), p))
}

// slotWithinWindow returns a slot a couple of hours out that does not cross
// midnight, so date and clock fields stay consistent.
func slotWithinWindow() (date, start, end string) {
	s := time.Now().Add(2 * time.Hour).Truncate(time.Minute)
	e := s.Add(30 * time.Minute)
	if e.Day() != s.Day() {
		s = s.Add(time.Hour)
		e = s.Add(30 * time.Minute)
	}
	return s.Format("2006-01-02"), s.Format("15:04"), e.Format("15:04")
}

func createBookingRequestBody(courtID int64, date, start, end string, participants int64) string {
	return fmt.Sprintf(
		`{"courtId": %d, "date": %q, "startTime": %q, "endTime": %q, "participants": %d}`,
		courtID, date, start, end, participants,
	)
}

func doCreateBooking(userID int64, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req = withPrincipal(req, userID, "student")
	recorder := httptest.NewRecorder()
	HandleBookingCreate(recorder, req)
	return recorder
}

func errorMessage(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()

	var payload map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload["error"]
}

func TestHandleBookingCreate_Success(t *testing.T) {
	database := setupBookingsTest(t)
	userID := insertUser(t, database, "Alice", "student")

	date, start, end := slotWithinWindow()
	recorder := doCreateBooking(userID, createBookingRequestBody(squashCourtID, date, start, end, 1))

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	var payload struct {
		Message string `json:"message"`
		Booking struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
			Court  struct {
				Sport string `json:"sport"`
			} `json:"court"`
		} `json:"booking"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Booking.ID == 0 {
		t.Fatalf("missing booking id")
	}
	if payload.Booking.Status != db.BookingStatusConfirmed {
		t.Fatalf("status: %s", payload.Booking.Status)
	}
	if payload.Booking.Court.Sport != "squash" {
		t.Fatalf("court sport: %s", payload.Booking.Court.Sport)
	}
}

func TestHandleBookingCreate_Unauthenticated(t *testing.T) {
	setupBookingsTest(t)

	date, start, end := slotWithinWindow()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings",
		strings.NewReader(createBookingRequestBody(squashCourtID, date, start, end, 1)))
	recorder := httptest.NewRecorder()
	HandleBookingCreate(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleBookingCreate_PastSlot(t *testing.T) {
	database := setupBookingsTest(t)
	userID := insertUser(t, database, "Alice", "student")

	past := time.Now().Add(-2 * time.Hour).Truncate(time.Minute)
	body := createBookingRequestBody(squashCourtID,
		past.Format("2006-01-02"), past.Format("15:04"), past.Add(30*time.Minute).Format("15:04"), 1)
	recorder := doCreateBooking(userID, body)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
	if msg := errorMessage(t, recorder); msg != "Cannot book a time slot in the past" {
		t.Fatalf("message: %s", msg)
	}
}

func TestHandleBookingCreate_TooFarAhead(t *testing.T) {
	database := setupBookingsTest(t)
	userID := insertUser(t, database, "Alice", "student")

	far := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
	body := createBookingRequestBody(squashCourtID,
		far.Format("2006-01-02"), far.Format("15:04"), far.Add(30*time.Minute).Format("15:04"), 1)
	recorder := doCreateBooking(userID, body)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
	if msg := errorMessage(t, recorder); msg != "Bookings can only be made up to 24 hours in advance" {
		t.Fatalf("message: %s", msg)
	}
}

func TestHandleBookingCreate_CourtFull(t *testing.T) {
	database := setupBookingsTest(t)
	first := insertUser(t, database, "Alice", "student")
	second := insertUser(t, database, "Bob", "student")

	date, start, end := slotWithinWindow()
	if rec := doCreateBooking(first, createBookingRequestBody(squashCourtID, date, start, end, 2)); rec.Code != http.StatusCreated {
		t.Fatalf("seed booking: %d %s", rec.Code, rec.Body.String())
	}

	recorder := doCreateBooking(second, createBookingRequestBody(squashCourtID, date, start, end, 1))
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
	if msg := errorMessage(t, recorder); msg != "Court is full (2/2 booked)" {
		t.Fatalf("message: %s", msg)
	}
}

func TestHandleBookingCreate_DuplicateSlot(t *testing.T) {
	database := setupBookingsTest(t)
	userID := insertUser(t, database, "Alice", "student")

	date, start, end := slotWithinWindow()
	body := createBookingRequestBody(1, date, start, end, 1)
	if rec := doCreateBooking(userID, body); rec.Code != http.StatusCreated {
		t.Fatalf("seed booking: %d", rec.Code)
	}

	recorder := doCreateBooking(userID, body)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
	if msg := errorMessage(t, recorder); msg != "You already have a booking for this time slot" {
		t.Fatalf("message: %s", msg)
	}
}

func TestHandleBookingCreate_RebookAfterCancel(t *testing.T) {
	database := setupBookingsTest(t)
	userID := insertUser(t, database, "Alice", "student")

	date, start, end := slotWithinWindow()
	body := createBookingRequestBody(1, date, start, end, 1)
	first := doCreateBooking(userID, body)
	if first.Code != http.StatusCreated {
		t.Fatalf("seed booking: %d", first.Code)
	}
	var payload struct {
		Booking struct {
			ID int64 `json:"id"`
		} `json:"booking"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if rec := patchBooking(payload.Booking.ID, userID, "student", `{"status": "cancelled"}`); rec.Code != http.StatusOK {
		t.Fatalf("cancel: %d %s", rec.Code, rec.Body.String())
	}

	// The cancelled row stays behind; it must not block taking the same
	// slot again.
	recorder := doCreateBooking(userID, body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("rebook status: %d body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestHandleBookingCreate_EndBeforeStart(t *testing.T) {
	database := setupBookingsTest(t)
	userID := insertUser(t, database, "Alice", "student")

	date, start, _ := slotWithinWindow()
	recorder := doCreateBooking(userID, createBookingRequestBody(squashCourtID, date, start, start, 1))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
	if msg := errorMessage(t, recorder); msg != "End time must be after start time" {
		t.Fatalf("message: %s", msg)
	}
}

func TestHandleBookingCreate_CourtNotFound(t *testing.T) {
	database := setupBookingsTest(t)
	userID := insertUser(t, database, "Alice", "student")

	date, start, end := slotWithinWindow()
	recorder := doCreateBooking(userID, createBookingRequestBody(999, date, start, end, 1))

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func createConfirmedBooking(t *testing.T, userID int64) int64 {
	t.Helper()

	date, start, end := slotWithinWindow()
	recorder := doCreateBooking(userID, createBookingRequestBody(squashCourtID, date, start, end, 1))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create booking: %d %s", recorder.Code, recorder.Body.String())
	}
	var payload struct {
		Booking struct {
			ID int64 `json:"id"`
		} `json:"booking"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return payload.Booking.ID
}

func patchBooking(bookingID, actorID int64, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/api/v1/bookings/%d", bookingID), strings.NewReader(body))
	req.SetPathValue("id", fmt.Sprintf("%d", bookingID))
	req = withPrincipal(req, actorID, role)
	recorder := httptest.NewRecorder()
	HandleBookingUpdate(recorder, req)
	return recorder
}

func TestHandleBookingUpdate_OwnerCancels(t *testing.T) {
	database := setupBookingsTest(t)
	userID := insertUser(t, database, "Alice", "student")
	bookingID := createConfirmedBooking(t, userID)

	recorder := patchBooking(bookingID, userID, "student", `{"status": "cancelled"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	var booking db.Booking
	if err := json.Unmarshal(recorder.Body.Bytes(), &booking); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if booking.Status != db.BookingStatusCancelled {
		t.Fatalf("status: %s", booking.Status)
	}
}

func TestHandleBookingUpdate_NonOwnerForbidden(t *testing.T) {
	database := setupBookingsTest(t)
	owner := insertUser(t, database, "Alice", "student")
	other := insertUser(t, database, "Bob", "student")
	bookingID := createConfirmedBooking(t, owner)

	recorder := patchBooking(bookingID, other, "student", `{"status": "cancelled"}`)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("status: %d", recorder.Code)
	}
	if msg := errorMessage(t, recorder); msg != "Unauthorized to modify this booking" {
		t.Fatalf("message: %s", msg)
	}
}

func TestHandleBookingUpdate_StaffMayCancel(t *testing.T) {
	database := setupBookingsTest(t)
	owner := insertUser(t, database, "Alice", "student")
	staffID := insertUser(t, database, "Sam", "staff")
	bookingID := createConfirmedBooking(t, owner)

	recorder := patchBooking(bookingID, staffID, "staff", `{"status": "cancelled"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestHandleBookingUpdate_AlreadyCancelled(t *testing.T) {
	database := setupBookingsTest(t)
	userID := insertUser(t, database, "Alice", "student")
	bookingID := createConfirmedBooking(t, userID)

	if rec := patchBooking(bookingID, userID, "student", `{"status": "cancelled"}`); rec.Code != http.StatusOK {
		t.Fatalf("first cancel: %d", rec.Code)
	}

	recorder := patchBooking(bookingID, userID, "student", `{"status": "cancelled"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
	if msg := errorMessage(t, recorder); msg != "Only confirmed bookings can be modified" {
		t.Fatalf("message: %s", msg)
	}
}

func TestHandleBookingUpdate_RejectsOtherStatuses(t *testing.T) {
	database := setupBookingsTest(t)
	userID := insertUser(t, database, "Alice", "student")
	bookingID := createConfirmedBooking(t, userID)

	recorder := patchBooking(bookingID, userID, "student", `{"status": "completed"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleBookingDelete(t *testing.T) {
	database := setupBookingsTest(t)
	userID := insertUser(t, database, "Alice", "student")
	bookingID := createConfirmedBooking(t, userID)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/bookings/%d", bookingID), nil)
	req.SetPathValue("id", fmt.Sprintf("%d", bookingID))
	req = withPrincipal(req, userID, "student")
	recorder := httptest.NewRecorder()
	HandleBookingDelete(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	if msg := recorder.Body.String(); !strings.Contains(msg, "Booking deleted successfully") {
		t.Fatalf("body: %s", msg)
	}

	if _, err := database.Queries.GetBooking(context.Background(), bookingID); err == nil {
		t.Fatalf("booking still present")
	}
}

func TestHandleBookingsList_OwnOnly(t *testing.T) {
	database := setupBookingsTest(t)
	alice := insertUser(t, database, "Alice", "student")
	bob := insertUser(t, database, "Bob", "student")
	createConfirmedBooking(t, alice)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req = withPrincipal(req, bob, "student")
	recorder := httptest.NewRecorder()
	HandleBookingsList(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	var list []db.BookingWithCourt
	if err := json.Unmarshal(recorder.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no bookings, got %d", len(list))
	}
}

func TestHandleBookingsList_CrossUserRequiresStaff(t *testing.T) {
	database := setupBookingsTest(t)
	alice := insertUser(t, database, "Alice", "student")
	bob := insertUser(t, database, "Bob", "student")
	createConfirmedBooking(t, alice)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/bookings?userId=%d", alice), nil)
	req = withPrincipal(req, bob, "student")
	recorder := httptest.NewRecorder()
	HandleBookingsList(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleBookingsAll_DateProjectionHidesIdentity(t *testing.T) {
	database := setupBookingsTest(t)
	alice := insertUser(t, database, "Alice", "student")
	bookingID := createConfirmedBooking(t, alice)

	booking, err := database.Queries.GetBooking(context.Background(), bookingID)
	if err != nil {
		t.Fatalf("load booking: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/all?date="+booking.Date, nil)
	recorder := httptest.NewRecorder()
	HandleBookingsAll(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	if body := recorder.Body.String(); strings.Contains(body, "userId") || strings.Contains(body, "Alice") {
		t.Fatalf("identity leaked: %s", body)
	}

	var slots []db.SlotOccupancy
	if err := json.Unmarshal(recorder.Body.Bytes(), &slots); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
}

func TestHandleBookingsAll_FullListingRequiresStaff(t *testing.T) {
	database := setupBookingsTest(t)
	alice := insertUser(t, database, "Alice", "student")
	createConfirmedBooking(t, alice)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/all", nil)
	req = withPrincipal(req, alice, "student")
	recorder := httptest.NewRecorder()
	HandleBookingsAll(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("status: %d", recorder.Code)
	}

	staffID := insertUser(t, database, "Sam", "staff")
	req = httptest.NewRequest(http.MethodGet, "/api/v1/bookings/all", nil)
	req = withPrincipal(req, staffID, "staff")
	recorder = httptest.NewRecorder()
	HandleBookingsAll(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	var list []db.BookingAdminRow
	if err := json.Unmarshal(recorder.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(list) != 1 || list[0].User.Name != "Alice" {
		t.Fatalf("unexpected listing: %+v", list)
	}
}
