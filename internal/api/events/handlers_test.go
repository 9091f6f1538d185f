package events

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/campusrec/sportsarena/internal/api/authz"
	"github.com/campusrec/sportsarena/internal/db"
	"github.com/campusrec/sportsarena/internal/testutil"
)

func setupEventsTest(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)

	queries = nil
	queriesOnce = sync.Once{}
	InitHandlers(database)

	t.Cleanup(func() {
		queries = nil
		queriesOnce = sync.Once{}
	})

	return database
}

func withRole(req *http.Request, role string) *http.Request {
	p := &authz.Principal{UserID: 1, Name: "Sam", Role: role}
	return req.WithContext(authz.ContextWithPrincipal(req.Context(), p))
}

func postEvent(role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	if role != "" {
		req = withRole(req, role)
	}
	recorder := httptest.NewRecorder()
	HandleEventCreate(recorder, req)
	return recorder
}

const validEventBody = `{
	"title": "Spring Badminton Open",
	"description": "Annual doubles tournament",
	"sport": "badminton",
	"date": "2099-04-12",
	"startTime": "09:00",
	"endTime": "17:00",
	"location": "Main Hall",
	"maxParticipants": 32
}`

func TestHandleEventCreate_RequiresStaff(t *testing.T) {
	setupEventsTest(t)

	recorder := postEvent("", validEventBody)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", recorder.Code)
	}

	recorder = postEvent("student", validEventBody)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("status: %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Unauthorized. Staff access required.") {
		t.Fatalf("body: %s", recorder.Body.String())
	}
}

func TestHandleEventCreate_Success(t *testing.T) {
	setupEventsTest(t)

	recorder := postEvent("staff", validEventBody)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	var event struct {
		ID              int64  `json:"id"`
		Title           string `json:"title"`
		Description     string `json:"description"`
		MaxParticipants int64  `json:"maxParticipants"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &event); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if event.ID == 0 || event.Title != "Spring Badminton Open" {
		t.Fatalf("event: %+v", event)
	}
	if event.Description != "Annual doubles tournament" || event.MaxParticipants != 32 {
		t.Fatalf("nullable fields not surfaced: %+v", event)
	}
}

func TestHandleEventCreate_EndBeforeStart(t *testing.T) {
	setupEventsTest(t)

	body := `{
		"title": "Backwards",
		"sport": "squash",
		"date": "2099-04-12",
		"startTime": "10:00",
		"endTime": "09:00",
		"location": "Court A"
	}`
	recorder := postEvent("staff", body)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "End time must be after start time") {
		t.Fatalf("body: %s", recorder.Body.String())
	}
}

func createEvent(t *testing.T, body string) int64 {
	t.Helper()

	recorder := postEvent("staff", body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create event: %d %s", recorder.Code, recorder.Body.String())
	}
	var event struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &event); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return event.ID
}

func TestHandleEventsList_MonthFilter(t *testing.T) {
	setupEventsTest(t)

	createEvent(t, `{"title": "April Event", "sport": "squash", "date": "2099-04-12",
		"startTime": "09:00", "endTime": "10:00", "location": "Court A"}`)
	createEvent(t, `{"title": "May Event", "sport": "squash", "date": "2099-05-02",
		"startTime": "09:00", "endTime": "10:00", "location": "Court A"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?month=4&year=2099", nil)
	recorder := httptest.NewRecorder()
	HandleEventsList(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	var list []struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(list) != 1 || list[0].Title != "April Event" {
		t.Fatalf("listing: %+v", list)
	}
}

func TestHandleEventsList_DefaultUpcoming(t *testing.T) {
	setupEventsTest(t)

	createEvent(t, `{"title": "Long Past", "sport": "squash", "date": "2001-01-01",
		"startTime": "09:00", "endTime": "10:00", "location": "Court A"}`)
	createEvent(t, `{"title": "Far Future", "sport": "squash", "date": "2099-01-01",
		"startTime": "09:00", "endTime": "10:00", "location": "Court A"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	recorder := httptest.NewRecorder()
	HandleEventsList(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	var list []struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Far Future" {
		t.Fatalf("listing: %+v", list)
	}
}

func TestHandleEventsList_MonthWithoutYear(t *testing.T) {
	setupEventsTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?month=4", nil)
	recorder := httptest.NewRecorder()
	HandleEventsList(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleEventUpdate(t *testing.T) {
	setupEventsTest(t)
	eventID := createEvent(t, validEventBody)

	body := `{
		"title": "Spring Badminton Open (rescheduled)",
		"sport": "badminton",
		"date": "2099-04-19",
		"startTime": "09:00",
		"endTime": "17:00",
		"location": "Main Hall"
	}`
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/events/%d", eventID), strings.NewReader(body))
	req.SetPathValue("id", fmt.Sprintf("%d", eventID))
	req = withRole(req, "admin")
	recorder := httptest.NewRecorder()
	HandleEventUpdate(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var event struct {
		Date        string  `json:"date"`
		Description *string `json:"description"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &event); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if event.Date != "2099-04-19" {
		t.Fatalf("date: %s", event.Date)
	}
	if event.Description != nil {
		t.Fatalf("description should be cleared, got %q", *event.Description)
	}
}

func TestHandleEventUpdate_NotFound(t *testing.T) {
	setupEventsTest(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/events/999", strings.NewReader(validEventBody))
	req.SetPathValue("id", "999")
	req = withRole(req, "staff")
	recorder := httptest.NewRecorder()
	HandleEventUpdate(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleEventDelete(t *testing.T) {
	setupEventsTest(t)
	eventID := createEvent(t, validEventBody)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/events/%d", eventID), nil)
	req.SetPathValue("id", fmt.Sprintf("%d", eventID))
	req = withRole(req, "staff")
	recorder := httptest.NewRecorder()
	HandleEventDelete(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/events/%d", eventID), nil)
	getReq.SetPathValue("id", fmt.Sprintf("%d", eventID))
	getRecorder := httptest.NewRecorder()
	HandleEventGet(getRecorder, getReq)

	if getRecorder.Code != http.StatusNotFound {
		t.Fatalf("status after delete: %d", getRecorder.Code)
	}
}
