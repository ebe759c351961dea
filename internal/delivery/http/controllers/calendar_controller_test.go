package controllers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubcalendar/internal/delivery/http/middleware"
	"clubcalendar/internal/domain"
)

// fakeCalendarService implements domain.CalendarService with canned results.
type fakeCalendarService struct {
	createResult *domain.Event
	createErr    error
	lastCreated  *domain.Event

	details    *domain.EventDetails
	detailsErr error

	updateResult  *domain.Event
	updateChanges []string
	updateErr     error
	lastUpdate    domain.EventUpdate

	deleteResult *domain.CascadeResult
	deleteErr    error

	events             []*domain.Event
	eventsErr          error
	lastIncludePrivate bool

	feedEntries  []domain.CalendarEntry
	feedFallback bool
	feedErr      error
}

func (f *fakeCalendarService) CreateEvent(ctx context.Context, event *domain.Event, organizer *domain.User) (*domain.Event, error) {
	f.lastCreated = event
	return f.createResult, f.createErr
}

func (f *fakeCalendarService) GetEventDetails(ctx context.Context, eventID int64, createdAt string) (*domain.EventDetails, error) {
	return f.details, f.detailsErr
}

func (f *fakeCalendarService) UpdateEvent(ctx context.Context, eventID int64, createdAt string, update domain.EventUpdate, caller *domain.User) (*domain.Event, []string, error) {
	f.lastUpdate = update
	return f.updateResult, f.updateChanges, f.updateErr
}

func (f *fakeCalendarService) DeleteEvent(ctx context.Context, eventID int64, createdAt string, caller *domain.User) (*domain.CascadeResult, error) {
	return f.deleteResult, f.deleteErr
}

func (f *fakeCalendarService) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	return f.events, f.eventsErr
}

func (f *fakeCalendarService) ListEvents(ctx context.Context, includePrivate bool) ([]*domain.Event, error) {
	f.lastIncludePrivate = includePrivate
	return f.events, f.eventsErr
}

func (f *fakeCalendarService) CalendarFeed(ctx context.Context, includePrivate bool) ([]domain.CalendarEntry, bool, error) {
	return f.feedEntries, f.feedFallback, f.feedErr
}

func (f *fakeCalendarService) UpcomingEvents(ctx context.Context, limit int) ([]*domain.Event, error) {
	if limit > 0 && limit < len(f.events) {
		return f.events[:limit], f.eventsErr
	}
	return f.events, f.eventsErr
}

// fakeLegacyRepo implements domain.LegacyCalendarRepository.
type fakeLegacyRepo struct {
	entries []domain.LegacyCalendarEntry
	err     error
	called  bool
}

func (f *fakeLegacyRepo) ListEntries(ctx context.Context) ([]domain.LegacyCalendarEntry, error) {
	f.called = true
	return f.entries, f.err
}

func TestCreateEvent(t *testing.T) {
	svc := &fakeCalendarService{createResult: &domain.Event{ID: 1001, Title: "Scrim Night"}}
	c := NewCalendarController(testLogger, svc, nil)

	body := `{"title":"Scrim Night","start_date":"2026-10-01T18:00:00Z","end_date":"2026-10-01T21:00:00Z","location":"Esports Lab"}`
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	c.CreateEvent(rec, authedRequest(req))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.lastCreated)
	assert.True(t, svc.lastCreated.IsPublic, "is_public defaults to true when omitted")
}

func TestCreateEventPrivateFlag(t *testing.T) {
	svc := &fakeCalendarService{createResult: &domain.Event{ID: 1001}}
	c := NewCalendarController(testLogger, svc, nil)

	body := `{"title":"Board Meeting","start_date":"2026-10-01T18:00:00Z","end_date":"2026-10-01T19:00:00Z","is_public":false}`
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	c.CreateEvent(rec, authedRequest(req))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, svc.lastCreated.IsPublic)
}

func TestCreateEventMissingFields(t *testing.T) {
	c := NewCalendarController(testLogger, &fakeCalendarService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(`{"title":"No Dates"}`))
	rec := httptest.NewRecorder()

	c.CreateEvent(rec, authedRequest(req))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "start_date is required")
}

func TestCreateEventUnauthenticated(t *testing.T) {
	c := NewCalendarController(testLogger, &fakeCalendarService{}, nil)

	body := `{"title":"Scrim Night","start_date":"2026-10-01T18:00:00Z","end_date":"2026-10-01T21:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	c.CreateEvent(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetEventDetailsNotFound(t *testing.T) {
	c := NewCalendarController(testLogger, &fakeCalendarService{detailsErr: domain.ErrNotFound}, nil)

	req := httptest.NewRequest(http.MethodGet, "/events/9999", nil)
	req.SetPathValue("eventID", "9999")
	rec := httptest.NewRecorder()

	c.GetEventDetails(rec, authedRequest(req))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEventDetailsBadID(t *testing.T) {
	c := NewCalendarController(testLogger, &fakeCalendarService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/events/abc", nil)
	req.SetPathValue("eventID", "abc")
	rec := httptest.NewRecorder()

	c.GetEventDetails(rec, authedRequest(req))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid event ID")
}

func TestUpdateEventForbidden(t *testing.T) {
	c := NewCalendarController(testLogger, &fakeCalendarService{updateErr: domain.ErrForbidden}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/events/1001", bytes.NewBufferString(`{"title":"New Title"}`))
	req.SetPathValue("eventID", "1001")
	rec := httptest.NewRecorder()

	c.UpdateEvent(rec, authedRequest(req))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateEventReturnsChanges(t *testing.T) {
	svc := &fakeCalendarService{
		updateResult:  &domain.Event{ID: 1001, Title: "New Title"},
		updateChanges: []string{"Title changed to New Title"},
	}
	c := NewCalendarController(testLogger, svc, nil)

	req := httptest.NewRequest(http.MethodPatch, "/events/1001", bytes.NewBufferString(`{"title":"New Title"}`))
	req.SetPathValue("eventID", "1001")
	rec := httptest.NewRecorder()

	c.UpdateEvent(rec, authedRequest(req))
	assert.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "event")
	assert.Contains(t, data, "changes")
}

func TestDeleteEvent(t *testing.T) {
	svc := &fakeCalendarService{deleteResult: &domain.CascadeResult{Message: "event deleted", DeletedInvitations: 2, DeletedRSVPs: 1}}
	c := NewCalendarController(testLogger, svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/events/1001", nil)
	req.SetPathValue("eventID", "1001")
	rec := httptest.NewRecorder()

	c.DeleteEvent(rec, authedRequest(req))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListEventsAdminSeesPrivate(t *testing.T) {
	svc := &fakeCalendarService{}
	c := NewCalendarController(testLogger, svc, nil)

	admin := &domain.User{ID: "admin-1", Email: "admin@jcesports.edu", Auth: domain.AuthAdmin}
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req = req.WithContext(middleware.SetUser(req.Context(), admin))
	rec := httptest.NewRecorder()

	c.ListEvents(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.lastIncludePrivate)
}

func TestListEventsRegularUserPublicOnly(t *testing.T) {
	svc := &fakeCalendarService{}
	c := NewCalendarController(testLogger, svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()

	c.ListEvents(rec, authedRequest(req))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.lastIncludePrivate)
}

func TestCalendarFeed(t *testing.T) {
	svc := &fakeCalendarService{feedEntries: []domain.CalendarEntry{{ID: "1001", Title: "Scrim Night"}}}
	c := NewCalendarController(testLogger, svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/calendar", nil)
	rec := httptest.NewRecorder()

	c.CalendarFeed(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scrim Night")
}

func TestCalendarFeedLegacyFallback(t *testing.T) {
	svc := &fakeCalendarService{feedFallback: true}
	legacy := &fakeLegacyRepo{entries: []domain.LegacyCalendarEntry{
		{ID: "legacy-1", Title: "Fall Kickoff", Start: "2025-09-01T18:00:00Z", End: "2025-09-01T20:00:00Z"},
	}}
	c := NewCalendarController(testLogger, svc, legacy)

	req := httptest.NewRequest(http.MethodGet, "/calendar", nil)
	rec := httptest.NewRecorder()

	c.CalendarFeed(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, legacy.called)
	assert.Contains(t, rec.Body.String(), "Fall Kickoff")
}

func TestCalendarFeedLegacyErrorFallsThrough(t *testing.T) {
	// A broken legacy store should not break the feed.
	svc := &fakeCalendarService{feedFallback: true, feedEntries: []domain.CalendarEntry{}}
	legacy := &fakeLegacyRepo{err: errors.New("connection refused")}
	c := NewCalendarController(testLogger, svc, legacy)

	req := httptest.NewRequest(http.MethodGet, "/calendar", nil)
	rec := httptest.NewRecorder()

	c.CalendarFeed(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, legacy.called)
}

func TestUpcomingEventsLimitQuery(t *testing.T) {
	svc := &fakeCalendarService{events: []*domain.Event{
		{ID: 1, Title: "First"},
		{ID: 2, Title: "Second"},
		{ID: 3, Title: "Third"},
	}}
	c := NewCalendarController(testLogger, svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/calendar/upcoming?limit=2", nil)
	rec := httptest.NewRecorder()

	c.UpcomingEvents(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data, ok := envelope["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 2)
}
