package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubcalendar/internal/domain"
)

func newTestCalendarService(events *fakeEventRepo, invs *fakeInvitationRepo, rsvps *fakeRSVPRepo, notifier *fakeNotifier) domain.CalendarService {
	return NewCalendarService(events, invs, rsvps, notifier, testLogger(), 5*time.Second)
}

func testOrganizer() *domain.User {
	return &domain.User{ID: "org-1", Email: "organizer@jcesports.edu", Username: "organizer", Auth: domain.AuthUser}
}

func validEvent() *domain.Event {
	return &domain.Event{
		Title:     "Scrim Night",
		StartDate: "2026-10-01T18:00:00Z",
		EndDate:   "2026-10-01T21:00:00Z",
		Location:  "Esports Lab",
		IsPublic:  true,
	}
}

func TestCreateEvent(t *testing.T) {
	events := newFakeEventRepo()
	svc := newTestCalendarService(events, newFakeInvitationRepo(), newFakeRSVPRepo(), newFakeNotifier())

	created, err := svc.CreateEvent(context.Background(), validEvent(), testOrganizer())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "org-1", created.OrganizerID)
	assert.Equal(t, "organizer@jcesports.edu", created.OrganizerEmail)
	assert.NotEmpty(t, created.CreatedAt)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Len(t, events.events, 1)
}

func TestCreateEventValidation(t *testing.T) {
	svc := newTestCalendarService(newFakeEventRepo(), newFakeInvitationRepo(), newFakeRSVPRepo(), newFakeNotifier())

	event := validEvent()
	event.Title = ""
	event.EndDate = "2026-10-01T17:00:00Z"

	_, err := svc.CreateEvent(context.Background(), event, testOrganizer())
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Errors, "Title is required")
	assert.Contains(t, validationErr.Errors, "End date must be after start date")
}

func TestCreateEventSanitizesText(t *testing.T) {
	svc := newTestCalendarService(newFakeEventRepo(), newFakeInvitationRepo(), newFakeRSVPRepo(), newFakeNotifier())

	event := validEvent()
	event.Title = "Scrim <script>alert(1)</script> Night"

	created, err := svc.CreateEvent(context.Background(), event, testOrganizer())
	require.NoError(t, err)
	assert.Equal(t, "Scrim scriptalert1script Night", created.Title)
}

func TestGetEventDetailsSummary(t *testing.T) {
	events := newFakeEventRepo()
	invs := newFakeInvitationRepo()
	rsvps := newFakeRSVPRepo()
	svc := newTestCalendarService(events, invs, rsvps, newFakeNotifier())

	created, err := svc.CreateEvent(context.Background(), validEvent(), testOrganizer())
	require.NoError(t, err)
	eventKey := strconv.FormatInt(created.ID, 10)

	for i, email := range []string{"a@jcesports.edu", "b@jcesports.edu", "c@jcesports.edu"} {
		require.NoError(t, invs.Put(context.Background(), &domain.Invitation{
			ID:           "inv-" + strconv.Itoa(i),
			EventID:      eventKey,
			InviteeEmail: email,
			Status:       domain.InvitationStatusDelivered,
		}))
	}
	require.NoError(t, rsvps.Put(context.Background(), &domain.RSVP{
		InvitationID: "inv-0", EventID: eventKey, Response: domain.ResponseAccept,
	}))
	require.NoError(t, rsvps.Put(context.Background(), &domain.RSVP{
		InvitationID: "inv-1", EventID: eventKey, Response: domain.ResponseDecline,
	}))

	details, err := svc.GetEventDetails(context.Background(), created.ID, created.CreatedAt)
	require.NoError(t, err)
	assert.Equal(t, 3, details.TotalInvited)
	assert.Equal(t, 2, details.Summary.Total)
	assert.Equal(t, 1, details.Summary.Accept)
	assert.Equal(t, 1, details.Summary.Decline)
	assert.Equal(t, 0, details.Summary.Maybe)
	assert.Equal(t, 1, details.Summary.NoResponse)
}

func TestGetEventDetailsNotFound(t *testing.T) {
	svc := newTestCalendarService(newFakeEventRepo(), newFakeInvitationRepo(), newFakeRSVPRepo(), newFakeNotifier())

	_, err := svc.GetEventDetails(context.Background(), 42, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateEventForbiddenForNonOrganizer(t *testing.T) {
	events := newFakeEventRepo()
	svc := newTestCalendarService(events, newFakeInvitationRepo(), newFakeRSVPRepo(), newFakeNotifier())

	created, err := svc.CreateEvent(context.Background(), validEvent(), testOrganizer())
	require.NoError(t, err)

	stranger := &domain.User{ID: "other", Email: "other@jcesports.edu", Auth: domain.AuthUser}
	title := "Hijacked"
	_, _, err = svc.UpdateEvent(context.Background(), created.ID, created.CreatedAt, domain.EventUpdate{Title: &title}, stranger)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateEventAdminAllowed(t *testing.T) {
	events := newFakeEventRepo()
	svc := newTestCalendarService(events, newFakeInvitationRepo(), newFakeRSVPRepo(), newFakeNotifier())

	created, err := svc.CreateEvent(context.Background(), validEvent(), testOrganizer())
	require.NoError(t, err)

	admin := &domain.User{ID: "admin-1", Email: "admin@jcesports.edu", Auth: domain.AuthAdmin}
	title := "Scrim Night Finals"
	updated, changes, err := svc.UpdateEvent(context.Background(), created.ID, created.CreatedAt, domain.EventUpdate{Title: &title}, admin)
	require.NoError(t, err)
	assert.Equal(t, "Scrim Night Finals", updated.Title)
	require.Len(t, changes, 1)
	assert.Contains(t, changes[0], "Title changed")
}

func TestUpdateEventNotifiesInvitees(t *testing.T) {
	events := newFakeEventRepo()
	invs := newFakeInvitationRepo()
	notifier := newFakeNotifier()
	svc := newTestCalendarService(events, invs, newFakeRSVPRepo(), notifier)

	created, err := svc.CreateEvent(context.Background(), validEvent(), testOrganizer())
	require.NoError(t, err)
	eventKey := strconv.FormatInt(created.ID, 10)
	require.NoError(t, invs.Put(context.Background(), &domain.Invitation{
		ID: "inv-1", EventID: eventKey, InviteeEmail: "a@jcesports.edu", Status: domain.InvitationStatusDelivered,
	}))

	loc := "Main Gym"
	_, changes, err := svc.UpdateEvent(context.Background(), created.ID, created.CreatedAt, domain.EventUpdate{Location: &loc}, testOrganizer())
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Len(t, notifier.updateNotices, 1)
	assert.Equal(t, []string{"a@jcesports.edu"}, notifier.updateNotices[0])
}

func TestUpdateEventNoChangesNoNotice(t *testing.T) {
	events := newFakeEventRepo()
	notifier := newFakeNotifier()
	svc := newTestCalendarService(events, newFakeInvitationRepo(), newFakeRSVPRepo(), notifier)

	created, err := svc.CreateEvent(context.Background(), validEvent(), testOrganizer())
	require.NoError(t, err)

	_, changes, err := svc.UpdateEvent(context.Background(), created.ID, created.CreatedAt, domain.EventUpdate{}, testOrganizer())
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Empty(t, notifier.updateNotices)
}

func TestDeleteEventCascades(t *testing.T) {
	events := newFakeEventRepo()
	invs := newFakeInvitationRepo()
	rsvps := newFakeRSVPRepo()
	svc := newTestCalendarService(events, invs, rsvps, newFakeNotifier())

	created, err := svc.CreateEvent(context.Background(), validEvent(), testOrganizer())
	require.NoError(t, err)
	eventKey := strconv.FormatInt(created.ID, 10)

	require.NoError(t, invs.Put(context.Background(), &domain.Invitation{
		ID: "inv-1", EventID: eventKey, InviteeEmail: "a@jcesports.edu", Status: domain.InvitationStatusDelivered,
	}))
	require.NoError(t, invs.Put(context.Background(), &domain.Invitation{
		ID: "inv-2", EventID: eventKey, InviteeEmail: "b@jcesports.edu", Status: domain.InvitationStatusDelivered,
	}))
	require.NoError(t, rsvps.Put(context.Background(), &domain.RSVP{
		InvitationID: "inv-1", EventID: eventKey, Response: domain.ResponseAccept,
	}))

	result, err := svc.DeleteEvent(context.Background(), created.ID, created.CreatedAt, testOrganizer())
	require.NoError(t, err)
	assert.Equal(t, 2, result.DeletedInvitations)
	assert.Equal(t, 1, result.DeletedRSVPs)

	assert.Empty(t, events.events)
	remaining, _ := invs.ListByEventID(context.Background(), eventKey)
	assert.Empty(t, remaining)
	remainingRSVPs, _ := rsvps.ListByEventID(context.Background(), eventKey)
	assert.Empty(t, remainingRSVPs)
}

func TestDeleteEventForbidden(t *testing.T) {
	events := newFakeEventRepo()
	svc := newTestCalendarService(events, newFakeInvitationRepo(), newFakeRSVPRepo(), newFakeNotifier())

	created, err := svc.CreateEvent(context.Background(), validEvent(), testOrganizer())
	require.NoError(t, err)

	stranger := &domain.User{ID: "other", Email: "other@jcesports.edu", Auth: domain.AuthUser}
	_, err = svc.DeleteEvent(context.Background(), created.ID, created.CreatedAt, stranger)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Len(t, events.events, 1)
}

func TestListEventsFiltersPrivateAndSorts(t *testing.T) {
	events := newFakeEventRepo()
	svc := newTestCalendarService(events, newFakeInvitationRepo(), newFakeRSVPRepo(), newFakeNotifier())

	later := validEvent()
	later.ID = 2
	later.StartDate = "2026-11-01T18:00:00Z"
	later.EndDate = "2026-11-01T21:00:00Z"
	_, err := svc.CreateEvent(context.Background(), later, testOrganizer())
	require.NoError(t, err)

	earlier := validEvent()
	earlier.ID = 1
	_, err = svc.CreateEvent(context.Background(), earlier, testOrganizer())
	require.NoError(t, err)

	private := validEvent()
	private.ID = 3
	private.IsPublic = false
	_, err = svc.CreateEvent(context.Background(), private, testOrganizer())
	require.NoError(t, err)

	public, err := svc.ListEvents(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, int64(1), public[0].ID)
	assert.Equal(t, int64(2), public[1].ID)

	all, err := svc.ListEvents(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListEventsMissingTableIsEmpty(t *testing.T) {
	events := newFakeEventRepo()
	events.tableMissing = true
	svc := newTestCalendarService(events, newFakeInvitationRepo(), newFakeRSVPRepo(), newFakeNotifier())

	list, err := svc.ListEvents(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCalendarFeedFallbackSignal(t *testing.T) {
	events := newFakeEventRepo()
	svc := newTestCalendarService(events, newFakeInvitationRepo(), newFakeRSVPRepo(), newFakeNotifier())

	entries, fallback, err := svc.CalendarFeed(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, fallback)
	assert.Empty(t, entries)

	_, err = svc.CreateEvent(context.Background(), validEvent(), testOrganizer())
	require.NoError(t, err)

	entries, fallback, err = svc.CalendarFeed(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, fallback)
	require.Len(t, entries, 1)
	assert.Equal(t, "Scrim Night", entries[0].Title)
	assert.True(t, entries[0].ExtendedProps.IsPublic)
}

func TestUpcomingEventsLimit(t *testing.T) {
	events := newFakeEventRepo()
	svc := newTestCalendarService(events, newFakeInvitationRepo(), newFakeRSVPRepo(), newFakeNotifier())

	for i := int64(1); i <= 4; i++ {
		e := validEvent()
		e.ID = i
		e.StartDate = time.Now().Add(time.Duration(i) * 24 * time.Hour).UTC().Format(time.RFC3339)
		e.EndDate = time.Now().Add(time.Duration(i)*24*time.Hour + 2*time.Hour).UTC().Format(time.RFC3339)
		_, err := svc.CreateEvent(context.Background(), e, testOrganizer())
		require.NoError(t, err)
	}
	past := validEvent()
	past.ID = 99
	past.StartDate = "2020-01-01T18:00:00Z"
	past.EndDate = "2020-01-01T20:00:00Z"
	_, err := svc.CreateEvent(context.Background(), past, testOrganizer())
	require.NoError(t, err)

	upcoming, err := svc.UpcomingEvents(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, upcoming, 3)
	for _, e := range upcoming {
		assert.True(t, e.IsUpcoming())
	}
}
