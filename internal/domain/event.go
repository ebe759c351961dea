package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Event represents a schedulable club happening.
// Timestamps are ISO-8601 strings and ID is numeric for interoperability
// with the existing tables; (ID, CreatedAt) is the storage key.
// swagger:model Event
type Event struct {
	ID             int64  `json:"id" dynamodbav:"id"`
	CreatedAt      string `json:"created_at" dynamodbav:"created_at"`
	Title          string `json:"title" dynamodbav:"title"`
	Description    string `json:"description" dynamodbav:"description"`
	StartDate      string `json:"start_date" dynamodbav:"start_date"`
	EndDate        string `json:"end_date" dynamodbav:"end_date"`
	Location       string `json:"location" dynamodbav:"location"`
	OrganizerID    string `json:"organizer_id" dynamodbav:"organizer_id"`
	OrganizerEmail string `json:"organizer_email" dynamodbav:"organizer_email"`
	IsPublic       bool   `json:"is_public" dynamodbav:"is_public"`
	MaxAttendees   int    `json:"max_attendees,omitempty" dynamodbav:"max_attendees,omitempty"`
	UpdatedAt      string `json:"updated_at" dynamodbav:"updated_at"`
}

// Validate returns the list of invariant violations, empty when the event is
// well-formed.
func (e *Event) Validate() []string {
	var errs []string
	if strings.TrimSpace(e.Title) == "" {
		errs = append(errs, "Title is required")
	}
	if e.StartDate == "" {
		errs = append(errs, "Start date is required")
	} else if !IsValidISODate(e.StartDate) {
		errs = append(errs, "Invalid start date format. Use ISO 8601 format")
	}
	if e.EndDate == "" {
		errs = append(errs, "End date is required")
	} else if !IsValidISODate(e.EndDate) {
		errs = append(errs, "Invalid end date format. Use ISO 8601 format")
	}
	if IsValidISODate(e.StartDate) && IsValidISODate(e.EndDate) {
		start, _ := ParseISODate(e.StartDate)
		end, _ := ParseISODate(e.EndDate)
		if !end.After(start) {
			errs = append(errs, "End date must be after start date")
		}
	}
	if e.OrganizerID == "" {
		errs = append(errs, "Organizer ID is required")
	}
	if !IsValidEmail(e.OrganizerEmail) {
		errs = append(errs, "Valid organizer email is required")
	}
	if e.MaxAttendees < 0 {
		errs = append(errs, "Max attendees must be a positive integer")
	}
	return errs
}

// Sanitize strips free-text fields down to the allowed character set.
func (e *Event) Sanitize() {
	e.Title = SanitizeText(e.Title)
	e.Description = SanitizeText(e.Description)
	e.Location = SanitizeText(e.Location)
}

// IsUpcoming reports whether the event starts in the future.
func (e *Event) IsUpcoming() bool {
	start, err := ParseISODate(e.StartDate)
	return err == nil && start.After(time.Now())
}

// IsPast reports whether the event has already ended.
func (e *Event) IsPast() bool {
	end, err := ParseISODate(e.EndDate)
	return err == nil && end.Before(time.Now())
}

// IsActive reports whether the event is currently in progress.
func (e *Event) IsActive() bool {
	start, err := ParseISODate(e.StartDate)
	if err != nil {
		return false
	}
	end, err := ParseISODate(e.EndDate)
	if err != nil {
		return false
	}
	now := time.Now()
	return !start.After(now) && end.After(now)
}

// Duration returns the event length formatted as "2h 30m".
func (e *Event) Duration() string {
	start, err := ParseISODate(e.StartDate)
	if err != nil {
		return ""
	}
	end, err := ParseISODate(e.EndDate)
	if err != nil {
		return ""
	}
	d := end.Sub(start)
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// CalendarEntry is an event projected into the shape the calendar UI consumes.
// swagger:model CalendarEntry
type CalendarEntry struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Start         string             `json:"start"`
	End           string             `json:"end"`
	Description   string             `json:"description,omitempty"`
	Location      string             `json:"location,omitempty"`
	ExtendedProps CalendarEntryProps `json:"extendedProps"`
}

// CalendarEntryProps carries the non-display event attributes on a calendar entry.
type CalendarEntryProps struct {
	OrganizerID    string `json:"organizer_id,omitempty"`
	OrganizerEmail string `json:"organizer_email,omitempty"`
	IsPublic       bool   `json:"is_public"`
	MaxAttendees   int    `json:"max_attendees,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// CalendarEntry converts the event for calendar display.
func (e *Event) CalendarEntry() CalendarEntry {
	return CalendarEntry{
		ID:          strconv.FormatInt(e.ID, 10),
		Title:       e.Title,
		Start:       e.StartDate,
		End:         e.EndDate,
		Description: e.Description,
		Location:    e.Location,
		ExtendedProps: CalendarEntryProps{
			OrganizerID:    e.OrganizerID,
			OrganizerEmail: e.OrganizerEmail,
			IsPublic:       e.IsPublic,
			MaxAttendees:   e.MaxAttendees,
			CreatedAt:      e.CreatedAt,
		},
	}
}

// CanUserManageEvent reports whether the user may mutate the event:
// the organizer or an administrator.
func CanUserManageEvent(event *Event, user *User) bool {
	if event == nil || user == nil {
		return false
	}
	return event.OrganizerID == user.ID || user.IsAdmin()
}

// CanUserViewEvent reports whether the user may see the event:
// public events are visible to everyone, private ones to managers only.
func CanUserViewEvent(event *Event, user *User) bool {
	if event == nil {
		return false
	}
	if event.IsPublic {
		return true
	}
	return CanUserManageEvent(event, user)
}

// EventRepository defines storage operations over the events table.
type EventRepository interface {
	Put(ctx context.Context, event *Event) error
	// Get addresses an event by its full composite key.
	Get(ctx context.Context, id int64, createdAt string) (*Event, error)
	// FindByID locates an event when only the numeric id is available
	// (e.g. from a URL); a linear search, less efficient than Get.
	FindByID(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context) ([]*Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*Event, error)
	Delete(ctx context.Context, id int64, createdAt string) error
}

// EventDetails is an event joined with its invitations, RSVPs, and aggregates.
type EventDetails struct {
	Event        *Event         `json:"event"`
	Invitations  []*Invitation  `json:"invitations"`
	RSVPs        []*RSVP        `json:"rsvps"`
	Summary      RSVPBreakdown  `json:"rsvp_summary"`
	TotalInvited int            `json:"total_invited"`
}

// RSVPBreakdown is the per-event response aggregate shown with event details.
type RSVPBreakdown struct {
	Total      int `json:"total"`
	Accept     int `json:"accept"`
	Maybe      int `json:"maybe"`
	Decline    int `json:"decline"`
	NoResponse int `json:"no_response"`
}

// EventUpdate carries a partial update; nil fields are left unchanged.
type EventUpdate struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Location     *string `json:"location"`
	IsPublic     *bool   `json:"is_public"`
	MaxAttendees *int    `json:"max_attendees"`
}

// CascadeResult reports what a cascading event delete removed.
type CascadeResult struct {
	Message            string `json:"message"`
	DeletedInvitations int    `json:"deleted_invitations"`
	DeletedRSVPs       int    `json:"deleted_rsvps"`
}

// CalendarService owns the event lifecycle.
type CalendarService interface {
	CreateEvent(ctx context.Context, event *Event, organizer *User) (*Event, error)
	GetEventDetails(ctx context.Context, eventID int64, createdAt string) (*EventDetails, error)
	UpdateEvent(ctx context.Context, eventID int64, createdAt string, update EventUpdate, caller *User) (*Event, []string, error)
	DeleteEvent(ctx context.Context, eventID int64, createdAt string, caller *User) (*CascadeResult, error)
	ListEventsByOrganizer(ctx context.Context, organizerID string) ([]*Event, error)
	ListEvents(ctx context.Context, includePrivate bool) ([]*Event, error)
	// CalendarFeed returns display entries and shouldFallback=true when the
	// new-system store has no events, letting the caller substitute the
	// legacy data source.
	CalendarFeed(ctx context.Context, includePrivate bool) ([]CalendarEntry, bool, error)
	UpcomingEvents(ctx context.Context, limit int) ([]*Event, error)
}
