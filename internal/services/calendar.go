package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"clubcalendar/internal/domain"
)

type calendarService struct {
	eventRepo      domain.EventRepository
	invitationRepo domain.InvitationRepository
	rsvpRepo       domain.RSVPRepository
	notifier       domain.NotificationService
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewCalendarService creates a CalendarService with the given repositories
// and notification port.
func NewCalendarService(eventRepo domain.EventRepository,
	invitationRepo domain.InvitationRepository,
	rsvpRepo domain.RSVPRepository,
	notifier domain.NotificationService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.CalendarService {
	return &calendarService{
		eventRepo:      eventRepo,
		invitationRepo: invitationRepo,
		rsvpRepo:       rsvpRepo,
		notifier:       notifier,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// Event ids are numeric for interoperability with existing rows:
// a random component plus the current unix milliseconds.
func newEventID() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		return 0, err
	}
	return n.Int64() + time.Now().UnixMilli(), nil
}

func (s *calendarService) CreateEvent(ctx context.Context, event *domain.Event, organizer *domain.User) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event.OrganizerID = organizer.ID
	event.OrganizerEmail = organizer.Email
	event.CreatedAt = domain.NowISO()
	event.UpdatedAt = event.CreatedAt
	if event.ID == 0 {
		id, err := newEventID()
		if err != nil {
			return nil, fmt.Errorf("generate event id: %w", err)
		}
		event.ID = id
	}

	if errs := event.Validate(); len(errs) > 0 {
		return nil, domain.NewValidationError(errs)
	}
	event.Sanitize()

	if err := s.eventRepo.Put(ctx, event); err != nil {
		return nil, fmt.Errorf("put event: %w", err)
	}
	s.logger.Info("event created", "title", event.Title, "organizer", organizer.Email)
	return event, nil
}

// getEvent looks the event up by full composite key when createdAt is known,
// otherwise falls back to a linear search by id alone.
func (s *calendarService) getEvent(ctx context.Context, eventID int64, createdAt string) (*domain.Event, error) {
	if createdAt == "" {
		return s.eventRepo.FindByID(ctx, eventID)
	}
	return s.eventRepo.Get(ctx, eventID, createdAt)
}

func (s *calendarService) GetEventDetails(ctx context.Context, eventID int64, createdAt string) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID, createdAt)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	eventKey := strconv.FormatInt(event.ID, 10)
	var invitations []*domain.Invitation
	var rsvps []*domain.RSVP
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invitations, err = s.invitationRepo.ListByEventID(gctx, eventKey)
		return err
	})
	g.Go(func() error {
		var err error
		rsvps, err = s.rsvpRepo.ListByEventID(gctx, eventKey)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load event relations: %w", err)
	}
	if invitations == nil {
		invitations = []*domain.Invitation{}
	}
	if rsvps == nil {
		rsvps = []*domain.RSVP{}
	}

	return &domain.EventDetails{
		Event:        event,
		Invitations:  invitations,
		RSVPs:        rsvps,
		Summary:      summarizeRSVPs(rsvps, len(invitations)),
		TotalInvited: len(invitations),
	}, nil
}

// summarizeRSVPs tallies responses; no_response is the invitee count minus
// recorded responses, never negative.
func summarizeRSVPs(rsvps []*domain.RSVP, totalInvited int) domain.RSVPBreakdown {
	summary := domain.RSVPBreakdown{Total: len(rsvps)}
	for _, r := range rsvps {
		switch r.Response {
		case domain.ResponseAccept:
			summary.Accept++
		case domain.ResponseMaybe:
			summary.Maybe++
		case domain.ResponseDecline:
			summary.Decline++
		}
	}
	if n := totalInvited - len(rsvps); n > 0 {
		summary.NoResponse = n
	}
	return summary
}

func (s *calendarService) UpdateEvent(ctx context.Context, eventID int64, createdAt string, update domain.EventUpdate, caller *domain.User) (*domain.Event, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.eventRepo.Get(ctx, eventID, createdAt)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	if !domain.CanUserManageEvent(existing, caller) {
		return nil, nil, domain.ErrForbidden
	}

	updated := *existing
	applyUpdate(&updated, update)
	updated.UpdatedAt = domain.NowISO()

	if errs := updated.Validate(); len(errs) > 0 {
		return nil, nil, domain.NewValidationError(errs)
	}
	updated.Sanitize()

	if err := s.eventRepo.Put(ctx, &updated); err != nil {
		return nil, nil, fmt.Errorf("put event: %w", err)
	}

	changes := identifyChanges(existing, &updated)
	if len(changes) > 0 {
		// Best effort: invitees learn about the change, but a notification
		// failure never fails the update itself.
		s.sendUpdateNotices(ctx, &updated, changes)
	}
	s.logger.Info("event updated", "title", updated.Title, "by", caller.Email, "changes", len(changes))
	return &updated, changes, nil
}

func applyUpdate(event *domain.Event, update domain.EventUpdate) {
	if update.Title != nil {
		event.Title = *update.Title
	}
	if update.Description != nil {
		event.Description = *update.Description
	}
	if update.StartDate != nil {
		event.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		event.EndDate = *update.EndDate
	}
	if update.Location != nil {
		event.Location = *update.Location
	}
	if update.IsPublic != nil {
		event.IsPublic = *update.IsPublic
	}
	if update.MaxAttendees != nil {
		event.MaxAttendees = *update.MaxAttendees
	}
}

func formatDate(iso string) string {
	t, err := domain.ParseISODate(iso)
	if err != nil {
		return iso
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}

func orTBD(location string) string {
	if location == "" {
		return "TBD"
	}
	return location
}

// identifyChanges builds the human-readable diff mailed to invitees.
func identifyChanges(oldEvent, newEvent *domain.Event) []string {
	var changes []string
	if oldEvent.Title != newEvent.Title {
		changes = append(changes, fmt.Sprintf("Title changed from %q to %q", oldEvent.Title, newEvent.Title))
	}
	if oldEvent.StartDate != newEvent.StartDate {
		changes = append(changes, fmt.Sprintf("Start time changed from %s to %s", formatDate(oldEvent.StartDate), formatDate(newEvent.StartDate)))
	}
	if oldEvent.EndDate != newEvent.EndDate {
		changes = append(changes, fmt.Sprintf("End time changed from %s to %s", formatDate(oldEvent.EndDate), formatDate(newEvent.EndDate)))
	}
	if oldEvent.Location != newEvent.Location {
		changes = append(changes, fmt.Sprintf("Location changed from %q to %q", orTBD(oldEvent.Location), orTBD(newEvent.Location)))
	}
	if oldEvent.Description != newEvent.Description {
		changes = append(changes, "Event description updated")
	}
	return changes
}

func (s *calendarService) sendUpdateNotices(ctx context.Context, event *domain.Event, changes []string) {
	invitations, err := s.invitationRepo.ListByEventID(ctx, strconv.FormatInt(event.ID, 10))
	if err != nil {
		s.logger.Error("load invitees for update notice", "event", event.ID, "err", err)
		return
	}
	if len(invitations) == 0 {
		return
	}
	emails := make([]string, 0, len(invitations))
	for _, inv := range invitations {
		emails = append(emails, inv.InviteeEmail)
	}
	s.notifier.SendEventUpdateNotice(ctx, event, changes, emails)
}

func (s *calendarService) DeleteEvent(ctx context.Context, eventID int64, createdAt string, caller *domain.User) (*domain.CascadeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.eventRepo.Get(ctx, eventID, createdAt)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !domain.CanUserManageEvent(existing, caller) {
		return nil, domain.ErrForbidden
	}

	eventKey := strconv.FormatInt(eventID, 10)
	var invitations []*domain.Invitation
	var rsvps []*domain.RSVP
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invitations, err = s.invitationRepo.ListByEventID(gctx, eventKey)
		return err
	})
	g.Go(func() error {
		var err error
		rsvps, err = s.rsvpRepo.ListByEventID(gctx, eventKey)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load event relations: %w", err)
	}

	// The three delete waves are issued together, not parent-last: tables
	// are scanned by event_id, so children orphaned by a mid-cascade crash
	// stay invisible to every read path.
	g, gctx = errgroup.WithContext(ctx)
	for _, rsvp := range rsvps {
		g.Go(func() error {
			return s.rsvpRepo.Delete(gctx, rsvp.InvitationID, rsvp.EventID)
		})
	}
	for _, inv := range invitations {
		g.Go(func() error {
			return s.invitationRepo.Delete(gctx, inv.ID, inv.EventID)
		})
	}
	g.Go(func() error {
		return s.eventRepo.Delete(gctx, eventID, createdAt)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cascade delete: %w", err)
	}

	s.logger.Info("event deleted", "title", existing.Title, "by", caller.Email)
	return &domain.CascadeResult{
		Message:            fmt.Sprintf("Event %q and all related data deleted successfully", existing.Title),
		DeletedInvitations: len(invitations),
		DeletedRSVPs:       len(rsvps),
	}, nil
}

func (s *calendarService) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		if errors.Is(err, domain.ErrTableNotFound) {
			return []*domain.Event{}, nil
		}
		return nil, fmt.Errorf("list events by organizer: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *calendarService) ListEvents(ctx context.Context, includePrivate bool) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	all, err := s.eventRepo.List(ctx)
	if err != nil {
		// A not-yet-migrated store is an empty result, not a failure.
		if errors.Is(err, domain.ErrTableNotFound) {
			s.logger.Info("events table not found, returning empty list")
			return []*domain.Event{}, nil
		}
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]*domain.Event, 0, len(all))
	for _, e := range all {
		if !includePrivate && !e.IsPublic {
			continue
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartDate < events[j].StartDate
	})
	return events, nil
}

func (s *calendarService) CalendarFeed(ctx context.Context, includePrivate bool) ([]domain.CalendarEntry, bool, error) {
	events, err := s.ListEvents(ctx, includePrivate)
	if err != nil {
		return nil, true, err
	}
	if len(events) == 0 {
		return []domain.CalendarEntry{}, true, nil
	}
	entries := make([]domain.CalendarEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, e.CalendarEntry())
	}
	return entries, false, nil
}

const defaultUpcomingLimit = 10

func (s *calendarService) UpcomingEvents(ctx context.Context, limit int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = defaultUpcomingLimit
	}
	events, err := s.ListEvents(ctx, false)
	if err != nil {
		return nil, err
	}
	upcoming := make([]*domain.Event, 0, limit)
	for _, e := range events {
		if !e.IsUpcoming() {
			continue
		}
		upcoming = append(upcoming, e)
		if len(upcoming) == limit {
			break
		}
	}
	return upcoming, nil
}
