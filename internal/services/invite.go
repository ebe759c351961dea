package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"clubcalendar/internal/domain"
)

type inviteService struct {
	eventRepo      domain.EventRepository
	invitationRepo domain.InvitationRepository
	rsvpRepo       domain.RSVPRepository
	userRepo       domain.UserRepository
	studentRepo    domain.StudentRepository
	notifier       domain.NotificationService
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewInviteService creates an InviteService over the given repositories,
// the two invitee directories, and the notification port.
func NewInviteService(eventRepo domain.EventRepository,
	invitationRepo domain.InvitationRepository,
	rsvpRepo domain.RSVPRepository,
	userRepo domain.UserRepository,
	studentRepo domain.StudentRepository,
	notifier domain.NotificationService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.InviteService {
	return &inviteService{
		eventRepo:      eventRepo,
		invitationRepo: invitationRepo,
		rsvpRepo:       rsvpRepo,
		userRepo:       userRepo,
		studentRepo:    studentRepo,
		notifier:       notifier,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *inviteService) CreateInvitations(ctx context.Context, eventID int64, createdAt string, invitees []domain.Invitee, organizer *domain.User) (*domain.InvitationBatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var event *domain.Event
	var err error
	if createdAt == "" {
		event, err = s.eventRepo.FindByID(ctx, eventID)
	} else {
		event, err = s.eventRepo.Get(ctx, eventID, createdAt)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !domain.CanUserManageEvent(event, organizer) {
		return nil, domain.ErrForbidden
	}

	resolved := s.resolveInvitees(ctx, invitees)
	if len(resolved) == 0 {
		return nil, domain.ErrNoValidInvitees
	}

	eventKey := strconv.FormatInt(event.ID, 10)
	existing, err := s.invitationRepo.ListByEventID(ctx, eventKey)
	if err != nil && !errors.Is(err, domain.ErrTableNotFound) {
		return nil, fmt.Errorf("list existing invitations: %w", err)
	}
	alreadyInvited := make(map[string]struct{}, len(existing))
	for _, inv := range existing {
		alreadyInvited[inv.InviteeEmail] = struct{}{}
	}

	newInvitees := resolved[:0:0]
	for _, invitee := range resolved {
		if _, ok := alreadyInvited[invitee.Email]; !ok {
			newInvitees = append(newInvitees, invitee)
		}
	}
	if len(newInvitees) == 0 {
		return nil, domain.ErrAllAlreadyInvited
	}

	invitations := make([]*domain.Invitation, 0, len(newInvitees))
	for _, invitee := range newInvitees {
		inv := &domain.Invitation{
			ID:           uuid.NewString(),
			EventID:      eventKey,
			InviteeEmail: invitee.Email,
			InviteeName:  invitee.Name,
			SentAt:       domain.NowISO(),
			Status:       domain.InvitationStatusSent,
		}
		if errs := inv.Validate(); len(errs) > 0 {
			s.logger.Error("invalid invitation skipped", "email", invitee.Email, "errors", errs)
			continue
		}
		inv.Sanitize()
		if err := s.invitationRepo.Put(ctx, inv); err != nil {
			return nil, fmt.Errorf("put invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	sendResult := s.notifier.SendBulkInvitations(ctx, event, invitations)

	// Second write pass: each invitation leaves "sent" once its outcome is
	// known. An interruption before this point legitimately leaves rows in
	// "sent"; delivery status is at-least-once, not transactional.
	for _, outcome := range sendResult.Results {
		if outcome.Result.Success {
			outcome.Invitation.MarkDelivered()
		} else {
			msg := outcome.Result.Error
			if msg == "" {
				msg = "Email delivery failed"
			}
			outcome.Invitation.MarkFailed(msg)
		}
		if err := s.invitationRepo.Put(ctx, outcome.Invitation); err != nil {
			s.logger.Error("update invitation delivery status", "invitation", outcome.Invitation.ID, "err", err)
		}
	}

	s.logger.Info("invitations sent", "event", event.Title, "count", len(invitations),
		"delivered", sendResult.TotalSent, "failed", sendResult.TotalFailed)

	return &domain.InvitationBatchResult{
		InvitationsSent: len(invitations),
		EmailsSent:      sendResult.TotalSent,
		EmailsFailed:    sendResult.TotalFailed,
		AlreadyInvited:  len(resolved) - len(newInvitees),
		Invitations:     invitations,
	}, nil
}

// resolveInvitees cross-references the user and student directories to turn
// loosely identified invitees into confirmed email+name pairs. Entries that
// do not resolve to a syntactically valid, unique email are discarded.
func (s *inviteService) resolveInvitees(ctx context.Context, invitees []domain.Invitee) []domain.ResolvedInvitee {
	var users []*domain.User
	var students []*domain.Student
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.userRepo.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		students, err = s.studentRepo.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		// Resolution degrades to what the caller supplied directly.
		s.logger.Error("load invitee directories", "err", err)
	}

	usersByEmail := make(map[string]*domain.User, len(users))
	for _, u := range users {
		usersByEmail[u.Email] = u
	}
	studentsByID := make(map[string]*domain.Student, len(students))
	for _, st := range students {
		studentsByID[st.ID] = st
	}

	var resolved []domain.ResolvedInvitee
	for _, invitee := range invitees {
		switch invitee.Kind {
		case domain.InviteeKindEmail:
			name := ""
			if u, ok := usersByEmail[invitee.Email]; ok {
				name = u.Username
			}
			resolved = append(resolved, domain.ResolvedInvitee{Email: invitee.Email, Name: name})
		case domain.InviteeKindStudentID:
			st, ok := studentsByID[invitee.StudentID]
			if !ok || st.Email == "" {
				continue
			}
			name := st.Name
			if name == "" {
				name = st.Username
			}
			resolved = append(resolved, domain.ResolvedInvitee{Email: st.Email, Name: name})
		case domain.InviteeKindRecord:
			resolved = append(resolved, domain.ResolvedInvitee{Email: invitee.Email, Name: invitee.Name})
		}
	}

	seen := make(map[string]struct{}, len(resolved))
	unique := resolved[:0]
	for _, invitee := range resolved {
		if !domain.IsValidEmail(invitee.Email) {
			continue
		}
		if _, ok := seen[invitee.Email]; ok {
			continue
		}
		seen[invitee.Email] = struct{}{}
		unique = append(unique, invitee)
	}
	return unique
}

func (s *inviteService) ProcessRSVP(ctx context.Context, invitationID, eventID, response, notes string, responder domain.ResponderInfo) (*domain.RSVPResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !domain.IsValidResponse(response) {
		return nil, domain.NewValidationError([]string{"Invalid response. Must be accept, maybe, or decline"})
	}

	// The invitation is located by scanning the event's invitation set,
	// which also rejects an invitation tied to a different event.
	invitations, err := s.invitationRepo.ListByEventID(ctx, eventID)
	if err != nil && !errors.Is(err, domain.ErrTableNotFound) {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	var invitation *domain.Invitation
	for _, inv := range invitations {
		if inv.ID == invitationID {
			invitation = inv
			break
		}
	}
	if invitation == nil {
		return nil, domain.ErrNotFound
	}

	// Absence of a prior RSVP is not an error, just no previous response.
	existing, err := s.rsvpRepo.Get(ctx, invitationID, eventID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get existing rsvp: %w", err)
	}
	updated := existing != nil

	responderName := responder.Name
	if responderName == "" {
		responderName = invitation.InviteeName
	}
	rsvp := &domain.RSVP{
		InvitationID:   invitationID,
		EventID:        eventID,
		Response:       response,
		ResponseAt:     domain.NowISO(),
		Notes:          notes,
		ResponderName:  responderName,
		ResponderEmail: invitation.InviteeEmail,
	}
	if errs := rsvp.Validate(); len(errs) > 0 {
		return nil, domain.NewValidationError(errs)
	}
	rsvp.Sanitize()

	if err := s.rsvpRepo.Put(ctx, rsvp); err != nil {
		return nil, fmt.Errorf("put rsvp: %w", err)
	}

	s.notifyOrganizer(ctx, eventID, invitation, rsvp, updated)

	message := "RSVP recorded successfully"
	if updated {
		message = "RSVP updated successfully"
	}
	s.logger.Info("rsvp processed", "invitee", invitation.InviteeEmail, "response", response, "updated", updated)
	return &domain.RSVPResult{RSVP: rsvp, Updated: updated, Message: message}, nil
}

// notifyOrganizer is a best-effort alert; failures are logged and never
// surface in the RSVP result.
func (s *inviteService) notifyOrganizer(ctx context.Context, eventID string, invitation *domain.Invitation, rsvp *domain.RSVP, updated bool) {
	id, err := strconv.ParseInt(eventID, 10, 64)
	if err != nil {
		return
	}
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("event lookup for rsvp notice failed", "event", eventID, "err", err)
		return
	}
	if err := s.notifier.SendRSVPNotice(ctx, event, invitation, rsvp, updated); err != nil {
		s.logger.Warn("rsvp notice failed", "event", eventID, "err", err)
	}
}

func (s *inviteService) ListUserInvitations(ctx context.Context, email string, includeResponded bool) ([]*domain.InvitationWithRSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	invitations, err := s.invitationRepo.ListByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrTableNotFound) {
			return []*domain.InvitationWithRSVP{}, nil
		}
		return nil, fmt.Errorf("list invitations by email: %w", err)
	}

	joined := make([]*domain.InvitationWithRSVP, 0, len(invitations))
	for _, inv := range invitations {
		rsvp, err := s.rsvpRepo.Get(ctx, inv.ID, inv.EventID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get rsvp for invitation %s: %w", inv.ID, err)
		}
		if !includeResponded && rsvp != nil {
			continue
		}
		joined = append(joined, &domain.InvitationWithRSVP{Invitation: inv, RSVP: rsvp})
	}

	sort.SliceStable(joined, func(i, j int) bool {
		return joined[i].Invitation.SentAt > joined[j].Invitation.SentAt
	})
	return joined, nil
}

func (s *inviteService) EventRSVPSummary(ctx context.Context, eventID string) (*domain.RSVPSummary, []*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var invitations []*domain.Invitation
	var rsvps []*domain.RSVP
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invitations, err = s.invitationRepo.ListByEventID(gctx, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		rsvps, err = s.rsvpRepo.ListByEventID(gctx, eventID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("load rsvp summary: %w", err)
	}
	if rsvps == nil {
		rsvps = []*domain.RSVP{}
	}

	summary := &domain.RSVPSummary{
		TotalInvited:   len(invitations),
		TotalResponded: len(rsvps),
	}
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
	summary.NoResponse = summary.TotalInvited - summary.TotalResponded
	if summary.TotalInvited > 0 {
		summary.ResponseRate = int(math.Round(float64(summary.TotalResponded) / float64(summary.TotalInvited) * 100))
	}
	return summary, rsvps, nil
}

func (s *inviteService) RemoveInvitation(ctx context.Context, invitationID, eventID string, caller *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	id, err := strconv.ParseInt(eventID, 10, 64)
	if err != nil {
		return domain.ErrNotFound
	}
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if !domain.CanUserManageEvent(event, caller) {
		return domain.ErrForbidden
	}

	// The RSVP may not exist; that's fine.
	if err := s.rsvpRepo.Delete(ctx, invitationID, eventID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete rsvp: %w", err)
	}
	if err := s.invitationRepo.Delete(ctx, invitationID, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

func (s *inviteService) PendingInvitationCount(ctx context.Context, email string) (int, error) {
	pending, err := s.ListUserInvitations(ctx, email, false)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}
