package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubcalendar/internal/domain"
)

// Bulk sends never exceed this many recipients per batch, regardless of the
// configured maximum.
const maxBatchSize = 10

// NotificationConfig carries the delivery settings for outgoing email.
type NotificationConfig struct {
	Enabled          bool
	BaseURL          string
	OrganizationName string
	FromEmail        string
	SupportEmail     string
	MaxRecipients    int
	BatchDelay       time.Duration
}

type notificationService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	userRepo domain.UserRepository
	logger   *slog.Logger
	cfg      NotificationConfig
}

// NewNotificationService wires the mailer and template renderer behind the
// notification port. The user repository supplies opt-out preferences.
func NewNotificationService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, userRepo domain.UserRepository, logger *slog.Logger, cfg NotificationConfig) domain.NotificationService {
	return &notificationService{
		mailer:   mailer,
		renderer: renderer,
		userRepo: userRepo,
		logger:   logger,
		cfg:      cfg,
	}
}

// preferencesFor looks up the recipient's opt-out flags. Recipients without
// an account get invitations and general notifications but not reminders or
// RSVP notices.
func (s *notificationService) preferencesFor(ctx context.Context, email string) domain.NotificationPreferences {
	defaults := domain.NotificationPreferences{
		EmailNotifications: true,
		CalendarInvites:    true,
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("preference lookup failed, using defaults", "email", email, "err", err)
		}
		return defaults
	}
	return domain.NotificationPreferences{
		EmailNotifications: user.EmailNotifications,
		CalendarInvites:    user.CalendarInvites,
		EventReminders:     user.EventReminders,
		RSVPNotifications:  user.RSVPNotifications,
	}
}

func (s *notificationService) SendInvitation(ctx context.Context, event *domain.Event, inv *domain.Invitation) domain.SendResult {
	if !s.cfg.Enabled {
		return domain.SendResult{Email: inv.InviteeEmail, Error: "email service not available"}
	}

	prefs := s.preferencesFor(ctx, inv.InviteeEmail)
	if !prefs.EmailNotifications || !prefs.CalendarInvites {
		s.logger.Info("invitation email suppressed by preferences", "email", inv.InviteeEmail)
		return domain.SendResult{Email: inv.InviteeEmail, Success: true, MessageID: "skipped-preferences"}
	}

	subject, html, text, err := s.renderer.Render("invitation", map[string]any{
		"Event":        event,
		"Invitation":   inv,
		"RSVPLink":     inv.RSVPLink(s.cfg.BaseURL),
		"Organization": s.cfg.OrganizationName,
		"SupportEmail": s.cfg.SupportEmail,
	})
	if err != nil {
		return domain.SendResult{Email: inv.InviteeEmail, Error: err.Error()}
	}

	var attachments []domain.Attachment
	if ics := buildCalendarInvite(event, inv, s.cfg.OrganizationName, s.cfg.FromEmail); ics != "" {
		attachments = append(attachments, domain.Attachment{
			Filename:    "invite.ics",
			ContentType: "text/calendar; method=REQUEST",
			Content:     []byte(ics),
		})
	}

	messageID, err := s.mailer.Send(ctx, inv.InviteeEmail, subject, html, text, attachments)
	if err != nil {
		s.logger.Error("invitation email failed", "email", inv.InviteeEmail, "err", err)
		return domain.SendResult{Email: inv.InviteeEmail, Error: err.Error()}
	}
	return domain.SendResult{Email: inv.InviteeEmail, Success: true, MessageID: messageID}
}

// SendBulkInvitations fans out invitation emails in bounded batches with a
// delay between batches, staying under provider rate limits. Sends within a
// batch run concurrently.
func (s *notificationService) SendBulkInvitations(ctx context.Context, event *domain.Event, invs []*domain.Invitation) *domain.BulkSendResult {
	result := &domain.BulkSendResult{}

	batchSize := s.cfg.MaxRecipients
	if batchSize <= 0 || batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}

	for start := 0; start < len(invs); start += batchSize {
		end := start + batchSize
		if end > len(invs) {
			end = len(invs)
		}
		batch := invs[start:end]

		outcomes := make([]domain.SendOutcome, len(batch))
		done := make(chan struct{})
		for i, inv := range batch {
			go func(i int, inv *domain.Invitation) {
				outcomes[i] = domain.SendOutcome{Invitation: inv, Result: s.SendInvitation(ctx, event, inv)}
				done <- struct{}{}
			}(i, inv)
		}
		for range batch {
			<-done
		}

		for _, outcome := range outcomes {
			if outcome.Result.Success {
				result.TotalSent++
			} else {
				result.TotalFailed++
			}
			result.Results = append(result.Results, outcome)
		}

		if end < len(invs) {
			select {
			case <-ctx.Done():
				s.logger.Warn("bulk send interrupted between batches", "remaining", len(invs)-end)
				return result
			case <-time.After(s.cfg.BatchDelay):
			}
		}
	}
	return result
}

func (s *notificationService) SendEventUpdateNotice(ctx context.Context, event *domain.Event, changes []string, emails []string) []domain.SendResult {
	if !s.cfg.Enabled || len(emails) == 0 {
		return nil
	}

	results := make([]domain.SendResult, 0, len(emails))
	for _, email := range emails {
		prefs := s.preferencesFor(ctx, email)
		if !prefs.EmailNotifications || !prefs.EventReminders {
			continue
		}

		subject, html, text, err := s.renderer.Render("event_update", map[string]any{
			"Event":        event,
			"Changes":      changes,
			"Organization": s.cfg.OrganizationName,
			"SupportEmail": s.cfg.SupportEmail,
		})
		if err != nil {
			results = append(results, domain.SendResult{Email: email, Error: err.Error()})
			continue
		}

		messageID, err := s.mailer.Send(ctx, email, subject, html, text, nil)
		if err != nil {
			s.logger.Error("update notice failed", "email", email, "err", err)
			results = append(results, domain.SendResult{Email: email, Error: err.Error()})
			continue
		}
		results = append(results, domain.SendResult{Email: email, Success: true, MessageID: messageID})
	}
	return results
}

func (s *notificationService) SendRSVPNotice(ctx context.Context, event *domain.Event, inv *domain.Invitation, rsvp *domain.RSVP, updated bool) error {
	if !s.cfg.Enabled {
		return nil
	}
	if event.OrganizerEmail == "" {
		return nil
	}

	// RSVP notices are opt-in; only organizers with an account and the flag
	// set receive them.
	user, err := s.userRepo.GetByEmail(ctx, event.OrganizerEmail)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !user.EmailNotifications || !user.RSVPNotifications {
		return nil
	}

	subject, html, text, err := s.renderer.Render("rsvp_notice", map[string]any{
		"Event":        event,
		"Invitation":   inv,
		"RSVP":         rsvp,
		"Updated":      updated,
		"Response":     rsvp.ResponseLabel(),
		"Organization": s.cfg.OrganizationName,
	})
	if err != nil {
		return err
	}

	if _, err := s.mailer.Send(ctx, event.OrganizerEmail, subject, html, text, nil); err != nil {
		return err
	}
	return nil
}
