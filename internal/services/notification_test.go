package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubcalendar/internal/domain"
)

// fakeMailer records sends and can fail specific recipients.
type fakeMailer struct {
	mu          sync.Mutex
	sent        []string
	attachments map[string][]domain.Attachment
	failEmails  map[string]bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{
		attachments: make(map[string][]domain.Attachment),
		failEmails:  make(map[string]bool),
	}
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, html, text string, attachments []domain.Attachment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEmails[to] {
		return "", errors.New("smtp refused")
	}
	f.sent = append(f.sent, to)
	f.attachments[to] = attachments
	return "msg-" + strconv.Itoa(len(f.sent)), nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(templateName string, data any) (string, string, string, error) {
	return "subject: " + templateName, "<p>" + templateName + "</p>", templateName, nil
}

func newTestNotificationService(mailer domain.Mailer, users *fakeUserRepo, cfg NotificationConfig) domain.NotificationService {
	return NewNotificationService(mailer, fakeRenderer{}, users, testLogger(), cfg)
}

func enabledConfig() NotificationConfig {
	return NotificationConfig{
		Enabled:          true,
		BaseURL:          "https://calendar.jcesports.edu",
		OrganizationName: "Juniata College Esports",
		FromEmail:        "noreply@jcesports.edu",
		SupportEmail:     "support@jcesports.edu",
		MaxRecipients:    50,
		BatchDelay:       time.Millisecond,
	}
}

func invitationTo(email string) *domain.Invitation {
	return &domain.Invitation{
		ID:           "inv-" + email,
		EventID:      "1001",
		InviteeEmail: email,
		Status:       domain.InvitationStatusSent,
	}
}

func TestSendInvitationAttachesCalendarInvite(t *testing.T) {
	mailer := newFakeMailer()
	svc := newTestNotificationService(mailer, newFakeUserRepo(), enabledConfig())

	event := validEvent()
	event.ID = 1001
	result := svc.SendInvitation(context.Background(), event, invitationTo("player1@jcesports.edu"))

	require.True(t, result.Success)
	assert.NotEmpty(t, result.MessageID)
	atts := mailer.attachments["player1@jcesports.edu"]
	require.Len(t, atts, 1)
	assert.Equal(t, "invite.ics", atts[0].Filename)
	assert.Contains(t, string(atts[0].Content), "BEGIN:VCALENDAR")
	assert.Contains(t, string(atts[0].Content), "METHOD:REQUEST")
	assert.Contains(t, string(atts[0].Content), "SUMMARY:Scrim Night")
}

func TestSendInvitationDisabled(t *testing.T) {
	mailer := newFakeMailer()
	cfg := enabledConfig()
	cfg.Enabled = false
	svc := newTestNotificationService(mailer, newFakeUserRepo(), cfg)

	result := svc.SendInvitation(context.Background(), validEvent(), invitationTo("player1@jcesports.edu"))
	assert.False(t, result.Success)
	assert.Equal(t, "email service not available", result.Error)
	assert.Empty(t, mailer.sent)
}

func TestSendInvitationHonorsOptOut(t *testing.T) {
	mailer := newFakeMailer()
	users := newFakeUserRepo()
	require.NoError(t, users.Put(context.Background(), &domain.User{
		Email:              "optout@jcesports.edu",
		EmailNotifications: true,
		CalendarInvites:    false,
	}))
	svc := newTestNotificationService(mailer, users, enabledConfig())

	result := svc.SendInvitation(context.Background(), validEvent(), invitationTo("optout@jcesports.edu"))
	assert.True(t, result.Success)
	assert.Equal(t, "skipped-preferences", result.MessageID)
	assert.Empty(t, mailer.sent)
}

func TestSendInvitationDefaultsForNonRegistered(t *testing.T) {
	mailer := newFakeMailer()
	svc := newTestNotificationService(mailer, newFakeUserRepo(), enabledConfig())

	result := svc.SendInvitation(context.Background(), validEvent(), invitationTo("guest@example.com"))
	assert.True(t, result.Success)
	assert.Equal(t, []string{"guest@example.com"}, mailer.sent)
}

func TestSendBulkInvitationsCountsOutcomes(t *testing.T) {
	mailer := newFakeMailer()
	mailer.failEmails["bounce@jcesports.edu"] = true
	svc := newTestNotificationService(mailer, newFakeUserRepo(), enabledConfig())

	invs := []*domain.Invitation{
		invitationTo("a@jcesports.edu"),
		invitationTo("bounce@jcesports.edu"),
		invitationTo("b@jcesports.edu"),
	}
	result := svc.SendBulkInvitations(context.Background(), validEvent(), invs)
	assert.Equal(t, 2, result.TotalSent)
	assert.Equal(t, 1, result.TotalFailed)
	assert.Len(t, result.Results, 3)
}

func TestSendBulkInvitationsBatches(t *testing.T) {
	mailer := newFakeMailer()
	svc := newTestNotificationService(mailer, newFakeUserRepo(), enabledConfig())

	var invs []*domain.Invitation
	for i := 0; i < 25; i++ {
		invs = append(invs, invitationTo("p"+strconv.Itoa(i)+"@jcesports.edu"))
	}
	result := svc.SendBulkInvitations(context.Background(), validEvent(), invs)
	assert.Equal(t, 25, result.TotalSent)
	assert.Len(t, mailer.sent, 25)
}

func TestSendBulkInvitationsStopsOnCancel(t *testing.T) {
	mailer := newFakeMailer()
	cfg := enabledConfig()
	cfg.BatchDelay = time.Minute
	svc := newTestNotificationService(mailer, newFakeUserRepo(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	var invs []*domain.Invitation
	for i := 0; i < 15; i++ {
		invs = append(invs, invitationTo("p"+strconv.Itoa(i)+"@jcesports.edu"))
	}
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	result := svc.SendBulkInvitations(ctx, validEvent(), invs)

	// The first batch of ten resolves; the delay before the second batch is
	// interrupted by the cancel.
	assert.Equal(t, 10, result.TotalSent)
}

func TestSendEventUpdateNoticeRequiresReminderOptIn(t *testing.T) {
	mailer := newFakeMailer()
	users := newFakeUserRepo()
	require.NoError(t, users.Put(context.Background(), &domain.User{
		Email:              "member@jcesports.edu",
		EmailNotifications: true,
		EventReminders:     true,
	}))
	svc := newTestNotificationService(mailer, users, enabledConfig())

	results := svc.SendEventUpdateNotice(context.Background(), validEvent(), []string{"Location changed"},
		[]string{"member@jcesports.edu", "guest@example.com"})

	// Non-registered recipients default to reminders off, so only the
	// opted-in member is emailed.
	require.Len(t, results, 1)
	assert.Equal(t, "member@jcesports.edu", results[0].Email)
	assert.True(t, results[0].Success)
	assert.Equal(t, []string{"member@jcesports.edu"}, mailer.sent)
}

func TestSendRSVPNoticeRequiresOptIn(t *testing.T) {
	mailer := newFakeMailer()
	users := newFakeUserRepo()
	svc := newTestNotificationService(mailer, users, enabledConfig())

	event := validEvent()
	event.OrganizerEmail = "organizer@jcesports.edu"
	inv := invitationTo("player1@jcesports.edu")
	rsvp := &domain.RSVP{InvitationID: inv.ID, EventID: inv.EventID, Response: domain.ResponseAccept}

	// Organizer without an account: silently skipped.
	require.NoError(t, svc.SendRSVPNotice(context.Background(), event, inv, rsvp, false))
	assert.Empty(t, mailer.sent)

	// Account without the opt-in flag: still skipped.
	require.NoError(t, users.Put(context.Background(), &domain.User{
		Email:              "organizer@jcesports.edu",
		EmailNotifications: true,
	}))
	require.NoError(t, svc.SendRSVPNotice(context.Background(), event, inv, rsvp, false))
	assert.Empty(t, mailer.sent)

	// Opted in: delivered.
	require.NoError(t, users.Put(context.Background(), &domain.User{
		Email:              "organizer@jcesports.edu",
		EmailNotifications: true,
		RSVPNotifications:  true,
	}))
	require.NoError(t, svc.SendRSVPNotice(context.Background(), event, inv, rsvp, true))
	assert.Equal(t, []string{"organizer@jcesports.edu"}, mailer.sent)
}

func TestBuildCalendarInviteEscapesText(t *testing.T) {
	event := validEvent()
	event.ID = 7
	event.Title = "Scrim Night; Finals, Round 1"
	inv := invitationTo("player1@jcesports.edu")

	ics := buildCalendarInvite(event, inv, "Juniata College Esports", "noreply@jcesports.edu")
	assert.Contains(t, ics, `SUMMARY:Scrim Night\; Finals\, Round 1`)
	assert.Contains(t, ics, "UID:event-7@clubcalendar")
	assert.Contains(t, ics, "ATTENDEE;CN=player1@jcesports.edu;RSVP=TRUE:mailto:player1@jcesports.edu")
	assert.Contains(t, ics, "DTSTART:20261001T180000Z")
}

func TestBuildCalendarInviteBadDates(t *testing.T) {
	event := validEvent()
	event.StartDate = "not-a-date"
	assert.Empty(t, buildCalendarInvite(event, invitationTo("a@b.co"), "Org", "noreply@jcesports.edu"))
}
