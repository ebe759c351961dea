package domain

import "context"

// Attachment is a file attached to an outgoing email (e.g. an .ics invite).
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string, attachments []Attachment) (messageID string, err error)
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// SendResult is the per-recipient outcome of a notification attempt.
type SendResult struct {
	Email     string `json:"email"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SendOutcome pairs an invitation with its delivery result in a bulk send.
type SendOutcome struct {
	Invitation *Invitation
	Result     SendResult
}

// BulkSendResult aggregates a fan-out send. Counts are accurate only once
// every outcome in the batch has resolved.
type BulkSendResult struct {
	TotalSent   int
	TotalFailed int
	Results     []SendOutcome
}

// NotificationPreferences are the per-user opt-out flags consulted before a
// class of notification is sent.
type NotificationPreferences struct {
	EmailNotifications bool
	CalendarInvites    bool
	EventReminders     bool
	RSVPNotifications  bool
}

// NotificationService sends the templated event emails. Implementations
// batch bulk sends with an inter-batch delay and honor per-recipient
// opt-out preferences.
type NotificationService interface {
	SendInvitation(ctx context.Context, event *Event, inv *Invitation) SendResult
	SendBulkInvitations(ctx context.Context, event *Event, invs []*Invitation) *BulkSendResult
	SendEventUpdateNotice(ctx context.Context, event *Event, changes []string, emails []string) []SendResult
	SendRSVPNotice(ctx context.Context, event *Event, inv *Invitation, rsvp *RSVP, updated bool) error
}
