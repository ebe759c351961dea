package domain

import (
	"context"
	"fmt"
)

// Invitation delivery statuses. An invitation is created as "sent" and moves
// to "delivered" or "failed" exactly once, after the notification attempt.
const (
	InvitationStatusSent      = "sent"
	InvitationStatusDelivered = "delivered"
	InvitationStatusFailed    = "failed"
)

// Invitation represents an outstanding or resolved offer to attend an event.
// EventID is stored as a string even though Event.ID is numeric, matching the
// existing table shape; (ID, EventID) is the storage key.
// swagger:model Invitation
type Invitation struct {
	ID           string `json:"id" dynamodbav:"id"`
	EventID      string `json:"event_id" dynamodbav:"event_id"`
	InviteeEmail string `json:"invitee_email" dynamodbav:"invitee_email"`
	InviteeName  string `json:"invitee_name" dynamodbav:"invitee_name"`
	SentAt       string `json:"sent_at" dynamodbav:"sent_at"`
	Status       string `json:"status" dynamodbav:"status"`
	DeliveredAt  string `json:"delivered_at,omitempty" dynamodbav:"delivered_at,omitempty"`
	FailedAt     string `json:"failed_at,omitempty" dynamodbav:"failed_at,omitempty"`
	ErrorMessage string `json:"error_message,omitempty" dynamodbav:"error_message,omitempty"`
}

// Validate returns the list of invariant violations, empty when well-formed.
func (i *Invitation) Validate() []string {
	var errs []string
	if i.EventID == "" {
		errs = append(errs, "Event ID is required")
	}
	if !IsValidEmail(i.InviteeEmail) {
		errs = append(errs, "Valid invitee email is required")
	}
	switch i.Status {
	case InvitationStatusSent, InvitationStatusDelivered, InvitationStatusFailed:
	default:
		errs = append(errs, "Status must be one of: sent, delivered, failed")
	}
	return errs
}

// Sanitize strips free-text fields. The email is left alone.
func (i *Invitation) Sanitize() {
	i.InviteeName = SanitizeText(i.InviteeName)
}

// MarkDelivered records a successful delivery. One-way transition.
func (i *Invitation) MarkDelivered() {
	i.Status = InvitationStatusDelivered
	i.DeliveredAt = NowISO()
}

// MarkFailed records a failed delivery with the underlying message.
func (i *Invitation) MarkFailed(errorMessage string) {
	i.Status = InvitationStatusFailed
	i.FailedAt = NowISO()
	i.ErrorMessage = errorMessage
}

func (i *Invitation) IsSent() bool      { return i.Status == InvitationStatusSent }
func (i *Invitation) IsDelivered() bool { return i.Status == InvitationStatusDelivered }
func (i *Invitation) IsFailed() bool    { return i.Status == InvitationStatusFailed }

// RSVPLink returns the response URL mailed to the invitee.
func (i *Invitation) RSVPLink(baseURL string) string {
	return fmt.Sprintf("%s/rsvp/%s/%s", baseURL, i.ID, i.EventID)
}

// InvitationRepository defines storage operations over the invitations table.
type InvitationRepository interface {
	Put(ctx context.Context, inv *Invitation) error
	ListByEventID(ctx context.Context, eventID string) ([]*Invitation, error)
	ListByEmail(ctx context.Context, email string) ([]*Invitation, error)
	Delete(ctx context.Context, id, eventID string) error
}

// InvitationBatchResult reports the outcome of one invitation dispatch.
type InvitationBatchResult struct {
	InvitationsSent int           `json:"invitations_sent"`
	EmailsSent      int           `json:"emails_sent"`
	EmailsFailed    int           `json:"emails_failed"`
	AlreadyInvited  int           `json:"already_invited"`
	Invitations     []*Invitation `json:"invitations"`
}

// InvitationWithRSVP joins an invitation with its current response, if any.
type InvitationWithRSVP struct {
	Invitation *Invitation `json:"invitation"`
	RSVP       *RSVP       `json:"rsvp"`
}

// ResponderInfo carries optional identity overrides supplied with an RSVP.
type ResponderInfo struct {
	Name string
}

// RSVPResult reports a processed response and whether it replaced a prior one.
type RSVPResult struct {
	RSVP    *RSVP  `json:"rsvp"`
	Updated bool   `json:"updated"`
	Message string `json:"message"`
}

// RSVPSummary is the per-event reporting aggregate.
// accept + maybe + decline + no_response == total_invited.
type RSVPSummary struct {
	TotalInvited   int `json:"total_invited"`
	TotalResponded int `json:"total_responded"`
	Accept         int `json:"accept"`
	Maybe          int `json:"maybe"`
	Decline        int `json:"decline"`
	NoResponse     int `json:"no_response"`
	ResponseRate   int `json:"response_rate"`
}

// InviteService owns the invitation and RSVP lifecycle.
type InviteService interface {
	CreateInvitations(ctx context.Context, eventID int64, createdAt string, invitees []Invitee, organizer *User) (*InvitationBatchResult, error)
	ProcessRSVP(ctx context.Context, invitationID, eventID, response, notes string, responder ResponderInfo) (*RSVPResult, error)
	ListUserInvitations(ctx context.Context, email string, includeResponded bool) ([]*InvitationWithRSVP, error)
	EventRSVPSummary(ctx context.Context, eventID string) (*RSVPSummary, []*RSVP, error)
	RemoveInvitation(ctx context.Context, invitationID, eventID string, caller *User) error
	PendingInvitationCount(ctx context.Context, email string) (int, error)
}
