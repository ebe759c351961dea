package domain

import "context"

// RSVP response values.
const (
	ResponseAccept  = "accept"
	ResponseMaybe   = "maybe"
	ResponseDecline = "decline"
)

// IsValidResponse reports whether the response is one of the defined values.
func IsValidResponse(response string) bool {
	switch response {
	case ResponseAccept, ResponseMaybe, ResponseDecline:
		return true
	}
	return false
}

// RSVP represents one invitee's current response to one invitation for one
// event. (InvitationID, EventID) is the storage key; at most one RSVP exists
// per pair at any time and later responses overwrite it in place.
// swagger:model RSVP
type RSVP struct {
	InvitationID   string `json:"invitation_id" dynamodbav:"invitation_id"`
	EventID        string `json:"event_id" dynamodbav:"event_id"`
	Response       string `json:"response" dynamodbav:"response"`
	ResponseAt     string `json:"response_at" dynamodbav:"response_at"`
	Notes          string `json:"notes" dynamodbav:"notes"`
	ResponderName  string `json:"responder_name" dynamodbav:"responder_name"`
	ResponderEmail string `json:"responder_email" dynamodbav:"responder_email"`
}

// Validate returns the list of invariant violations, empty when well-formed.
func (r *RSVP) Validate() []string {
	var errs []string
	if r.InvitationID == "" {
		errs = append(errs, "Invitation ID is required")
	}
	if r.EventID == "" {
		errs = append(errs, "Event ID is required")
	}
	if !IsValidResponse(r.Response) {
		errs = append(errs, "Response must be one of: accept, maybe, decline")
	}
	return errs
}

// Sanitize strips free-text fields. The email is left alone.
func (r *RSVP) Sanitize() {
	r.Notes = SanitizeText(r.Notes)
	r.ResponderName = SanitizeText(r.ResponderName)
}

func (r *RSVP) IsAccepted() bool { return r.Response == ResponseAccept }
func (r *RSVP) IsMaybe() bool    { return r.Response == ResponseMaybe }
func (r *RSVP) IsDeclined() bool { return r.Response == ResponseDecline }

// ResponseLabel returns the display label for the response.
func (r *RSVP) ResponseLabel() string {
	switch r.Response {
	case ResponseAccept:
		return "Attending"
	case ResponseMaybe:
		return "Maybe"
	case ResponseDecline:
		return "Not Attending"
	}
	return "Unknown"
}

// RSVPRepository defines storage operations over the rsvps table.
// Put is an upsert: the same write path serves first response and
// response-change, keyed by (invitation_id, event_id).
type RSVPRepository interface {
	Put(ctx context.Context, rsvp *RSVP) error
	Get(ctx context.Context, invitationID, eventID string) (*RSVP, error)
	ListByEventID(ctx context.Context, eventID string) ([]*RSVP, error)
	Delete(ctx context.Context, invitationID, eventID string) error
}
