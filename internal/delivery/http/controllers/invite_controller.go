package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	h "clubcalendar/internal/delivery/http/helpers"
	"clubcalendar/internal/delivery/http/middleware"
	"clubcalendar/internal/domain"
)

// InviteeInput accepts either a bare string (an email address or a student
// id) or an object with email and name. This keeps the wire format the
// frontend already sends.
type InviteeInput struct {
	domain.Invitee
}

func (i *InviteeInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		i.Invitee = domain.ParseInvitee(s)
		return nil
	}
	var record struct {
		Email     string `json:"email"`
		Name      string `json:"name"`
		StudentID string `json:"student_id"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	if record.StudentID != "" && record.Email == "" {
		i.Invitee = domain.InviteeByStudentID(record.StudentID)
		return nil
	}
	i.Invitee = domain.InviteeRecord(record.Email, record.Name)
	return nil
}

// SendInvitationsRequest is the request body for POST /events/{eventID}/invitations.
type SendInvitationsRequest struct {
	Invitees  []InviteeInput `json:"invitees"`
	CreatedAt string         `json:"created_at"`
}

// Validate implements Validator.
func (s SendInvitationsRequest) Validate() []string {
	var errs []string
	if len(s.Invitees) == 0 {
		errs = append(errs, "invitees is required")
	}
	return errs
}

// RSVPRequest is the request body for POST /rsvp/{invitationID}/{eventID}.
type RSVPRequest struct {
	Response string `json:"response"`
	Notes    string `json:"notes"`
	Name     string `json:"name"`
}

// Validate implements Validator.
func (r RSVPRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Response) == "" {
		errs = append(errs, "response is required")
	}
	return errs
}

type InviteController struct {
	Logger  *slog.Logger
	Service domain.InviteService
}

func NewInviteController(logger *slog.Logger, svc domain.InviteService) *InviteController {
	return &InviteController{
		Logger:  logger,
		Service: svc,
	}
}

// SendInvitations godoc
// @Summary Invite people to an event
// @Description Resolve invitees against the account and roster directories, create invitations, and email each invitee an RSVP link with a calendar attachment. Duplicate invitees are skipped.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Param body body SendInvitationsRequest true "Invitees: email strings, student id strings, or {email, name} objects"
// @Success 201 {object} helpers.APIResponse "data reports invitations created and email outcomes"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations [post]
func (c *InviteController) SendInvitations(w http.ResponseWriter, r *http.Request) {
	id, ok := parseEventID(w, r)
	if !ok {
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req SendInvitationsRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	invitees := make([]domain.Invitee, len(req.Invitees))
	for i, input := range req.Invitees {
		invitees[i] = input.Invitee
	}
	result, err := c.Service.CreateInvitations(r.Context(), id, req.CreatedAt, invitees, user)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, result)
}

// RSVPByLink godoc
// @Summary RSVP via emailed link
// @Description Record a response from the link in the invitation email. No authentication; the invitation id is the credential. Responding again replaces the previous response.
// @Tags rsvp
// @Produce json
// @Param invitationID path string true "Invitation ID"
// @Param eventID path string true "Event ID"
// @Param response query string true "accept, maybe, or decline"
// @Success 200 {object} helpers.APIResponse "data contains the recorded RSVP"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rsvp/{invitationID}/{eventID} [get]
func (c *InviteController) RSVPByLink(w http.ResponseWriter, r *http.Request) {
	result, err := c.Service.ProcessRSVP(r.Context(),
		r.PathValue("invitationID"),
		r.PathValue("eventID"),
		r.URL.Query().Get("response"),
		"",
		domain.ResponderInfo{},
	)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}

// RSVP godoc
// @Summary Submit an RSVP
// @Description Record a response with optional notes and responder name. No authentication; the invitation id is the credential. Responding again replaces the previous response.
// @Tags rsvp
// @Accept json
// @Produce json
// @Param invitationID path string true "Invitation ID"
// @Param eventID path string true "Event ID"
// @Param body body RSVPRequest true "Response data"
// @Success 200 {object} helpers.APIResponse "data contains the recorded RSVP"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rsvp/{invitationID}/{eventID} [post]
func (c *InviteController) RSVP(w http.ResponseWriter, r *http.Request) {
	var req RSVPRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Service.ProcessRSVP(r.Context(),
		r.PathValue("invitationID"),
		r.PathValue("eventID"),
		req.Response,
		req.Notes,
		domain.ResponderInfo{Name: req.Name},
	)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}

// MyInvitations godoc
// @Summary List the caller's invitations
// @Description Invitations addressed to the authenticated user's email, newest first. Pass include_responded=true to also return answered invitations.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param include_responded query bool false "Include invitations that already have a response"
// @Success 200 {object} helpers.APIResponse "data contains invitations joined with any response"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/mine [get]
func (c *InviteController) MyInvitations(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	includeResponded := r.URL.Query().Get("include_responded") == "true"
	invitations, err := c.Service.ListUserInvitations(r.Context(), user.Email, includeResponded)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, invitations)
}

// EventRSVPSummary godoc
// @Summary RSVP summary for an event
// @Description Aggregated response counts and rate plus the raw responses.
// @Tags rsvp
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains summary and rsvps"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvps [get]
func (c *InviteController) EventRSVPSummary(w http.ResponseWriter, r *http.Request) {
	summary, rsvps, err := c.Service.EventRSVPSummary(r.Context(), r.PathValue("eventID"))
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]any{
		"summary": summary,
		"rsvps":   rsvps,
	})
}

// RemoveInvitation godoc
// @Summary Revoke an invitation
// @Description Delete an invitation and any response it received. Only the event organizer or an admin may revoke.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations/{invitationID} [delete]
func (c *InviteController) RemoveInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	err := c.Service.RemoveInvitation(r.Context(), r.PathValue("invitationID"), r.PathValue("eventID"), user)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "invitation removed"})
}

// PendingInvitationCount godoc
// @Summary Count the caller's unanswered invitations
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the pending count"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/mine/count [get]
func (c *InviteController) PendingInvitationCount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	count, err := c.Service.PendingInvitationCount(r.Context(), user.Email)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]int{"pending": count})
}
