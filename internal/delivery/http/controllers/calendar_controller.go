package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	h "clubcalendar/internal/delivery/http/helpers"
	"clubcalendar/internal/delivery/http/middleware"
	"clubcalendar/internal/domain"
)

// CreateEventRequest is the request body for POST /events. Organizer fields
// and timestamps are server-assigned.
type CreateEventRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Location     string `json:"location"`
	IsPublic     *bool  `json:"is_public"`
	MaxAttendees int    `json:"max_attendees"`
}

// Validate implements Validator. Full validation happens in the service; the
// controller only rejects obviously empty submissions.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if c.Title == "" {
		errs = append(errs, "title is required")
	}
	if c.StartDate == "" {
		errs = append(errs, "start_date is required")
	}
	if c.EndDate == "" {
		errs = append(errs, "end_date is required")
	}
	return errs
}

type CalendarController struct {
	Logger     *slog.Logger
	Service    domain.CalendarService
	LegacyRepo domain.LegacyCalendarRepository
}

func NewCalendarController(logger *slog.Logger, svc domain.CalendarService, legacy domain.LegacyCalendarRepository) *CalendarController {
	return &CalendarController{
		Logger:     logger,
		Service:    svc,
		LegacyRepo: legacy,
	}
}

// parseEventID reads the numeric event id from the path. Writes a 400 and
// returns false on garbage.
func parseEventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("eventID"), 10, 64)
	if err != nil {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid event ID")
		return 0, false
	}
	return id, true
}

// CreateEvent godoc
// @Summary Create an event
// @Description Create a club event. The authenticated user becomes the organizer; id and timestamps are server-generated.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} helpers.APIResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *CalendarController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	event := &domain.Event{
		Title:        req.Title,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Location:     req.Location,
		IsPublic:     isPublic,
		MaxAttendees: req.MaxAttendees,
	}
	created, err := c.Service.CreateEvent(r.Context(), event, user)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, created)
}

// GetEventDetails godoc
// @Summary Get event details
// @Description Returns the event with its invitations, RSVPs, and response summary. Pass created_at when known to avoid a table scan.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Param created_at query string false "Event created_at key attribute"
// @Success 200 {object} helpers.APIResponse "data contains event details"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *CalendarController) GetEventDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := parseEventID(w, r)
	if !ok {
		return
	}
	details, err := c.Service.GetEventDetails(r.Context(), id, r.URL.Query().Get("created_at"))
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, details)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partially update an event. Only the organizer or an admin may update. Invitees who responded are notified of the changes.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Param created_at query string false "Event created_at key attribute"
// @Param event body domain.EventUpdate true "Fields to change"
// @Success 200 {object} helpers.APIResponse "data contains the updated event and the list of changes"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *CalendarController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseEventID(w, r)
	if !ok {
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var update domain.EventUpdate
	if !h.DecodeAndValidate(w, r, &update) {
		return
	}
	event, changes, err := c.Service.UpdateEvent(r.Context(), id, r.URL.Query().Get("created_at"), update, user)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]any{
		"event":   event,
		"changes": changes,
	})
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Delete an event and cascade to its invitations and RSVPs. Only the organizer or an admin may delete.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path int true "Event ID"
// @Param created_at query string false "Event created_at key attribute"
// @Success 200 {object} helpers.APIResponse "data reports what was removed"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *CalendarController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseEventID(w, r)
	if !ok {
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	result, err := c.Service.DeleteEvent(r.Context(), id, r.URL.Query().Get("created_at"), user)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}

// ListEvents godoc
// @Summary List events
// @Description List events sorted by start date. Administrators also see private events.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the event list"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *CalendarController) ListEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	events, err := c.Service.ListEvents(r.Context(), user.IsAdmin())
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, events)
}

// ListMyEvents godoc
// @Summary List events organized by the caller
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the event list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/mine [get]
func (c *CalendarController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Service.ListEventsByOrganizer(r.Context(), user.ID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, events)
}

// CalendarFeed godoc
// @Summary Public calendar feed
// @Description Returns public events shaped for calendar display. Falls back to the legacy calendar store when the event tables are empty.
// @Tags calendar
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains calendar entries"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendar [get]
func (c *CalendarController) CalendarFeed(w http.ResponseWriter, r *http.Request) {
	entries, fallback, err := c.Service.CalendarFeed(r.Context(), false)
	if (err != nil || fallback) && c.LegacyRepo != nil {
		legacy, legacyErr := c.LegacyRepo.ListEntries(r.Context())
		if legacyErr != nil {
			c.Logger.Error("legacy calendar fallback failed", "err", legacyErr)
		} else {
			converted := make([]domain.CalendarEntry, 0, len(legacy))
			for _, entry := range legacy {
				converted = append(converted, entry.CalendarEntry())
			}
			h.WriteJSONSuccess(w, http.StatusOK, converted)
			return
		}
	}
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, entries)
}

// UpcomingEvents godoc
// @Summary List upcoming public events
// @Tags calendar
// @Produce json
// @Param limit query int false "Maximum events to return (default 10)"
// @Success 200 {object} helpers.APIResponse "data contains the event list"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /calendar/upcoming [get]
func (c *CalendarController) UpcomingEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	events, err := c.Service.UpcomingEvents(r.Context(), limit)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, events)
}
