package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"clubcalendar/internal/delivery/http/controllers"
	"clubcalendar/internal/delivery/http/middleware"
	"clubcalendar/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// RSVP routes are unauthenticated: the invitation id in the emailed link is
// the credential.
func NewRouter(
	calendarController *controllers.CalendarController,
	inviteController *controllers.InviteController,
	authController *controllers.AuthController,
	verifier domain.TokenVerifier,
	users domain.UserRepository,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, users, logger)

	// Events
	mux.HandleFunc("POST /events", auth(calendarController.CreateEvent))
	mux.HandleFunc("GET /events", auth(calendarController.ListEvents))
	mux.HandleFunc("GET /events/mine", auth(calendarController.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(calendarController.GetEventDetails))
	mux.HandleFunc("PATCH /events/{eventID}", auth(calendarController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(calendarController.DeleteEvent))

	// Invitations
	mux.HandleFunc("POST /events/{eventID}/invitations", auth(inviteController.SendInvitations))
	mux.HandleFunc("DELETE /events/{eventID}/invitations/{invitationID}", auth(inviteController.RemoveInvitation))
	mux.HandleFunc("GET /events/{eventID}/rsvps", auth(inviteController.EventRSVPSummary))
	mux.HandleFunc("GET /invitations/mine", auth(inviteController.MyInvitations))
	mux.HandleFunc("GET /invitations/mine/count", auth(inviteController.PendingInvitationCount))

	// Public RSVP endpoints reached from invitation emails
	mux.HandleFunc("GET /rsvp/{invitationID}/{eventID}", inviteController.RSVPByLink)
	mux.HandleFunc("POST /rsvp/{invitationID}/{eventID}", inviteController.RSVP)

	// Public calendar
	mux.HandleFunc("GET /calendar", calendarController.CalendarFeed)
	mux.HandleFunc("GET /calendar/upcoming", calendarController.UpcomingEvents)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
