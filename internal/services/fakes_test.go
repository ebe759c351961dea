package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"clubcalendar/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	events       map[string]*domain.Event
	putErr       error
	tableMissing bool
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*domain.Event)}
}

func eventMapKey(id int64, createdAt string) string {
	return fmt.Sprintf("%d|%s", id, createdAt)
}

func (f *fakeEventRepo) Put(ctx context.Context, e *domain.Event) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.events[eventMapKey(e.ID, e.CreatedAt)] = e
	return nil
}

func (f *fakeEventRepo) Get(ctx context.Context, id int64, createdAt string) (*domain.Event, error) {
	if f.tableMissing {
		return nil, domain.ErrTableNotFound
	}
	if e, ok := f.events[eventMapKey(id, createdAt)]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	if f.tableMissing {
		return nil, domain.ErrTableNotFound
	}
	for _, e := range f.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) List(ctx context.Context) ([]*domain.Event, error) {
	if f.tableMissing {
		return nil, domain.ErrTableNotFound
	}
	out := make([]*domain.Event, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEventRepo) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.events {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id int64, createdAt string) error {
	delete(f.events, eventMapKey(id, createdAt))
	return nil
}

// fakeInvitationRepo is an in-memory InvitationRepository for tests.
type fakeInvitationRepo struct {
	invitations []*domain.Invitation
	putErr      error
	putCount    int
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{}
}

func (f *fakeInvitationRepo) Put(ctx context.Context, inv *domain.Invitation) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putCount++
	for i, existing := range f.invitations {
		if existing.ID == inv.ID && existing.EventID == inv.EventID {
			f.invitations[i] = inv
			return nil
		}
	}
	f.invitations = append(f.invitations, inv)
	return nil
}

func (f *fakeInvitationRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Invitation, error) {
	var out []*domain.Invitation
	for _, inv := range f.invitations {
		if inv.EventID == eventID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) ListByEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	var out []*domain.Invitation
	for _, inv := range f.invitations {
		if inv.InviteeEmail == email {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) Delete(ctx context.Context, id, eventID string) error {
	for i, inv := range f.invitations {
		if inv.ID == id && inv.EventID == eventID {
			f.invitations = append(f.invitations[:i], f.invitations[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// fakeRSVPRepo is an in-memory RSVPRepository for tests.
type fakeRSVPRepo struct {
	rsvps  map[string]*domain.RSVP
	putErr error
}

func newFakeRSVPRepo() *fakeRSVPRepo {
	return &fakeRSVPRepo{rsvps: make(map[string]*domain.RSVP)}
}

func rsvpMapKey(invitationID, eventID string) string {
	return invitationID + "|" + eventID
}

func (f *fakeRSVPRepo) Put(ctx context.Context, r *domain.RSVP) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.rsvps[rsvpMapKey(r.InvitationID, r.EventID)] = r
	return nil
}

func (f *fakeRSVPRepo) Get(ctx context.Context, invitationID, eventID string) (*domain.RSVP, error) {
	if r, ok := f.rsvps[rsvpMapKey(invitationID, eventID)]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRSVPRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.RSVP, error) {
	var out []*domain.RSVP
	for _, r := range f.rsvps {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRSVPRepo) Delete(ctx context.Context, invitationID, eventID string) error {
	key := rsvpMapKey(invitationID, eventID)
	if _, ok := f.rsvps[key]; !ok {
		return domain.ErrNotFound
	}
	delete(f.rsvps, key)
	return nil
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Put(ctx context.Context, u *domain.User) error {
	f.users[u.Email] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

// fakeStudentRepo is an in-memory StudentRepository for tests.
type fakeStudentRepo struct {
	students []*domain.Student
}

func (f *fakeStudentRepo) List(ctx context.Context) ([]*domain.Student, error) {
	return f.students, nil
}

func (f *fakeStudentRepo) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	for _, s := range f.students {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

// fakeNotifier records notification calls. Emails listed in failEmails report
// delivery failure.
type fakeNotifier struct {
	sentTo        []string
	updateNotices [][]string
	rsvpNotices   int
	failEmails    map[string]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failEmails: make(map[string]bool)}
}

func (f *fakeNotifier) SendInvitation(ctx context.Context, event *domain.Event, inv *domain.Invitation) domain.SendResult {
	f.sentTo = append(f.sentTo, inv.InviteeEmail)
	if f.failEmails[inv.InviteeEmail] {
		return domain.SendResult{Email: inv.InviteeEmail, Error: "mailbox unavailable"}
	}
	return domain.SendResult{Email: inv.InviteeEmail, Success: true, MessageID: "msg-" + inv.ID}
}

func (f *fakeNotifier) SendBulkInvitations(ctx context.Context, event *domain.Event, invs []*domain.Invitation) *domain.BulkSendResult {
	result := &domain.BulkSendResult{}
	for _, inv := range invs {
		outcome := domain.SendOutcome{Invitation: inv, Result: f.SendInvitation(ctx, event, inv)}
		if outcome.Result.Success {
			result.TotalSent++
		} else {
			result.TotalFailed++
		}
		result.Results = append(result.Results, outcome)
	}
	return result
}

func (f *fakeNotifier) SendEventUpdateNotice(ctx context.Context, event *domain.Event, changes []string, emails []string) []domain.SendResult {
	f.updateNotices = append(f.updateNotices, emails)
	results := make([]domain.SendResult, 0, len(emails))
	for _, email := range emails {
		results = append(results, domain.SendResult{Email: email, Success: true})
	}
	return results
}

func (f *fakeNotifier) SendRSVPNotice(ctx context.Context, event *domain.Event, inv *domain.Invitation, rsvp *domain.RSVP, updated bool) error {
	f.rsvpNotices++
	return nil
}
