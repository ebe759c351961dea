package domain

import (
	"context"
	"time"
)

// Auth levels stored on a user record.
const (
	AuthAdmin = "admin"
	AuthUser  = "user"
)

// User represents a registered club account. (Email, ID) is the storage key.
// The four notification flags are independent per-class opt-outs consulted
// before any email is sent.
// swagger:model User
type User struct {
	Email              string `json:"email" dynamodbav:"email"`
	ID                 string `json:"id" dynamodbav:"id"`
	Username           string `json:"username" dynamodbav:"username"`
	PasswordHash       string `json:"-" dynamodbav:"password"`
	Salt               string `json:"-" dynamodbav:"salt"`
	Auth               string `json:"auth" dynamodbav:"auth"`
	EmailNotifications bool   `json:"email_notifications" dynamodbav:"email_notifications"`
	CalendarInvites    bool   `json:"calendar_invites" dynamodbav:"calendar_invites"`
	EventReminders     bool   `json:"event_reminders" dynamodbav:"event_reminders"`
	RSVPNotifications  bool   `json:"rsvp_notifications" dynamodbav:"rsvp_notifications"`
	CreatedAt          string `json:"created_at" dynamodbav:"created_at"`
}

// IsAdmin reports whether the account has administrator privilege.
func (u *User) IsAdmin() bool {
	return u != nil && u.Auth == AuthAdmin
}

// Student is a roster directory entry. Students need not hold an account;
// invitee resolution consults this directory for id lookups.
// swagger:model Student
type Student struct {
	ID       string `json:"id" dynamodbav:"id"`
	Name     string `json:"name" dynamodbav:"name"`
	Username string `json:"username" dynamodbav:"username"`
	Email    string `json:"email" dynamodbav:"email"`
	Team     string `json:"team" dynamodbav:"team"`
}

// UserRepository defines storage operations over the users table.
type UserRepository interface {
	Put(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

// StudentRepository defines read operations over the student roster.
type StudentRepository interface {
	List(ctx context.Context) ([]*Student, error)
	GetByID(ctx context.Context, id string) (*Student, error)
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, admin bool, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user's email.
type TokenVerifier interface {
	Verify(token string) (email string, err error)
}

// UserService defines registration and login for club accounts.
type UserService interface {
	Register(ctx context.Context, email, username, password string) (*User, error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
