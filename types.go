package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Logger is the minimal logging surface the package depends on. Messages use
// structured "key", value pairs after the message.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SessionEvent identifies what the external auth service reported.
type SessionEvent string

const (
	EventSignedIn       SessionEvent = "signed_in"
	EventSignedOut      SessionEvent = "signed_out"
	EventTokenRefreshed SessionEvent = "token_refreshed"
)

// Session is the external service's proof that a subject is currently
// authenticated. Opaque beyond the fields needed to seed an Identity.
type Session struct {
	SubjectID    string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	// Metadata carries the signup-time claims, including the role claim.
	Metadata map[string]any
}

// SubjectUUID parses the subject id as a UUID.
func (s *Session) SubjectUUID() (uuid.UUID, error) {
	return uuid.Parse(s.SubjectID)
}

// RoleClaim returns the role string attached at signup time, if any.
func (s *Session) RoleClaim() string {
	if s == nil || s.Metadata == nil {
		return ""
	}
	if role, ok := s.Metadata["role"].(string); ok {
		return role
	}
	return ""
}

// Subscription is a handle to an event stream registration.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a function to the Subscription interface.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}

// SignUpInput holds the fields forwarded to the external signup endpoint.
type SignUpInput struct {
	Email    string
	Password string
	// Claims are attached to the new subject, e.g. {"role": "employer"}.
	Claims map[string]any
}

// SignUpResult is what the external service reports for a new registration.
type SignUpResult struct {
	SubjectID string
	Email     string
}

// AuthService is the consumed contract of the external auth service. The
// service owns credentials and token issuance; this package only reads
// session presence and forwards user actions.
type AuthService interface {
	// CurrentSession returns the live session, or nil when signed out.
	CurrentSession(ctx context.Context) (*Session, error)

	// OnSessionChange registers a callback invoked on sign-in, token refresh
	// and sign-out. A nil session means the subject is signed out.
	OnSessionChange(cb func(event SessionEvent, sess *Session)) (Subscription, error)

	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error)
	SignOut(ctx context.Context) error
}

// ProfileProvider fetches the richer, separately stored profile record for a
// subject. Returning (nil, nil) means the record does not exist yet.
type ProfileProvider interface {
	FetchProfile(ctx context.Context, subjectID string) (*ProfileRecord, error)
}

// TokenVerifier validates a raw access token before its claims are trusted
// for identity seeding.
type TokenVerifier interface {
	Verify(raw string) error
}

// ArtifactStore keeps locally cached session artifacts. Logout clears it
// before the remote sign-out call is attempted.
type ArtifactStore interface {
	Put(ctx context.Context, subjectID, key string, value []byte) error
	Get(ctx context.Context, subjectID, key string) ([]byte, error)
	Clear(ctx context.Context, subjectID string) error
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(msg), args...)
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(msg), args...)
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(msg), args...)
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(msg), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
