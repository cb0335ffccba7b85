package session

// Status is the authentication state of the application.
type Status string

const (
	// StatusBootstrapping means no explicit signal has arrived yet.
	StatusBootstrapping Status = "bootstrapping"
	// StatusUnauthenticated means the subject is signed out.
	StatusUnauthenticated Status = "unauthenticated"
	// StatusAuthenticated means a subject is signed in with a resolved Identity.
	StatusAuthenticated Status = "authenticated"
)

// Snapshot is an immutable value of the session state at one instant.
// Identity is non-nil iff Status is StatusAuthenticated.
type Snapshot struct {
	Status   Status
	Identity *Identity
}

// Resolved reports whether an explicit status has been emitted. Callers must
// render a loading state and skip authorization while this is false.
func (s Snapshot) Resolved() bool {
	return s.Status == StatusAuthenticated || s.Status == StatusUnauthenticated
}

// Authenticated reports whether a subject is signed in.
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.Identity != nil
}

// SubjectID returns the signed-in subject id, or "".
func (s Snapshot) SubjectID() string {
	if !s.Authenticated() {
		return ""
	}
	return s.Identity.SubjectID
}
