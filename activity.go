package session

import (
	"context"
	"time"
)

// ActivityEventType enumerates lifecycle activity categories.
type ActivityEventType string

const (
	ActivityEventSessionStarted   ActivityEventType = "session.started"
	ActivityEventSessionEnded     ActivityEventType = "session.ended"
	ActivityEventBootstrapTimeout ActivityEventType = "session.bootstrap.timeout"
	ActivityEventProfileMerged    ActivityEventType = "session.profile.merged"
	ActivityEventRemoteSignOut    ActivityEventType = "session.signout.remote_failure"
)

// ActivityEvent captures audit-friendly information about a lifecycle change.
type ActivityEvent struct {
	EventType  ActivityEventType
	SubjectID  string
	FromStatus Status
	ToStatus   Status
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
