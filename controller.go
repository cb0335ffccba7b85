package session

import (
	"context"
	"sync"
	"time"
)

// DefaultBootstrapTimeout is the contract from the routing layer: a stuck
// bootstrap never exceeds this before the UI becomes interactive signed out.
const DefaultBootstrapTimeout = 5 * time.Second

const eventQueueSize = 64

// Option customizes controller construction.
type Option func(*Controller)

// WithLogger overrides the logger.
func WithLogger(logger Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProfileProvider enables background profile enrichment.
func WithProfileProvider(provider ProfileProvider) Option {
	return func(c *Controller) {
		c.profiles = provider
	}
}

// WithBootstrapTimeout overrides the safety timeout armed at Start.
func WithBootstrapTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.bootstrapTimeout = d
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithActivitySink sets the ActivitySink used to publish lifecycle events.
func WithActivitySink(sink ActivitySink) Option {
	return func(c *Controller) {
		c.activity = normalizeActivitySink(sink)
	}
}

// WithTokenVerifier verifies access tokens before their claims seed an
// Identity. Without one, token claims are decoded unverified.
func WithTokenVerifier(verifier TokenVerifier) Option {
	return func(c *Controller) {
		c.verifier = verifier
	}
}

// WithArtifactStore sets the store of locally cached session artifacts,
// cleared synchronously on sign-out.
func WithArtifactStore(store ArtifactStore) Option {
	return func(c *Controller) {
		c.artifacts = store
	}
}

type evtKind int

const (
	evtInitial evtKind = iota
	evtChange
	evtProfile
	evtTimeout
	evtForceSignOut
)

type controllerEvent struct {
	kind      evtKind
	event     SessionEvent
	sess      *Session
	err       error
	epoch     uint64
	subjectID string
	profile   *ProfileRecord
	reason    string
	ack       chan struct{}
}

// Controller owns the session lifecycle: bootstrap, the ordered event queue,
// the safety timeout and teardown. It is the Store's only writer.
type Controller struct {
	svc       AuthService
	profiles  ProfileProvider
	store     *Store
	artifacts ArtifactStore
	verifier  TokenVerifier
	activity  ActivitySink
	logger    Logger
	now       func() time.Time

	bootstrapTimeout time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	sub     Subscription
	timer   *time.Timer

	queue chan controllerEvent
	quit  chan struct{}
	done  chan struct{}

	// event-loop-only state
	epoch    uint64
	resolved bool
}

// New builds a Controller around the external auth service. The returned
// instance is inert until Start is called.
func New(svc AuthService, opts ...Option) *Controller {
	c := &Controller{
		svc:              svc,
		store:            NewStore(),
		logger:           defLogger{},
		activity:         noopActivitySink{},
		now:              time.Now,
		bootstrapTimeout: DefaultBootstrapTimeout,
		queue:            make(chan controllerEvent, eventQueueSize),
		quit:             make(chan struct{}),
		done:             make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Store exposes the snapshot store for routing and UI readers.
func (c *Controller) Store() *Store {
	return c.store
}

// Snapshot returns the current session snapshot.
func (c *Controller) Snapshot() Snapshot {
	return c.store.Snapshot()
}

// Subscribe registers a snapshot change listener.
func (c *Controller) Subscribe(onChange func(Snapshot)) func() {
	return c.store.Subscribe(onChange)
}

// Authorize evaluates the gate against the current snapshot.
func (c *Controller) Authorize(allowed RoleSet) Decision {
	return Authorize(c.store.Snapshot(), allowed)
}

// Start drives the snapshot out of bootstrapping: it issues the one-shot
// current-session query, subscribes to the session-change stream and arms
// the safety timer. Events are processed strictly in arrival order by a
// single goroutine, so the ordering guarantee holds even if the underlying
// transport reorders delivery.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	go c.run(ctx)

	sub, err := c.svc.OnSessionChange(func(event SessionEvent, sess *Session) {
		c.dispatch(controllerEvent{kind: evtChange, event: event, sess: sess})
	})
	if err != nil {
		// the app stays usable signed out: the safety timeout resolves the
		// snapshot even with no event stream
		c.logger.Error("session change subscription failed", "error", err)
	} else {
		c.mu.Lock()
		c.sub = sub
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.timer = time.AfterFunc(c.bootstrapTimeout, func() {
		c.dispatch(controllerEvent{kind: evtTimeout})
	})
	c.mu.Unlock()

	go func() {
		sess, err := c.svc.CurrentSession(ctx)
		c.dispatch(controllerEvent{kind: evtInitial, sess: sess, err: err})
	}()

	return nil
}

// Stop tears the controller down: unsubscribes from the event stream,
// cancels the safety timer and stops the event loop. Safe to call more than
// once.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	sub := c.sub
	timer := c.timer
	c.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	if timer != nil {
		timer.Stop()
	}

	close(c.quit)
	<-c.done
}

func (c *Controller) running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && !c.stopped
}

// dispatch enqueues an event for the loop. The queue is FIFO, which is what
// makes event ordering an explicit contract rather than a property of the
// transport.
func (c *Controller) dispatch(evt controllerEvent) {
	select {
	case <-c.quit:
	case c.queue <- evt:
	default:
		c.logger.Error("event queue full, dropping event", "kind", evt.kind)
	}
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			return
		case evt := <-c.queue:
			c.handle(ctx, evt)
			if evt.ack != nil {
				close(evt.ack)
			}
		}
	}
}

func (c *Controller) handle(ctx context.Context, evt controllerEvent) {
	switch evt.kind {
	case evtInitial:
		c.handleInitial(ctx, evt)
	case evtChange:
		c.handleChange(ctx, evt)
	case evtProfile:
		c.handleProfile(ctx, evt)
	case evtTimeout:
		c.handleTimeout(ctx)
	case evtForceSignOut:
		c.emitUnauthenticated(ctx, evt.reason)
	}
}

func (c *Controller) handleInitial(ctx context.Context, evt controllerEvent) {
	if c.resolved {
		// a session-change event already resolved the status; a stale
		// initial result must not override it
		c.logger.Debug("discarding initial session result, status already resolved")
		return
	}

	if evt.err != nil {
		// no status from the error path: a slightly delayed correct signal
		// or the safety timeout settles it
		c.logger.Warn("initial session query failed", "error", evt.err)
		return
	}

	if evt.sess == nil {
		c.emitUnauthenticated(ctx, "no_initial_session")
		return
	}

	c.handleLiveSession(ctx, evt.sess)
}

func (c *Controller) handleChange(ctx context.Context, evt controllerEvent) {
	if evt.sess == nil {
		c.emitUnauthenticated(ctx, string(evt.event))
		return
	}
	c.handleLiveSession(ctx, evt.sess)
}

// handleLiveSession emits Authenticated from locally available claims so the
// UI unblocks immediately, then kicks off the background profile fetch.
func (c *Controller) handleLiveSession(ctx context.Context, sess *Session) {
	seed := seedFromSession(sess, c.verifier, c.logger)
	if seed.SubjectID == "" {
		c.logger.Warn("live session carries no subject id, ignoring")
		return
	}

	current := c.store.Snapshot()
	var existing *Identity
	if current.Authenticated() && current.Identity.SubjectID == seed.SubjectID {
		existing = current.Identity
	}

	identity := ResolveIdentity(existing, seed, nil)

	c.epoch++
	c.emit(ctx, Snapshot{Status: StatusAuthenticated, Identity: &identity})

	if current.Status != StatusAuthenticated {
		c.recordActivity(ctx, ActivityEvent{
			EventType:  ActivityEventSessionStarted,
			SubjectID:  identity.SubjectID,
			FromStatus: current.Status,
			ToStatus:   StatusAuthenticated,
		})
	}

	if c.profiles != nil {
		go c.fetchProfile(ctx, c.epoch, identity.SubjectID)
	}
}

func (c *Controller) fetchProfile(ctx context.Context, epoch uint64, subjectID string) {
	profile, err := c.profiles.FetchProfile(ctx, subjectID)
	if err != nil {
		// degrade gracefully: the seeded identity stays valid
		c.logger.Warn("profile fetch failed", "subject", subjectID, "error", err)
		return
	}
	if profile == nil {
		return
	}

	c.dispatch(controllerEvent{
		kind:      evtProfile,
		epoch:     epoch,
		subjectID: subjectID,
		profile:   profile,
	})
}

// handleProfile merges a profile response against whatever identity is
// current at merge time. The epoch guard discards responses that straddle a
// sign-out or a new sign-in.
func (c *Controller) handleProfile(ctx context.Context, evt controllerEvent) {
	if evt.epoch != c.epoch {
		c.logger.Debug("discarding stale profile response", "subject", evt.subjectID)
		return
	}

	current := c.store.Snapshot()
	if !current.Authenticated() || current.Identity.SubjectID != evt.subjectID {
		c.logger.Debug("discarding profile response for signed-out subject", "subject", evt.subjectID)
		return
	}

	seed := Seed{
		SubjectID: current.Identity.SubjectID,
		Email:     current.Identity.Email,
		RoleClaim: current.Identity.Role,
	}

	identity := ResolveIdentity(current.Identity, seed, evt.profile)
	c.emit(ctx, Snapshot{Status: StatusAuthenticated, Identity: &identity})

	c.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventProfileMerged,
		SubjectID:  identity.SubjectID,
		FromStatus: StatusAuthenticated,
		ToStatus:   StatusAuthenticated,
		Metadata:   map[string]any{"role": identity.Role},
	})
}

// handleTimeout is the defense against a hung or unreachable service. It
// never downgrades an already resolved status.
func (c *Controller) handleTimeout(ctx context.Context) {
	if c.resolved {
		return
	}

	c.logger.Warn("bootstrap safety timeout fired, forcing signed-out state")
	c.emitUnauthenticated(ctx, "bootstrap_timeout")

	c.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventBootstrapTimeout,
		FromStatus: StatusBootstrapping,
		ToStatus:   StatusUnauthenticated,
	})
}

func (c *Controller) emitUnauthenticated(ctx context.Context, reason string) {
	current := c.store.Snapshot()
	priorSubject := current.SubjectID()

	// bump the epoch first so any in-flight profile fetch result is
	// discarded once it arrives
	c.epoch++
	c.emit(ctx, Snapshot{Status: StatusUnauthenticated})

	if priorSubject != "" {
		c.clearArtifacts(ctx, priorSubject)
		c.recordActivity(ctx, ActivityEvent{
			EventType:  ActivityEventSessionEnded,
			SubjectID:  priorSubject,
			FromStatus: current.Status,
			ToStatus:   StatusUnauthenticated,
			Metadata:   map[string]any{"reason": reason},
		})
	}
}

func (c *Controller) emit(_ context.Context, snapshot Snapshot) {
	if !c.resolved {
		c.resolved = true
		c.mu.Lock()
		timer := c.timer
		c.mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}

	c.store.replace(snapshot)
}

func (c *Controller) clearArtifacts(ctx context.Context, subjectID string) {
	if c.artifacts == nil {
		return
	}
	if err := c.artifacts.Clear(ctx, subjectID); err != nil {
		c.logger.Warn("failed to clear session artifacts", "subject", subjectID, "error", err)
	}
}

func (c *Controller) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = c.now()
	}

	sink := normalizeActivitySink(c.activity)
	if err := sink.Record(ctx, event); err != nil {
		c.logger.Warn("activity sink record error", "error", err)
	}
}
