package session_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/mock"
)

// fakeAuthService is a controllable AuthService: tests drive the session
// change stream through Emit and swap the call behaviors per scenario.
type fakeAuthService struct {
	mu        sync.Mutex
	listeners []func(session.SessionEvent, *session.Session)

	currentFn func(ctx context.Context) (*session.Session, error)
	signInFn  func(ctx context.Context, email, password string) (*session.Session, error)
	signUpFn  func(ctx context.Context, input session.SignUpInput) (*session.SignUpResult, error)
	signOutFn func(ctx context.Context) error

	subscribeErr  error
	signOutCalls  int
	signInCalls   int
	unsubscribed  int
	currentCalled chan struct{}
}

func newFakeAuthService() *fakeAuthService {
	return &fakeAuthService{}
}

func (f *fakeAuthService) CurrentSession(ctx context.Context) (*session.Session, error) {
	f.mu.Lock()
	fn := f.currentFn
	notify := f.currentCalled
	f.mu.Unlock()

	if notify != nil {
		close(notify)
		f.mu.Lock()
		f.currentCalled = nil
		f.mu.Unlock()
	}

	if fn == nil {
		return nil, nil
	}
	return fn(ctx)
}

func (f *fakeAuthService) OnSessionChange(cb func(session.SessionEvent, *session.Session)) (session.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}

	f.listeners = append(f.listeners, cb)
	return session.SubscriptionFunc(func() {
		f.mu.Lock()
		f.unsubscribed++
		f.mu.Unlock()
	}), nil
}

func (f *fakeAuthService) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	f.mu.Lock()
	f.signInCalls++
	fn := f.signInFn
	f.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(ctx, email, password)
}

func (f *fakeAuthService) SignUp(ctx context.Context, input session.SignUpInput) (*session.SignUpResult, error) {
	f.mu.Lock()
	fn := f.signUpFn
	f.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(ctx, input)
}

func (f *fakeAuthService) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOutCalls++
	fn := f.signOutFn
	f.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Emit pushes a session change event to every subscriber.
func (f *fakeAuthService) Emit(event session.SessionEvent, sess *session.Session) {
	f.mu.Lock()
	listeners := make([]func(session.SessionEvent, *session.Session), len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.Unlock()

	for _, cb := range listeners {
		cb(event, sess)
	}
}

func (f *fakeAuthService) SignOutCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOutCalls
}

// fakeProfileProvider serves a configurable record, optionally holding each
// fetch until the test releases it.
type fakeProfileProvider struct {
	mu      sync.Mutex
	fetchFn func(ctx context.Context, subjectID string) (*session.ProfileRecord, error)
	release chan struct{}
	fetched int
}

func (f *fakeProfileProvider) FetchProfile(ctx context.Context, subjectID string) (*session.ProfileRecord, error) {
	f.mu.Lock()
	f.fetched++
	fn := f.fetchFn
	release := f.release
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if fn == nil {
		return nil, nil
	}
	return fn(ctx, subjectID)
}

func (f *fakeProfileProvider) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetched
}

// snapshotRecorder collects every snapshot a store emits.
type snapshotRecorder struct {
	mu        sync.Mutex
	snapshots []session.Snapshot
}

func (r *snapshotRecorder) record(s session.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *snapshotRecorder) all() []session.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.Snapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

func (r *snapshotRecorder) countStatus(status session.Status) int {
	count := 0
	for _, s := range r.all() {
		if s.Status == status {
			count++
		}
	}
	return count
}

// captureSink records activity events.
type captureSink struct {
	mu     sync.Mutex
	events []session.ActivityEvent
}

func (s *captureSink) Record(_ context.Context, event session.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) byType(t session.ActivityEventType) []session.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []session.ActivityEvent
	for _, e := range s.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// staticSource satisfies session.SnapshotSource with a fixed value.
type staticSource struct {
	snapshot session.Snapshot
}

func (s staticSource) Snapshot() session.Snapshot { return s.snapshot }

// MockContext mocks router.Context for guard tests.
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
