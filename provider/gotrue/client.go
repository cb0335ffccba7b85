package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-session"
)

// Config configures the GoTrue-compatible client.
type Config struct {
	// BaseURL is the auth endpoint root, e.g. https://x.example.co/auth/v1.
	BaseURL string

	// APIKey is sent as the apikey header on every request.
	APIKey string

	// HTTPClient is optional; http.DefaultClient with a 10s timeout is used
	// when absent.
	HTTPClient *http.Client

	// Logger is optional.
	Logger session.Logger
}

// Client implements session.AuthService against a GoTrue-compatible REST
// API. It keeps the current session in memory and fans session changes out
// to OnSessionChange subscribers.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  session.Logger

	mu        sync.Mutex
	current   *session.Session
	listeners map[int]func(session.SessionEvent, *session.Session)
	nextID    int
}

var _ session.AuthService = (*Client)(nil)

// New validates the config and builds a client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("gotrue: base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		http:      httpClient,
		logger:    logger,
		listeners: map[int]func(session.SessionEvent, *session.Session){},
	}, nil
}

type wireUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	RefreshToken string   `json:"refresh_token"`
	User         wireUser `json:"user"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

func (e errorResponse) message() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.ErrorDescription != "":
		return e.ErrorDescription
	default:
		return e.Error
	}
}

// SignInWithPassword implements the password grant.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	var resp tokenResponse
	err := c.post(ctx, "/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, "", &resp)
	if err != nil {
		return nil, err
	}

	sess := c.sessionFromToken(resp)
	c.setSession(session.EventSignedIn, sess)
	return sess, nil
}

// SignUp registers a new subject with its signup-time claims.
func (c *Client) SignUp(ctx context.Context, input session.SignUpInput) (*session.SignUpResult, error) {
	var resp wireUser
	err := c.post(ctx, "/signup", map[string]any{
		"email":    input.Email,
		"password": input.Password,
		"data":     input.Claims,
	}, "", &resp)
	if err != nil {
		return nil, err
	}

	return &session.SignUpResult{
		SubjectID: resp.ID,
		Email:     resp.Email,
	}, nil
}

// CurrentSession returns the live session, transparently refreshing an
// expired one. A session that cannot be refreshed counts as signed out.
func (c *Client) CurrentSession(ctx context.Context) (*session.Session, error) {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()

	if current == nil {
		return nil, nil
	}

	if current.ExpiresAt == nil || time.Now().Before(*current.ExpiresAt) {
		return current, nil
	}

	if current.RefreshToken == "" {
		c.setSession(session.EventSignedOut, nil)
		return nil, nil
	}

	refreshed, err := c.refresh(ctx, current.RefreshToken)
	if err != nil {
		c.logger.Warn("session refresh failed, treating as signed out", "error", err)
		c.setSession(session.EventSignedOut, nil)
		return nil, nil
	}

	return refreshed, nil
}

// RestoreSession primes the client from a persisted refresh token, e.g. on
// server restart.
func (c *Client) RestoreSession(ctx context.Context, refreshToken string) (*session.Session, error) {
	return c.refresh(ctx, refreshToken)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*session.Session, error) {
	var resp tokenResponse
	err := c.post(ctx, "/token?grant_type=refresh_token", map[string]string{
		"refresh_token": refreshToken,
	}, "", &resp)
	if err != nil {
		return nil, err
	}

	sess := c.sessionFromToken(resp)
	c.setSession(session.EventTokenRefreshed, sess)
	return sess, nil
}

// SignOut revokes the session remotely and reports absence to subscribers.
// The local session is dropped even when the remote call fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()

	c.setSession(session.EventSignedOut, nil)

	if current == nil || current.AccessToken == "" {
		return nil
	}

	return c.post(ctx, "/logout", nil, current.AccessToken, nil)
}

// OnSessionChange registers a callback for sign-in, refresh, and sign-out.
func (c *Client) OnSessionChange(cb func(session.SessionEvent, *session.Session)) (session.Subscription, error) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = cb
	c.mu.Unlock()

	return session.SubscriptionFunc(func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}), nil
}

func (c *Client) sessionFromToken(resp tokenResponse) *session.Session {
	var expiresAt *time.Time
	if resp.ExpiresIn > 0 {
		t := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
		expiresAt = &t
	}

	return &session.Session{
		SubjectID:    resp.User.ID,
		Email:        resp.User.Email,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiresAt,
		Metadata:     resp.User.UserMetadata,
	}
}

func (c *Client) setSession(event session.SessionEvent, sess *session.Session) {
	c.mu.Lock()
	c.current = sess
	listeners := make([]func(session.SessionEvent, *session.Session), 0, len(c.listeners))
	for _, cb := range c.listeners {
		listeners = append(listeners, cb)
	}
	c.mu.Unlock()

	for _, cb := range listeners {
		if cb != nil {
			cb(event, sess)
		}
	}
}

func (c *Client) post(ctx context.Context, path string, body any, bearer string, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "gotrue: failed to encode request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "gotrue: failed to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "gotrue: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "gotrue: failed to decode response")
	}

	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	payload := errorResponse{}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(raw, &payload); err != nil {
		payload.Msg = strings.TrimSpace(string(raw))
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity:
		return session.ErrInvalidCredentials.WithMetadata(map[string]any{
			"status": resp.StatusCode,
			"detail": payload.message(),
		})
	default:
		return goerrors.New("gotrue: service error", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithMetadata(map[string]any{
				"status": resp.StatusCode,
				"detail": payload.message(),
			})
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
