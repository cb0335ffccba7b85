package session

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// remoteSignOutTimeout bounds the best-effort remote sign-out call.
const remoteSignOutTimeout = 10 * time.Second

// LoginPayload is the credential form payload.
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload.
func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 100)),
	)
}

// RegisterPayload is the signup form payload.
type RegisterPayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Role            string `form:"role" json:"role"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload.
func (p RegisterPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&p.Phone, validation.Length(10, 11), is.Digit),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&p.ConfirmPassword,
			validation.Required,
			validation.By(validateStringEquals(p.Password)),
		),
	)
}

// Login signs in with credentials. Credential errors come back verbatim for
// the form to display; they are never retried here. On success the live
// session is applied immediately, the event stream delivering the same
// session again is harmless because processing is idempotent.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	if !c.running() {
		return ErrNotStarted
	}

	payload := LoginPayload{Email: email, Password: password}
	if err := payload.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload")
	}

	sess, err := c.svc.SignInWithPassword(ctx, email, password)
	if err != nil {
		c.logger.Error("login failed", "email", email, "error", err)
		return err
	}

	c.dispatch(controllerEvent{kind: evtChange, event: EventSignedIn, sess: sess})
	return nil
}

// Register forwards a signup to the external service, attaching the role
// claim that seeds the Identity on first sign-in. When the service reports
// no subject id, a deterministic one is derived from the email.
func (c *Controller) Register(ctx context.Context, payload RegisterPayload) (*SignUpResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	claims := map[string]any{
		"first_name": payload.FirstName,
		"last_name":  payload.LastName,
	}
	if role, ok := ParseRole(payload.Role); ok {
		claims["role"] = role
	}
	if payload.Phone != "" {
		claims["phone"] = payload.Phone
	}

	result, err := c.svc.SignUp(ctx, SignUpInput{
		Email:    payload.Email,
		Password: payload.Password,
		Claims:   claims,
	})
	if err != nil {
		c.logger.Error("registration failed", "email", payload.Email, "error", err)
		return nil, err
	}

	if result == nil {
		result = &SignUpResult{Email: payload.Email}
	}

	if result.SubjectID == "" {
		if id, err := hashid.NewUUID(payload.Email); err == nil {
			result.SubjectID = id.String()
		}
	}

	return result, nil
}

// Logout is a two-phase protocol: phase one synchronously transitions the
// snapshot to Unauthenticated and clears local artifacts; phase two notifies
// the external service best-effort. A phase-two failure is non-fatal and is
// not retried, the local UI already reflects the signed-out state.
func (c *Controller) Logout(ctx context.Context) error {
	if !c.running() {
		return ErrNotStarted
	}

	ack := make(chan struct{})
	c.dispatch(controllerEvent{kind: evtForceSignOut, reason: "logout", ack: ack})
	select {
	case <-ack:
	case <-c.quit:
		return nil
	}

	go func() {
		remoteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), remoteSignOutTimeout)
		defer cancel()

		if err := c.svc.SignOut(remoteCtx); err != nil {
			c.logger.Warn("remote sign-out failed", "error", err)
			c.recordActivity(remoteCtx, ActivityEvent{
				EventType: ActivityEventRemoteSignOut,
				Metadata:  map[string]any{"error": err.Error()},
			})
		}
	}()

	return nil
}

func validateStringEquals(expected string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return errors.New("values must match")
		}
		return nil
	}
}
