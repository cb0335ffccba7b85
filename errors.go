package session

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidCredentials is returned verbatim to login callers; it is never
// retried by the controller.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrNotStarted is returned when an operation needs the controller's event
// loop and Start has not been called.
var ErrNotStarted = goerrors.New("session controller not started", goerrors.CategoryOperation).
	WithTextCode("CONTROLLER_NOT_STARTED").
	WithCode(goerrors.CodeBadRequest)

// ErrAlreadyStarted is returned by a second Start call.
var ErrAlreadyStarted = goerrors.New("session controller already started", goerrors.CategoryConflict).
	WithTextCode("CONTROLLER_ALREADY_STARTED").
	WithCode(goerrors.CodeConflict)

// ErrRegistrationFailed wraps signup failures from the external service.
var ErrRegistrationFailed = goerrors.New("registration failed", goerrors.CategoryAuth).
	WithTextCode("REGISTRATION_FAILED").
	WithCode(goerrors.CodeBadRequest)

// ErrTokenVerification is returned when a configured TokenVerifier rejects
// an access token.
var ErrTokenVerification = goerrors.New("access token verification failed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_VERIFICATION_FAILED").
	WithCode(goerrors.CodeUnauthorized)
