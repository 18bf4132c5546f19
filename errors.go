package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials     = "INVALID_CREDENTIALS"
	TextCodeInvalidToken           = "INVALID_TOKEN"
	TextCodeSessionInvalid         = "SESSION_INVALID"
	TextCodeTokenRequired          = "TOKEN_REQUIRED"
	TextCodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	TextCodeAdminRequired          = "ADMIN_REQUIRED"
	TextCodeUserRequired           = "USER_REQUIRED"
	TextCodeForbidden              = "FORBIDDEN"
	TextCodeInternal               = "INTERNAL_ERROR"
	TextCodeAccountNotFound        = "ACCOUNT_NOT_FOUND"
	TextCodeEmailInUse             = "EMAIL_IN_USE"
	TextCodeEmptyPassword          = "EMPTY_PASSWORD"
	TextCodeInvalidRole            = "INVALID_ROLE"
)

// ErrInvalidCredentials is returned for every failed login: unknown email,
// inactive account, wrong password and wrong role all look the same.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidToken is the only error the token service hands out on validation.
var ErrInvalidToken = goerrors.New("session invalid or expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionInvalid covers bad tokens and tokens whose account is gone or inactive.
var ErrSessionInvalid = goerrors.New("session invalid or expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionInvalid).
	WithCode(goerrors.CodeUnauthorized)

var ErrTokenRequired = goerrors.New("access token required", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenRequired).
	WithCode(goerrors.CodeUnauthorized)

var ErrAuthenticationRequired = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeAuthenticationRequired).
	WithCode(goerrors.CodeUnauthorized)

var ErrAdminRequired = goerrors.New("admin access required", goerrors.CategoryAuthz).
	WithTextCode(TextCodeAdminRequired).
	WithCode(goerrors.CodeForbidden)

var ErrUserRequired = goerrors.New("user access required", goerrors.CategoryAuthz).
	WithTextCode(TextCodeUserRequired).
	WithCode(goerrors.CodeForbidden)

var ErrForbidden = goerrors.New("access denied", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrInternal is what clients see when the store or the signer fails.
var ErrInternal = goerrors.New("internal server error", goerrors.CategoryInternal).
	WithTextCode(TextCodeInternal).
	WithCode(goerrors.CodeInternal)

var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

var ErrEmailInUse = goerrors.New("email already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailInUse).
	WithCode(goerrors.CodeConflict)

var ErrEmptyPassword = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

var ErrInvalidRole = goerrors.New("invalid role", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(goerrors.CodeBadRequest)

// internalError wraps a store or signer failure. The cause stays available
// for logs while the message stays generic.
func internalError(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeInternal).
		WithCode(goerrors.CodeInternal)
}

// IsInternal reports whether err should surface as a 500.
func IsInternal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInternal) {
		return true
	}
	var rich *goerrors.Error
	if errors.As(err, &rich) {
		return rich.Category == goerrors.CategoryInternal
	}
	return true
}

// HTTPStatus maps err to the status code its category implies.
func HTTPStatus(err error) int {
	var rich *goerrors.Error
	if errors.As(err, &rich) && rich.Code != 0 {
		return rich.Code
	}
	return goerrors.CodeInternal
}
