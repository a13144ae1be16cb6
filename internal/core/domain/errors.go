package domain

import "errors"

// Kind classifies a domain failure. The transport layer maps each kind to a
// status code.
type Kind uint8

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindNotFound
	KindAuthentication
	KindAuthorization
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Error is a classified, user-safe failure. Message is always safe to show
// to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

// Validation returns a client-fixable input error.
func Validation(msg string) *Error { return newError(KindValidation, msg) }

// Conflict returns a duplicate-unique-field error.
func Conflict(msg string) *Error { return newError(KindConflict, msg) }

// NotFound returns a missing-entity error.
func NotFound(msg string) *Error { return newError(KindNotFound, msg) }

// Authentication returns a missing/invalid credential error.
func Authentication(msg string) *Error { return newError(KindAuthentication, msg) }

// Authorization returns an insufficient-role error.
func Authorization(msg string) *Error { return newError(KindAuthorization, msg) }

// RateLimited returns a throttling error.
func RateLimited(msg string) *Error { return newError(KindRateLimited, msg) }

// KindOf reports the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

var (
	ErrPasswordTooShort   = Validation("password too short")
	ErrPasswordTooLong    = Validation("password too long")
	ErrPasswordMismatch   = Validation("passwords do not match")
	ErrInvalidRole        = Validation("invalid role")
	ErrMissingCredentials = Validation("email and password are required")

	ErrUserExists = Conflict("already exists")

	ErrUserNotFound = NotFound("user not found")

	ErrInvalidCredentials = Authentication("invalid credentials")
	ErrMissingToken       = Authentication("missing token")
	ErrUnauthorized       = Authentication("unauthorized")

	ErrForbidden = Authorization("forbidden")

	ErrTooManyAttempts = RateLimited("too many failed login attempts")
)

// ErrDuplicateKey is reported by a UserDirectory when an insert violates a
// unique constraint. It never reaches clients.
var ErrDuplicateKey = errors.New("duplicate key")
