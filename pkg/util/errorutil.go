package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind enumerates every failure the service can report to a client.
type Kind int

const (
	KindInternal Kind = iota
	KindMissingToken
	KindInvalidToken
	KindTokenExpired
	KindTokenCreation
	KindUserNotFound
	KindUserAlreadyExists
	KindInvalidPassword
	KindMalformedPayload
	KindFailedConstraints
	KindUniqueConstraintViolation
	KindStorageUnavailable
	KindTaskNotFound
	KindTaskAlreadyExists
	KindForbiddenTaskAccess
	KindTooManyRequests
)

// Kinds lists every defined kind.
func Kinds() []Kind {
	return []Kind{
		KindInternal,
		KindMissingToken,
		KindInvalidToken,
		KindTokenExpired,
		KindTokenCreation,
		KindUserNotFound,
		KindUserAlreadyExists,
		KindInvalidPassword,
		KindMalformedPayload,
		KindFailedConstraints,
		KindUniqueConstraintViolation,
		KindStorageUnavailable,
		KindTaskNotFound,
		KindTaskAlreadyExists,
		KindForbiddenTaskAccess,
		KindTooManyRequests,
	}
}

type kindEntry struct {
	code    string
	status  int
	message string
}

// entry is the single kind -> (status, message) table. A new Kind must get a
// case here; TestEveryKindIsMapped fails otherwise.
func (k Kind) entry() (kindEntry, bool) {
	switch k {
	case KindInternal:
		return kindEntry{"INTERNAL_ERROR", http.StatusInternalServerError, "Internal server error"}, true
	case KindMissingToken:
		return kindEntry{"MISSING_TOKEN", http.StatusUnauthorized, "Missing Bearer token"}, true
	case KindInvalidToken:
		return kindEntry{"INVALID_TOKEN", http.StatusUnauthorized, "Invalid token"}, true
	case KindTokenExpired:
		return kindEntry{"TOKEN_EXPIRED", http.StatusUnauthorized, "Token has expired"}, true
	case KindTokenCreation:
		return kindEntry{"TOKEN_CREATION_ERROR", http.StatusInternalServerError, "Token error"}, true
	case KindUserNotFound:
		return kindEntry{"USER_NOT_FOUND", http.StatusNotFound, "User not found"}, true
	case KindUserAlreadyExists:
		return kindEntry{"USER_ALREADY_EXISTS", http.StatusBadRequest, "User already exists"}, true
	case KindInvalidPassword:
		return kindEntry{"INVALID_PASSWORD", http.StatusBadRequest, "Invalid password"}, true
	case KindMalformedPayload:
		return kindEntry{"MALFORMED_PAYLOAD", http.StatusBadRequest, "Invalid JSON"}, true
	case KindFailedConstraints:
		return kindEntry{"VALIDATION_FAILED", http.StatusUnprocessableEntity, "Validation error"}, true
	case KindUniqueConstraintViolation:
		return kindEntry{"UNIQUE_CONSTRAINT_VIOLATION", http.StatusConflict, "Duplicate entry exists"}, true
	case KindStorageUnavailable:
		return kindEntry{"STORAGE_UNAVAILABLE", http.StatusInternalServerError, "Something went wrong"}, true
	case KindTaskNotFound:
		return kindEntry{"TASK_NOT_FOUND", http.StatusNotFound, "Task not found"}, true
	case KindTaskAlreadyExists:
		return kindEntry{"TASK_ALREADY_EXISTS", http.StatusBadRequest, "Task already exists"}, true
	case KindForbiddenTaskAccess:
		return kindEntry{"FORBIDDEN_TASK_ACCESS", http.StatusForbidden, "Access to this task is forbidden"}, true
	case KindTooManyRequests:
		return kindEntry{"TOO_MANY_REQUESTS", http.StatusTooManyRequests, "Too many requests"}, true
	}
	return kindEntry{"INTERNAL_ERROR", http.StatusInternalServerError, "Internal server error"}, false
}

// Code returns the stable machine readable name of the kind.
func (k Kind) Code() string {
	s, _ := k.entry()
	return s.code
}

// Status returns the HTTP status the kind is reported with.
func (k Kind) Status() int {
	s, _ := k.entry()
	return s.status
}

// Message returns the client facing message template.
func (k Kind) Message() string {
	s, _ := k.entry()
	return s.message
}

func (k Kind) String() string {
	return k.Code()
}

// Violation is a single failed field constraint.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the umbrella error consumed at the HTTP boundary.
type Error struct {
	Kind       Kind
	Detail     string
	Violations []Violation
	Err        error
}

// New returns an error of the given kind without a cause.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Wrap attaches an internal cause to a kind.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// NewMalformedPayload reports a body that could not be decoded.
func NewMalformedPayload(err error) *Error {
	e := &Error{Kind: KindMalformedPayload, Err: err}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

// NewFailedConstraints reports every violated field constraint.
func NewFailedConstraints(violations []Violation) *Error {
	return &Error{Kind: KindFailedConstraints, Violations: violations}
}

func (e *Error) Error() string {
	msg := e.PublicMessage(false)
	if e.Err != nil && e.Detail == "" {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind && other.Err == nil
}

// Status returns the HTTP status for the error.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// PublicMessage renders the client facing message. Internal causes of 5xx
// kinds are only appended when exposeInternal is set.
func (e *Error) PublicMessage(exposeInternal bool) string {
	base := e.Kind.Message()
	switch e.Kind {
	case KindMalformedPayload:
		if e.Detail != "" {
			return base + ": " + e.Detail
		}
	case KindFailedConstraints:
		if len(e.Violations) > 0 {
			parts := make([]string, 0, len(e.Violations))
			for _, v := range e.Violations {
				parts = append(parts, v.Field+": "+v.Message)
			}
			return base + ": " + strings.Join(parts, "; ")
		}
	default:
		if e.Status() >= http.StatusInternalServerError && exposeInternal && e.Err != nil {
			return base + ": " + e.Err.Error()
		}
	}
	return base
}

// Envelope is the sole wire representation of a failure.
type Envelope struct {
	Message *string `json:"message"`
	Code    uint16  `json:"code"`
}

// Envelope converts the error into its wire shape.
func (e *Error) Envelope(exposeInternal bool) Envelope {
	msg := e.PublicMessage(exposeInternal)
	return Envelope{Message: &msg, Code: uint16(e.Status())}
}

// NewEnvelope builds an envelope for failures that originate outside the
// taxonomy, such as unmatched routes.
func NewEnvelope(status int, message string) Envelope {
	env := Envelope{Code: uint16(status)}
	if message != "" {
		env.Message = &message
	}
	return env
}

// ToError normalises any error into the umbrella type.
func ToError(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(KindInternal, err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
