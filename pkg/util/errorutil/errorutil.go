package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the closed set of failure shapes the request pipeline understands.
type Kind int

const (
	KindUnclassified Kind = iota
	KindTokenMissing
	KindTokenExpired
	KindTokenMalformed
	KindTokenAudienceMismatch
	KindIdentityNotFound
	KindIdentityUnverified
	KindRoleForbidden
	KindValidationFailed
	KindPayloadTooLarge
	KindUpstreamUnavailable
	KindMalformedIdentifier
	KindConflict
	KindInvalidCredentials
	KindNotFound
)

var kindCodes = map[Kind]string{
	KindUnclassified:          "INTERNAL_ERROR",
	KindTokenMissing:          "TOKEN_MISSING",
	KindTokenExpired:          "TOKEN_EXPIRED",
	KindTokenMalformed:        "TOKEN_MALFORMED",
	KindTokenAudienceMismatch: "TOKEN_AUDIENCE_MISMATCH",
	KindIdentityNotFound:      "IDENTITY_NOT_FOUND",
	KindIdentityUnverified:    "IDENTITY_UNVERIFIED",
	KindRoleForbidden:         "ROLE_FORBIDDEN",
	KindValidationFailed:      "VALIDATION_FAILED",
	KindPayloadTooLarge:       "PAYLOAD_TOO_LARGE",
	KindUpstreamUnavailable:   "UPSTREAM_UNAVAILABLE",
	KindMalformedIdentifier:   "MALFORMED_IDENTIFIER",
	KindConflict:              "CONFLICT",
	KindInvalidCredentials:    "INVALID_CREDENTIALS",
	KindNotFound:              "NOT_FOUND",
}

// Code returns the stable machine-readable code for the kind.
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[KindUnclassified]
}

func (k Kind) String() string {
	return k.Code()
}

// DomainError standardizes application errors.
type DomainError struct {
	Kind       Kind
	Message    string
	HTTPStatus int
	Messages   []string
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Code returns the machine-readable code of the error's kind.
func (e *DomainError) Code() string {
	return e.Kind.Code()
}

// NewDomainError constructs a DomainError.
func NewDomainError(kind Kind, message string, status int) *DomainError {
	return &DomainError{Kind: kind, Message: message, HTTPStatus: status}
}

// Sentinels shared by the token service, the authentication middleware and the
// error boundary. Match them with errors.Is; wrap them with fmt.Errorf("%w").
var (
	ErrTokenMissing          = NewDomainError(KindTokenMissing, "Access token required", http.StatusUnauthorized)
	ErrTokenExpired          = NewDomainError(KindTokenExpired, "Token expired", http.StatusUnauthorized)
	ErrTokenMalformed        = NewDomainError(KindTokenMalformed, "Invalid token", http.StatusUnauthorized)
	ErrTokenAudienceMismatch = NewDomainError(KindTokenAudienceMismatch, "Invalid token audience", http.StatusUnauthorized)
	ErrIdentityNotFound      = NewDomainError(KindIdentityNotFound, "User not found", http.StatusUnauthorized)
	ErrIdentityUnverified    = NewDomainError(KindIdentityUnverified, "Please verify your email address", http.StatusUnauthorized)
	ErrRoleForbidden         = NewDomainError(KindRoleForbidden, "Insufficient permissions", http.StatusForbidden)
	ErrUpstreamUnavailable   = NewDomainError(KindUpstreamUnavailable, "Database connection error", http.StatusServiceUnavailable)
	ErrInvalidCredentials    = NewDomainError(KindInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
)

// NewValidationFailed aggregates per-field messages into a single failure.
func NewValidationFailed(messages []string) error {
	return &DomainError{
		Kind:       KindValidationFailed,
		Message:    "Validation Error",
		HTTPStatus: http.StatusBadRequest,
		Messages:   messages,
	}
}

// NewPayloadTooLarge reports a request body over the configured ceiling.
func NewPayloadTooLarge(maxMB int) error {
	return NewDomainError(KindPayloadTooLarge,
		fmt.Sprintf("Request body too large. Maximum size is %dMB", maxMB),
		http.StatusRequestEntityTooLarge)
}

// NewMalformedIdentifier wraps an identifier parse failure.
func NewMalformedIdentifier(err error) error {
	return &DomainError{
		Kind:       KindMalformedIdentifier,
		Message:    "Resource not found",
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}

func NewNotFound(resource string) error {
	return NewDomainError(KindNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewUnauthorized(message string) error {
	return NewDomainError(KindInvalidCredentials, message, http.StatusUnauthorized)
}

func NewConflict(message string) error {
	return NewDomainError(KindConflict, message, http.StatusConflict)
}

// NewInternalError hides err behind message; an empty message means the generic one.
func NewInternalError(message string, err error) error {
	if message == "" {
		message = "Internal Server Error"
	}
	return &DomainError{
		Kind:       KindUnclassified,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError returns the first DomainError in err's chain, or nil.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// KindOf classifies err against the taxonomy.
func KindOf(err error) Kind {
	if de := ToDomainError(err); de != nil {
		return de.Kind
	}
	return KindUnclassified
}

// HasKind reports whether any DomainError in err's tree is of kind, including
// ones wrapped inside another DomainError.
func HasKind(err error, kind Kind) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *DomainError:
		return e.Kind == kind || HasKind(e.Err, kind)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if HasKind(inner, kind) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return HasKind(e.Unwrap(), kind)
	}
	return false
}

// JoinMessages renders a validation message set the way clients receive it.
func JoinMessages(messages []string) string {
	return strings.Join(messages, ", ")
}
