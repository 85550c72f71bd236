package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_FollowsWrapping(t *testing.T) {
	wrapped := fmt.Errorf("verify access token: %w", ErrTokenExpired)
	assert.Equal(t, KindTokenExpired, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, ErrTokenExpired)
	assert.NotErrorIs(t, wrapped, ErrTokenMalformed)

	assert.Equal(t, KindUnclassified, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnclassified, KindOf(nil))
	assert.Nil(t, ToDomainError(nil))
}

func TestDomainError_Message(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewInternalError("Authentication failed", cause)
	assert.Equal(t, "Authentication failed: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, ToDomainError(err).HTTPStatus)

	assert.Equal(t, "Internal Server Error", ToDomainError(NewInternalError("", nil)).Message)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err     error
		kind    Kind
		status  int
		message string
	}{
		{NewPayloadTooLarge(10), KindPayloadTooLarge, http.StatusRequestEntityTooLarge, "Request body too large. Maximum size is 10MB"},
		{NewMalformedIdentifier(errors.New("x")), KindMalformedIdentifier, http.StatusNotFound, "Resource not found"},
		{NewNotFound("User"), KindNotFound, http.StatusNotFound, "User not found"},
		{NewConflict("email already exists"), KindConflict, http.StatusConflict, "email already exists"},
		{NewUnauthorized("Authentication required"), KindInvalidCredentials, http.StatusUnauthorized, "Authentication required"},
		{ErrIdentityUnverified, KindIdentityUnverified, http.StatusUnauthorized, "Please verify your email address"},
		{ErrRoleForbidden, KindRoleForbidden, http.StatusForbidden, "Insufficient permissions"},
	}
	for _, tt := range tests {
		de := ToDomainError(tt.err)
		if assert.NotNil(t, de, tt.message) {
			assert.Equal(t, tt.kind, de.Kind)
			assert.Equal(t, tt.status, de.HTTPStatus)
			assert.Equal(t, tt.message, de.Message)
		}
	}
}

func TestValidationFailed(t *testing.T) {
	err := NewValidationFailed([]string{"Price is required", "Invalid category ID"})
	de := ToDomainError(err)
	assert.Equal(t, KindValidationFailed, de.Kind)
	assert.Equal(t, "VALIDATION_FAILED", de.Code())
	assert.Equal(t, "Price is required, Invalid category ID", JoinMessages(de.Messages))
}

func TestKindCode_UnknownFallsBack(t *testing.T) {
	assert.Equal(t, "INTERNAL_ERROR", Kind(999).Code())
	assert.Equal(t, "TOKEN_AUDIENCE_MISMATCH", KindTokenAudienceMismatch.String())
}

func TestHasKind_WalksNestedDomainErrors(t *testing.T) {
	nested := NewInternalError("Authentication failed", fmt.Errorf("resolve: %w", ErrUpstreamUnavailable))
	assert.Equal(t, KindUnclassified, KindOf(nested))
	assert.True(t, HasKind(nested, KindUpstreamUnavailable))
	assert.True(t, HasKind(nested, KindUnclassified))
	assert.False(t, HasKind(nested, KindTokenExpired))

	joined := fmt.Errorf("%w: %w", errors.New("plain"), ErrTokenMalformed)
	assert.True(t, HasKind(joined, KindTokenMalformed))
	assert.False(t, HasKind(nil, KindUnclassified))
}
