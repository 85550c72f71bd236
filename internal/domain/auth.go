package domain

// TokenKind differentiates the purposes a signed token may serve.
type TokenKind string

const (
	TokenKindAccess        TokenKind = "access"
	TokenKindRefresh       TokenKind = "refresh"
	TokenKindPasswordReset TokenKind = "password_reset"
)
