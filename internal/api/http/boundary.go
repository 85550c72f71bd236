package http

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"runtime/debug"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/storefront-auth/internal/api/response"
	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/observability"
	"github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

const (
	pgInvalidTextRepresentation = "22P02"
	pgUniqueViolation           = "23505"
)

var uniqueKeyDetail = regexp.MustCompile(`Key \(([^)]+)\)=`)

// failure is a classified error ready to render.
type failure struct {
	status   int
	message  string
	code     string
	messages []string
}

// ErrorHandler is the single place a failed request becomes a response. It is
// installed as fiber's ErrorHandler, so every error returned by a handler or
// middleware reaches it, and it logs each failure exactly once. maxBodyMB
// phrases the 413 fiber raises itself when a body exceeds its BodyLimit.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics, maxBodyMB int) fiber.ErrorHandler {
	if maxBodyMB <= 0 {
		maxBodyMB = config.DefaultMaxBodyMB
	}
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code == http.StatusRequestEntityTooLarge {
			err = fmt.Errorf("%w: %w", errorutil.NewPayloadTooLarge(maxBodyMB), err)
		}
		f := classify(err)

		who := "anonymous"
		if identity, ok := auth.IdentityFromContext(c); ok {
			who = identity.Email
		}
		level := zapcore.WarnLevel
		if f.status >= http.StatusInternalServerError {
			level = zapcore.ErrorLevel
		}
		logger.Log(level, "request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.String("user", who),
			zap.Int("status", f.status),
			zap.String("code", f.code),
			zap.Error(err),
		)
		metrics.RecordError(c.Route().Path, c.Method(), f.code)

		if f.messages != nil {
			return response.ValidationError(c, f.messages)
		}
		return response.Error(c, f.message, f.status, "")
	}
}

// classify maps err onto a response. Categories are checked in a fixed order
// and the first match wins.
func classify(err error) failure {
	kind := errorutil.KindOf(err)

	var pgErr *pgconn.PgError
	isPg := errors.As(err, &pgErr)

	switch {
	case errorutil.HasKind(err, errorutil.KindMalformedIdentifier) || (isPg && pgErr.Code == pgInvalidTextRepresentation):
		return failure{status: http.StatusNotFound, message: "Resource not found", code: errorutil.KindMalformedIdentifier.Code()}

	case isPg && pgErr.Code == pgUniqueViolation:
		return failure{status: http.StatusConflict, message: duplicateField(pgErr) + " already exists", code: errorutil.KindConflict.Code()}

	case kind == errorutil.KindValidationFailed:
		return failure{status: http.StatusBadRequest, code: kind.Code(), messages: nonNil(errorutil.ToDomainError(err).Messages)}
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		messages := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			messages = append(messages, fe.Error())
		}
		return failure{status: http.StatusBadRequest, code: errorutil.KindValidationFailed.Code(), messages: messages}
	}

	switch {
	case invalidCredential(err):
		return failure{status: http.StatusUnauthorized, message: "Invalid token", code: errorutil.KindTokenMalformed.Code()}

	case errorutil.HasKind(err, errorutil.KindTokenExpired) || errors.Is(err, jwt.ErrTokenExpired):
		return failure{status: http.StatusUnauthorized, message: "Token expired", code: errorutil.KindTokenExpired.Code()}

	case storageUnavailable(err):
		return failure{
			status:  http.StatusServiceUnavailable,
			message: errorutil.ErrUpstreamUnavailable.Message,
			code:    errorutil.KindUpstreamUnavailable.Code(),
		}
	}

	if de := errorutil.ToDomainError(err); de != nil {
		status := de.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return failure{status: status, message: orDefault(de.Message), code: de.Code()}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := errorutil.KindUnclassified.Code()
		if fe.Code == http.StatusNotFound {
			code = errorutil.KindNotFound.Code()
		}
		return failure{status: fe.Code, message: orDefault(fe.Message), code: code}
	}
	return failure{status: http.StatusInternalServerError, message: orDefault(err.Error()), code: errorutil.KindUnclassified.Code()}
}

func invalidCredential(err error) bool {
	if errorutil.HasKind(err, errorutil.KindTokenMalformed) || errorutil.HasKind(err, errorutil.KindTokenAudienceMismatch) {
		return true
	}
	for _, target := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenInvalidAudience,
		jwt.ErrTokenInvalidIssuer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// storageUnavailable matches outages anywhere in the chain, so a resolver
// fault wrapped by the authentication stage still reads as one.
func storageUnavailable(err error) bool {
	if errorutil.HasKind(err, errorutil.KindUpstreamUnavailable) || errors.Is(err, redis.ErrClosed) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// duplicateField pulls the column name out of a unique-violation detail such
// as `Key (email)=(a@b.c) already exists.`.
func duplicateField(pgErr *pgconn.PgError) string {
	if m := uniqueKeyDetail.FindStringSubmatch(pgErr.Detail); m != nil {
		return m[1]
	}
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	return "resource"
}

func orDefault(message string) string {
	if message == "" {
		return "Internal Server Error"
	}
	return message
}

func nonNil(messages []string) []string {
	if messages == nil {
		return []string{}
	}
	return messages
}

// Recover turns a panic in a later handler into an error for ErrorHandler,
// which logs it along with the stack.
func Recover() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errorutil.NewInternalError("", fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
			}
		}()
		return c.Next()
	}
}
