package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderooms-server/internal/core"
	"github.com/vovakirdan/coderooms-server/internal/proto"
)

const (
	errCodeBadRequest = "bad_request"
	errCodeInternal   = "internal_error"
)

// statusFor maps a domain error to its HTTP status.
func statusFor(ce *core.CoreError) int {
	switch ce.Kind {
	case core.KindValidation:
		if ce.Code == core.ErrCodeCodeTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindRateLimited:
		return http.StatusTooManyRequests
	case core.KindAuth:
		return http.StatusUnauthorized
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a proto.Error. Errors that are not domain
// errors are logged and hidden behind a generic 500.
func writeError(c *gin.Context, logger *zerolog.Logger, err error) {
	var ce *core.CoreError
	if !errors.As(err, &ce) {
		logger.Error().Err(err).Str("request_id", c.GetString(ContextKeyRequestID)).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, proto.Error{Error: "internal server error", Code: errCodeInternal})
		return
	}

	status := statusFor(ce)
	if ce.Kind == core.KindStorage {
		logger.Error().Err(ce.Err).Str("request_id", c.GetString(ContextKeyRequestID)).Msg("storage failure")
	}
	if ce.Kind == core.KindRateLimited && ce.RetryAfter > 0 {
		secs := int(math.Ceil(ce.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(secs))
	}
	c.JSON(status, proto.Error{Error: ce.Message, Code: ce.Code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, proto.Error{Error: msg, Code: errCodeBadRequest})
}

// isBodyTooLarge reports whether err came from http.MaxBytesReader.
func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
