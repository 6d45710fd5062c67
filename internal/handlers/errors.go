package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"smartbin-backend/internal/errors"
	"smartbin-backend/pkg/utils"
)

// statusFor maps an application error code to the HTTP status returned to
// the dashboard.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrInvalidArgument:
		return http.StatusBadRequest
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrIntegrityViolation:
		return http.StatusConflict
	case errors.ErrTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondAppError writes err as a failure envelope. Client errors carry the
// error's own message; server errors are logged and replaced by fallback.
func respondAppError(w http.ResponseWriter, logger zerolog.Logger, err error, fallback string) {
	code := errors.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", string(code)).Msg("❌ request failed")
		utils.RespondError(w, status, fallback)
		return
	}
	utils.RespondError(w, status, err.Error())
}
