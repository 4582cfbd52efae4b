package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"netrunner/application"
	"netrunner/domain/catalog"
	"netrunner/domain/services"

	log "github.com/sirupsen/logrus"
)

// Error codes returned in API error responses
const (
	CodeUnauthenticated    = "unauthenticated"
	CodeInvalidArgument    = "invalid-argument"
	CodeFailedPrecondition = "failed-precondition"
	CodeUnavailable        = "unavailable"
	CodeInternal           = "internal"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a JSON error response with the given status and code
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}}); err != nil {
		log.WithField("error", err).Error("Failed to encode error response")
	}
}

// writeDomainError maps domain and application errors onto API error codes.
// Policy rejections (cooldown, locked, banned) are not errors; they arrive
// here only as sentinel errors from services.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrUnknownCommand):
		writeError(w, http.StatusNotFound, CodeInvalidArgument, "unknown command")
	case errors.Is(err, services.ErrUnknownPlayer):
		writeError(w, http.StatusNotFound, CodeFailedPrecondition, "unknown player")
	case errors.Is(err, services.ErrStarterCommand):
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "command does not require an unlock")
	case errors.Is(err, services.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, CodeFailedPrecondition, "insufficient balance")
	case errors.Is(err, services.ErrLevelTooLow):
		writeError(w, http.StatusConflict, CodeFailedPrecondition, "player level too low")
	case errors.Is(err, application.ErrTransactionAborted):
		writeError(w, http.StatusServiceUnavailable, CodeUnavailable, "transaction aborted, retry with the same trace id")
	default:
		log.WithField("error", err).Error("Unhandled error in request handler")
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
