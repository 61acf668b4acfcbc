package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"propdocs/internal/domain"
	"propdocs/internal/httputil"
)

// handleError converts domain errors to RFC 7807 responses. Conflicts name
// the node already holding the name so clients can point at it.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var conflictErr *domain.ConflictError

	status := domain.StatusFor(err)
	switch {
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]any{
			"resource_id":   conflictErr.ResourceID,
			"resource_type": conflictErr.ResourceType,
		})
	case status == http.StatusInternalServerError:
		logger.Error("request failed", "error", err)
		httputil.RespondError(w, status, "internal server error")
	default:
		httputil.RespondError(w, status, err.Error())
	}
}

// parseID validates an id taken from the URL
func parseID(raw, what string) (string, error) {
	if err := uuid.Validate(raw); err != nil {
		return "", &domain.ValidationError{Message: fmt.Sprintf("invalid %s id %q", what, raw)}
	}
	return raw, nil
}
