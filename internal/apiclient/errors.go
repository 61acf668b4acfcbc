package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"propdocs/internal/domain"
	"propdocs/internal/httputil"
)

// Error is a non-2xx answer from the API. It unwraps to the matching domain
// sentinel, or to a *domain.ConflictError for name collisions, so callers
// can use errors.Is and errors.As as they would against the services.
type Error struct {
	Status int
	Detail string
	cause  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func decodeError(status int, body []byte) *Error {
	apiErr := &Error{Status: status, cause: domain.ErrorForStatus(status)}

	var problem httputil.ProblemDetail
	if err := json.Unmarshal(body, &problem); err != nil || problem.Status == 0 {
		apiErr.Detail = strings.TrimSpace(string(body))
		if apiErr.Detail == "" {
			apiErr.Detail = http.StatusText(status)
		}
		return apiErr
	}

	apiErr.Detail = problem.Detail
	if apiErr.Detail == "" {
		apiErr.Detail = problem.Title
	}
	if status == http.StatusConflict {
		conflict := &domain.ConflictError{Message: apiErr.Detail}
		conflict.ResourceID, _ = problem.Extra["resource_id"].(string)
		conflict.ResourceType, _ = problem.Extra["resource_type"].(string)
		apiErr.cause = conflict
	}
	return apiErr
}
