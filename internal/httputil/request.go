package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"propdocs/internal/domain"
)

// maxBodyBytes bounds request bodies; the largest is a full delete batch.
const maxBodyBytes = 1 << 20

// ParseJSON decodes the request body into dest. Malformed or oversized bodies
// come back as a *domain.ValidationError.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return &domain.ValidationError{Message: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)}
		case errors.Is(err, io.EOF):
			return &domain.ValidationError{Message: "request body is empty"}
		default:
			return &domain.ValidationError{Message: fmt.Sprintf("invalid JSON: %v", err)}
		}
	}
	return nil
}
