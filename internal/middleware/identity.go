package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	models "propdocs/internal/domain/models/docsystem"
	docsysSvc "propdocs/internal/domain/services/docsystem"
	"propdocs/internal/httputil"
)

// Identity headers set by the upstream gateway. They are trusted as-is.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserName  = "X-User-Name"
	HeaderUserEmail = "X-User-Email"
)

// Identity copies the caller from the identity headers into the request
// context and records each new caller in the mention directory. Requests
// without an id pass through anonymously.
func Identity(users docsysSvc.UserService, logger *slog.Logger) func(http.Handler) http.Handler {
	var seen sync.Map // id + name + email -> struct{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderUserID))
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			name := strings.TrimSpace(r.Header.Get(HeaderUserName))
			email := strings.TrimSpace(r.Header.Get(HeaderUserEmail))

			key := id + "\x00" + name + "\x00" + email
			if _, ok := seen.Load(key); !ok {
				user := &models.User{ID: id, DisplayName: name, Email: email}
				if err := users.Touch(r.Context(), user); err != nil {
					logger.Warn("failed to record user", "user_id", id, "error", err)
				} else {
					seen.Store(key, struct{}{})
				}
			}

			next.ServeHTTP(w, httputil.WithUser(r, id, name))
		})
	}
}
