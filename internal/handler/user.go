package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "propdocs/internal/domain/services/docsystem"
	"propdocs/internal/filetypes"
	"propdocs/internal/httputil"
)

// DirectoryHandler serves the lookup lists the dashboard pickers use
type DirectoryHandler struct {
	userService docsysSvc.UserService
	catalog     *filetypes.Catalog
	logger      *slog.Logger
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(userService docsysSvc.UserService, catalog *filetypes.Catalog, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		userService: userService,
		catalog:     catalog,
		logger:      logger,
	}
}

// ListUsers returns the mention candidates
// GET /api/users
func (h *DirectoryHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, users)
}

// ListFileTypes returns the file type catalog
// GET /api/filetypes
func (h *DirectoryHandler) ListFileTypes(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.catalog.Types())
}
