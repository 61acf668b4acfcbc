package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	models "propdocs/internal/domain/models/docsystem"
	docsysSvc "propdocs/internal/domain/services/docsystem"
	"propdocs/internal/httputil"
)

// TrashHandler handles the recycle bin
type TrashHandler struct {
	nodeService docsysSvc.NodeService
	logger      *slog.Logger
}

// NewTrashHandler creates a new trash handler
func NewTrashHandler(nodeService docsysSvc.NodeService, logger *slog.Logger) *TrashHandler {
	return &TrashHandler{
		nodeService: nodeService,
		logger:      logger,
	}
}

// List lists trashed nodes with their original paths
// GET /api/trash
func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.nodeService.ListTrash(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// Restore brings trashed nodes back
// POST /api/trash/restore
func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.BatchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	n, err := h.nodeService.Restore(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.MessageResponse{
		Message:  fmt.Sprintf("Restored %d item(s)", len(req.IDs)),
		Affected: n,
	})
}

// Purge permanently deletes trashed nodes
// POST /api/trash/purge
func (h *TrashHandler) Purge(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.BatchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	n, err := h.nodeService.Purge(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.MessageResponse{
		Message:  fmt.Sprintf("Permanently deleted %d item(s)", n),
		Affected: n,
	})
}
