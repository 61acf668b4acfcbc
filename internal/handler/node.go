package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
	docsysSvc "propdocs/internal/domain/services/docsystem"
	"propdocs/internal/httputil"
)

// NodeHandler handles folder and document HTTP requests
type NodeHandler struct {
	nodeService docsysSvc.NodeService
	logger      *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(nodeService docsysSvc.NodeService, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{
		nodeService: nodeService,
		logger:      logger,
	}
}

// ListChildren lists the children of a folder
// GET /api/nodes?parent_id= (absent or empty = root)
func (h *NodeHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	var parentID *string
	if raw := r.URL.Query().Get("parent_id"); raw != "" {
		id, err := parseID(raw, "folder")
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		parentID = &id
	}

	nodes, err := h.nodeService.ListChildren(r.Context(), parentID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// GetNode retrieves a node with its path
// GET /api/nodes/{id}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "node")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	node, err := h.nodeService.GetNode(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// CreateFolder creates a folder
// POST /api/folders
func (h *NodeHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	if req.ParentID != nil && *req.ParentID != "" {
		if _, err := parseID(*req.ParentID, "folder"); err != nil {
			handleError(w, h.logger, err)
			return
		}
	}

	folder, err := h.nodeService.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, models.MessageResponse{
		Message: fmt.Sprintf("Folder '%s' created", folder.Name),
		Node:    folder,
	})
}

// Rename renames a node
// PATCH /api/nodes/{id}/name
func (h *NodeHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "node")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	var req docsysSvc.RenameRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	node, err := h.nodeService.Rename(r.Context(), id, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("Renamed to '%s'", node.Name),
		Node:    node,
	})
}

// EditMetadata replaces the linked property and tags
// PATCH /api/nodes/{id}/metadata
func (h *NodeHandler) EditMetadata(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "node")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	var req docsysSvc.EditMetadataRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	node, err := h.nodeService.EditMetadata(r.Context(), id, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.MessageResponse{
		Message: "Details updated",
		Node:    node,
	})
}

// moveBody requires parent_id to be present; null moves to the root
type moveBody struct {
	ParentID httputil.OptionalString `json:"parent_id"`
}

// Move re-parents a node
// PATCH /api/nodes/{id}/parent
func (h *NodeHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "node")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	var body moveBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		handleError(w, h.logger, err)
		return
	}
	if !body.ParentID.Present {
		handleError(w, h.logger, &domain.ValidationError{Message: "parent_id is required (null for the root)"})
		return
	}
	if v := body.ParentID.Value; v != nil && *v != "" {
		if _, err := parseID(*v, "folder"); err != nil {
			handleError(w, h.logger, err)
			return
		}
	}

	node, err := h.nodeService.Move(r.Context(), id, &docsysSvc.MoveRequest{ParentID: body.ParentID.Value})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("Moved '%s'", node.Name),
		Node:    node,
	})
}

// Delete moves nodes to the trash
// POST /api/nodes/delete
func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.BatchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	n, err := h.nodeService.Delete(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.MessageResponse{
		Message:  fmt.Sprintf("Moved %d item(s) to trash", len(req.IDs)),
		Affected: n,
	})
}
