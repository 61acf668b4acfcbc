package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	docsysSvc "propdocs/internal/domain/services/docsystem"
	"propdocs/internal/httputil"
)

// CommentHandler handles document comments
type CommentHandler struct {
	commentService docsysSvc.CommentService
	logger         *slog.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService docsysSvc.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger,
	}
}

// List returns a document's comment threads
// GET /api/documents/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	docID, err := parseID(chi.URLParam(r, "id"), "document")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	threads, err := h.commentService.ListThreads(r.Context(), docID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, threads)
}

// Create adds a top-level comment
// POST /api/documents/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	docID, err := parseID(chi.URLParam(r, "id"), "document")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	var req docsysSvc.CreateCommentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	req.DocumentID = docID
	req.AuthorID = httputil.GetUserID(r)
	req.AuthorName = httputil.GetUserName(r)

	comment, err := h.commentService.CreateComment(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, comment)
}

// Reply answers a comment
// POST /api/comments/{id}/replies
func (h *CommentHandler) Reply(w http.ResponseWriter, r *http.Request) {
	parentID, err := parseID(chi.URLParam(r, "id"), "comment")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	var req docsysSvc.ReplyRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	req.ParentID = parentID
	req.AuthorID = httputil.GetUserID(r)
	req.AuthorName = httputil.GetUserName(r)

	reply, err := h.commentService.CreateReply(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, reply)
}

// Update edits a comment's text
// PATCH /api/comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "comment")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	var req docsysSvc.UpdateCommentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	req.UserID = httputil.GetUserID(r)

	comment, err := h.commentService.UpdateComment(r.Context(), id, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, comment)
}

// Delete removes a comment and its replies
// DELETE /api/comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "comment")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.commentService.DeleteComment(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondMessage(w, http.StatusOK, "Comment deleted")
}
