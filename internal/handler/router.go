package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	docsysSvc "propdocs/internal/domain/services/docsystem"
	"propdocs/internal/filetypes"
	"propdocs/internal/httputil"
	"propdocs/internal/middleware"
)

// RouterConfig holds what the REST surface is built from
type RouterConfig struct {
	Nodes    docsysSvc.NodeService
	Comments docsysSvc.CommentService
	Users    docsysSvc.UserService
	Catalog  *filetypes.Catalog
	DB       Pinger // optional, used by /health
	Logger   *slog.Logger
}

// NewRouter wires every route of the API
func NewRouter(cfg RouterConfig) http.Handler {
	nodeHandler := NewNodeHandler(cfg.Nodes, cfg.Logger)
	trashHandler := NewTrashHandler(cfg.Nodes, cfg.Logger)
	commentHandler := NewCommentHandler(cfg.Comments, cfg.Logger)
	directoryHandler := NewDirectoryHandler(cfg.Users, cfg.Catalog, cfg.Logger)
	healthHandler := NewHealthHandler(cfg.DB, cfg.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondError(w, http.StatusNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondError(w, http.StatusMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/health", healthHandler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.Users, cfg.Logger))

		// Folders and documents
		r.Get("/nodes", nodeHandler.ListChildren)
		r.Post("/nodes/delete", nodeHandler.Delete)
		r.Get("/nodes/{id}", nodeHandler.GetNode)
		r.Patch("/nodes/{id}/name", nodeHandler.Rename)
		r.Patch("/nodes/{id}/metadata", nodeHandler.EditMetadata)
		r.Patch("/nodes/{id}/parent", nodeHandler.Move)
		r.Post("/folders", nodeHandler.CreateFolder)

		// Trash
		r.Get("/trash", trashHandler.List)
		r.Post("/trash/restore", trashHandler.Restore)
		r.Post("/trash/purge", trashHandler.Purge)

		// Comments
		r.Get("/documents/{id}/comments", commentHandler.List)
		r.Post("/documents/{id}/comments", commentHandler.Create)
		r.Post("/comments/{id}/replies", commentHandler.Reply)
		r.Patch("/comments/{id}", commentHandler.Update)
		r.Delete("/comments/{id}", commentHandler.Delete)

		// Pickers
		r.Get("/users", directoryHandler.ListUsers)
		r.Get("/filetypes", directoryHandler.ListFileTypes)
	})

	return r
}
