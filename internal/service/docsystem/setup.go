package docsystem

import (
	"log/slog"

	"propdocs/internal/cache"
	"propdocs/internal/domain/repositories"
	docsysRepo "propdocs/internal/domain/repositories/docsystem"
	docsysSvc "propdocs/internal/domain/services/docsystem"
	"propdocs/internal/filetypes"
)

// Repositories groups the storage the services run on
type Repositories struct {
	Nodes     docsysRepo.NodeRepository
	Comments  docsysRepo.CommentRepository
	Users     docsysRepo.UserRepository
	TxManager repositories.TransactionManager
}

// Services groups the document system services
type Services struct {
	Nodes    docsysSvc.NodeService
	Comments docsysSvc.CommentService
	Users    docsysSvc.UserService
}

// SetupServices builds the services over repos. listings may be cache.Noop.
func SetupServices(
	repos Repositories,
	listings cache.ListingCache,
	catalog *filetypes.Catalog,
	logger *slog.Logger,
) *Services {
	validator := NewResourceValidator(repos.Nodes)
	sanitizer := NewTextSanitizer()

	return &Services{
		Nodes:    NewNodeService(repos.Nodes, repos.TxManager, listings, catalog, validator, sanitizer, logger),
		Comments: NewCommentService(repos.Comments, repos.Users, validator, sanitizer, logger),
		Users:    NewUserService(repos.Users, logger),
	}
}
