package docsystem

import (
	"context"
	"time"

	"propdocs/internal/domain/models/docsystem"
)

// NodeRepository defines data access for folders and documents.
// Reads skip trashed nodes unless the method says otherwise.
type NodeRepository interface {
	// Create inserts a node; a live sibling with the same name is a conflict
	Create(ctx context.Context, node *docsystem.Node) error

	// GetByID retrieves a live node
	GetByID(ctx context.Context, id string) (*docsystem.Node, error)

	// GetTrashed retrieves a node that is in the trash
	GetTrashed(ctx context.Context, id string) (*docsystem.Node, error)

	// FindByName returns the live sibling called name under parentID, or nil
	FindByName(ctx context.Context, parentID *string, name string) (*docsystem.Node, error)

	// ListChildren lists the live immediate children of a folder (nil = root)
	ListChildren(ctx context.Context, parentID *string) ([]*docsystem.Node, error)

	// Update persists name, parent, property link, tags, file type and modification date
	Update(ctx context.Context, node *docsystem.Node) error

	// SoftDeleteSubtree moves a node and its live descendants to the trash
	SoftDeleteSubtree(ctx context.Context, id string, at time.Time) (int64, error)

	// ListTrash lists trashed nodes that were deleted on their own, newest first
	ListTrash(ctx context.Context) ([]*docsystem.Node, error)

	// RestoreSubtree brings a trashed node, and the descendants trashed with it,
	// back under parentID
	RestoreSubtree(ctx context.Context, id string, parentID *string, at time.Time) (int64, error)

	// Purge permanently deletes a trashed node and everything below it
	Purge(ctx context.Context, id string) error

	// GetPath computes the slash-separated path of a node, trashed or not
	GetPath(ctx context.Context, id string) (string, error)
}
