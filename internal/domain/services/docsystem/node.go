package docsystem

import (
	"context"

	"propdocs/internal/domain/models/docsystem"
)

// NodeService handles folder/document business logic
type NodeService interface {
	// ListChildren lists the live children of a folder (nil = root)
	ListChildren(ctx context.Context, parentID *string) ([]*docsystem.Node, error)

	// GetNode retrieves a live node
	GetNode(ctx context.Context, id string) (*docsystem.Node, error)

	// CreateFolder creates an empty folder
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*docsystem.Node, error)

	// Rename renames a node; a file's type follows its new extension
	Rename(ctx context.Context, id string, req *RenameRequest) (*docsystem.Node, error)

	// EditMetadata replaces the linked property and tags of a node
	EditMetadata(ctx context.Context, id string, req *EditMetadataRequest) (*docsystem.Node, error)

	// Move re-parents a node; moving a folder into its own subtree is rejected
	Move(ctx context.Context, id string, req *MoveRequest) (*docsystem.Node, error)

	// Delete moves nodes and their subtrees to the trash
	Delete(ctx context.Context, req *BatchRequest) (int64, error)

	// ListTrash lists nodes deleted on their own, with their original path
	ListTrash(ctx context.Context) ([]*docsystem.Node, error)

	// Restore brings trashed nodes back to their original folder, or to the
	// root when that folder no longer exists
	Restore(ctx context.Context, req *BatchRequest) (int64, error)

	// Purge permanently deletes trashed nodes
	Purge(ctx context.Context, req *BatchRequest) (int64, error)
}

// RenameRequest represents a rename request
type RenameRequest struct {
	Name string `json:"name"`
}

// EditMetadataRequest replaces a node's descriptive metadata
type EditMetadataRequest struct {
	PropertyID string   `json:"property_id"` // empty unlinks the property
	Tags       []string `json:"tags"`
}

// MoveRequest represents a move request
type MoveRequest struct {
	ParentID *string `json:"parent_id"` // null moves to the root
}

// BatchRequest names the nodes a bulk operation applies to
type BatchRequest struct {
	IDs []string `json:"ids"`
}
