package docsystem

import (
	"context"
	"fmt"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
	docsysRepo "propdocs/internal/domain/repositories/docsystem"
)

// ResourceValidator checks that the nodes an operation targets exist, are
// live, and are of the right kind
type ResourceValidator struct {
	nodeRepo docsysRepo.NodeRepository
}

// NewResourceValidator creates a new resource validator
func NewResourceValidator(nodeRepo docsysRepo.NodeRepository) *ResourceValidator {
	return &ResourceValidator{nodeRepo: nodeRepo}
}

// ValidateFolder ensures folderID names a live folder.
// A nil folderID is the root, which is always valid.
func (v *ResourceValidator) ValidateFolder(ctx context.Context, folderID *string) (*models.Node, error) {
	if folderID == nil {
		return nil, nil
	}

	node, err := v.nodeRepo.GetByID(ctx, *folderID)
	if err != nil {
		return nil, fmt.Errorf("invalid folder: %w", err)
	}
	if !node.IsFolder {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("'%s' is not a folder", node.Name)}
	}
	return node, nil
}

// ValidateDocument ensures documentID names a live file
func (v *ResourceValidator) ValidateDocument(ctx context.Context, documentID string) (*models.Node, error) {
	node, err := v.nodeRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	if node.IsFolder {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("'%s' is a folder, not a document", node.Name)}
	}
	return node, nil
}

// CheckSiblingName returns a ConflictError when another live node under
// parentID already uses name. excludeID is the node being renamed or moved.
func (v *ResourceValidator) CheckSiblingName(ctx context.Context, parentID *string, name, excludeID string) error {
	existing, err := v.nodeRepo.FindByName(ctx, parentID, name)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate names: %w", err)
	}
	if existing == nil || existing.ID == excludeID {
		return nil
	}

	resourceType := "document"
	if existing.IsFolder {
		resourceType = "folder"
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("a %s named %q already exists in this location", resourceType, name),
		ResourceType: resourceType,
		ResourceID:   existing.ID,
	}
}

// CheckNotDescendant rejects moving folderID under targetID when targetID is
// the folder itself or lies inside its subtree
func (v *ResourceValidator) CheckNotDescendant(ctx context.Context, folderID string, targetID *string) error {
	current := targetID
	for current != nil {
		if *current == folderID {
			return &domain.ValidationError{Message: "cannot move a folder into itself or one of its subfolders"}
		}
		parent, err := v.nodeRepo.GetByID(ctx, *current)
		if err != nil {
			return fmt.Errorf("failed to walk folder ancestry: %w", err)
		}
		current = parent.ParentID
	}
	return nil
}
