package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"propdocs/internal/cache"
	"propdocs/internal/config"
	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
	"propdocs/internal/domain/repositories"
	docsysRepo "propdocs/internal/domain/repositories/docsystem"
	docsysSvc "propdocs/internal/domain/services/docsystem"
	"propdocs/internal/filetypes"
)

var noSlashes = regexp.MustCompile(`^[^/]+$`)

type nodeService struct {
	nodeRepo  docsysRepo.NodeRepository
	txManager repositories.TransactionManager
	listings  cache.ListingCache
	catalog   *filetypes.Catalog
	validator *ResourceValidator
	sanitizer *TextSanitizer
	logger    *slog.Logger
}

// NewNodeService creates a new node service
func NewNodeService(
	nodeRepo docsysRepo.NodeRepository,
	txManager repositories.TransactionManager,
	listings cache.ListingCache,
	catalog *filetypes.Catalog,
	validator *ResourceValidator,
	sanitizer *TextSanitizer,
	logger *slog.Logger,
) docsysSvc.NodeService {
	return &nodeService{
		nodeRepo:  nodeRepo,
		txManager: txManager,
		listings:  listings,
		catalog:   catalog,
		validator: validator,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// normalizeParent treats an empty parent id as the root
func normalizeParent(id *string) *string {
	if id != nil && *id == "" {
		return nil
	}
	return id
}

// ListChildren lists a folder's live children, served from the listing cache when possible
func (s *nodeService) ListChildren(ctx context.Context, parentID *string) ([]*models.Node, error) {
	parentID = normalizeParent(parentID)

	// The folder is checked even on a cache hit; a trashed folder's listing may still be cached.
	if _, err := s.validator.ValidateFolder(ctx, parentID); err != nil {
		return nil, err
	}

	if nodes, ok := s.listings.Get(ctx, parentID); ok {
		s.logger.Debug("listing cache hit", "parent_id", cache.ParentKey(parentID), "count", len(nodes))
		return nodes, nil
	}

	nodes, err := s.nodeRepo.ListChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	s.listings.Set(ctx, parentID, nodes)
	return nodes, nil
}

// GetNode retrieves a live node with its computed path
func (s *nodeService) GetNode(ctx context.Context, id string) (*models.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachPath(ctx, node)
	return node, nil
}

// CreateFolder creates an empty folder
func (s *nodeService) CreateFolder(ctx context.Context, req *docsysSvc.CreateFolderRequest) (*models.Node, error) {
	req.ParentID = normalizeParent(req.ParentID)
	name, err := s.cleanName(req.Name)
	if err != nil {
		return nil, err
	}

	if _, err := s.validator.ValidateFolder(ctx, req.ParentID); err != nil {
		return nil, err
	}
	if err := s.validator.CheckSiblingName(ctx, req.ParentID, name, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	folder := &models.Node{
		ID:           uuid.NewString(),
		ParentID:     req.ParentID,
		Name:         name,
		IsFolder:     true,
		Children:     []*models.Node{},
		Tags:         []string{},
		DateAdded:    now,
		DateModified: now,
	}
	if err := s.nodeRepo.Create(ctx, folder); err != nil {
		return nil, err
	}
	s.listings.Invalidate(ctx, req.ParentID)

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"parent_id", folder.ParentID,
	)
	return folder, nil
}

// Rename renames a node
func (s *nodeService) Rename(ctx context.Context, id string, req *docsysSvc.RenameRequest) (*models.Node, error) {
	name, err := s.cleanName(req.Name)
	if err != nil {
		return nil, err
	}

	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node.Name == name {
		return node, nil
	}
	if err := s.validator.CheckSiblingName(ctx, node.ParentID, name, node.ID); err != nil {
		return nil, err
	}

	oldName := node.Name
	node.Name = name
	if !node.IsFolder && s.catalog != nil {
		node.FileType = s.catalog.Lookup(name)
	}
	node.DateModified = time.Now().UTC()

	if err := s.nodeRepo.Update(ctx, node); err != nil {
		return nil, err
	}
	s.listings.Invalidate(ctx, node.ParentID)

	s.logger.Info("node renamed", "id", node.ID, "old_name", oldName, "name", node.Name)
	return node, nil
}

// EditMetadata replaces the linked property and tags
func (s *nodeService) EditMetadata(ctx context.Context, id string, req *docsysSvc.EditMetadataRequest) (*models.Node, error) {
	req.PropertyID = strings.TrimSpace(req.PropertyID)
	req.Tags = normalizeTags(req.Tags)
	if err := s.validateMetadataRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	node.LinkedProperty = req.PropertyID
	node.Tags = req.Tags
	node.DateModified = time.Now().UTC()

	if err := s.nodeRepo.Update(ctx, node); err != nil {
		return nil, err
	}
	s.listings.Invalidate(ctx, node.ParentID)

	s.logger.Info("node metadata updated",
		"id", node.ID,
		"property_id", node.LinkedProperty,
		"tags", len(node.Tags),
	)
	return node, nil
}

// Move re-parents a node
func (s *nodeService) Move(ctx context.Context, id string, req *docsysSvc.MoveRequest) (*models.Node, error) {
	target := normalizeParent(req.ParentID)

	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sameParent(node.ParentID, target) {
		return node, nil
	}

	if _, err := s.validator.ValidateFolder(ctx, target); err != nil {
		return nil, err
	}
	if node.IsFolder {
		if err := s.validator.CheckNotDescendant(ctx, node.ID, target); err != nil {
			return nil, err
		}
	}
	if err := s.validator.CheckSiblingName(ctx, target, node.Name, node.ID); err != nil {
		return nil, err
	}

	oldParent := node.ParentID
	node.ParentID = target
	node.DateModified = time.Now().UTC()

	if err := s.nodeRepo.Update(ctx, node); err != nil {
		return nil, err
	}
	s.listings.Invalidate(ctx, oldParent, target)

	s.logger.Info("node moved",
		"id", node.ID,
		"from_parent_id", oldParent,
		"to_parent_id", target,
	)
	return node, nil
}

// Delete moves nodes to the trash. One timestamp marks the whole batch, so a
// node deleted together with its ancestor is restored with it.
func (s *nodeService) Delete(ctx context.Context, req *docsysSvc.BatchRequest) (int64, error) {
	ids, err := s.batchIDs(req)
	if err != nil {
		return 0, err
	}

	at := time.Now().UTC()
	var affected int64
	var parents []*string

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		nodes := make([]*models.Node, 0, len(ids))
		for _, id := range ids {
			node, err := s.nodeRepo.GetByID(txCtx, id)
			if err != nil {
				return err
			}
			nodes = append(nodes, node)
		}

		for _, node := range nodes {
			n, err := s.nodeRepo.SoftDeleteSubtree(txCtx, node.ID, at)
			if errors.Is(err, domain.ErrNotFound) {
				continue // already trashed with an ancestor in this batch
			}
			if err != nil {
				return err
			}
			affected += n
			parents = append(parents, node.ParentID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.listings.Invalidate(ctx, parents...)
	s.logger.Info("nodes moved to trash", "requested", len(ids), "affected", affected)
	return affected, nil
}

// ListTrash lists the trash with each entry's original path
func (s *nodeService) ListTrash(ctx context.Context) ([]*models.Node, error) {
	nodes, err := s.nodeRepo.ListTrash(ctx)
	if err != nil {
		return nil, err
	}
	for _, node := range nodes {
		s.attachPath(ctx, node)
	}
	return nodes, nil
}

// Restore brings trashed nodes back. The original folder is used when it is
// still live; otherwise the node lands at the root.
func (s *nodeService) Restore(ctx context.Context, req *docsysSvc.BatchRequest) (int64, error) {
	ids, err := s.batchIDs(req)
	if err != nil {
		return 0, err
	}

	at := time.Now().UTC()
	var affected int64
	var parents []*string

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		nodes := make([]*models.Node, 0, len(ids))
		for _, id := range ids {
			node, err := s.nodeRepo.GetTrashed(txCtx, id)
			if err != nil {
				return err
			}
			nodes = append(nodes, node)
		}

		ordered, err := s.ancestorsFirst(txCtx, nodes)
		if err != nil {
			return err
		}
		for _, node := range ordered {
			target, err := s.restoreTarget(txCtx, node)
			if err != nil {
				return err
			}
			if err := s.validator.CheckSiblingName(txCtx, target, node.Name, node.ID); err != nil {
				return err
			}

			n, err := s.nodeRepo.RestoreSubtree(txCtx, node.ID, target, at)
			if errors.Is(err, domain.ErrNotFound) {
				continue // came back with an ancestor in this batch
			}
			if err != nil {
				return err
			}
			affected += n
			parents = append(parents, target)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.listings.Invalidate(ctx, parents...)
	s.logger.Info("nodes restored", "requested", len(ids), "affected", affected)
	return affected, nil
}

// ancestorsFirst orders a batch by depth in the stored tree, trashed
// ancestors included, so a folder is handled before anything nested inside it
// whatever order the ids came in.
func (s *nodeService) ancestorsFirst(ctx context.Context, nodes []*models.Node) ([]*models.Node, error) {
	depths := make(map[string]int, len(nodes))
	for _, n := range nodes {
		d, err := s.depth(ctx, n)
		if err != nil {
			return nil, err
		}
		depths[n.ID] = d
	}

	ordered := slices.Clone(nodes)
	slices.SortStableFunc(ordered, func(a, b *models.Node) int {
		return depths[a.ID] - depths[b.ID]
	})
	return ordered, nil
}

// depth counts the stored ancestors of node, live or trashed
func (s *nodeService) depth(ctx context.Context, node *models.Node) (int, error) {
	seen := map[string]struct{}{node.ID: {}}
	d := 0
	for parentID := node.ParentID; parentID != nil; d++ {
		if _, loop := seen[*parentID]; loop {
			break
		}
		seen[*parentID] = struct{}{}

		parent, err := s.nodeRepo.GetByID(ctx, *parentID)
		if errors.Is(err, domain.ErrNotFound) {
			parent, err = s.nodeRepo.GetTrashed(ctx, *parentID)
		}
		if errors.Is(err, domain.ErrNotFound) {
			break
		}
		if err != nil {
			return 0, err
		}
		parentID = parent.ParentID
	}
	return d, nil
}

// restoreTarget picks where a trashed node goes back to
func (s *nodeService) restoreTarget(ctx context.Context, node *models.Node) (*string, error) {
	if node.ParentID == nil {
		return nil, nil
	}
	parent, err := s.nodeRepo.GetByID(ctx, *node.ParentID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug("original folder gone, restoring to root", "id", node.ID, "parent_id", *node.ParentID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &parent.ID, nil
}

// Purge permanently deletes trashed nodes
func (s *nodeService) Purge(ctx context.Context, req *docsysSvc.BatchRequest) (int64, error) {
	ids, err := s.batchIDs(req)
	if err != nil {
		return 0, err
	}

	var purged int64
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for _, id := range ids {
			if _, err := s.nodeRepo.GetTrashed(txCtx, id); err != nil {
				return err
			}
		}
		for _, id := range ids {
			err := s.nodeRepo.Purge(txCtx, id)
			if errors.Is(err, domain.ErrNotFound) {
				continue // removed with an ancestor in this batch
			}
			if err != nil {
				return err
			}
			purged++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("nodes purged", "requested", len(ids), "purged", purged)
	return purged, nil
}

func (s *nodeService) attachPath(ctx context.Context, node *models.Node) {
	path, err := s.nodeRepo.GetPath(ctx, node.ID)
	if err != nil {
		s.logger.Warn("failed to compute path", "id", node.ID, "error", err)
		node.Path = node.Name
		return
	}
	node.Path = path
}

// cleanName sanitizes and validates a node name
func (s *nodeService) cleanName(raw string) (string, error) {
	name := s.sanitizer.Sanitize(raw)
	err := validation.Validate(name,
		validation.Required.Error("name is required"),
		validation.RuneLength(1, config.MaxNodeNameLength),
		validation.Match(noSlashes).Error("name cannot contain slashes"),
	)
	if err != nil {
		return "", &domain.ValidationError{Message: err.Error()}
	}
	return name, nil
}

// batchIDs validates a batch request and drops repeated ids
func (s *nodeService) batchIDs(req *docsysSvc.BatchRequest) ([]string, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.IDs,
			validation.Required.Error("at least one id is required"),
			validation.Length(1, config.MaxBatchSize),
			validation.Each(validation.Required, is.UUID),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	ids := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *nodeService) validateMetadataRequest(req *docsysSvc.EditMetadataRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.PropertyID, validation.RuneLength(0, config.MaxNodeNameLength)),
		validation.Field(&req.Tags,
			validation.Length(0, config.MaxTagsPerNode),
			validation.Each(validation.RuneLength(1, config.MaxTagLength)),
		),
	)
}

// normalizeTags trims tags and drops blanks and repeats, keeping first-seen order
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
