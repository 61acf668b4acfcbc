package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
)

type nodeRepo struct {
	s *Store
}

func (r *nodeRepo) live(id string) (*models.Node, bool) {
	n, ok := r.s.nodes[id]
	if !ok || n.DeletedAt != nil {
		return nil, false
	}
	return n, true
}

func (r *nodeRepo) sibling(parentID *string, name string) *models.Node {
	for _, id := range r.s.order {
		n, ok := r.live(id)
		if ok && sameParent(n.ParentID, parentID) && n.Name == name {
			return n
		}
	}
	return nil
}

func (r *nodeRepo) conflict(existing *models.Node) error {
	resourceType := "document"
	if existing.IsFolder {
		resourceType = "folder"
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("'%s' already exists in this folder", existing.Name),
		ResourceType: resourceType,
		ResourceID:   existing.ID,
	}
}

func (r *nodeRepo) Create(_ context.Context, node *models.Node) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.nodes[node.ID]; exists {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrConflict)
	}
	if node.ParentID != nil {
		if _, ok := r.live(*node.ParentID); !ok {
			return fmt.Errorf("parent folder: %w", domain.ErrNotFound)
		}
	}
	if existing := r.sibling(node.ParentID, node.Name); existing != nil {
		return r.conflict(existing)
	}

	r.s.nodes[node.ID] = cloneNode(node)
	r.s.order = append(r.s.order, node.ID)
	return nil
}

func (r *nodeRepo) GetByID(_ context.Context, id string) (*models.Node, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.live(id)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return cloneNode(n), nil
}

func (r *nodeRepo) GetTrashed(_ context.Context, id string) (*models.Node, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.nodes[id]
	if !ok || n.DeletedAt == nil {
		return nil, fmt.Errorf("trashed node %s: %w", id, domain.ErrNotFound)
	}
	return cloneNode(n), nil
}

func (r *nodeRepo) FindByName(_ context.Context, parentID *string, name string) (*models.Node, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if n := r.sibling(parentID, name); n != nil {
		return cloneNode(n), nil
	}
	return nil, nil
}

// ListChildren orders folders first, then by name, like the SQL repository
func (r *nodeRepo) ListChildren(_ context.Context, parentID *string) ([]*models.Node, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*models.Node, 0)
	for _, id := range r.s.order {
		if n, ok := r.live(id); ok && sameParent(n.ParentID, parentID) {
			out = append(out, cloneNode(n))
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Node) int {
		if a.IsFolder != b.IsFolder {
			if a.IsFolder {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (r *nodeRepo) Update(_ context.Context, node *models.Node) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.live(node.ID)
	if !ok {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}
	if existing := r.sibling(node.ParentID, node.Name); existing != nil && existing.ID != node.ID {
		return r.conflict(existing)
	}

	current.ParentID = cloneNode(node).ParentID
	current.Name = node.Name
	current.LinkedProperty = node.LinkedProperty
	current.Tags = slices.Clone(node.Tags)
	current.FileType = node.FileType
	current.DateModified = node.DateModified
	return nil
}

// subtree returns id followed by its descendants that satisfy keep
func (r *nodeRepo) subtree(id string, keep func(*models.Node) bool) []string {
	ids := []string{id}
	for i := 0; i < len(ids); i++ {
		for _, cid := range r.s.order {
			c, ok := r.s.nodes[cid]
			if ok && c.ParentID != nil && *c.ParentID == ids[i] && keep(c) {
				ids = append(ids, cid)
			}
		}
	}
	return ids
}

func (r *nodeRepo) SoftDeleteSubtree(_ context.Context, id string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.live(id); !ok {
		return 0, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	ids := r.subtree(id, func(n *models.Node) bool { return n.DeletedAt == nil })
	for _, d := range ids {
		stamp := at
		r.s.nodes[d].DeletedAt = &stamp
	}
	return int64(len(ids)), nil
}

// ListTrash lists trashed nodes whose parent was not trashed in the same
// operation, newest first
func (r *nodeRepo) ListTrash(_ context.Context) ([]*models.Node, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*models.Node, 0)
	for _, id := range r.s.order {
		n := r.s.nodes[id]
		if n == nil || n.DeletedAt == nil {
			continue
		}
		if n.ParentID != nil {
			if p, ok := r.s.nodes[*n.ParentID]; ok && p.DeletedAt != nil && p.DeletedAt.Equal(*n.DeletedAt) {
				continue
			}
		}
		out = append(out, cloneNode(n))
	}
	slices.SortStableFunc(out, func(a, b *models.Node) int {
		if c := b.DeletedAt.Compare(*a.DeletedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (r *nodeRepo) RestoreSubtree(_ context.Context, id string, parentID *string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.nodes[id]
	if !ok || n.DeletedAt == nil {
		return 0, fmt.Errorf("trashed node %s: %w", id, domain.ErrNotFound)
	}
	if existing := r.sibling(parentID, n.Name); existing != nil {
		return 0, r.conflict(existing)
	}

	stamp := *n.DeletedAt
	ids := r.subtree(id, func(c *models.Node) bool {
		return c.DeletedAt != nil && c.DeletedAt.Equal(stamp)
	})
	if parentID != nil {
		p := *parentID
		n.ParentID = &p
	} else {
		n.ParentID = nil
	}
	n.DateModified = at
	for _, d := range ids {
		r.s.nodes[d].DeletedAt = nil
	}
	return int64(len(ids)), nil
}

func (r *nodeRepo) Purge(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.nodes[id]
	if !ok || n.DeletedAt == nil {
		return fmt.Errorf("trashed node %s: %w", id, domain.ErrNotFound)
	}

	removed := r.subtree(id, func(*models.Node) bool { return true })
	for _, d := range removed {
		delete(r.s.nodes, d)
	}
	r.s.order = slices.DeleteFunc(r.s.order, func(oid string) bool {
		return slices.Contains(removed, oid)
	})
	// Comments on purged documents go with them.
	r.s.comments = slices.DeleteFunc(r.s.comments, func(c models.Comment) bool {
		return slices.Contains(removed, c.DocumentID)
	})
	return nil
}

func (r *nodeRepo) GetPath(_ context.Context, id string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.nodes[id]
	if !ok {
		return "", fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	parts := []string{n.Name}
	for n.ParentID != nil {
		parent, ok := r.s.nodes[*n.ParentID]
		if !ok {
			break
		}
		parts = append(parts, parent.Name)
		n = parent
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/"), nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
