package docsystem

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
	"propdocs/internal/domain/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func ptr(s string) *string { return &s }

// =============================================================================
// In-memory node repository
// =============================================================================

type memNodeRepo struct {
	mu    sync.Mutex
	nodes map[string]*models.Node
	order []string
}

func newMemNodeRepo(nodes ...*models.Node) *memNodeRepo {
	r := &memNodeRepo{nodes: make(map[string]*models.Node)}
	for _, n := range nodes {
		r.put(n)
	}
	return r
}

func (r *memNodeRepo) put(n *models.Node) {
	c := *n
	c.Children = nil
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if _, ok := r.nodes[c.ID]; !ok {
		r.order = append(r.order, c.ID)
	}
	r.nodes[c.ID] = &c
}

func (r *memNodeRepo) copyOf(id string) *models.Node {
	c := *r.nodes[id]
	c.Tags = slices.Clone(c.Tags)
	return &c
}

func (r *memNodeRepo) live(id string) bool {
	n, ok := r.nodes[id]
	return ok && n.DeletedAt == nil
}

func (r *memNodeRepo) Create(_ context.Context, node *models.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if node.ParentID != nil && !r.live(*node.ParentID) {
		return fmt.Errorf("parent folder: %w", domain.ErrNotFound)
	}
	if r.findByName(node.ParentID, node.Name) != nil {
		return fmt.Errorf("duplicate: %w", domain.ErrConflict)
	}
	r.put(node)
	return nil
}

func (r *memNodeRepo) GetByID(_ context.Context, id string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.live(id) {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return r.copyOf(id), nil
}

func (r *memNodeRepo) GetTrashed(_ context.Context, id string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	if !ok || n.DeletedAt == nil {
		return nil, fmt.Errorf("trashed node %s: %w", id, domain.ErrNotFound)
	}
	return r.copyOf(id), nil
}

func (r *memNodeRepo) findByName(parentID *string, name string) *models.Node {
	for _, id := range r.order {
		n, ok := r.nodes[id]
		if ok && n.DeletedAt == nil && sameParent(n.ParentID, parentID) && n.Name == name {
			return r.copyOf(id)
		}
	}
	return nil
}

func (r *memNodeRepo) FindByName(_ context.Context, parentID *string, name string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByName(parentID, name), nil
}

func (r *memNodeRepo) ListChildren(_ context.Context, parentID *string) ([]*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Node, 0)
	for _, id := range r.order {
		n, ok := r.nodes[id]
		if ok && n.DeletedAt == nil && sameParent(n.ParentID, parentID) {
			out = append(out, r.copyOf(id))
		}
	}
	return out, nil
}

func (r *memNodeRepo) Update(_ context.Context, node *models.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.live(node.ID) {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}
	if other := r.findByName(node.ParentID, node.Name); other != nil && other.ID != node.ID {
		return fmt.Errorf("duplicate: %w", domain.ErrConflict)
	}
	r.put(node)
	return nil
}

func (r *memNodeRepo) descendants(id string, keep func(*models.Node) bool) []string {
	ids := []string{id}
	for i := 0; i < len(ids); i++ {
		for _, cid := range r.order {
			c, ok := r.nodes[cid]
			if ok && c.ParentID != nil && *c.ParentID == ids[i] && keep(c) {
				ids = append(ids, cid)
			}
		}
	}
	return ids
}

func (r *memNodeRepo) SoftDeleteSubtree(_ context.Context, id string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.live(id) {
		return 0, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	ids := r.descendants(id, func(n *models.Node) bool { return n.DeletedAt == nil })
	for _, d := range ids {
		stamp := at
		r.nodes[d].DeletedAt = &stamp
	}
	return int64(len(ids)), nil
}

func (r *memNodeRepo) ListTrash(_ context.Context) ([]*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Node, 0)
	for _, id := range r.order {
		n, ok := r.nodes[id]
		if !ok || n.DeletedAt == nil {
			continue
		}
		if n.ParentID != nil {
			if p, ok := r.nodes[*n.ParentID]; ok && p.DeletedAt != nil && p.DeletedAt.Equal(*n.DeletedAt) {
				continue
			}
		}
		out = append(out, r.copyOf(id))
	}
	return out, nil
}

func (r *memNodeRepo) RestoreSubtree(_ context.Context, id string, parentID *string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	if !ok || n.DeletedAt == nil {
		return 0, fmt.Errorf("trashed node %s: %w", id, domain.ErrNotFound)
	}
	stamp := *n.DeletedAt
	ids := r.descendants(id, func(c *models.Node) bool { return c.DeletedAt != nil && c.DeletedAt.Equal(stamp) })
	n.ParentID = parentID
	n.DateModified = at
	for _, d := range ids {
		r.nodes[d].DeletedAt = nil
	}
	return int64(len(ids)), nil
}

func (r *memNodeRepo) Purge(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	if !ok || n.DeletedAt == nil {
		return fmt.Errorf("trashed node %s: %w", id, domain.ErrNotFound)
	}
	for _, d := range r.descendants(id, func(*models.Node) bool { return true }) {
		delete(r.nodes, d)
	}
	return nil
}

func (r *memNodeRepo) GetPath(_ context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var parts []string
	for cur, ok := r.nodes[id]; ok; {
		parts = append([]string{cur.Name}, parts...)
		if cur.ParentID == nil {
			break
		}
		cur, ok = r.nodes[*cur.ParentID]
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return strings.Join(parts, "/"), nil
}

// =============================================================================
// Comments, users, transactions, cache
// =============================================================================

type memCommentRepo struct {
	mu       sync.Mutex
	comments []models.Comment
}

func (r *memCommentRepo) Create(_ context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, *c)
	return nil
}

func (r *memCommentRepo) GetByID(_ context.Context, id string) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.comments {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
}

func (r *memCommentRepo) ListByDocument(_ context.Context, documentID string) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Comment, 0)
	for _, c := range r.comments {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCommentRepo) UpdateText(_ context.Context, id, text string, mentions []string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.comments {
		if r.comments[i].ID == id {
			r.comments[i].Text = text
			r.comments[i].Mentions = mentions
			r.comments[i].UpdatedAt = at
			return nil
		}
	}
	return fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
}

func (r *memCommentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.comments)
	r.comments = slices.DeleteFunc(r.comments, func(c models.Comment) bool {
		return c.ID == id || (c.ParentID != nil && *c.ParentID == id)
	})
	if len(r.comments) == before {
		return fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

type memUserRepo struct {
	users []models.User
	err   error
}

func (r *memUserRepo) List(context.Context) ([]models.User, error) {
	return slices.Clone(r.users), r.err
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
}

func (r *memUserRepo) Upsert(_ context.Context, user *models.User) error {
	for i := range r.users {
		if r.users[i].ID == user.ID {
			r.users[i] = *user
			return nil
		}
	}
	r.users = append(r.users, *user)
	return nil
}

// passthroughTx runs fn directly; the in-memory repos have no rollback, so
// tests only assert on committed outcomes.
type passthroughTx struct{ calls int }

func (t *passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	t.calls++
	return fn(ctx)
}

// recordingCache is an in-memory ListingCache that remembers invalidations.
type recordingCache struct {
	mu          sync.Mutex
	entries     map[string][]*models.Node
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string][]*models.Node)}
}

func key(id *string) string {
	if id == nil {
		return "root"
	}
	return *id
}

func (c *recordingCache) Get(_ context.Context, parentID *string) ([]*models.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	nodes, ok := c.entries[key(parentID)]
	return nodes, ok
}

func (c *recordingCache) Set(_ context.Context, parentID *string, nodes []*models.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key(parentID)] = nodes
}

func (c *recordingCache) Invalidate(_ context.Context, parentIDs ...*string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range parentIDs {
		delete(c.entries, key(id))
		c.invalidated = append(c.invalidated, key(id))
	}
}

func (c *recordingCache) Close() error { return nil }
