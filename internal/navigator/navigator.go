// Package navigator tracks the folder the user is looking at and the
// breadcrumb trail leading to it, fetching folder listings on demand.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"propdocs/internal/doctree"
	"propdocs/internal/domain"
	"propdocs/internal/domain/models/docsystem"
)

// RootName labels the first breadcrumb.
const RootName = "Documents"

// ErrSuperseded is returned by a fetch whose result arrived after the user had
// already navigated elsewhere. The result is discarded.
var ErrSuperseded = errors.New("navigation superseded")

// Fetcher lists the immediate children of a folder, or of the root when folderID is nil.
type Fetcher interface {
	FetchChildren(ctx context.Context, folderID *string) ([]*docsystem.Node, error)
}

// Breadcrumb is one entry of the trail. The root entry has an empty ID.
type Breadcrumb struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// View is what the current folder shows.
type View struct {
	FolderID *string // nil at the root
	Nodes    []*docsystem.Node
	// Stale is set when the current folder is no longer in the tree.
	Stale bool
}

// Navigator is safe for concurrent use. Its lock is never held during a fetch;
// every navigation bumps a generation so late fetch results are dropped.
type Navigator struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu     sync.Mutex
	tree   doctree.Tree
	crumbs []Breadcrumb
	gen    uint64
}

func New(fetcher Fetcher, logger *slog.Logger) *Navigator {
	return &Navigator{
		fetcher: fetcher,
		logger:  logger,
		crumbs:  []Breadcrumb{{Name: RootName}},
	}
}

// NewWithTree starts from an already loaded tree at the root view.
func NewWithTree(fetcher Fetcher, tree doctree.Tree, logger *slog.Logger) *Navigator {
	n := New(fetcher, logger)
	n.tree = tree
	return n
}

// Load fetches the root listing and resets the view to the root.
func (n *Navigator) Load(ctx context.Context) error {
	gen := n.begin()

	nodes, err := n.fetcher.FetchChildren(ctx, nil)
	if err != nil {
		return fmt.Errorf("fetch root: %w", err)
	}
	tree, err := doctree.New(nodes)
	if err != nil {
		return fmt.Errorf("root listing: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen != gen {
		return ErrSuperseded
	}
	n.tree = tree
	n.crumbs = []Breadcrumb{{Name: RootName}}
	n.logger.Debug("root loaded", "nodes", len(nodes))
	return nil
}

// EnterFolder opens a folder shown in the current view. Folders whose children
// are missing or empty are fetched first; the view only changes once the
// listing is attached.
func (n *Navigator) EnterFolder(ctx context.Context, id string) error {
	n.mu.Lock()
	target := n.childInView(id)
	if target == nil {
		n.mu.Unlock()
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	if !target.IsFolder {
		n.mu.Unlock()
		return &domain.ValidationError{Message: fmt.Sprintf("%s is not a folder", target.Name)}
	}
	n.gen++
	gen := n.gen
	if len(target.Children) > 0 {
		n.push(target)
		n.mu.Unlock()
		return nil
	}
	n.mu.Unlock()

	n.logger.Debug("fetching folder", "folder_id", id)
	children, err := n.fetcher.FetchChildren(ctx, &id)
	if err != nil {
		return fmt.Errorf("fetch folder %s: %w", id, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen != gen {
		n.logger.Debug("dropping superseded listing", "folder_id", id)
		return ErrSuperseded
	}
	tree, err := doctree.AttachChildren(n.tree, id, children)
	if err != nil {
		return fmt.Errorf("folder %s listing: %w", id, err)
	}
	folder := doctree.FindByID(tree, id)
	if folder == nil {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	n.tree = tree
	n.push(folder)
	return nil
}

// NavigateTo truncates the trail to index+1 entries. Index 0 is the root.
// A breadcrumb whose folder has disappeared yields domain.ErrNotFound and
// leaves the state untouched.
func (n *Navigator) NavigateTo(index int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if index < 0 || index >= len(n.crumbs) {
		return &domain.ValidationError{Message: fmt.Sprintf("breadcrumb index %d out of range", index)}
	}
	for _, c := range n.crumbs[1 : index+1] {
		if doctree.FindByID(n.tree, c.ID) == nil {
			return fmt.Errorf("folder %s: %w", c.ID, domain.ErrNotFound)
		}
	}

	n.gen++
	n.crumbs = n.crumbs[:index+1:index+1]
	n.relabel()
	return nil
}

// Up moves to the parent folder. It does nothing at the root.
func (n *Navigator) Up() error {
	n.mu.Lock()
	depth := len(n.crumbs)
	n.mu.Unlock()
	if depth <= 1 {
		return nil
	}
	return n.NavigateTo(depth - 2)
}

// Refresh re-fetches the listing of the current folder, bypassing the cache
// held in the tree.
func (n *Navigator) Refresh(ctx context.Context) error {
	n.mu.Lock()
	current := n.currentID()
	n.mu.Unlock()

	if current == nil {
		return n.Load(ctx)
	}

	gen := n.begin()
	children, err := n.fetcher.FetchChildren(ctx, current)
	if err != nil {
		return fmt.Errorf("fetch folder %s: %w", *current, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen != gen {
		return ErrSuperseded
	}
	tree, err := doctree.AttachChildren(n.tree, *current, children)
	if err != nil {
		return fmt.Errorf("folder %s listing: %w", *current, err)
	}
	n.tree = tree
	n.relabel()
	return nil
}

// Invalidate drops the cached listing of a folder so that entering it fetches
// again. Folders on the current breadcrumb trail are left alone; use Refresh
// for those. It reports whether anything was dropped.
func (n *Navigator) Invalidate(folderID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, c := range n.crumbs[1:] {
		if c.ID == folderID {
			return false
		}
	}
	folder := doctree.FindByID(n.tree, folderID)
	if folder == nil || !folder.IsFolder || folder.Children == nil {
		return false
	}
	n.tree = doctree.ReplaceNode(n.tree, folderID, func(node docsystem.Node) docsystem.Node {
		node.Children = nil
		return node
	})
	return true
}

// Apply commits a pure tree operation, typically the local replay of a
// mutation the backend has confirmed. Breadcrumb labels are recounted.
func (n *Navigator) Apply(op func(doctree.Tree) doctree.Tree) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tree = op(n.tree)
	n.relabel()
}

func (n *Navigator) Tree() doctree.Tree {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tree
}

func (n *Navigator) Breadcrumbs() []Breadcrumb {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Breadcrumb, len(n.crumbs))
	copy(out, n.crumbs)
	return out
}

// View returns the nodes of the current folder.
func (n *Navigator) View() View {
	n.mu.Lock()
	defer n.mu.Unlock()

	current := n.currentID()
	if current == nil {
		return View{Nodes: n.tree}
	}
	folder := doctree.FindByID(n.tree, *current)
	if folder == nil {
		return View{FolderID: current, Stale: true}
	}
	return View{FolderID: current, Nodes: folder.Children}
}

// begin starts a navigation that will fetch, superseding any fetch in flight.
func (n *Navigator) begin() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gen++
	return n.gen
}

// childInView finds id among the immediate children of the current view.
// Callers hold mu.
func (n *Navigator) childInView(id string) *docsystem.Node {
	nodes := []*docsystem.Node(n.tree)
	if current := n.currentID(); current != nil {
		folder := doctree.FindByID(n.tree, *current)
		if folder == nil {
			return nil
		}
		nodes = folder.Children
	}
	for _, node := range nodes {
		if node.ID == id {
			return node
		}
	}
	return nil
}

func (n *Navigator) currentID() *string {
	if len(n.crumbs) <= 1 {
		return nil
	}
	id := n.crumbs[len(n.crumbs)-1].ID
	return &id
}

func (n *Navigator) push(folder *docsystem.Node) {
	n.crumbs = append(n.crumbs, Breadcrumb{Name: label(folder), ID: folder.ID})
}

// relabel recounts every breadcrumb that still resolves. Callers hold mu.
func (n *Navigator) relabel() {
	for i := 1; i < len(n.crumbs); i++ {
		if folder := doctree.FindByID(n.tree, n.crumbs[i].ID); folder != nil {
			n.crumbs[i].Name = label(folder)
		}
	}
}

func label(folder *docsystem.Node) string {
	return folder.Name + " (" + doctree.CountChildren(folder).Caption() + ")"
}
