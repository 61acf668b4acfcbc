// Package session is the dashboard's view of the document system: the folder
// being browsed, its breadcrumb trail and the loaded part of the tree. Every
// mutation is sent to the backend first and replayed on the local tree only
// once it has been confirmed. A failed call leaves the tree untouched.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"propdocs/internal/annotation"
	"propdocs/internal/doctree"
	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
	"propdocs/internal/listing"
	"propdocs/internal/mention"
	"propdocs/internal/navigator"
)

// Backend is the REST collaborator. *apiclient.Client implements it.
type Backend interface {
	navigator.Fetcher

	GetNode(ctx context.Context, id string) (*models.Node, error)
	CreateFolder(ctx context.Context, parentID *string, name string) (*models.Node, error)
	Rename(ctx context.Context, id, name string) (*models.Node, error)
	EditMetadata(ctx context.Context, id, propertyID string, tags []string) (*models.Node, error)
	Move(ctx context.Context, id string, parentID *string) (*models.Node, error)
	Delete(ctx context.Context, ids ...string) (int64, error)
	Trash(ctx context.Context) ([]*models.Node, error)
	Restore(ctx context.Context, ids ...string) (int64, error)
	Purge(ctx context.Context, ids ...string) (int64, error)

	ListComments(ctx context.Context, documentID string) ([]*models.Comment, error)
	CreateComment(ctx context.Context, documentID, text string, annotation *models.Annotation) (*models.Comment, error)
	CreateReply(ctx context.Context, parentID, text string) (*models.Comment, error)
	UpdateComment(ctx context.Context, id, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Session is safe for concurrent use; the navigator does the locking for
// the tree, mu guards the mention directory.
type Session struct {
	backend Backend
	nav     *navigator.Navigator
	logger  *slog.Logger

	mu    sync.Mutex
	users []models.User
}

// New creates a session. Call Load before browsing.
func New(backend Backend, logger *slog.Logger) *Session {
	return &Session{
		backend: backend,
		nav:     navigator.New(backend, logger),
		logger:  logger,
	}
}

// Load fetches the root and returns to it
func (s *Session) Load(ctx context.Context) error {
	return s.nav.Load(ctx)
}

// EnterFolder opens a folder of the current view
func (s *Session) EnterFolder(ctx context.Context, id string) error {
	return s.nav.EnterFolder(ctx, id)
}

// NavigateTo jumps back to a breadcrumb; 0 is the root
func (s *Session) NavigateTo(index int) error {
	return s.nav.NavigateTo(index)
}

// Up moves to the parent folder
func (s *Session) Up() error {
	return s.nav.Up()
}

// Refresh re-fetches the current folder
func (s *Session) Refresh(ctx context.Context) error {
	return s.nav.Refresh(ctx)
}

func (s *Session) Breadcrumbs() []navigator.Breadcrumb {
	return s.nav.Breadcrumbs()
}

func (s *Session) View() navigator.View {
	return s.nav.View()
}

func (s *Session) Tree() doctree.Tree {
	return s.nav.Tree()
}

// Listing renders the current view through the sort/filter/group pipeline
func (s *Session) Listing(filter listing.FilterState, sortState listing.SortState) []listing.Group {
	return listing.Render(s.nav.View().Nodes, filter, sortState)
}

// FilterValues lists the values the current view offers for a filter kind
func (s *Session) FilterValues(kind listing.Kind) []string {
	return listing.Values(s.nav.View().Nodes, kind)
}

// currentFolder is the folder new items are created in, nil at the root
func (s *Session) currentFolder() *string {
	return s.nav.View().FolderID
}

// CreateFolder creates a folder in the current view
func (s *Session) CreateFolder(ctx context.Context, name string) (*models.Node, error) {
	parentID := s.currentFolder()
	folder, err := s.backend.CreateFolder(ctx, parentID, name)
	if err != nil {
		return nil, err
	}
	if folder.Children == nil {
		folder.Children = []*models.Node{}
	}
	s.nav.Apply(func(tree doctree.Tree) doctree.Tree {
		return doctree.InsertNode(tree, parentID, folder)
	})
	return folder, nil
}

// replace replays a single-node update, keeping the loaded children
func (s *Session) replace(updated *models.Node) {
	s.nav.Apply(func(tree doctree.Tree) doctree.Tree {
		return doctree.ReplaceNode(tree, updated.ID, func(old models.Node) models.Node {
			next := *updated
			next.Children = old.Children
			return next
		})
	})
}

// Rename renames a node
func (s *Session) Rename(ctx context.Context, id, name string) (*models.Node, error) {
	node, err := s.backend.Rename(ctx, id, name)
	if err != nil {
		return nil, err
	}
	s.replace(node)
	return node, nil
}

// EditMetadata replaces the linked property and tags of a node
func (s *Session) EditMetadata(ctx context.Context, id, propertyID string, tags []string) (*models.Node, error) {
	node, err := s.backend.EditMetadata(ctx, id, propertyID, tags)
	if err != nil {
		return nil, err
	}
	s.replace(node)
	return node, nil
}

// Move re-parents a node; nil moves it to the root. When the destination has
// not been loaded the node simply leaves the current view.
func (s *Session) Move(ctx context.Context, id string, parentID *string) (*models.Node, error) {
	node, err := s.backend.Move(ctx, id, parentID)
	if err != nil {
		return nil, err
	}
	s.nav.Apply(func(tree doctree.Tree) doctree.Tree {
		return doctree.MoveNode(tree, id, node.ParentID)
	})
	s.replace(node)
	s.recover()
	return node, nil
}

// Delete trashes nodes and drops them from the tree
func (s *Session) Delete(ctx context.Context, ids ...string) (int64, error) {
	n, err := s.backend.Delete(ctx, ids...)
	if err != nil {
		return 0, err
	}
	s.nav.Apply(func(tree doctree.Tree) doctree.Tree {
		for _, id := range ids {
			tree = doctree.RemoveByID(tree, id)
		}
		return tree
	})
	s.recover()
	return n, nil
}

// Trash lists the recycle bin
func (s *Session) Trash(ctx context.Context) ([]*models.Node, error) {
	return s.backend.Trash(ctx)
}

// Restore brings nodes back from the trash. The backend picks where each one
// lands, so every restored node is read back and inserted under its parent
// when that folder is loaded.
func (s *Session) Restore(ctx context.Context, ids ...string) (int64, error) {
	n, err := s.backend.Restore(ctx, ids...)
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		node, err := s.backend.GetNode(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return n, fmt.Errorf("read back restored node %s: %w", id, err)
		}
		node.Children = nil
		s.nav.Apply(func(tree doctree.Tree) doctree.Tree {
			return doctree.InsertNode(tree, node.ParentID, node)
		})
	}
	return n, nil
}

// Purge permanently deletes trashed nodes. The tree never holds trashed nodes.
func (s *Session) Purge(ctx context.Context, ids ...string) (int64, error) {
	return s.backend.Purge(ctx, ids...)
}

// recover steps back to the deepest breadcrumb that still chains from the
// root after a mutation removed or relocated a folder on the trail
func (s *Session) recover() {
	crumbs := s.nav.Breadcrumbs()
	tree := s.nav.Tree()

	target := 0
	var parent *string
	for i := 1; i < len(crumbs); i++ {
		folder := doctree.FindByID(tree, crumbs[i].ID)
		if folder == nil || !sameParent(folder.ParentID, parent) {
			break
		}
		target = i
		parent = &folder.ID
	}
	if target == len(crumbs)-1 {
		return
	}

	if err := s.nav.NavigateTo(target); err != nil {
		s.logger.Warn("could not leave removed folder", "error", err)
		return
	}
	s.logger.Debug("folder on the trail was removed, moved up", "breadcrumb", target)
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// =============================================================================
// Comments
// =============================================================================

// CommentView is what a document viewer shows for one page
type CommentView struct {
	Threads  []*models.Comment
	Overlays []models.Annotation // annotations of the threads anchored on the page
}

// Comments loads a document's threads and the annotations to draw on page
func (s *Session) Comments(ctx context.Context, documentID string, page int) (*CommentView, error) {
	threads, err := s.backend.ListComments(ctx, documentID)
	if err != nil {
		return nil, err
	}

	all := make([]models.Annotation, 0, len(threads))
	for _, t := range threads {
		if t.Annotation != nil {
			all = append(all, *t.Annotation)
		}
	}
	return &CommentView{
		Threads:  threads,
		Overlays: annotation.ForPage(all, page),
	}, nil
}

// AddComment anchors a comment to a selection drawn over a page. Selections
// that do not make a valid annotation are skipped: ok is false and nothing is
// sent.
func (s *Session) AddComment(
	ctx context.Context,
	documentID string,
	selection, container annotation.Box,
	page int,
	text string,
) (comment *models.Comment, ok bool, err error) {
	a, ok := annotation.FromSelection(selection, container, page)
	if !ok {
		s.logger.Debug("ignoring invalid selection", "document_id", documentID, "page", page)
		return nil, false, nil
	}
	comment, err = s.backend.CreateComment(ctx, documentID, text, &a)
	if err != nil {
		return nil, true, err
	}
	return comment, true, nil
}

// Reply answers a comment
func (s *Session) Reply(ctx context.Context, parentID, text string) (*models.Comment, error) {
	return s.backend.CreateReply(ctx, parentID, text)
}

// EditComment changes the text of one of the caller's comments
func (s *Session) EditComment(ctx context.Context, id, text string) (*models.Comment, error) {
	return s.backend.UpdateComment(ctx, id, text)
}

// DeleteComment removes one of the caller's comments
func (s *Session) DeleteComment(ctx context.Context, id string) error {
	return s.backend.DeleteComment(ctx, id)
}

// Users returns the mention directory, fetched on first use
func (s *Session) Users(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	cached := s.users
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	users, err := s.backend.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return users, nil
}

// MentionInput returns an autocomplete machine for a comment or reply box
func (s *Session) MentionInput(ctx context.Context) (*mention.Machine, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	return mention.New(users), nil
}
