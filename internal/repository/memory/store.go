// Package memory is an in-process implementation of the repositories, used
// when no database is configured and by tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	models "propdocs/internal/domain/models/docsystem"
	"propdocs/internal/domain/repositories"
	docsysRepo "propdocs/internal/domain/repositories/docsystem"
)

// Store holds all rows. Every repository method takes mu; transactions are
// serialized by txMu and roll back by restoring a snapshot. Writes made
// outside a transaction while one is running are lost if it rolls back.
type Store struct {
	mu       sync.Mutex
	nodes    map[string]*models.Node
	order    []string // insertion order, for stable listings
	comments []models.Comment
	users    map[string]models.User

	txMu sync.Mutex
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		nodes: make(map[string]*models.Node),
		users: make(map[string]models.User),
	}
}

// Nodes returns the node repository view of the store
func (s *Store) Nodes() docsysRepo.NodeRepository { return &nodeRepo{s: s} }

// Comments returns the comment repository view of the store
func (s *Store) Comments() docsysRepo.CommentRepository { return &commentRepo{s: s} }

// Users returns the user repository view of the store
func (s *Store) Users() docsysRepo.UserRepository { return &userRepo{s: s} }

// TxManager returns a transaction manager for the store
func (s *Store) TxManager() repositories.TransactionManager { return &txManager{s: s} }

type snapshot struct {
	nodes    map[string]*models.Node
	order    []string
	comments []models.Comment
	users    map[string]models.User
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes := make(map[string]*models.Node, len(s.nodes))
	for id, n := range s.nodes {
		nodes[id] = cloneNode(n)
	}
	return snapshot{
		nodes:    nodes,
		order:    slices.Clone(s.order),
		comments: slices.Clone(s.comments),
		users:    maps.Clone(s.users),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = snap.nodes
	s.order = snap.order
	s.comments = snap.comments
	s.users = snap.users
}

type txKey struct{}

type txManager struct {
	s *Store
}

// ExecTx runs fn atomically. Nested calls join the outer transaction.
func (m *txManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()

	snap := m.s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.s.restore(snap)
		return err
	}
	return nil
}

func cloneNode(n *models.Node) *models.Node {
	c := *n
	c.Children = nil
	c.Tags = slices.Clone(n.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if n.ParentID != nil {
		p := *n.ParentID
		c.ParentID = &p
	}
	if n.DeletedAt != nil {
		d := *n.DeletedAt
		c.DeletedAt = &d
	}
	return &c
}
