// Package doctree holds the in-memory document tree and the pure operations
// used to keep it in step with the backend.
//
// Every operation returns a new Tree. Nodes on the path from the root to the
// touched node are copied; every other subtree keeps its pointer, so callers can
// detect changes by comparing references.
package doctree

import (
	"errors"
	"fmt"
	"slices"

	"propdocs/internal/domain/models/docsystem"
)

type Node = docsystem.Node

// Tree is the root level of the document tree.
type Tree []*Node

var (
	// ErrDuplicateID is returned when a node id appears twice in a tree.
	ErrDuplicateID = errors.New("duplicate node id")
	// ErrFileWithChildren is returned when a file node carries children.
	ErrFileWithChildren = errors.New("file node has children")
	// ErrNilNode is returned when a listing contains a nil entry.
	ErrNilNode = errors.New("nil node")
)

// New validates nodes and returns them as a Tree. Ids must be unique across
// the whole tree and only folders may carry children.
func New(nodes []*Node) (Tree, error) {
	if err := validate(nodes, make(map[string]struct{})); err != nil {
		return nil, err
	}
	return Tree(nodes), nil
}

func validate(nodes []*Node, seen map[string]struct{}) error {
	for _, n := range nodes {
		if n == nil {
			return ErrNilNode
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateID)
		}
		seen[n.ID] = struct{}{}
		if !n.IsFolder && len(n.Children) > 0 {
			return fmt.Errorf("node %s: %w", n.ID, ErrFileWithChildren)
		}
		if err := validate(n.Children, seen); err != nil {
			return err
		}
	}
	return nil
}

// FindByID returns the first node with the given id in depth-first order, or nil.
func FindByID(tree Tree, id string) *Node {
	return find(tree, id)
}

func find(nodes []*Node, id string) *Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
		if found := find(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// ReplaceNode returns a tree in which the node matching id is replaced by
// update(node). update receives a copy whose Tags slice may be modified freely.
// A file result never keeps children. Unknown ids return tree unchanged.
func ReplaceNode(tree Tree, id string, update func(Node) Node) Tree {
	out, _ := rewrite(tree, id, func(n *Node) *Node {
		cp := *n
		cp.Tags = slices.Clone(n.Tags)
		next := update(cp)
		if !next.IsFolder {
			next.Children = nil
		}
		return &next
	})
	return out
}

// RemoveByID returns a tree without the node matching id and its whole subtree.
func RemoveByID(tree Tree, id string) Tree {
	out, _ := rewrite(tree, id, func(*Node) *Node { return nil })
	return out
}

// AttachChildren sets the children of folderID after a lazy fetch. It is a no-op
// when folderID does not resolve to a folder. Incoming ids that collide with
// nodes outside the folder's current subtree are rejected with ErrDuplicateID.
func AttachChildren(tree Tree, folderID string, children []*Node) (Tree, error) {
	folder := FindByID(tree, folderID)
	if folder == nil || !folder.IsFolder {
		return tree, nil
	}

	seen := make(map[string]struct{})
	collect(tree, seen, folderID)
	if err := validate(children, seen); err != nil {
		return tree, err
	}

	if children == nil {
		children = []*Node{}
	}
	out, _ := rewrite(tree, folderID, func(n *Node) *Node {
		cp := *n
		cp.Children = children
		return &cp
	})
	return out, nil
}

// collect records every id in nodes, not descending into skip's children.
func collect(nodes []*Node, seen map[string]struct{}, skip string) {
	for _, n := range nodes {
		seen[n.ID] = struct{}{}
		if n.ID != skip {
			collect(n.Children, seen, skip)
		}
	}
}

// InsertNode appends node under parentID, or at the root when parentID is nil.
// Nothing happens when the parent is missing, is a file, has not had its
// children loaded yet, or when the node's id is already present.
func InsertNode(tree Tree, parentID *string, node *Node) Tree {
	if node == nil || FindByID(tree, node.ID) != nil {
		return tree
	}
	cp := *node
	if !cp.IsFolder {
		cp.Children = nil
	}
	if parentID == nil {
		cp.ParentID = nil
		out := make(Tree, 0, len(tree)+1)
		out = append(out, tree...)
		return append(out, &cp)
	}

	parent := FindByID(tree, *parentID)
	if parent == nil || !parent.IsFolder || parent.Children == nil {
		return tree
	}
	pid := *parentID
	cp.ParentID = &pid
	out, _ := rewrite(tree, pid, func(n *Node) *Node {
		p := *n
		p.Children = make([]*Node, 0, len(n.Children)+1)
		p.Children = append(p.Children, n.Children...)
		p.Children = append(p.Children, &cp)
		return &p
	})
	return out
}

// MoveNode relocates id under newParentID (nil for the root). Moves into the
// node's own subtree or onto a file are ignored. When the destination is not
// loaded the node only leaves its old location.
func MoveNode(tree Tree, id string, newParentID *string) Tree {
	node := FindByID(tree, id)
	if node == nil {
		return tree
	}
	if newParentID != nil {
		if *newParentID == id || find(node.Children, *newParentID) != nil {
			return tree
		}
		if target := FindByID(tree, *newParentID); target != nil && !target.IsFolder {
			return tree
		}
	}
	return InsertNode(RemoveByID(tree, id), newParentID, node)
}

// PathTo returns the chain of nodes from the root level down to id, inclusive.
// It returns nil when id is not in the tree.
func PathTo(tree Tree, id string) []*Node {
	var walk func(nodes []*Node, trail []*Node) []*Node
	walk = func(nodes []*Node, trail []*Node) []*Node {
		for _, n := range nodes {
			next := append(trail[:len(trail):len(trail)], n)
			if n.ID == id {
				return next
			}
			if found := walk(n.Children, next); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(tree, nil)
}

// CountChildren counts a node's immediate children.
func CountChildren(node *Node) docsystem.Counts {
	var c docsystem.Counts
	if node == nil {
		return c
	}
	return Count(node.Children)
}

// Count counts folders and files in a flat list of nodes.
func Count(nodes []*Node) docsystem.Counts {
	var c docsystem.Counts
	for _, n := range nodes {
		if n.IsFolder {
			c.Folders++
		} else {
			c.Files++
		}
	}
	return c
}

// IDs lists every id in the tree in depth-first order.
func IDs(tree Tree) []string {
	var ids []string
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			ids = append(ids, n.ID)
			walk(n.Children)
		}
	}
	walk(tree)
	return ids
}

// rewrite copies nodes with the node matching id passed through fn, rebuilding
// its ancestors. fn returns nil to drop the node. When id is absent nodes is
// returned as is and found is false.
func rewrite(nodes []*Node, id string, fn func(*Node) *Node) (out []*Node, found bool) {
	for i, n := range nodes {
		if n.ID == id {
			out = make([]*Node, 0, len(nodes))
			out = append(out, nodes[:i]...)
			if next := fn(n); next != nil {
				out = append(out, next)
			}
			return append(out, nodes[i+1:]...), true
		}
		children, ok := rewrite(n.Children, id, fn)
		if !ok {
			continue
		}
		parent := *n
		parent.Children = children
		out = make([]*Node, len(nodes))
		copy(out, nodes)
		out[i] = &parent
		return out, true
	}
	return nodes, false
}
