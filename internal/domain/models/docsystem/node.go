package docsystem

import (
	"fmt"
	"time"
)

// Node is a document or folder in the document tree.
// Children is nil until the folder's listing has been fetched; a non-nil
// empty slice means the folder was fetched and is empty. Files never have children.
type Node struct {
	ID             string     `json:"id" db:"id"`
	ParentID       *string    `json:"parent_id" db:"parent_id"` // NULL = root level
	Name           string     `json:"name" db:"name"`
	IsFolder       bool       `json:"is_folder" db:"is_folder"`
	Children       []*Node    `json:"children,omitempty"`
	LinkedProperty string     `json:"linked_property,omitempty" db:"linked_property"`
	Tags           []string   `json:"tags" db:"tags"`
	FileType       string     `json:"file_type,omitempty" db:"file_type"`
	Owner          string     `json:"owner,omitempty" db:"owner"`
	Value          float64    `json:"value,omitempty" db:"value"` // property valuation, sortable
	Size           int64      `json:"size" db:"size"`
	DateAdded      time.Time  `json:"date_added" db:"date_added"`
	DateModified   time.Time  `json:"date_modified" db:"date_modified"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	Path           string     `json:"path,omitempty"` // Computed for trash listings, not stored
}

// HasTag reports whether the node carries tag.
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Recency is the timestamp used for "recent" ordering: last modification,
// falling back to the date the node was added.
func (n *Node) Recency() time.Time {
	if n.DateModified.IsZero() {
		return n.DateAdded
	}
	return n.DateModified
}

// Counts is a shallow count of a folder's immediate children.
type Counts struct {
	Folders int `json:"folders"`
	Files   int `json:"files"`
}

// Caption renders the counts the way breadcrumbs and group headers show them.
func (c Counts) Caption() string {
	return fmt.Sprintf("%d Folders & %d Files", c.Folders, c.Files)
}

// MessageResponse is the body returned by every mutation endpoint. Node is
// the node as stored after a single-node mutation; Affected counts the nodes a
// batch touched.
type MessageResponse struct {
	Message  string `json:"message"`
	Node     *Node  `json:"node,omitempty"`
	Affected int64  `json:"affected,omitempty"`
}
