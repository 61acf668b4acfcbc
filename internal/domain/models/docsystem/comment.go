package docsystem

import "time"

// MaxReplyDepth is how deep comment threads nest. Replies to a reply are
// attached to the thread root.
const MaxReplyDepth = 1

// Rect is a rectangle expressed in percentages (0-100) of the page or image content box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Annotation anchors a comment to a region of a single page.
type Annotation struct {
	ID   string `json:"id"`
	Page int    `json:"page"`
	Rect Rect   `json:"rect"`
}

// Comment is a comment on a document. Top-level comments carry an annotation;
// replies (ParentID != nil) do not.
type Comment struct {
	ID         string      `json:"id" db:"id"`
	DocumentID string      `json:"document_id" db:"document_id"`
	ParentID   *string     `json:"parent_id" db:"parent_id"`
	Author     string      `json:"author" db:"author"`
	AuthorName string      `json:"author_name" db:"author_name"`
	Text       string      `json:"text" db:"text"`
	Annotation *Annotation `json:"annotation,omitempty"`
	Mentions   []string    `json:"mentions" db:"mentions"`
	Children   []*Comment  `json:"children"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// IsReply reports whether the comment is a reply to another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// BuildThreads nests a flat, creation-ordered comment list into threads.
// Replies whose parent is itself a reply are attached to that parent's root so
// threads never exceed MaxReplyDepth. Replies to unknown parents, and replies
// whose parent chain loops, are dropped.
func BuildThreads(flat []Comment) []*Comment {
	byID := make(map[string]*Comment, len(flat))
	for i := range flat {
		c := flat[i]
		c.Children = []*Comment{}
		byID[c.ID] = &c
	}

	roots := make([]*Comment, 0)
	for i := range flat {
		c := byID[flat[i].ID]
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		seen := map[string]struct{}{c.ID: {}}
		parent, ok := byID[*c.ParentID]
		for ok && parent.ParentID != nil {
			if _, loop := seen[parent.ID]; loop {
				ok = false
				break
			}
			seen[parent.ID] = struct{}{}
			parent, ok = byID[*parent.ParentID]
		}
		if !ok {
			continue
		}
		parent.Children = append(parent.Children, c)
	}
	return roots
}
