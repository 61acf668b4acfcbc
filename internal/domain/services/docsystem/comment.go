package docsystem

import (
	"context"

	"propdocs/internal/domain/models/docsystem"
)

// CommentService handles document comments and replies
type CommentService interface {
	// ListThreads returns the top-level comments of a document with their replies
	ListThreads(ctx context.Context, documentID string) ([]*docsystem.Comment, error)

	// CreateComment adds a top-level comment anchored to an annotation
	CreateComment(ctx context.Context, req *CreateCommentRequest) (*docsystem.Comment, error)

	// CreateReply answers a comment. Replies to replies join the thread root.
	CreateReply(ctx context.Context, req *ReplyRequest) (*docsystem.Comment, error)

	// UpdateComment edits the text of the caller's own comment
	UpdateComment(ctx context.Context, id string, req *UpdateCommentRequest) (*docsystem.Comment, error)

	// DeleteComment removes the caller's own comment along with its replies
	DeleteComment(ctx context.Context, id, userID string) error
}

// UserService backs the mention directory
type UserService interface {
	ListUsers(ctx context.Context) ([]docsystem.User, error)

	// Touch records the caller so they can be mentioned
	Touch(ctx context.Context, user *docsystem.User) error
}

// CreateCommentRequest represents a new top-level comment
type CreateCommentRequest struct {
	DocumentID string                `json:"-"` // Set by handler from the URL
	AuthorID   string                `json:"-"` // Set by handler from identity headers
	AuthorName string                `json:"-"`
	Text       string                `json:"text"`
	Annotation *docsystem.Annotation `json:"annotation"`
}

// ReplyRequest represents a reply to an existing comment
type ReplyRequest struct {
	ParentID   string `json:"-"`
	AuthorID   string `json:"-"`
	AuthorName string `json:"-"`
	Text       string `json:"text"`
}

// UpdateCommentRequest represents a comment edit
type UpdateCommentRequest struct {
	UserID string `json:"-"`
	Text   string `json:"text"`
}
