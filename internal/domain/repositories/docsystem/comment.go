package docsystem

import (
	"context"
	"time"

	"propdocs/internal/domain/models/docsystem"
)

// CommentRepository defines data access for document comments
type CommentRepository interface {
	Create(ctx context.Context, comment *docsystem.Comment) error

	GetByID(ctx context.Context, id string) (*docsystem.Comment, error)

	// ListByDocument returns a document's comments flat, oldest first
	ListByDocument(ctx context.Context, documentID string) ([]docsystem.Comment, error)

	UpdateText(ctx context.Context, id, text string, mentions []string, at time.Time) error

	// Delete removes a comment and its replies
	Delete(ctx context.Context, id string) error
}

// UserRepository backs the mention directory
type UserRepository interface {
	List(ctx context.Context) ([]docsystem.User, error)

	GetByID(ctx context.Context, id string) (*docsystem.User, error)

	// Upsert records a user seen through the identity headers
	Upsert(ctx context.Context, user *docsystem.User) error
}
