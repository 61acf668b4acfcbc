package apiclient

import (
	"context"
	"net/http"
	"net/url"

	models "propdocs/internal/domain/models/docsystem"
	docsysSvc "propdocs/internal/domain/services/docsystem"
	"propdocs/internal/filetypes"
)

// ListComments returns a document's comment threads
func (c *Client) ListComments(ctx context.Context, documentID string) ([]*models.Comment, error) {
	var threads []*models.Comment
	if err := c.get(ctx, "/api/documents/"+url.PathEscape(documentID)+"/comments", &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// CreateComment adds an annotated comment to a document
func (c *Client) CreateComment(ctx context.Context, documentID, text string, annotation *models.Annotation) (*models.Comment, error) {
	var comment models.Comment
	err := c.send(ctx, http.MethodPost, "/api/documents/"+url.PathEscape(documentID)+"/comments",
		&docsysSvc.CreateCommentRequest{Text: text, Annotation: annotation}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// CreateReply answers a comment
func (c *Client) CreateReply(ctx context.Context, parentID, text string) (*models.Comment, error) {
	var reply models.Comment
	err := c.send(ctx, http.MethodPost, "/api/comments/"+url.PathEscape(parentID)+"/replies",
		&docsysSvc.ReplyRequest{Text: text}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// UpdateComment edits one of the caller's comments
func (c *Client) UpdateComment(ctx context.Context, id, text string) (*models.Comment, error) {
	var comment models.Comment
	err := c.send(ctx, http.MethodPatch, "/api/comments/"+url.PathEscape(id),
		&docsysSvc.UpdateCommentRequest{Text: text}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes one of the caller's comments with its replies
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/comments/"+url.PathEscape(id), nil, nil)
}

// ListUsers returns the mention directory
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.get(ctx, "/api/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FileTypes returns the file type catalog the server classifies with
func (c *Client) FileTypes(ctx context.Context) ([]filetypes.FileType, error) {
	var types []filetypes.FileType
	if err := c.get(ctx, "/api/filetypes", &types); err != nil {
		return nil, err
	}
	return types, nil
}

// Health checks that the server answers
func (c *Client) Health(ctx context.Context) error {
	var result map[string]any
	return c.get(ctx, "/health", &result)
}
