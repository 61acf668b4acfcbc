package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	models "propdocs/internal/domain/models/docsystem"
	docsysSvc "propdocs/internal/domain/services/docsystem"
)

// validateNode rejects a malformed node before it reaches the local tree
func validateNode(n *models.Node) error {
	if n == nil {
		return fmt.Errorf("invalid node in response: missing")
	}
	err := validation.ValidateStruct(n,
		validation.Field(&n.ID, validation.Required, is.UUID),
		validation.Field(&n.Name, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("invalid node in response: %w", err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return nil
}

func validateNodes(nodes []*models.Node) error {
	for _, n := range nodes {
		if err := validateNode(n); err != nil {
			return err
		}
	}
	return nil
}

// ListChildren lists the children of a folder, or the root when folderID is nil
func (c *Client) ListChildren(ctx context.Context, folderID *string) ([]*models.Node, error) {
	path := "/api/nodes"
	if folderID != nil {
		path += "?parent_id=" + url.QueryEscape(*folderID)
	}

	var nodes []*models.Node
	if err := c.get(ctx, path, &nodes); err != nil {
		return nil, err
	}
	if err := validateNodes(nodes); err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []*models.Node{}
	}
	return nodes, nil
}

// FetchChildren lets the client back a navigator
func (c *Client) FetchChildren(ctx context.Context, folderID *string) ([]*models.Node, error) {
	return c.ListChildren(ctx, folderID)
}

// GetNode retrieves a node with its path
func (c *Client) GetNode(ctx context.Context, id string) (*models.Node, error) {
	var node models.Node
	if err := c.get(ctx, "/api/nodes/"+url.PathEscape(id), &node); err != nil {
		return nil, err
	}
	if err := validateNode(&node); err != nil {
		return nil, err
	}
	return &node, nil
}

// mutation sends body and returns the node the server answered with
func (c *Client) mutation(ctx context.Context, method, path string, body any) (*models.Node, error) {
	var resp models.MessageResponse
	if err := c.send(ctx, method, path, body, &resp); err != nil {
		return nil, err
	}
	if err := validateNode(resp.Node); err != nil {
		return nil, err
	}
	return resp.Node, nil
}

// CreateFolder creates a folder under parentID (nil = root)
func (c *Client) CreateFolder(ctx context.Context, parentID *string, name string) (*models.Node, error) {
	return c.mutation(ctx, http.MethodPost, "/api/folders", &docsysSvc.CreateFolderRequest{
		Name:     name,
		ParentID: parentID,
	})
}

// Rename renames a node
func (c *Client) Rename(ctx context.Context, id, name string) (*models.Node, error) {
	return c.mutation(ctx, http.MethodPatch, "/api/nodes/"+url.PathEscape(id)+"/name", &docsysSvc.RenameRequest{Name: name})
}

// EditMetadata replaces the linked property and tags of a node
func (c *Client) EditMetadata(ctx context.Context, id, propertyID string, tags []string) (*models.Node, error) {
	if tags == nil {
		tags = []string{}
	}
	return c.mutation(ctx, http.MethodPatch, "/api/nodes/"+url.PathEscape(id)+"/metadata", &docsysSvc.EditMetadataRequest{
		PropertyID: propertyID,
		Tags:       tags,
	})
}

// Move re-parents a node; nil moves it to the root
func (c *Client) Move(ctx context.Context, id string, parentID *string) (*models.Node, error) {
	return c.mutation(ctx, http.MethodPatch, "/api/nodes/"+url.PathEscape(id)+"/parent", &docsysSvc.MoveRequest{ParentID: parentID})
}

func (c *Client) batch(ctx context.Context, path string, ids []string) (int64, error) {
	var resp models.MessageResponse
	if err := c.send(ctx, http.MethodPost, path, &docsysSvc.BatchRequest{IDs: ids}, &resp); err != nil {
		return 0, err
	}
	return resp.Affected, nil
}

// Delete moves nodes to the trash and returns how many nodes were trashed
func (c *Client) Delete(ctx context.Context, ids ...string) (int64, error) {
	return c.batch(ctx, "/api/nodes/delete", ids)
}

// Trash lists the recycle bin
func (c *Client) Trash(ctx context.Context) ([]*models.Node, error) {
	var nodes []*models.Node
	if err := c.get(ctx, "/api/trash", &nodes); err != nil {
		return nil, err
	}
	if err := validateNodes(nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Restore brings trashed nodes back
func (c *Client) Restore(ctx context.Context, ids ...string) (int64, error) {
	return c.batch(ctx, "/api/trash/restore", ids)
}

// Purge permanently deletes trashed nodes
func (c *Client) Purge(ctx context.Context, ids ...string) (int64, error) {
	return c.batch(ctx, "/api/trash/purge", ids)
}
