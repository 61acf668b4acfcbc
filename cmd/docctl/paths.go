package main

import (
	"context"
	"fmt"
	"path"
	"strings"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
)

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// find looks a name or id up in the current view
func (a *app) find(seg string) *models.Node {
	for _, n := range a.sess.View().Nodes {
		if n.Name == seg || n.ID == seg {
			return n
		}
	}
	return nil
}

// open walks from the root into the folder at p. Segments are names or ids.
func (a *app) open(ctx context.Context, p string) error {
	if err := a.sess.NavigateTo(0); err != nil {
		return err
	}
	for _, seg := range splitPath(p) {
		node := a.find(seg)
		if node == nil {
			return fmt.Errorf("%q: %w", seg, domain.ErrNotFound)
		}
		if !node.IsFolder {
			return &domain.ValidationError{Message: fmt.Sprintf("%q is not a folder", seg)}
		}
		if err := a.sess.EnterFolder(ctx, node.ID); err != nil {
			return err
		}
	}
	return nil
}

// resolve opens the parent of p and returns the node p names. The session is
// left in the parent folder.
func (a *app) resolve(ctx context.Context, p string) (*models.Node, error) {
	segs := splitPath(p)
	if len(segs) == 0 {
		return nil, &domain.ValidationError{Message: "a path is required"}
	}
	if err := a.open(ctx, path.Join(segs[:len(segs)-1]...)); err != nil {
		return nil, err
	}
	node := a.find(segs[len(segs)-1])
	if node == nil {
		return nil, fmt.Errorf("%q: %w", p, domain.ErrNotFound)
	}
	return node, nil
}

// resolveFolder returns the id of the folder at p, nil for the root
func (a *app) resolveFolder(ctx context.Context, p string) (*string, error) {
	if len(splitPath(p)) == 0 {
		return nil, nil
	}
	node, err := a.resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	if !node.IsFolder {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("%q is not a folder", p)}
	}
	id := node.ID
	return &id, nil
}
