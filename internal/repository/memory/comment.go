package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
)

type commentRepo struct {
	s *Store
}

func cloneComment(c models.Comment) *models.Comment {
	c.Children = nil
	c.Mentions = slices.Clone(c.Mentions)
	if c.Mentions == nil {
		c.Mentions = []string{}
	}
	if c.Annotation != nil {
		a := *c.Annotation
		c.Annotation = &a
	}
	return &c
}

func (r *commentRepo) Create(_ context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.nodes[comment.DocumentID]; !ok {
		return fmt.Errorf("document or parent comment: %w", domain.ErrNotFound)
	}
	if comment.ParentID != nil && !slices.ContainsFunc(r.s.comments, func(c models.Comment) bool {
		return c.ID == *comment.ParentID
	}) {
		return fmt.Errorf("document or parent comment: %w", domain.ErrNotFound)
	}
	r.s.comments = append(r.s.comments, *cloneComment(*comment))
	return nil
}

func (r *commentRepo) GetByID(_ context.Context, id string) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.comments {
		if c.ID == id {
			return cloneComment(c), nil
		}
	}
	return nil, fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
}

// ListByDocument returns comments oldest first, ties broken by id
func (r *commentRepo) ListByDocument(_ context.Context, documentID string) ([]models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.Comment, 0)
	for _, c := range r.s.comments {
		if c.DocumentID == documentID {
			out = append(out, *cloneComment(c))
		}
	}
	slices.SortStableFunc(out, func(a, b models.Comment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *commentRepo) UpdateText(_ context.Context, id, text string, mentions []string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.comments {
		if r.s.comments[i].ID == id {
			r.s.comments[i].Text = text
			r.s.comments[i].Mentions = slices.Clone(mentions)
			r.s.comments[i].UpdatedAt = at
			return nil
		}
	}
	return fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
}

func (r *commentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	before := len(r.s.comments)
	r.s.comments = slices.DeleteFunc(r.s.comments, func(c models.Comment) bool {
		return c.ID == id || (c.ParentID != nil && *c.ParentID == id)
	})
	if len(r.s.comments) == before {
		return fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
