package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
)

type userRepo struct {
	s *Store
}

// List returns users ordered by display name
func (r *userRepo) List(_ context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b models.User) int {
		if c := strings.Compare(a.DisplayName, b.DisplayName); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

// Upsert keeps the stored email when the new one is empty
func (r *userRepo) Upsert(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := *user
	if old, ok := r.s.users[u.ID]; ok && u.Email == "" {
		u.Email = old.Email
	}
	r.s.users[u.ID] = u
	return nil
}
