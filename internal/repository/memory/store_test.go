package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
)

func ptr(s string) *string { return &s }

func seed(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	nodes := s.Nodes()
	ctx := context.Background()
	for _, n := range []*models.Node{
		{ID: "props", Name: "Properties", IsFolder: true},
		{ID: "leases", ParentID: ptr("props"), Name: "Leases", IsFolder: true},
		{ID: "lease", ParentID: ptr("leases"), Name: "lease.pdf"},
		{ID: "deed", ParentID: ptr("props"), Name: "deed.pdf"},
		{ID: "notes", Name: "notes.txt"},
	} {
		require.NoError(t, nodes.Create(ctx, n))
	}
	return s
}

func TestNodes_CreateConflict(t *testing.T) {
	s := seed(t)
	err := s.Nodes().Create(context.Background(), &models.Node{ID: "dup", ParentID: ptr("props"), Name: "deed.pdf"})

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "deed", conflict.ResourceID)
	assert.Equal(t, "document", conflict.ResourceType)

	err = s.Nodes().Create(context.Background(), &models.Node{ID: "orphan", ParentID: ptr("gone"), Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNodes_ListChildrenFoldersFirst(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Nodes().Create(ctx, &models.Node{ID: "a", ParentID: ptr("props"), Name: "appraisal.pdf"}))

	got, err := s.Nodes().ListChildren(ctx, ptr("props"))
	require.NoError(t, err)
	var names []string
	for _, n := range got {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Leases", "appraisal.pdf", "deed.pdf"}, names)

	roots, err := s.Nodes().ListChildren(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, roots, 2)
}

func TestNodes_ReturnsCopies(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	n, err := s.Nodes().GetByID(ctx, "deed")
	require.NoError(t, err)
	n.Name = "changed"
	n.Tags = append(n.Tags, "x")

	again, err := s.Nodes().GetByID(ctx, "deed")
	require.NoError(t, err)
	assert.Equal(t, "deed.pdf", again.Name)
	assert.Empty(t, again.Tags)
}

func TestNodes_TrashRestorePurge(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	repo := s.Nodes()
	t1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	n, err := repo.SoftDeleteSubtree(ctx, "lease", t1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = repo.SoftDeleteSubtree(ctx, "props", t2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n, "already trashed lease is not counted")

	trash, err := repo.ListTrash(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 2)
	assert.Equal(t, "props", trash[0].ID, "newest first")
	assert.Equal(t, "lease", trash[1].ID, "deleted separately so listed on its own")

	path, err := repo.GetPath(ctx, "lease")
	require.NoError(t, err)
	assert.Equal(t, "Properties/Leases/lease.pdf", path)

	n, err = repo.RestoreSubtree(ctx, "props", nil, t2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	_, err = repo.GetByID(ctx, "leases")
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, "lease")
	assert.ErrorIs(t, err, domain.ErrNotFound, "lease stays in the trash")

	require.NoError(t, repo.Purge(ctx, "lease"))
	_, err = repo.GetTrashed(ctx, "lease")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Purge(ctx, "deed"), domain.ErrNotFound, "live nodes cannot be purged")
}

func TestNodes_RestoreNameTaken(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	repo := s.Nodes()

	_, err := repo.SoftDeleteSubtree(ctx, "notes", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, &models.Node{ID: "notes2", Name: "notes.txt"}))

	_, err = repo.RestoreSubtree(ctx, "notes", nil, time.Now())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTxManager_RollsBack(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.TxManager().ExecTx(ctx, func(ctx context.Context) error {
		if _, err := s.Nodes().SoftDeleteSubtree(ctx, "props", time.Now()); err != nil {
			return err
		}
		// nested transactions join the outer one
		return s.TxManager().ExecTx(ctx, func(context.Context) error { return boom })
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Nodes().GetByID(ctx, "lease")
	assert.NoError(t, err, "subtree delete was rolled back")

	err = s.TxManager().ExecTx(ctx, func(ctx context.Context) error {
		_, err := s.Nodes().SoftDeleteSubtree(ctx, "notes", time.Now())
		return err
	})
	require.NoError(t, err)
	_, err = s.Nodes().GetByID(ctx, "notes")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestComments_ThreadLifecycle(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	repo := s.Comments()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &models.Comment{ID: "c2", DocumentID: "deed", Text: "second", CreatedAt: t0.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &models.Comment{ID: "c1", DocumentID: "deed", Text: "first", CreatedAt: t0}))
	require.NoError(t, repo.Create(ctx, &models.Comment{ID: "r1", DocumentID: "deed", ParentID: ptr("c1"), CreatedAt: t0.Add(time.Hour)}))
	assert.ErrorIs(t, repo.Create(ctx, &models.Comment{ID: "x", DocumentID: "nope"}), domain.ErrNotFound)
	assert.ErrorIs(t, repo.Create(ctx, &models.Comment{ID: "y", DocumentID: "deed", ParentID: ptr("nope")}), domain.ErrNotFound)

	list, err := repo.ListByDocument(ctx, "deed")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c1", list[0].ID)
	assert.NotNil(t, list[0].Mentions)

	require.NoError(t, repo.UpdateText(ctx, "c2", "edited", []string{"jo"}, t0.Add(2*time.Hour)))
	c, err := repo.GetByID(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "edited", c.Text)
	assert.Equal(t, []string{"jo"}, c.Mentions)

	require.NoError(t, repo.Delete(ctx, "c1"))
	list, err = repo.ListByDocument(ctx, "deed")
	require.NoError(t, err)
	assert.Len(t, list, 1, "replies go with their root")
	assert.ErrorIs(t, repo.Delete(ctx, "c1"), domain.ErrNotFound)
}

func TestComments_PurgedWithDocument(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.Comments().Create(ctx, &models.Comment{ID: "c1", DocumentID: "lease"}))
	_, err := s.Nodes().SoftDeleteSubtree(ctx, "props", time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Nodes().Purge(ctx, "props"))

	list, err := s.Comments().ListByDocument(ctx, "lease")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUsers_UpsertKeepsEmail(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Users()

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "u1", DisplayName: "Joanna", Email: "jo@example.com"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "u1", DisplayName: "Joanna Reyes"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "u2", DisplayName: "Aaron"}))

	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Joanna Reyes", u.DisplayName)
	assert.Equal(t, "jo@example.com", u.Email)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Aaron", list[0].DisplayName)

	_, err = repo.GetByID(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
