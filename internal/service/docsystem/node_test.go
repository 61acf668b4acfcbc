package docsystem

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
	docsysSvc "propdocs/internal/domain/services/docsystem"
	"propdocs/internal/filetypes"
)

const (
	propertiesID = "11111111-1111-1111-1111-111111111111"
	leasesID     = "22222222-2222-2222-2222-222222222222"
	leaseID      = "33333333-3333-3333-3333-333333333333"
	deedID       = "44444444-4444-4444-4444-444444444444"
	notesID      = "55555555-5555-5555-5555-555555555555"
	missingID    = "99999999-9999-9999-9999-999999999999"
)

// Properties/
//   Leases/
//     lease.pdf
//   deed.pdf
// notes.txt
func fixtureNodes() []*models.Node {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*models.Node{
		{ID: propertiesID, Name: "Properties", IsFolder: true, DateAdded: t0},
		{ID: leasesID, ParentID: ptr(propertiesID), Name: "Leases", IsFolder: true, DateAdded: t0},
		{ID: leaseID, ParentID: ptr(leasesID), Name: "lease.pdf", FileType: "PDF", DateAdded: t0},
		{ID: deedID, ParentID: ptr(propertiesID), Name: "deed.pdf", FileType: "PDF", DateAdded: t0},
		{ID: notesID, Name: "notes.txt", FileType: "Text", DateAdded: t0},
	}
}

type nodeFixture struct {
	svc   docsysSvc.NodeService
	repo  *memNodeRepo
	cache *recordingCache
	tx    *passthroughTx
}

func newNodeFixture(t *testing.T) *nodeFixture {
	t.Helper()
	catalog, err := filetypes.Load()
	require.NoError(t, err)

	repo := newMemNodeRepo(fixtureNodes()...)
	c := newRecordingCache()
	tx := &passthroughTx{}
	svc := NewNodeService(repo, tx, c, catalog, NewResourceValidator(repo), NewTextSanitizer(), discardLogger())
	return &nodeFixture{svc: svc, repo: repo, cache: c, tx: tx}
}

func names(nodes []*models.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

// =============================================================================
// Listing
// =============================================================================

func TestListChildren_UsesCache(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	got, err := f.svc.ListChildren(ctx, ptr(propertiesID))
	require.NoError(t, err)
	assert.Equal(t, []string{"Leases", "deed.pdf"}, names(got))

	// A write behind the service's back is not seen until invalidation.
	f.repo.put(&models.Node{ID: missingID, ParentID: ptr(propertiesID), Name: "sneaky.pdf"})
	got, err = f.svc.ListChildren(ctx, ptr(propertiesID))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	f.cache.Invalidate(ctx, ptr(propertiesID))
	got, err = f.svc.ListChildren(ctx, ptr(propertiesID))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestListChildren_Root(t *testing.T) {
	f := newNodeFixture(t)

	got, err := f.svc.ListChildren(context.Background(), ptr(""))
	require.NoError(t, err)
	assert.Equal(t, []string{"Properties", "notes.txt"}, names(got))
}

func TestListChildren_Errors(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListChildren(ctx, ptr(notesID))
	assert.ErrorIs(t, err, domain.ErrValidation, "a file has no listing")

	_, err = f.svc.ListChildren(ctx, ptr(missingID))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetNode_Path(t *testing.T) {
	f := newNodeFixture(t)

	got, err := f.svc.GetNode(context.Background(), leaseID)
	require.NoError(t, err)
	assert.Equal(t, "Properties/Leases/lease.pdf", got.Path)
}

// =============================================================================
// Create / rename / metadata
// =============================================================================

func TestCreateFolder(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	folder, err := f.svc.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{Name: "  <b>Bids</b> ", ParentID: ptr(propertiesID)})
	require.NoError(t, err)

	assert.Equal(t, "Bids", folder.Name)
	assert.True(t, folder.IsFolder)
	assert.NotNil(t, folder.Children, "a new folder is known to be empty")
	assert.Empty(t, folder.Children)
	assert.Equal(t, propertiesID, *folder.ParentID)
	assert.Contains(t, f.cache.invalidated, propertiesID)

	stored, err := f.repo.GetByID(ctx, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bids", stored.Name)
}

func TestCreateFolder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     docsysSvc.CreateFolderRequest
		wantErr error
	}{
		{"empty name", docsysSvc.CreateFolderRequest{Name: "   "}, domain.ErrValidation},
		{"markup only", docsysSvc.CreateFolderRequest{Name: "<script></script>"}, domain.ErrValidation},
		{"slash", docsysSvc.CreateFolderRequest{Name: "a/b"}, domain.ErrValidation},
		{"too long", docsysSvc.CreateFolderRequest{Name: strings.Repeat("x", 256)}, domain.ErrValidation},
		{"parent is a file", docsysSvc.CreateFolderRequest{Name: "x", ParentID: ptr(notesID)}, domain.ErrValidation},
		{"missing parent", docsysSvc.CreateFolderRequest{Name: "x", ParentID: ptr(missingID)}, domain.ErrNotFound},
		{"sibling conflict", docsysSvc.CreateFolderRequest{Name: "Leases", ParentID: ptr(propertiesID)}, domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNodeFixture(t)
			req := tt.req
			_, err := f.svc.CreateFolder(context.Background(), &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateFolder_ConflictNamesExisting(t *testing.T) {
	f := newNodeFixture(t)

	_, err := f.svc.CreateFolder(context.Background(), &docsysSvc.CreateFolderRequest{Name: "Leases", ParentID: ptr(propertiesID)})

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, leasesID, conflict.ResourceID)
	assert.Equal(t, "folder", conflict.ResourceType)
}

func TestRename(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	got, err := f.svc.Rename(ctx, leaseID, &docsysSvc.RenameRequest{Name: "lease-2024.docx"})
	require.NoError(t, err)
	assert.Equal(t, "lease-2024.docx", got.Name)
	assert.Equal(t, "Word", got.FileType, "file type follows the new extension")
	assert.Contains(t, f.cache.invalidated, leasesID)

	folder, err := f.svc.Rename(ctx, leasesID, &docsysSvc.RenameRequest{Name: "Tenancies.pdf"})
	require.NoError(t, err)
	assert.Empty(t, folder.FileType, "folders have no file type")
}

func TestRename_SameNameIsNoop(t *testing.T) {
	f := newNodeFixture(t)

	_, err := f.svc.Rename(context.Background(), deedID, &docsysSvc.RenameRequest{Name: "deed.pdf"})
	require.NoError(t, err)
	assert.Empty(t, f.cache.invalidated)
}

func TestRename_Conflict(t *testing.T) {
	f := newNodeFixture(t)

	_, err := f.svc.Rename(context.Background(), deedID, &docsysSvc.RenameRequest{Name: "Leases"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestEditMetadata(t *testing.T) {
	f := newNodeFixture(t)

	got, err := f.svc.EditMetadata(context.Background(), deedID, &docsysSvc.EditMetadataRequest{
		PropertyID: " 12 Oak Street ",
		Tags:       []string{"legal", " legal", "", "signed"},
	})
	require.NoError(t, err)
	assert.Equal(t, "12 Oak Street", got.LinkedProperty)
	assert.Equal(t, []string{"legal", "signed"}, got.Tags)
	assert.Contains(t, f.cache.invalidated, propertiesID)
}

func TestEditMetadata_TooManyTags(t *testing.T) {
	f := newNodeFixture(t)

	tags := make([]string, 40)
	for i := range tags {
		tags[i] = strings.Repeat("t", i+1)
	}
	_, err := f.svc.EditMetadata(context.Background(), deedID, &docsysSvc.EditMetadataRequest{Tags: tags})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// =============================================================================
// Move
// =============================================================================

func TestMove(t *testing.T) {
	f := newNodeFixture(t)

	got, err := f.svc.Move(context.Background(), leaseID, &docsysSvc.MoveRequest{ParentID: nil})
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
	assert.ElementsMatch(t, []string{leasesID, "root"}, f.cache.invalidated)
}

func TestMove_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		target  *string
		wantErr error
	}{
		{"into itself", propertiesID, ptr(propertiesID), domain.ErrValidation},
		{"into own subfolder", propertiesID, ptr(leasesID), domain.ErrValidation},
		{"onto a file", leaseID, ptr(notesID), domain.ErrValidation},
		{"missing target", leaseID, ptr(missingID), domain.ErrNotFound},
		{"missing node", missingID, nil, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNodeFixture(t)
			_, err := f.svc.Move(context.Background(), tt.id, &docsysSvc.MoveRequest{ParentID: tt.target})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMove_SiblingConflict(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()
	f.repo.put(&models.Node{ID: missingID, Name: "deed.pdf"})

	_, err := f.svc.Move(ctx, deedID, &docsysSvc.MoveRequest{ParentID: nil})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// =============================================================================
// Trash
// =============================================================================

func TestDelete_MovesSubtreeToTrash(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	n, err := f.svc.Delete(ctx, &docsysSvc.BatchRequest{IDs: []string{propertiesID, leasesID, propertiesID}})
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	assert.Equal(t, 1, f.tx.calls)
	assert.Contains(t, f.cache.invalidated, "root")

	_, err = f.repo.GetByID(ctx, leaseID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	trash, err := f.svc.ListTrash(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 1, "descendants deleted with their folder are not listed")
	assert.Equal(t, "Properties", trash[0].Path)
}

func TestDelete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		wantErr error
	}{
		{"empty batch", nil, domain.ErrValidation},
		{"not a uuid", []string{"abc"}, domain.ErrValidation},
		{"missing node", []string{notesID, missingID}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNodeFixture(t)
			_, err := f.svc.Delete(context.Background(), &docsysSvc.BatchRequest{IDs: tt.ids})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRestore_ToOriginalParent(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	_, err := f.svc.Delete(ctx, &docsysSvc.BatchRequest{IDs: []string{leasesID}})
	require.NoError(t, err)

	n, err := f.svc.Restore(ctx, &docsysSvc.BatchRequest{IDs: []string{leasesID}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	lease, err := f.repo.GetByID(ctx, leaseID)
	require.NoError(t, err)
	assert.Equal(t, leasesID, *lease.ParentID)

	leases, err := f.repo.GetByID(ctx, leasesID)
	require.NoError(t, err)
	assert.Equal(t, propertiesID, *leases.ParentID)
}

func TestRestore_ParentGoneLandsAtRoot(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	_, err := f.svc.Delete(ctx, &docsysSvc.BatchRequest{IDs: []string{leasesID}})
	require.NoError(t, err)
	_, err = f.svc.Delete(ctx, &docsysSvc.BatchRequest{IDs: []string{propertiesID}})
	require.NoError(t, err)

	_, err = f.svc.Restore(ctx, &docsysSvc.BatchRequest{IDs: []string{leasesID}})
	require.NoError(t, err)

	leases, err := f.repo.GetByID(ctx, leasesID)
	require.NoError(t, err)
	assert.Nil(t, leases.ParentID)
	assert.Contains(t, f.cache.invalidated, "root")
}

func TestRestore_AncestorFirstInBatch(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	_, err := f.svc.Delete(ctx, &docsysSvc.BatchRequest{IDs: []string{leasesID}})
	require.NoError(t, err)
	_, err = f.svc.Delete(ctx, &docsysSvc.BatchRequest{IDs: []string{propertiesID}})
	require.NoError(t, err)

	// Child listed first; it still goes back under its restored parent.
	_, err = f.svc.Restore(ctx, &docsysSvc.BatchRequest{IDs: []string{leasesID, propertiesID}})
	require.NoError(t, err)

	leases, err := f.repo.GetByID(ctx, leasesID)
	require.NoError(t, err)
	require.NotNil(t, leases.ParentID)
	assert.Equal(t, propertiesID, *leases.ParentID)
}

func TestRestore_GrandchildListedBeforeAncestor(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	_, err := f.svc.Delete(ctx, &docsysSvc.BatchRequest{IDs: []string{propertiesID}})
	require.NoError(t, err)

	_, err = f.svc.Restore(ctx, &docsysSvc.BatchRequest{IDs: []string{leaseID, propertiesID}})
	require.NoError(t, err)

	lease, err := f.repo.GetByID(ctx, leaseID)
	require.NoError(t, err)
	require.NotNil(t, lease.ParentID)
	assert.Equal(t, leasesID, *lease.ParentID)

	path, err := f.repo.GetPath(ctx, leaseID)
	require.NoError(t, err)
	assert.Equal(t, "Properties/Leases/lease.pdf", path)
}

func TestRestore_NameTaken(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	_, err := f.svc.Delete(ctx, &docsysSvc.BatchRequest{IDs: []string{notesID}})
	require.NoError(t, err)
	_, err = f.svc.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{Name: "notes.txt"})
	require.NoError(t, err)

	_, err = f.svc.Restore(ctx, &docsysSvc.BatchRequest{IDs: []string{notesID}})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPurge(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	_, err := f.svc.Purge(ctx, &docsysSvc.BatchRequest{IDs: []string{notesID}})
	assert.ErrorIs(t, err, domain.ErrNotFound, "live nodes cannot be purged")

	_, err = f.svc.Delete(ctx, &docsysSvc.BatchRequest{IDs: []string{propertiesID}})
	require.NoError(t, err)

	n, err := f.svc.Purge(ctx, &docsysSvc.BatchRequest{IDs: []string{propertiesID}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.repo.GetTrashed(ctx, leaseID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	trash, err := f.svc.ListTrash(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)
}
