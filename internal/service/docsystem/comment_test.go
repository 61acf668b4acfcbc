package docsystem

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
	docsysSvc "propdocs/internal/domain/services/docsystem"
)

type commentFixture struct {
	svc      docsysSvc.CommentService
	nodes    *memNodeRepo
	comments *memCommentRepo
	users    *memUserRepo
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	nodes := newMemNodeRepo(fixtureNodes()...)
	comments := &memCommentRepo{}
	users := &memUserRepo{users: []models.User{
		{ID: "u1", DisplayName: "Jo March", Email: "jo@example.com"},
		{ID: "u2", DisplayName: "Joanna Reyes", Email: "joanna.reyes@example.com"},
	}}
	svc := NewCommentService(comments, users, NewResourceValidator(nodes), NewTextSanitizer(), discardLogger())
	return &commentFixture{svc: svc, nodes: nodes, comments: comments, users: users}
}

func validAnnotation() *models.Annotation {
	return &models.Annotation{Page: 2, Rect: models.Rect{X: 10, Y: 20, Width: 30, Height: 5}}
}

func TestCreateComment(t *testing.T) {
	f := newCommentFixture(t)

	c, err := f.svc.CreateComment(context.Background(), &docsysSvc.CreateCommentRequest{
		DocumentID: leaseID,
		AuthorID:   "u1",
		AuthorName: "Jo March",
		Text:       "check clause 4 <i>please</i> @joanna.reyes",
		Annotation: validAnnotation(),
	})
	require.NoError(t, err)

	assert.Equal(t, "check clause 4 please @joanna.reyes", c.Text)
	assert.Equal(t, []string{"joanna.reyes"}, c.Mentions)
	require.NotNil(t, c.Annotation)
	assert.NotEmpty(t, c.Annotation.ID)
	assert.Equal(t, 2, c.Annotation.Page)
	assert.Nil(t, c.ParentID)
}

func TestCreateComment_ClampsAnnotation(t *testing.T) {
	f := newCommentFixture(t)

	c, err := f.svc.CreateComment(context.Background(), &docsysSvc.CreateCommentRequest{
		DocumentID: leaseID,
		AuthorID:   "u1",
		Text:       "edge",
		Annotation: &models.Annotation{Page: 1, Rect: models.Rect{X: 95, Y: 99.99, Width: 20, Height: 20}},
	})
	require.NoError(t, err)

	r := c.Annotation.Rect
	assert.LessOrEqual(t, r.X+r.Width, 100.0)
	assert.LessOrEqual(t, r.Y+r.Height, 100.0)
	assert.GreaterOrEqual(t, r.Height, 0.1)
}

func TestCreateComment_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		req     docsysSvc.CreateCommentRequest
		wantErr error
	}{
		{"no identity", docsysSvc.CreateCommentRequest{DocumentID: leaseID, Text: "x", Annotation: validAnnotation()}, domain.ErrUnauthorized},
		{"empty text", docsysSvc.CreateCommentRequest{DocumentID: leaseID, AuthorID: "u1", Text: " ", Annotation: validAnnotation()}, domain.ErrValidation},
		{"no annotation", docsysSvc.CreateCommentRequest{DocumentID: leaseID, AuthorID: "u1", Text: "x"}, domain.ErrValidation},
		{"page zero", docsysSvc.CreateCommentRequest{DocumentID: leaseID, AuthorID: "u1", Text: "x",
			Annotation: &models.Annotation{Page: 0, Rect: models.Rect{Width: 1, Height: 1}}}, domain.ErrValidation},
		{"zero width", docsysSvc.CreateCommentRequest{DocumentID: leaseID, AuthorID: "u1", Text: "x",
			Annotation: &models.Annotation{Page: 1, Rect: models.Rect{Height: 1}}}, domain.ErrValidation},
		{"off page", docsysSvc.CreateCommentRequest{DocumentID: leaseID, AuthorID: "u1", Text: "x",
			Annotation: &models.Annotation{Page: 1, Rect: models.Rect{X: 101, Width: 1, Height: 1}}}, domain.ErrValidation},
		{"nan", docsysSvc.CreateCommentRequest{DocumentID: leaseID, AuthorID: "u1", Text: "x",
			Annotation: &models.Annotation{Page: 1, Rect: models.Rect{X: math.NaN(), Width: 1, Height: 1}}}, domain.ErrValidation},
		{"folder", docsysSvc.CreateCommentRequest{DocumentID: leasesID, AuthorID: "u1", Text: "x", Annotation: validAnnotation()}, domain.ErrValidation},
		{"missing document", docsysSvc.CreateCommentRequest{DocumentID: missingID, AuthorID: "u1", Text: "x", Annotation: validAnnotation()}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCommentFixture(t)
			req := tt.req
			_, err := f.svc.CreateComment(context.Background(), &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateReply_FlattensToThreadRoot(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	root, err := f.svc.CreateComment(ctx, &docsysSvc.CreateCommentRequest{
		DocumentID: leaseID, AuthorID: "u1", Text: "root", Annotation: validAnnotation(),
	})
	require.NoError(t, err)

	reply, err := f.svc.CreateReply(ctx, &docsysSvc.ReplyRequest{ParentID: root.ID, AuthorID: "u2", Text: "first"})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *reply.ParentID)
	assert.Equal(t, leaseID, reply.DocumentID)
	assert.Nil(t, reply.Annotation)

	nested, err := f.svc.CreateReply(ctx, &docsysSvc.ReplyRequest{ParentID: reply.ID, AuthorID: "u1", Text: "second"})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *nested.ParentID, "reply to a reply joins the thread root")

	threads, err := f.svc.ListThreads(ctx, leaseID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	require.Len(t, threads[0].Children, 2)
	assert.Equal(t, "first", threads[0].Children[0].Text)
	assert.Equal(t, "second", threads[0].Children[1].Text)
}

func TestCreateReply_MissingParent(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.CreateReply(context.Background(), &docsysSvc.ReplyRequest{ParentID: "nope", AuthorID: "u1", Text: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateReply_TrashedDocument(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	root, err := f.svc.CreateComment(ctx, &docsysSvc.CreateCommentRequest{
		DocumentID: leaseID, AuthorID: "u1", Text: "root", Annotation: validAnnotation(),
	})
	require.NoError(t, err)

	_, err = f.nodes.SoftDeleteSubtree(ctx, leaseID, time.Now().UTC())
	require.NoError(t, err)

	_, err = f.svc.CreateReply(ctx, &docsysSvc.ReplyRequest{ParentID: root.ID, AuthorID: "u2", Text: "late"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := f.comments.ListByDocument(ctx, leaseID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestUpdateAndDelete_AuthorOnly(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	c, err := f.svc.CreateComment(ctx, &docsysSvc.CreateCommentRequest{
		DocumentID: leaseID, AuthorID: "u1", Text: "draft", Annotation: validAnnotation(),
	})
	require.NoError(t, err)
	_, err = f.svc.CreateReply(ctx, &docsysSvc.ReplyRequest{ParentID: c.ID, AuthorID: "u2", Text: "ok"})
	require.NoError(t, err)

	_, err = f.svc.UpdateComment(ctx, c.ID, &docsysSvc.UpdateCommentRequest{UserID: "u2", Text: "hijack"})
	var forbidden *domain.ForbiddenError
	assert.True(t, errors.As(err, &forbidden))

	updated, err := f.svc.UpdateComment(ctx, c.ID, &docsysSvc.UpdateCommentRequest{UserID: "u1", Text: "final @jo"})
	require.NoError(t, err)
	assert.Equal(t, "final @jo", updated.Text)
	assert.Equal(t, []string{"jo"}, updated.Mentions)

	assert.ErrorIs(t, f.svc.DeleteComment(ctx, c.ID, "u2"), domain.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, c.ID, ""), domain.ErrUnauthorized)
	require.NoError(t, f.svc.DeleteComment(ctx, c.ID, "u1"))

	threads, err := f.svc.ListThreads(ctx, leaseID)
	require.NoError(t, err)
	assert.Empty(t, threads, "replies go with their comment")
}

func TestMentions_DirectoryFailureIsNotFatal(t *testing.T) {
	f := newCommentFixture(t)
	f.users.err = errors.New("directory down")

	c, err := f.svc.CreateComment(context.Background(), &docsysSvc.CreateCommentRequest{
		DocumentID: leaseID, AuthorID: "u1", Text: "hi @jo", Annotation: validAnnotation(),
	})
	require.NoError(t, err)
	assert.Empty(t, c.Mentions)
}

func TestTouchUser(t *testing.T) {
	users := &memUserRepo{}
	svc := NewUserService(users, discardLogger())
	ctx := context.Background()

	require.NoError(t, svc.Touch(ctx, &models.User{ID: " u9 "}))
	list, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u9", list[0].DisplayName, "display name falls back to the id")

	err = svc.Touch(ctx, &models.User{ID: "u9", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = svc.Touch(ctx, &models.User{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
