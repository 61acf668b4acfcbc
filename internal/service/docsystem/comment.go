package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"propdocs/internal/annotation"
	"propdocs/internal/config"
	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
	docsysRepo "propdocs/internal/domain/repositories/docsystem"
	docsysSvc "propdocs/internal/domain/services/docsystem"
	"propdocs/internal/mention"
)

type commentService struct {
	commentRepo docsysRepo.CommentRepository
	userRepo    docsysRepo.UserRepository
	validator   *ResourceValidator
	sanitizer   *TextSanitizer
	logger      *slog.Logger
}

// NewCommentService creates a new comment service
func NewCommentService(
	commentRepo docsysRepo.CommentRepository,
	userRepo docsysRepo.UserRepository,
	validator *ResourceValidator,
	sanitizer *TextSanitizer,
	logger *slog.Logger,
) docsysSvc.CommentService {
	return &commentService{
		commentRepo: commentRepo,
		userRepo:    userRepo,
		validator:   validator,
		sanitizer:   sanitizer,
		logger:      logger,
	}
}

// ListThreads returns a document's comment threads, oldest first
func (s *commentService) ListThreads(ctx context.Context, documentID string) ([]*models.Comment, error) {
	if _, err := s.validator.ValidateDocument(ctx, documentID); err != nil {
		return nil, err
	}
	flat, err := s.commentRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return models.BuildThreads(flat), nil
}

// CreateComment adds a top-level comment anchored to a page region
func (s *commentService) CreateComment(ctx context.Context, req *docsysSvc.CreateCommentRequest) (*models.Comment, error) {
	if req.AuthorID == "" {
		return nil, &domain.UnauthorizedError{Message: "missing user identity"}
	}
	text, err := s.cleanText(req.Text)
	if err != nil {
		return nil, err
	}
	anchor, err := checkAnnotation(req.Annotation)
	if err != nil {
		return nil, err
	}
	if _, err := s.validator.ValidateDocument(ctx, req.DocumentID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	comment := &models.Comment{
		ID:         uuid.NewString(),
		DocumentID: req.DocumentID,
		Author:     req.AuthorID,
		AuthorName: req.AuthorName,
		Text:       text,
		Annotation: anchor,
		Mentions:   s.mentions(ctx, text),
		Children:   []*models.Comment{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment created",
		"id", comment.ID,
		"document_id", comment.DocumentID,
		"page", anchor.Page,
		"mentions", len(comment.Mentions),
	)
	return comment, nil
}

// CreateReply answers a comment. Threads are one level deep, so a reply to a
// reply is stored under the thread root.
func (s *commentService) CreateReply(ctx context.Context, req *docsysSvc.ReplyRequest) (*models.Comment, error) {
	if req.AuthorID == "" {
		return nil, &domain.UnauthorizedError{Message: "missing user identity"}
	}
	text, err := s.cleanText(req.Text)
	if err != nil {
		return nil, err
	}

	parent, err := s.commentRepo.GetByID(ctx, req.ParentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.validator.ValidateDocument(ctx, parent.DocumentID); err != nil {
		return nil, err
	}
	rootID := parent.ID
	if parent.ParentID != nil {
		rootID = *parent.ParentID
	}

	now := time.Now().UTC()
	reply := &models.Comment{
		ID:         uuid.NewString(),
		DocumentID: parent.DocumentID,
		ParentID:   &rootID,
		Author:     req.AuthorID,
		AuthorName: req.AuthorName,
		Text:       text,
		Mentions:   s.mentions(ctx, text),
		Children:   []*models.Comment{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.commentRepo.Create(ctx, reply); err != nil {
		return nil, err
	}

	s.logger.Info("reply created", "id", reply.ID, "thread_id", rootID, "document_id", reply.DocumentID)
	return reply, nil
}

// UpdateComment edits the text of the caller's own comment
func (s *commentService) UpdateComment(ctx context.Context, id string, req *docsysSvc.UpdateCommentRequest) (*models.Comment, error) {
	text, err := s.cleanText(req.Text)
	if err != nil {
		return nil, err
	}

	comment, err := s.owned(ctx, id, req.UserID)
	if err != nil {
		return nil, err
	}

	comment.Text = text
	comment.Mentions = s.mentions(ctx, text)
	comment.UpdatedAt = time.Now().UTC()
	if err := s.commentRepo.UpdateText(ctx, comment.ID, comment.Text, comment.Mentions, comment.UpdatedAt); err != nil {
		return nil, err
	}

	s.logger.Info("comment updated", "id", comment.ID)
	return comment, nil
}

// DeleteComment removes the caller's own comment and its replies
func (s *commentService) DeleteComment(ctx context.Context, id, userID string) error {
	comment, err := s.owned(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return err
	}

	s.logger.Info("comment deleted", "id", comment.ID, "document_id", comment.DocumentID)
	return nil
}

// owned loads a comment and checks that userID wrote it
func (s *commentService) owned(ctx context.Context, id, userID string) (*models.Comment, error) {
	if userID == "" {
		return nil, &domain.UnauthorizedError{Message: "missing user identity"}
	}
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.Author != userID {
		return nil, &domain.ForbiddenError{Message: "only the author can change this comment"}
	}
	return comment, nil
}

// mentions resolves @handles against the user directory. A directory failure
// only costs the mention list.
func (s *commentService) mentions(ctx context.Context, text string) []string {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.logger.Warn("failed to load users for mentions", "error", err)
		return []string{}
	}
	return mention.Extract(text, users)
}

func (s *commentService) cleanText(raw string) (string, error) {
	text := s.sanitizer.Sanitize(raw)
	err := validation.Validate(text,
		validation.Required.Error("comment text is required"),
		validation.RuneLength(1, config.MaxCommentLength),
	)
	if err != nil {
		return "", &domain.ValidationError{Message: err.Error()}
	}
	return text, nil
}

// checkAnnotation rejects anchors that cannot be placed on a page and clamps
// the rest inside it
func checkAnnotation(a *models.Annotation) (*models.Annotation, error) {
	if a == nil {
		return nil, &domain.ValidationError{Message: "annotation is required for a top-level comment"}
	}
	r := a.Rect
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &domain.ValidationError{Message: "annotation coordinates must be finite"}
		}
	}

	err := validation.ValidateStruct(a,
		validation.Field(&a.Page, validation.Required.Error("page must be at least 1"), validation.Min(1)),
	)
	if err == nil {
		err = validation.ValidateStruct(&r,
			validation.Field(&r.X, validation.Min(0.0), validation.Max(100.0)),
			validation.Field(&r.Y, validation.Min(0.0), validation.Max(100.0)),
			validation.Field(&r.Width, validation.Required, validation.Min(0.0).Exclusive(), validation.Max(100.0)),
			validation.Field(&r.Height, validation.Required, validation.Min(0.0).Exclusive(), validation.Max(100.0)),
		)
	}
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid annotation: %v", err)}
	}

	out := *a
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	out.Rect = annotation.Clamp(r)
	return &out, nil
}
