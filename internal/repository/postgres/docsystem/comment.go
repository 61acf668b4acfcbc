package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
	docsysRepo "propdocs/internal/domain/repositories/docsystem"
	"propdocs/internal/repository/postgres"
)

const commentColumns = `id, document_id, parent_id, author, author_name, text, annotation, mentions, created_at, updated_at`

// PostgresCommentRepository implements the CommentRepository interface
type PostgresCommentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(config *postgres.RepositoryConfig) docsysRepo.CommentRepository {
	return &PostgresCommentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(
		&c.ID,
		&c.DocumentID,
		&c.ParentID,
		&c.Author,
		&c.AuthorName,
		&c.Text,
		&c.Annotation, // JSONB, NULL for replies
		&c.Mentions,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Mentions == nil {
		c.Mentions = []string{}
	}
	return &c, nil
}

// Create inserts a comment or reply
func (r *PostgresCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.Comments, commentColumns)

	mentions := comment.Mentions
	if mentions == nil {
		mentions = []string{}
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		comment.ID,
		comment.DocumentID,
		comment.ParentID,
		comment.Author,
		comment.AuthorName,
		comment.Text,
		comment.Annotation,
		mentions,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("document or parent comment: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create comment: %w", err)
	}

	r.logger.Debug("comment created", "comment_id", comment.ID, "document_id", comment.DocumentID)
	return nil
}

// GetByID retrieves a comment
func (r *PostgresCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, commentColumns, r.tables.Comments)

	executor := postgres.GetExecutor(ctx, r.pool)
	c, err := scanComment(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

// ListByDocument returns all comments of a document, oldest first
func (r *PostgresCommentRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Comment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE document_id = $1
		ORDER BY created_at ASC, id ASC
	`, commentColumns, r.tables.Comments)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// UpdateText replaces the text and mentions of a comment
func (r *PostgresCommentRepository) UpdateText(ctx context.Context, id, text string, mentions []string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET text = $1, mentions = $2, updated_at = $3
		WHERE id = $4
	`, r.tables.Comments)

	if mentions == nil {
		mentions = []string{}
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, text, mentions, at, id)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a comment; replies cascade
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Comments)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
