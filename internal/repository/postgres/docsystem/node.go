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

// nodeColumns is the select list for a node aliased as n
const nodeColumns = `n.id, n.parent_id, n.name, n.is_folder, n.linked_property, n.tags, n.file_type,
	n.owner, n.value, n.size, n.date_added, n.date_modified, n.deleted_at`

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *postgres.RepositoryConfig) docsysRepo.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanNode(row pgx.Row) (*models.Node, error) {
	var n models.Node
	err := row.Scan(
		&n.ID,
		&n.ParentID,
		&n.Name,
		&n.IsFolder,
		&n.LinkedProperty,
		&n.Tags,
		&n.FileType,
		&n.Owner,
		&n.Value,
		&n.Size,
		&n.DateAdded,
		&n.DateModified,
		&n.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return &n, nil
}

func collectNodes(rows pgx.Rows) ([]*models.Node, error) {
	defer rows.Close()

	nodes := make([]*models.Node, 0)
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

// Create inserts a node
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, parent_id, name, is_folder, linked_property, tags, file_type,
			owner, value, size, date_added, date_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, r.tables.Nodes)

	tags := node.Tags
	if tags == nil {
		tags = []string{}
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		node.ID,
		node.ParentID,
		node.Name,
		node.IsFolder,
		node.LinkedProperty,
		tags,
		node.FileType,
		node.Owner,
		node.Value,
		node.Size,
		node.DateAdded,
		node.DateModified,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.conflict(ctx, node.ParentID, node.Name)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("parent folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create node: %w", err)
	}

	r.logger.Debug("node created", "node_id", node.ID, "name", node.Name, "is_folder", node.IsFolder)
	return nil
}

// GetByID retrieves a live node
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s n
		WHERE n.id = $1 AND n.deleted_at IS NULL
	`, nodeColumns, r.tables.Nodes)

	return r.getOne(ctx, query, id)
}

// GetTrashed retrieves a node in the trash
func (r *PostgresNodeRepository) GetTrashed(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s n
		WHERE n.id = $1 AND n.deleted_at IS NOT NULL
	`, nodeColumns, r.tables.Nodes)

	return r.getOne(ctx, query, id)
}

func (r *PostgresNodeRepository) getOne(ctx context.Context, query, id string) (*models.Node, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	n, err := scanNode(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidInputError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return n, nil
}

// FindByName returns the live sibling called name, or nil when there is none
func (r *PostgresNodeRepository) FindByName(ctx context.Context, parentID *string, name string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s n
		WHERE n.parent_id IS NOT DISTINCT FROM $1 AND n.name = $2 AND n.deleted_at IS NULL
	`, nodeColumns, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	n, err := scanNode(executor.QueryRow(ctx, query, parentID, name))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find node by name: %w", err)
	}
	return n, nil
}

// ListChildren lists live immediate children, folders first then by name
func (r *PostgresNodeRepository) ListChildren(ctx context.Context, parentID *string) ([]*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s n
		WHERE n.parent_id IS NOT DISTINCT FROM $1 AND n.deleted_at IS NULL
		ORDER BY n.is_folder DESC, n.name ASC
	`, nodeColumns, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return collectNodes(rows)
}

// Update persists the mutable fields of a live node
func (r *PostgresNodeRepository) Update(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, linked_property = $3, tags = $4, file_type = $5, date_modified = $6
		WHERE id = $7 AND deleted_at IS NULL
	`, r.tables.Nodes)

	tags := node.Tags
	if tags == nil {
		tags = []string{}
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		node.ParentID,
		node.Name,
		node.LinkedProperty,
		tags,
		node.FileType,
		node.DateModified,
		node.ID,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.conflict(ctx, node.ParentID, node.Name)
		}
		return fmt.Errorf("update node: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}
	return nil
}

// SoftDeleteSubtree stamps deleted_at on the node and every live descendant
func (r *PostgresNodeRepository) SoftDeleteSubtree(ctx context.Context, id string, at time.Time) (int64, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT id FROM %[1]s WHERE id = $1 AND deleted_at IS NULL
			UNION ALL
			SELECT c.id FROM %[1]s c
			JOIN subtree s ON c.parent_id = s.id
			WHERE c.deleted_at IS NULL
		)
		UPDATE %[1]s SET deleted_at = $2
		WHERE id IN (SELECT id FROM subtree)
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, at)
	if err != nil {
		if postgres.IsPgInvalidInputError(err) {
			return 0, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("trash node: %w", err)
	}
	if result.RowsAffected() == 0 {
		return 0, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return result.RowsAffected(), nil
}

// ListTrash lists trashed nodes whose parent was not trashed in the same operation
func (r *PostgresNodeRepository) ListTrash(ctx context.Context) ([]*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %[1]s FROM %[2]s n
		LEFT JOIN %[2]s p ON p.id = n.parent_id
		WHERE n.deleted_at IS NOT NULL
			AND (p.id IS NULL OR p.deleted_at IS DISTINCT FROM n.deleted_at)
		ORDER BY n.deleted_at DESC, n.name ASC
	`, nodeColumns, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list trash: %w", err)
	}
	return collectNodes(rows)
}

// RestoreSubtree clears deleted_at on the node and the descendants trashed with
// it, and reattaches the node under parentID
func (r *PostgresNodeRepository) RestoreSubtree(ctx context.Context, id string, parentID *string, at time.Time) (int64, error) {
	restore := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT id, deleted_at FROM %[1]s WHERE id = $1 AND deleted_at IS NOT NULL
			UNION ALL
			SELECT c.id, c.deleted_at FROM %[1]s c
			JOIN subtree s ON c.parent_id = s.id
			WHERE c.deleted_at = s.deleted_at
		)
		UPDATE %[1]s SET deleted_at = NULL
		WHERE id IN (SELECT id FROM subtree)
	`, r.tables.Nodes)

	reattach := fmt.Sprintf(`
		UPDATE %s SET parent_id = $1, date_modified = $2
		WHERE id = $3
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)

	// Reattach first so the sibling-name index sees the final location.
	if _, err := executor.Exec(ctx, reattach, parentID, at, id); err != nil {
		return 0, fmt.Errorf("reattach node: %w", err)
	}
	result, err := executor.Exec(ctx, restore, id)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return 0, r.conflict(ctx, parentID, "")
		}
		return 0, fmt.Errorf("restore node: %w", err)
	}
	if result.RowsAffected() == 0 {
		return 0, fmt.Errorf("trashed node %s: %w", id, domain.ErrNotFound)
	}
	return result.RowsAffected(), nil
}

// Purge permanently deletes a trashed node; descendants and comments cascade
func (r *PostgresNodeRepository) Purge(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE id = $1 AND deleted_at IS NOT NULL
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		if postgres.IsPgInvalidInputError(err) {
			return fmt.Errorf("trashed node %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("purge node: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("trashed node %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetPath walks parent links up to the root and joins the names with "/"
func (r *PostgresNodeRepository) GetPath(ctx context.Context, id string) (string, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE ancestors AS (
			SELECT id, parent_id, name, 0 AS depth FROM %[1]s WHERE id = $1
			UNION ALL
			SELECT p.id, p.parent_id, p.name, a.depth + 1 FROM %[1]s p
			JOIN ancestors a ON p.id = a.parent_id
		)
		SELECT COALESCE(string_agg(name, '/' ORDER BY depth DESC), '') FROM ancestors
	`, r.tables.Nodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	var path string
	if err := executor.QueryRow(ctx, query, id).Scan(&path); err != nil {
		return "", fmt.Errorf("get path: %w", err)
	}
	if path == "" {
		return "", fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return path, nil
}

// conflict builds a ConflictError naming the live node already holding name.
func (r *PostgresNodeRepository) conflict(ctx context.Context, parentID *string, name string) error {
	msg := fmt.Sprintf("'%s' already exists in this folder", name)
	if name == "" {
		msg = "a node with the same name already exists in this folder"
	}
	existing, err := r.FindByName(ctx, parentID, name)
	if err != nil || existing == nil {
		return fmt.Errorf("%s: %w", msg, domain.ErrConflict)
	}
	resourceType := "document"
	if existing.IsFolder {
		resourceType = "folder"
	}
	return &domain.ConflictError{
		Message:      msg,
		ResourceType: resourceType,
		ResourceID:   existing.ID,
	}
}
