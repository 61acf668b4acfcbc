package docsystem

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
	docsysRepo "propdocs/internal/domain/repositories/docsystem"
	"propdocs/internal/repository/postgres"
)

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *postgres.RepositoryConfig) docsysRepo.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// List returns the mention directory ordered by display name
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, display_name, email FROM %s
		ORDER BY display_name ASC
	`, r.tables.Users)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// GetByID retrieves a user
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT id, display_name, email FROM %s WHERE id = $1`, r.tables.Users)

	executor := postgres.GetExecutor(ctx, r.pool)
	var u models.User
	if err := executor.QueryRow(ctx, query, id).Scan(&u.ID, &u.DisplayName, &u.Email); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Upsert inserts a user or refreshes their display name and email
func (r *PostgresUserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, display_name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
			email = CASE WHEN EXCLUDED.email = '' THEN %[1]s.email ELSE EXCLUDED.email END
	`, r.tables.Users)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, user.ID, user.DisplayName, user.Email); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
