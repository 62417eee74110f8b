package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matchlive/matchlive/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads the local mirror of externally authenticated
// identities. Rows are upserted when a verified token is first seen.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, nickname, role, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Nickname, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user by id %d: %w", id, err)
	}
	return user, nil
}

func (r *postgresUserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, nickname, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET nickname = EXCLUDED.nickname, role = EXCLUDED.role
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, user.ID, user.Nickname, user.Role).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", user.ID, err)
	}
	return nil
}
