package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/matchlive/matchlive/models"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name is already in use")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByIDs(ctx context.Context, ids []int) ([]*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, short_name, color)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, team.Name, team.ShortName, team.Color).
		Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "teams_name_key" {
			return ErrTeamNameConflict
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT id, name, short_name, color, created_at FROM teams WHERE id = $1`

	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&team.ID, &team.Name, &team.ShortName, &team.Color, &team.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by id %d: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.Team, error) {
	if len(ids) == 0 {
		return []*models.Team{}, nil
	}
	query := `SELECT id, name, short_name, color, created_at FROM teams WHERE id = ANY($1) ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query teams by ids: %w", err)
	}
	defer rows.Close()

	return scanTeams(rows)
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, short_name, color, created_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	return scanTeams(rows)
}

func scanTeams(rows *sql.Rows) ([]*models.Team, error) {
	teams := make([]*models.Team, 0)
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.ShortName, &team.Color, &team.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, &team)
	}
	return teams, rows.Err()
}
