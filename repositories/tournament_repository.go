package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/matchlive/matchlive/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	ListDueForActivation(ctx context.Context, now time.Time) ([]*models.Tournament, error)
	AddTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int, seed int) error
	ListTeamIDs(ctx context.Context, tournamentID int) ([]int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, description, organizer_id, format, draw_mode, status, start_date, created_at`

func scanTournament(row interface{ Scan(dest ...interface{}) error }, t *models.Tournament) error {
	return row.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.OrganizerID,
		&t.Format,
		&t.DrawMode,
		&t.Status,
		&t.StartDate,
		&t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, description, organizer_id, format, draw_mode, status, start_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Description,
		tournament.OrganizerID,
		tournament.Format,
		tournament.DrawMode,
		tournament.Status,
		tournament.StartDate,
	).Scan(&tournament.ID, &tournament.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "tournaments_name_key" {
			return ErrTournamentNameConflict
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	tournament := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, query, id), tournament)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament by id %d: %w", id, err)
	}
	return tournament, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY start_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListDueForActivation(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE status = $1 AND start_date <= $2`

	rows, err := r.db.QueryContext(ctx, query, models.TournamentStatusDraft, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) AddTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int, seed int) error {
	query := `INSERT INTO tournament_teams (tournament_id, team_id, seed) VALUES ($1, $2, $3)`
	_, err := exec.ExecContext(ctx, query, tournamentID, teamID, seed)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "tournament_teams_tournament_id_fkey":
				return ErrTournamentNotFound
			case "tournament_teams_team_id_fkey":
				return ErrTeamNotFound
			}
		}
		return fmt.Errorf("failed to add team %d to tournament %d: %w", teamID, tournamentID, err)
	}
	return nil
}

// ListTeamIDs returns the tournament's team ids in seed order.
func (r *postgresTournamentRepository) ListTeamIDs(ctx context.Context, tournamentID int) ([]int, error) {
	query := `SELECT team_id FROM tournament_teams WHERE tournament_id = $1 ORDER BY seed ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament teams: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan team id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
