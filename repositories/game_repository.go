package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/matchlive/matchlive/models"
)

var (
	ErrGameNotFound          = errors.New("game not found")
	ErrGameTournamentInvalid = errors.New("game tournament conflict or invalid")
	ErrGameTeamInvalid       = errors.New("game team conflict or invalid")
	ErrGameSlotInvalid       = errors.New("next slot must be 1 or 2")
)

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.GameStatus) ([]*models.Game, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, id int, team1Score, team2Score int, status models.GameStatus, winnerID *int, completedAt *time.Time) error
	UpdateStatus(ctx context.Context, id int, status models.GameStatus, startedAt *time.Time) error
	UpdateTeamSlot(ctx context.Context, exec SQLExecutor, id int, slot int, teamID int) error
	UpdateNextGameInfo(ctx context.Context, exec SQLExecutor, id int, nextGameID *int, nextSlot *int) error
	ListStaleInProgress(ctx context.Context, olderThan time.Time) ([]*models.Game, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `id, tournament_id, round, slot, team1_id, team2_id, team1_score, team2_score,
		status, winner_id, next_game_id, next_slot, is_bye, scheduled_at, started_at, completed_at, created_at`

func scanGame(row interface{ Scan(dest ...interface{}) error }, game *models.Game) error {
	return row.Scan(
		&game.ID,
		&game.TournamentID,
		&game.Round,
		&game.Slot,
		&game.Team1ID,
		&game.Team2ID,
		&game.Team1Score,
		&game.Team2Score,
		&game.Status,
		&game.WinnerID,
		&game.NextGameID,
		&game.NextSlot,
		&game.IsBye,
		&game.ScheduledAt,
		&game.StartedAt,
		&game.CompletedAt,
		&game.CreatedAt,
	)
}

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		INSERT INTO games
			(tournament_id, round, slot, team1_id, team2_id, team1_score, team2_score,
			 status, winner_id, next_game_id, next_slot, is_bye, scheduled_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		game.TournamentID,
		game.Round,
		game.Slot,
		game.Team1ID,
		game.Team2ID,
		game.Team1Score,
		game.Team2Score,
		game.Status,
		game.WinnerID,
		game.NextGameID,
		game.NextSlot,
		game.IsBye,
		game.ScheduledAt,
		game.CompletedAt,
	).Scan(&game.ID, &game.CreatedAt)

	return r.handleGameError(err)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game := &models.Game{}
	err := scanGame(r.db.QueryRowContext(ctx, query, id), game)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game by id %d: %w", id, err)
	}
	return game, nil
}

func (r *postgresGameRepository) ListByTournament(ctx context.Context, tournamentID int, roundFilter *int, statusFilter *models.GameStatus) ([]*models.Game, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + gameColumns + ` FROM games WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if roundFilter != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *roundFilter)
		placeholderIndex++
	}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *statusFilter)
	}
	queryBuilder.WriteString(" ORDER BY round ASC, slot ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		var game models.Game
		if scanErr := scanGame(rows, &game); scanErr != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", scanErr)
		}
		games = append(games, &game)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during game rows iteration: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id int, team1Score, team2Score int, status models.GameStatus, winnerID *int, completedAt *time.Time) error {
	query := `
		UPDATE games
		SET team1_score = $1, team2_score = $2, status = $3, winner_id = $4, completed_at = $5
		WHERE id = $6`

	result, err := exec.ExecContext(ctx, query, team1Score, team2Score, status, winnerID, completedAt, id)
	if err != nil {
		return r.handleGameError(err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) UpdateStatus(ctx context.Context, id int, status models.GameStatus, startedAt *time.Time) error {
	query := `UPDATE games SET status = $1, started_at = COALESCE($2, started_at) WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, startedAt, id)
	if err != nil {
		return r.handleGameError(err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

// UpdateTeamSlot writes a team into one side of a game, the write
// winner advancement performs against the linked next-round game.
func (r *postgresGameRepository) UpdateTeamSlot(ctx context.Context, exec SQLExecutor, id int, slot int, teamID int) error {
	var query string
	switch slot {
	case 1:
		query = `UPDATE games SET team1_id = $1 WHERE id = $2`
	case 2:
		query = `UPDATE games SET team2_id = $1 WHERE id = $2`
	default:
		return fmt.Errorf("%w: %d", ErrGameSlotInvalid, slot)
	}
	result, err := exec.ExecContext(ctx, query, teamID, id)
	if err != nil {
		return r.handleGameError(err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) UpdateNextGameInfo(ctx context.Context, exec SQLExecutor, id int, nextGameID *int, nextSlot *int) error {
	query := `UPDATE games SET next_game_id = $1, next_slot = $2 WHERE id = $3`
	result, err := exec.ExecContext(ctx, query, nextGameID, nextSlot, id)
	if err != nil {
		return fmt.Errorf("UpdateNextGameInfo: failed to execute query for game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) ListStaleInProgress(ctx context.Context, olderThan time.Time) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE status = $1 AND started_at < $2 ORDER BY started_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.GameStatusInProgress, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale in-progress games: %w", err)
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		var game models.Game
		if scanErr := scanGame(rows, &game); scanErr != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", scanErr)
		}
		games = append(games, &game)
	}
	return games, rows.Err()
}

func (r *postgresGameRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) handleGameError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "games_tournament_id_fkey":
			return ErrGameTournamentInvalid
		case "games_team1_id_fkey", "games_team2_id_fkey", "games_winner_id_fkey":
			return ErrGameTeamInvalid
		}
	}
	return err
}
