package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/matchlive/matchlive/models"
)

var ErrScoreEventGameInvalid = errors.New("score event references an unknown game")

type ScoreEventRepository interface {
	Append(ctx context.Context, event *models.ScoreEvent) error
	AppendBatch(ctx context.Context, exec SQLExecutor, events []models.ScoreEvent) error
	ListByGame(ctx context.Context, gameID int) ([]*models.ScoreEvent, error)
}

type postgresScoreEventRepository struct {
	db *sql.DB
}

func NewPostgresScoreEventRepository(db *sql.DB) ScoreEventRepository {
	return &postgresScoreEventRepository{db: db}
}

const scoreEventColumns = `id, game_id, kind, side, period, clock_seconds, description, created_at`

func (r *postgresScoreEventRepository) Append(ctx context.Context, event *models.ScoreEvent) error {
	query := `
		INSERT INTO score_events (id, game_id, kind, side, period, clock_seconds, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.GameID, event.Kind, event.Side,
		event.Period, event.ClockSeconds, event.Description, event.CreatedAt)
	return r.handleEventError(err)
}

// AppendBatch inserts a whole event log in one statement, used when a
// coalesced offline backlog is reconciled.
func (r *postgresScoreEventRepository) AppendBatch(ctx context.Context, exec SQLExecutor, events []models.ScoreEvent) error {
	if len(events) == 0 {
		return nil
	}
	query := `
		INSERT INTO score_events (id, game_id, kind, side, period, clock_seconds, description, created_at)
		SELECT * FROM unnest($1::text[], $2::int[], $3::text[], $4::int[], $5::int[], $6::int[], $7::text[], $8::timestamptz[])
		ON CONFLICT (id) DO NOTHING`

	ids := make([]string, len(events))
	gameIDs := make([]int64, len(events))
	kinds := make([]string, len(events))
	sides := make([]int64, len(events))
	periods := make([]int64, len(events))
	clocks := make([]int64, len(events))
	descriptions := make([]string, len(events))
	createdAts := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
		gameIDs[i] = int64(e.GameID)
		kinds[i] = string(e.Kind)
		sides[i] = int64(e.Side)
		periods[i] = int64(e.Period)
		clocks[i] = int64(e.ClockSeconds)
		descriptions[i] = e.Description
		createdAts[i] = e.CreatedAt.Format("2006-01-02T15:04:05.999999Z07:00")
	}

	_, err := exec.ExecContext(ctx, query,
		pq.Array(ids), pq.Array(gameIDs), pq.Array(kinds), pq.Array(sides),
		pq.Array(periods), pq.Array(clocks), pq.Array(descriptions), pq.Array(createdAts))
	return r.handleEventError(err)
}

func (r *postgresScoreEventRepository) ListByGame(ctx context.Context, gameID int) ([]*models.ScoreEvent, error) {
	query := `SELECT ` + scoreEventColumns + ` FROM score_events WHERE game_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query score events for game %d: %w", gameID, err)
	}
	defer rows.Close()

	events := make([]*models.ScoreEvent, 0)
	for rows.Next() {
		var e models.ScoreEvent
		if scanErr := rows.Scan(&e.ID, &e.GameID, &e.Kind, &e.Side, &e.Period, &e.ClockSeconds, &e.Description, &e.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan score event row: %w", scanErr)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *postgresScoreEventRepository) handleEventError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint == "score_events_game_id_fkey" {
		return ErrScoreEventGameInvalid
	}
	return err
}
