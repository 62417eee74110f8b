package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/repositories"
)

type SubmitResultInput struct {
	Team1Score int  `json:"team1_score"`
	Team2Score int  `json:"team2_score"`
	WinnerID   *int `json:"winner_id,omitempty"`
}

// ResultCallback is invoked after a result has been committed, so the
// surrounding layer can refresh dependent views. It is not part of the
// engine's contract and may be nil.
type ResultCallback func(game *models.Game)

type ResultService interface {
	// SubmitResult finalizes a game's score and, when the game feeds a
	// next-round slot, advances the winner into it.
	SubmitResult(ctx context.Context, gameID, currentUserID int, input SubmitResultInput) (*models.Game, error)
}

type resultService struct {
	db             *sql.DB
	gameRepo       repositories.GameRepository
	tournamentRepo repositories.TournamentRepository
	onResult       ResultCallback
	logger         *slog.Logger
}

func NewResultService(
	db *sql.DB,
	gameRepo repositories.GameRepository,
	tournamentRepo repositories.TournamentRepository,
	onResult ResultCallback,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db:             db,
		gameRepo:       gameRepo,
		tournamentRepo: tournamentRepo,
		onResult:       onResult,
		logger:         logger,
	}
}

func (s *resultService) SubmitResult(ctx context.Context, gameID, currentUserID int, input SubmitResultInput) (*models.Game, error) {
	if input.Team1Score < 0 || input.Team2Score < 0 {
		return nil, ErrScoreOutOfRange
	}

	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game %d: %w", gameID, err)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, game.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %d: %w", game.TournamentID, err)
	}
	if tournament.OrganizerID != currentUserID {
		return nil, ErrNotOrganizer
	}

	if game.Team1ID == nil || game.Team2ID == nil {
		return nil, ErrGameNotDecided
	}

	winnerID, err := decideWinner(game, input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
			}
		}
	}()

	txErr = s.gameRepo.UpdateScore(ctx, tx, game.ID, input.Team1Score, input.Team2Score, models.GameStatusCompleted, winnerID, &now)
	if txErr != nil {
		return nil, fmt.Errorf("failed to save result for game %d: %w", game.ID, txErr)
	}

	if txErr = s.advanceWinner(ctx, tx, game, winnerID); txErr != nil {
		return nil, txErr
	}

	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit result for game %d: %w", game.ID, txErr)
	}

	game.Team1Score = input.Team1Score
	game.Team2Score = input.Team2Score
	game.Status = models.GameStatusCompleted
	game.WinnerID = winnerID
	game.CompletedAt = &now

	if s.onResult != nil {
		s.onResult(game)
	}
	return game, nil
}

// decideWinner applies a manual override after validating it, or
// compares scores strictly: the higher score wins, equal scores leave
// the winner unset.
func decideWinner(game *models.Game, input SubmitResultInput) (*int, error) {
	if input.WinnerID != nil {
		if !game.HasTeam(*input.WinnerID) {
			return nil, ErrWinnerNotInGame
		}
		winner := *input.WinnerID
		return &winner, nil
	}
	switch {
	case input.Team1Score > input.Team2Score:
		winner := *game.Team1ID
		return &winner, nil
	case input.Team2Score > input.Team1Score:
		winner := *game.Team2ID
		return &winner, nil
	}
	return nil, nil
}

// advanceWinner writes the winner into the linked next-round slot. A
// game without linkage (the final, or a round-robin game) is a no-op.
// A linkage whose target row does not exist is a data inconsistency
// and surfaces as ErrSlotNotFound rather than being skipped.
func (s *resultService) advanceWinner(ctx context.Context, exec repositories.SQLExecutor, game *models.Game, winnerID *int) error {
	if game.NextGameID == nil || winnerID == nil {
		return nil
	}
	if game.NextSlot == nil {
		return fmt.Errorf("%w: game %d links to game %d without a slot", ErrSlotNotFound, game.ID, *game.NextGameID)
	}
	err := s.gameRepo.UpdateTeamSlot(ctx, exec, *game.NextGameID, *game.NextSlot, *winnerID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return fmt.Errorf("%w: game %d links to missing game %d", ErrSlotNotFound, game.ID, *game.NextGameID)
		}
		return fmt.Errorf("failed to advance winner of game %d: %w", game.ID, err)
	}
	s.logger.Info("winner advanced",
		slog.Int("game_id", game.ID),
		slog.Int("next_game_id", *game.NextGameID),
		slog.Int("next_slot", *game.NextSlot),
		slog.Int("winner_id", *winnerID))
	return nil
}
