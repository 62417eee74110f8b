package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/repositories"
)

// GameService is the read side of games: single rows, tournament
// schedules and the persisted score-event log.
type GameService interface {
	GetGame(ctx context.Context, id int) (*models.Game, error)
	ListGames(ctx context.Context, tournamentID int, round *int, status *models.GameStatus) ([]*models.Game, error)
	ListEvents(ctx context.Context, gameID int) ([]*models.ScoreEvent, error)
}

type gameService struct {
	gameRepo  repositories.GameRepository
	eventRepo repositories.ScoreEventRepository
}

func NewGameService(gameRepo repositories.GameRepository, eventRepo repositories.ScoreEventRepository) GameService {
	return &gameService{gameRepo: gameRepo, eventRepo: eventRepo}
}

func (s *gameService) GetGame(ctx context.Context, id int) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return game, nil
}

func (s *gameService) ListGames(ctx context.Context, tournamentID int, round *int, status *models.GameStatus) ([]*models.Game, error) {
	games, err := s.gameRepo.ListByTournament(ctx, tournamentID, round, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for tournament %d: %w", tournamentID, err)
	}
	return games, nil
}

func (s *gameService) ListEvents(ctx context.Context, gameID int) ([]*models.ScoreEvent, error) {
	if _, err := s.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for game %d: %w", gameID, err)
	}
	return events, nil
}
