package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/matchlive/matchlive/bracket"
	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/repositories"
	"golang.org/x/sync/errgroup"
)

type BracketService interface {
	// GenerateAndSaveBracket builds the full schedule for a tournament
	// and persists it as a single batch in one transaction.
	GenerateAndSaveBracket(ctx context.Context, tournamentID, currentUserID int) (*models.Tournament, error)

	// GetTournamentBracket loads a tournament together with its games
	// and teams.
	GetTournamentBracket(ctx context.Context, tournamentID int) (*models.Tournament, error)

	// DeleteBracket removes a tournament's generated schedule so it
	// can be drawn again, as long as no game has been played.
	DeleteBracket(ctx context.Context, tournamentID, currentUserID int) error
}

type bracketService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	gameRepo       repositories.GameRepository
	teamRepo       repositories.TeamRepository
	logger         *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	gameRepo repositories.GameRepository,
	teamRepo repositories.TeamRepository,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:             db,
		tournamentRepo: tournamentRepo,
		gameRepo:       gameRepo,
		teamRepo:       teamRepo,
		logger:         logger,
	}
}

func (s *bracketService) GenerateAndSaveBracket(ctx context.Context, tournamentID, currentUserID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if tournament.OrganizerID != currentUserID {
		return nil, ErrForbiddenOperation
	}

	existing, err := s.gameRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing games for tournament %d: %w", tournamentID, err)
	}
	if len(existing) > 0 {
		return nil, ErrBracketAlreadyExists
	}

	teamIDs, err := s.tournamentRepo.ListTeamIDs(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for tournament %d: %w", tournamentID, err)
	}
	if len(teamIDs) < 2 {
		return nil, ErrNotEnoughTeams
	}

	var generator bracket.Generator
	switch tournament.Format {
	case models.FormatSingleElimination:
		generator = bracket.NewSingleEliminationGenerator()
	case models.FormatRoundRobin:
		generator = bracket.NewRoundRobinGenerator()
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, tournament.Format)
	}

	generated, err := generator.Generate(ctx, bracket.GenerateParams{
		TeamIDs: teamIDs,
		Draw:    tournament.DrawMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s schedule for tournament %d: %w", generator.Name(), tournamentID, err)
	}

	s.logger.Info("bracket generated",
		slog.Int("tournament_id", tournamentID),
		slog.String("format", generator.Name()),
		slog.Int("teams", len(teamIDs)),
		slog.Int("rounds", generated.TotalRounds),
		slog.Int("games", generated.GameCount))

	if err := s.persistBracket(ctx, tournament, generated); err != nil {
		return nil, err
	}

	return s.GetTournamentBracket(ctx, tournamentID)
}

// persistBracket writes all generated games in one transaction: a
// first pass creates the rows and records their assigned ids, a second
// pass resolves the structural UID linkage into next_game_id/next_slot.
func (s *bracketService) persistBracket(ctx context.Context, tournament *models.Tournament, generated *bracket.Bracket) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
			}
		}
	}()

	defaultGameTime := tournament.StartDate
	if time.Now().After(defaultGameTime) {
		defaultGameTime = time.Now().Add(15 * time.Minute)
	}
	now := time.Now().UTC()

	uidToID := make(map[string]int, generated.GameCount)

	for _, gg := range generated.Games() {
		game := &models.Game{
			TournamentID: tournament.ID,
			Round:        gg.Round,
			Slot:         gg.Slot,
			Team1ID:      gg.Team1ID,
			Team2ID:      gg.Team2ID,
			Status:       gg.Status,
			WinnerID:     gg.WinnerID,
			IsBye:        gg.IsBye,
			ScheduledAt:  &defaultGameTime,
		}
		if gg.IsBye {
			game.CompletedAt = &now
		}
		if txErr = s.gameRepo.Create(ctx, tx, game); txErr != nil {
			return fmt.Errorf("failed to create game %s: %w", gg.UID, txErr)
		}
		uidToID[gg.UID] = game.ID
	}

	for _, gg := range generated.Games() {
		if gg.NextUID == nil {
			continue
		}
		nextID, ok := uidToID[*gg.NextUID]
		if !ok {
			txErr = fmt.Errorf("generated game %s links to unknown game %s", gg.UID, *gg.NextUID)
			return txErr
		}
		if txErr = s.gameRepo.UpdateNextGameInfo(ctx, tx, uidToID[gg.UID], &nextID, gg.NextSlot); txErr != nil {
			return fmt.Errorf("failed to link game %s: %w", gg.UID, txErr)
		}
	}

	if txErr = tx.Commit(); txErr != nil {
		return fmt.Errorf("failed to commit bracket for tournament %d: %w", tournament.ID, txErr)
	}
	return nil
}

func (s *bracketService) DeleteBracket(ctx context.Context, tournamentID, currentUserID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if tournament.OrganizerID != currentUserID {
		return ErrForbiddenOperation
	}

	games, err := s.gameRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to list games for tournament %d: %w", tournamentID, err)
	}
	if len(games) == 0 {
		return ErrBracketNotFound
	}
	for _, game := range games {
		// Byes complete at generation time and do not count as played.
		if game.Status == models.GameStatusInProgress ||
			(game.Status == models.GameStatusCompleted && !game.IsBye) {
			return ErrBracketInUse
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
			}
		}
	}()

	// Games are listed round then slot; earlier rounds hold the
	// next_game_id references, so deleting in listing order keeps the
	// foreign keys satisfied.
	for _, game := range games {
		if txErr = s.gameRepo.Delete(ctx, tx, game.ID); txErr != nil {
			return fmt.Errorf("failed to delete game %d: %w", game.ID, txErr)
		}
	}
	if txErr = tx.Commit(); txErr != nil {
		return fmt.Errorf("failed to commit bracket deletion for tournament %d: %w", tournamentID, txErr)
	}

	s.logger.Info("bracket deleted",
		slog.Int("tournament_id", tournamentID),
		slog.Int("games", len(games)))
	return nil
}

func (s *bracketService) GetTournamentBracket(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		games, err := s.gameRepo.ListByTournament(gCtx, tournamentID, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to list games for tournament %d: %w", tournamentID, err)
		}
		tournament.Games = make([]models.Game, len(games))
		for i, game := range games {
			tournament.Games[i] = *game
		}
		return nil
	})

	g.Go(func() error {
		ids, err := s.tournamentRepo.ListTeamIDs(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list team ids for tournament %d: %w", tournamentID, err)
		}
		teams, err := s.teamRepo.ListByIDs(gCtx, ids)
		if err != nil {
			return fmt.Errorf("failed to load teams for tournament %d: %w", tournamentID, err)
		}
		tournament.Teams = make([]models.Team, len(teams))
		for i, team := range teams {
			tournament.Teams[i] = *team
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}
