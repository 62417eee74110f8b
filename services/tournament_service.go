package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/repositories"
)

type CreateTournamentInput struct {
	Name        string                  `json:"name"`
	Description *string                 `json:"description,omitempty"`
	Format      models.TournamentFormat `json:"format"`
	DrawMode    models.DrawMode         `json:"draw_mode,omitempty"`
	StartDate   time.Time               `json:"start_date"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error)
	AddTeam(ctx context.Context, tournamentID, currentUserID, teamID, seed int) error

	// StartStatusScheduler runs the periodic job that flips draft
	// tournaments to active once their start date passes and reports
	// stale in-progress games. Returns a shutdown func.
	StartStatusScheduler(interval time.Duration) (func() error, error)
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	gameRepo       repositories.GameRepository
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	gameRepo repositories.GameRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		gameRepo:       gameRepo,
		logger:         logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	switch input.Format {
	case models.FormatSingleElimination, models.FormatRoundRobin:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, input.Format)
	}
	if input.StartDate.Before(time.Now()) {
		return nil, ErrInvalidStartDate
	}
	drawMode := input.DrawMode
	if drawMode == "" {
		drawMode = models.DrawSeeded
	}

	tournament := &models.Tournament{
		Name:        input.Name,
		Description: input.Description,
		OrganizerID: organizerID,
		Format:      input.Format,
		DrawMode:    drawMode,
		Status:      models.TournamentStatusDraft,
		StartDate:   input.StartDate,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) AddTeam(ctx context.Context, tournamentID, currentUserID, teamID, seed int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if tournament.OrganizerID != currentUserID {
		return ErrForbiddenOperation
	}
	if tournament.Status != models.TournamentStatusDraft {
		return fmt.Errorf("%w: teams can only be added before the bracket exists", ErrTournamentNotActive)
	}
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return err
	}
	if err := s.tournamentRepo.AddTeam(ctx, s.db, tournamentID, teamID, seed); err != nil {
		return fmt.Errorf("failed to register team %d: %w", teamID, err)
	}
	return nil
}

func (s *tournamentService) StartStatusScheduler(interval time.Duration) (func() error, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.runStatusSweep(ctx)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule status sweep: %w", err)
	}

	scheduler.Start()
	s.logger.Info("tournament status scheduler started", slog.Duration("interval", interval))
	return scheduler.Shutdown, nil
}

func (s *tournamentService) runStatusSweep(ctx context.Context) {
	due, err := s.tournamentRepo.ListDueForActivation(ctx, time.Now())
	if err != nil {
		s.logger.Error("status sweep: failed to list due tournaments", slog.Any("error", err))
		return
	}
	for _, t := range due {
		if err := s.tournamentRepo.UpdateStatus(ctx, t.ID, models.TournamentStatusActive); err != nil {
			s.logger.Error("status sweep: failed to activate tournament",
				slog.Int("tournament_id", t.ID), slog.Any("error", err))
			continue
		}
		s.logger.Info("tournament activated", slog.Int("tournament_id", t.ID), slog.String("name", t.Name))
	}

	stale, err := s.gameRepo.ListStaleInProgress(ctx, time.Now().Add(-6*time.Hour))
	if err != nil {
		s.logger.Error("status sweep: failed to list stale games", slog.Any("error", err))
		return
	}
	for _, game := range stale {
		s.logger.Warn("game in progress for over six hours",
			slog.Int("game_id", game.ID), slog.Int("tournament_id", game.TournamentID))
	}
}
