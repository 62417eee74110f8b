package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/repositories"
)

type CreateTeamInput struct {
	Name      string  `json:"name"`
	ShortName *string `json:"short_name,omitempty"`
	Color     *string `json:"color,omitempty"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, id int) (*models.Team, error)
	ListTeams(ctx context.Context) ([]*models.Team, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
}

func NewTeamService(teamRepo repositories.TeamRepository) TeamService {
	return &teamService{teamRepo: teamRepo}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}
	team := &models.Team{
		Name:      input.Name,
		ShortName: input.ShortName,
		Color:     input.Color,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}
