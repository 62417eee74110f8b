package services

import (
	"context"
	"testing"
	"time"

	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateInput() CreateTournamentInput {
	return CreateTournamentInput{
		Name:      "Spring Cup",
		Format:    models.FormatSingleElimination,
		StartDate: time.Now().Add(48 * time.Hour),
	}
}

func TestCreateTournament_Validation(t *testing.T) {
	s := NewTournamentService(nil, nil, nil, nil, testLogger())
	ctx := context.Background()

	t.Run("name required", func(t *testing.T) {
		input := validCreateInput()
		input.Name = ""
		_, err := s.CreateTournament(ctx, 1, input)
		assert.ErrorIs(t, err, ErrTournamentNameRequired)
	})

	t.Run("unknown format", func(t *testing.T) {
		input := validCreateInput()
		input.Format = "swiss"
		_, err := s.CreateTournament(ctx, 1, input)
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("start date in the past", func(t *testing.T) {
		input := validCreateInput()
		input.StartDate = time.Now().Add(-time.Hour)
		_, err := s.CreateTournament(ctx, 1, input)
		assert.ErrorIs(t, err, ErrInvalidStartDate)
	})
}

func TestCreateTournament_DefaultsAndPersists(t *testing.T) {
	var created *models.Tournament
	repo := &fakeTournamentRepo{
		create: func(ctx context.Context, tournament *models.Tournament) error {
			tournament.ID = 42
			created = tournament
			return nil
		},
	}
	s := NewTournamentService(nil, repo, nil, nil, testLogger())

	tournament, err := s.CreateTournament(context.Background(), 7, validCreateInput())
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, 42, tournament.ID)
	assert.Equal(t, 7, tournament.OrganizerID)
	assert.Equal(t, models.TournamentStatusDraft, tournament.Status)
	assert.Equal(t, models.DrawSeeded, tournament.DrawMode, "seeded is the default draw mode")
}

func TestAddTeam(t *testing.T) {
	organizer := 7
	draft := func() *models.Tournament {
		return &models.Tournament{ID: 1, OrganizerID: organizer, Status: models.TournamentStatusDraft}
	}

	newService := func(tournament *models.Tournament, teamExists bool, added *bool) TournamentService {
		tournamentRepo := &fakeTournamentRepo{
			getByID: func(ctx context.Context, id int) (*models.Tournament, error) {
				return tournament, nil
			},
			addTeam: func(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID, seed int) error {
				if added != nil {
					*added = true
				}
				return nil
			},
		}
		teamRepo := &fakeTeamRepo{
			getByID: func(ctx context.Context, id int) (*models.Team, error) {
				if !teamExists {
					return nil, repositories.ErrTeamNotFound
				}
				return &models.Team{ID: id, Name: "FC Test"}, nil
			},
		}
		return NewTournamentService(nil, tournamentRepo, teamRepo, nil, testLogger())
	}

	t.Run("only the organizer may register teams", func(t *testing.T) {
		s := newService(draft(), true, nil)
		err := s.AddTeam(context.Background(), 1, organizer+1, 3, 1)
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	})

	t.Run("registration closes once the tournament leaves draft", func(t *testing.T) {
		active := draft()
		active.Status = models.TournamentStatusActive
		s := newService(active, true, nil)
		err := s.AddTeam(context.Background(), 1, organizer, 3, 1)
		assert.ErrorIs(t, err, ErrTournamentNotActive)
	})

	t.Run("unknown team", func(t *testing.T) {
		s := newService(draft(), false, nil)
		err := s.AddTeam(context.Background(), 1, organizer, 3, 1)
		assert.ErrorIs(t, err, ErrTeamNotFound)
	})

	t.Run("registers team with seed", func(t *testing.T) {
		added := false
		s := newService(draft(), true, &added)
		require.NoError(t, s.AddTeam(context.Background(), 1, organizer, 3, 1))
		assert.True(t, added)
	})
}
