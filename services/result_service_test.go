package services

import (
	"context"
	"testing"

	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideWinner(t *testing.T) {
	t1, t2 := 10, 20
	game := testGame(1, 1, &t1, &t2)

	tests := []struct {
		name    string
		input   SubmitResultInput
		want    *int
		wantErr error
	}{
		{"team1 by score", SubmitResultInput{Team1Score: 3, Team2Score: 1}, &t1, nil},
		{"team2 by score", SubmitResultInput{Team1Score: 0, Team2Score: 2}, &t2, nil},
		{"draw has no winner", SubmitResultInput{Team1Score: 1, Team2Score: 1}, nil, nil},
		{"valid override beats scores", SubmitResultInput{Team1Score: 0, Team2Score: 2, WinnerID: &t1}, &t1, nil},
		{"override must be a participant", SubmitResultInput{WinnerID: intPtr(99)}, nil, ErrWinnerNotInGame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decideWinner(game, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func TestAdvanceWinner(t *testing.T) {
	t1, t2 := 10, 20
	winner := t1

	t.Run("no linkage is a no-op", func(t *testing.T) {
		s := &resultService{logger: testLogger()}
		game := testGame(1, 1, &t1, &t2)
		assert.NoError(t, s.advanceWinner(context.Background(), nil, game, &winner))
	})

	t.Run("nil winner is a no-op", func(t *testing.T) {
		s := &resultService{logger: testLogger()}
		game := testGame(1, 1, &t1, &t2)
		game.NextGameID = intPtr(5)
		game.NextSlot = intPtr(1)
		assert.NoError(t, s.advanceWinner(context.Background(), nil, game, nil))
	})

	t.Run("linkage without slot is inconsistent", func(t *testing.T) {
		s := &resultService{logger: testLogger()}
		game := testGame(1, 1, &t1, &t2)
		game.NextGameID = intPtr(5)
		err := s.advanceWinner(context.Background(), nil, game, &winner)
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})

	t.Run("missing target game surfaces as slot not found", func(t *testing.T) {
		repo := &fakeGameRepo{
			updateTeamSlot: func(ctx context.Context, exec repositories.SQLExecutor, id, slot, teamID int) error {
				return repositories.ErrGameNotFound
			},
		}
		s := &resultService{gameRepo: repo, logger: testLogger()}
		game := testGame(1, 1, &t1, &t2)
		game.NextGameID = intPtr(5)
		game.NextSlot = intPtr(2)
		err := s.advanceWinner(context.Background(), nil, game, &winner)
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})

	t.Run("advancing twice leaves the slot in the same state", func(t *testing.T) {
		slots := map[int]map[int]int{} // game id -> slot -> team
		repo := &fakeGameRepo{
			updateTeamSlot: func(ctx context.Context, exec repositories.SQLExecutor, id, slot, teamID int) error {
				if slots[id] == nil {
					slots[id] = map[int]int{}
				}
				slots[id][slot] = teamID
				return nil
			},
		}
		s := &resultService{gameRepo: repo, logger: testLogger()}
		game := testGame(1, 1, &t1, &t2)
		game.NextGameID = intPtr(5)
		game.NextSlot = intPtr(1)

		require.NoError(t, s.advanceWinner(context.Background(), nil, game, &winner))
		first := map[int]int{}
		for slot, team := range slots[5] {
			first[slot] = team
		}

		require.NoError(t, s.advanceWinner(context.Background(), nil, game, &winner))
		assert.Equal(t, first, slots[5], "a repeated advancement must not change the slot")
		assert.Equal(t, map[int]int{1: t1}, slots[5])
	})

	t.Run("writes the winner into the linked slot", func(t *testing.T) {
		var gotID, gotSlot, gotTeam int
		repo := &fakeGameRepo{
			updateTeamSlot: func(ctx context.Context, exec repositories.SQLExecutor, id, slot, teamID int) error {
				gotID, gotSlot, gotTeam = id, slot, teamID
				return nil
			},
		}
		s := &resultService{gameRepo: repo, logger: testLogger()}
		game := testGame(1, 1, &t1, &t2)
		game.NextGameID = intPtr(5)
		game.NextSlot = intPtr(2)

		require.NoError(t, s.advanceWinner(context.Background(), nil, game, &winner))
		assert.Equal(t, 5, gotID)
		assert.Equal(t, 2, gotSlot)
		assert.Equal(t, t1, gotTeam)
	})
}

func TestSubmitResult_Rejections(t *testing.T) {
	t1, t2 := 10, 20
	organizer := 7

	newService := func(game *models.Game) ResultService {
		gameRepo := &fakeGameRepo{
			getByID: func(ctx context.Context, id int) (*models.Game, error) {
				if game == nil {
					return nil, repositories.ErrGameNotFound
				}
				return game, nil
			},
		}
		tournamentRepo := &fakeTournamentRepo{
			getByID: func(ctx context.Context, id int) (*models.Tournament, error) {
				return &models.Tournament{ID: id, OrganizerID: organizer}, nil
			},
		}
		return NewResultService(nil, gameRepo, tournamentRepo, nil, testLogger())
	}

	t.Run("negative scores", func(t *testing.T) {
		s := newService(testGame(1, 1, &t1, &t2))
		_, err := s.SubmitResult(context.Background(), 1, organizer, SubmitResultInput{Team1Score: -1})
		assert.ErrorIs(t, err, ErrScoreOutOfRange)
	})

	t.Run("unknown game", func(t *testing.T) {
		s := newService(nil)
		_, err := s.SubmitResult(context.Background(), 1, organizer, SubmitResultInput{})
		assert.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("caller is not the organizer", func(t *testing.T) {
		s := newService(testGame(1, 1, &t1, &t2))
		_, err := s.SubmitResult(context.Background(), 1, organizer+1, SubmitResultInput{})
		assert.ErrorIs(t, err, ErrNotOrganizer)
	})

	t.Run("game without both teams", func(t *testing.T) {
		s := newService(testGame(1, 1, &t1, nil))
		_, err := s.SubmitResult(context.Background(), 1, organizer, SubmitResultInput{Team1Score: 1})
		assert.ErrorIs(t, err, ErrGameNotDecided)
	})
}

func intPtr(v int) *int { return &v }
