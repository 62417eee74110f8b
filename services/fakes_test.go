package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/repositories"
	"github.com/matchlive/matchlive/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// The fakes embed the repository interface and override only what a
// test exercises; calling anything else panics, which is exactly what
// we want from an unexpected repository hit.

type fakeGameRepo struct {
	repositories.GameRepository

	getByID          func(ctx context.Context, id int) (*models.Game, error)
	listByTournament func(ctx context.Context, tournamentID int, round *int, status *models.GameStatus) ([]*models.Game, error)
	updateTeamSlot   func(ctx context.Context, exec repositories.SQLExecutor, id, slot, teamID int) error
}

func (f *fakeGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	return f.getByID(ctx, id)
}

func (f *fakeGameRepo) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.GameStatus) ([]*models.Game, error) {
	return f.listByTournament(ctx, tournamentID, round, status)
}

func (f *fakeGameRepo) UpdateTeamSlot(ctx context.Context, exec repositories.SQLExecutor, id, slot, teamID int) error {
	return f.updateTeamSlot(ctx, exec, id, slot, teamID)
}

type fakeTournamentRepo struct {
	repositories.TournamentRepository

	getByID     func(ctx context.Context, id int) (*models.Tournament, error)
	create      func(ctx context.Context, tournament *models.Tournament) error
	addTeam     func(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID, seed int) error
	listTeamIDs func(ctx context.Context, tournamentID int) ([]int, error)
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	return f.getByID(ctx, id)
}

func (f *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	return f.create(ctx, tournament)
}

func (f *fakeTournamentRepo) AddTeam(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID, seed int) error {
	return f.addTeam(ctx, exec, tournamentID, teamID, seed)
}

func (f *fakeTournamentRepo) ListTeamIDs(ctx context.Context, tournamentID int) ([]int, error) {
	return f.listTeamIDs(ctx, tournamentID)
}

type fakeTeamRepo struct {
	repositories.TeamRepository

	getByID   func(ctx context.Context, id int) (*models.Team, error)
	listByIDs func(ctx context.Context, ids []int) ([]*models.Team, error)
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	return f.getByID(ctx, id)
}

func (f *fakeTeamRepo) ListByIDs(ctx context.Context, ids []int) ([]*models.Team, error) {
	return f.listByIDs(ctx, ids)
}

type fakeScoreEventRepo struct {
	repositories.ScoreEventRepository

	append      func(ctx context.Context, event *models.ScoreEvent) error
	appendBatch func(ctx context.Context, exec repositories.SQLExecutor, events []models.ScoreEvent) error
}

func (f *fakeScoreEventRepo) Append(ctx context.Context, event *models.ScoreEvent) error {
	return f.append(ctx, event)
}

func (f *fakeScoreEventRepo) AppendBatch(ctx context.Context, exec repositories.SQLExecutor, events []models.ScoreEvent) error {
	return f.appendBatch(ctx, exec, events)
}

type fakeResultService struct {
	submit func(ctx context.Context, gameID, currentUserID int, input SubmitResultInput) (*models.Game, error)
}

func (f *fakeResultService) SubmitResult(ctx context.Context, gameID, currentUserID int, input SubmitResultInput) (*models.Game, error) {
	return f.submit(ctx, gameID, currentUserID, input)
}

type fakeUpload struct {
	key         string
	contentType string
	body        []byte
}

type fakeObjectStore struct {
	mu      sync.Mutex
	uploads []fakeUpload
}

func (f *fakeObjectStore) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, fakeUpload{key: key, contentType: contentType, body: body})
	return &storage.UploadResult{Key: key}, nil
}

func (f *fakeObjectStore) PublicURL(key string) string { return "" }

func testGame(id, tournamentID int, team1, team2 *int) *models.Game {
	return &models.Game{
		ID:           id,
		TournamentID: tournamentID,
		Round:        1,
		Team1ID:      team1,
		Team2ID:      team2,
		Status:       models.GameStatusScheduled,
		CreatedAt:    time.Now(),
	}
}
