package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/matchlive/matchlive/live"
	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/repositories"
	"github.com/matchlive/matchlive/storage"
)

// LiveService owns the live score channel: one authoritative writer
// per game (the tournament organizer, checked server-side), any number
// of read-only viewers, and the persistence that follows from the
// session's state changes.
type LiveService interface {
	// CanWrite reports whether userID may act as the authoritative
	// scorekeeper for the game.
	CanWrite(ctx context.Context, gameID, userID int) error

	// Attach returns the game's live session, creating it from the
	// stored row on first use.
	Attach(ctx context.Context, gameID int) (*live.Session, error)

	// HandleWriterMessage processes one envelope from an authoritative
	// client: mutates the session, rebroadcasts, and persists.
	HandleWriterMessage(client *live.Client, env *live.Envelope)

	// RoomName maps a game id to its hub room.
	RoomName(gameID int) string
}

type liveService struct {
	db             *sql.DB
	gameRepo       repositories.GameRepository
	tournamentRepo repositories.TournamentRepository
	eventRepo      repositories.ScoreEventRepository
	resultService  ResultService
	hub            *live.Hub
	archive        storage.ObjectStore
	logger         *slog.Logger

	mu       sync.Mutex
	sessions map[int]*liveGame
}

type liveGame struct {
	session     *live.Session
	organizerID int
	stopClock   func()
}

func NewLiveService(
	db *sql.DB,
	gameRepo repositories.GameRepository,
	tournamentRepo repositories.TournamentRepository,
	eventRepo repositories.ScoreEventRepository,
	resultService ResultService,
	hub *live.Hub,
	archive storage.ObjectStore,
	logger *slog.Logger,
) LiveService {
	s := &liveService{
		db:             db,
		gameRepo:       gameRepo,
		tournamentRepo: tournamentRepo,
		eventRepo:      eventRepo,
		resultService:  resultService,
		hub:            hub,
		archive:        archive,
		logger:         logger,
		sessions:       make(map[int]*liveGame),
	}
	hub.SetWriterFunc(s.HandleWriterMessage)
	return s
}

func (s *liveService) RoomName(gameID int) string {
	return live.RoomName(gameID)
}

func (s *liveService) CanWrite(ctx context.Context, gameID, userID int) error {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to load game %d: %w", gameID, err)
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, game.TournamentID)
	if err != nil {
		return fmt.Errorf("failed to load tournament %d: %w", game.TournamentID, err)
	}
	if tournament.OrganizerID != userID {
		return ErrNotOrganizer
	}
	return nil
}

func (s *liveService) Attach(ctx context.Context, gameID int) (*live.Session, error) {
	s.mu.Lock()
	if lg, ok := s.sessions[gameID]; ok {
		s.mu.Unlock()
		return lg.session, nil
	}
	s.mu.Unlock()

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

	s.mu.Lock()
	defer s.mu.Unlock()
	if lg, ok := s.sessions[gameID]; ok {
		return lg.session, nil
	}
	lg := &liveGame{
		session:     live.NewSession(game),
		organizerID: tournament.OrganizerID,
	}
	s.sessions[gameID] = lg
	if game.Status == models.GameStatusInProgress {
		s.startClockLocked(gameID, lg)
	}
	return lg.session, nil
}

func (s *liveService) HandleWriterMessage(client *live.Client, env *live.Envelope) {
	gameID := env.GameID
	if s.RoomName(gameID) != client.Room {
		s.logger.Warn("writer message for wrong room",
			slog.Int("game_id", gameID), slog.String("room", client.Room))
		return
	}
	s.mu.Lock()
	lg, ok := s.sessions[gameID]
	s.mu.Unlock()
	if !ok {
		s.logger.Warn("writer message for unknown session", slog.Int("game_id", gameID))
		return
	}

	ctx := context.Background()
	switch env.Kind {
	case live.KindGameEvent:
		s.handleGameEvent(ctx, lg, client, env)
	case live.KindScoreUpdate:
		s.handleSnapshot(ctx, lg, client, env)
	case live.KindStatusChange:
		s.handleStatusChange(ctx, lg, client, env)
	default:
		s.logger.Warn("unexpected writer message kind",
			slog.Int("game_id", gameID), slog.String("kind", string(env.Kind)))
	}
}

func (s *liveService) handleGameEvent(ctx context.Context, lg *liveGame, client *live.Client, env *live.Envelope) {
	incoming := env.GameEvent.Event
	out, err := lg.session.RecordEvent(incoming.Kind, incoming.Side, incoming.Description, client.ID)
	if err != nil {
		s.logger.Warn("rejected game event", slog.Int("game_id", env.GameID), slog.Any("error", err))
		return
	}
	for _, e := range out {
		s.hub.BroadcastToRoom(client.Room, e)
	}

	// Durable audit append; failure only logs, the scoreboard state is
	// already applied and the completion write reconciles the log.
	events := lg.session.Events()
	last := events[len(events)-1]
	if err := s.eventRepo.Append(ctx, &last); err != nil {
		s.logger.Error("failed to append score event",
			slog.Int("game_id", env.GameID), slog.Any("error", err))
	}
}

func (s *liveService) handleSnapshot(ctx context.Context, lg *liveGame, client *live.Client, env *live.Envelope) {
	out, err := lg.session.ApplySnapshot(env.ScoreUpdate, env.Seq, client.ID)
	if err != nil {
		s.logger.Warn("rejected snapshot", slog.Int("game_id", env.GameID), slog.Any("error", err))
		return
	}
	s.hub.BroadcastToRoom(client.Room, out)

	// Reconciling write: the writer's current coalesced state replaces
	// whatever the store held. Single-writer discipline makes this safe.
	st := lg.session.State()
	if err := s.gameRepo.UpdateScore(ctx, s.db, st.GameID, st.Team1Score, st.Team2Score, st.Status, nil, nil); err != nil {
		s.logger.Error("failed to persist snapshot",
			slog.Int("game_id", env.GameID), slog.Any("error", err))
	}
}

func (s *liveService) handleStatusChange(ctx context.Context, lg *liveGame, client *live.Client, env *live.Envelope) {
	switch env.StatusChange.Status {
	case models.GameStatusInProgress:
		out, err := lg.session.Start(client.ID)
		if err != nil {
			// A pause/resume comes through as in_progress with the
			// clock flag flipped in the accompanying snapshot.
			s.logger.Warn("rejected start", slog.Int("game_id", env.GameID), slog.Any("error", err))
			return
		}
		now := time.Now().UTC()
		if err := s.gameRepo.UpdateStatus(ctx, env.GameID, models.GameStatusInProgress, &now); err != nil {
			s.logger.Error("failed to persist game start",
				slog.Int("game_id", env.GameID), slog.Any("error", err))
		}
		s.hub.BroadcastToRoom(client.Room, out)
		s.mu.Lock()
		s.startClockLocked(env.GameID, lg)
		s.mu.Unlock()

	case models.GameStatusCompleted:
		s.completeGame(ctx, lg, client, env)

	default:
		s.logger.Warn("unsupported status transition",
			slog.Int("game_id", env.GameID), slog.String("status", string(env.StatusChange.Status)))
	}
}

// completeGame finalizes the session, persists score + winner + status
// in one write (which also advances the winner into the linked slot),
// reconciles the event log, and archives it.
func (s *liveService) completeGame(ctx context.Context, lg *liveGame, client *live.Client, env *live.Envelope) {
	out, err := lg.session.Complete(client.ID)
	if err != nil {
		s.logger.Warn("rejected completion", slog.Int("game_id", env.GameID), slog.Any("error", err))
		return
	}
	s.hub.BroadcastToRoom(client.Room, out)

	st := lg.session.State()
	_, err = s.resultService.SubmitResult(ctx, st.GameID, lg.organizerID, SubmitResultInput{
		Team1Score: st.Team1Score,
		Team2Score: st.Team2Score,
	})
	if err != nil {
		s.logger.Error("failed to persist final result",
			slog.Int("game_id", st.GameID), slog.Any("error", err))
	}

	events := lg.session.Events()
	if err := s.eventRepo.AppendBatch(ctx, s.db, events); err != nil {
		s.logger.Error("failed to reconcile event log",
			slog.Int("game_id", st.GameID), slog.Any("error", err))
	}
	s.archiveEventLog(ctx, st.GameID, events)

	s.mu.Lock()
	if lg.stopClock != nil {
		lg.stopClock()
		lg.stopClock = nil
	}
	delete(s.sessions, st.GameID)
	s.mu.Unlock()
}

// archiveEventLog uploads the completed game's event log as a JSON
// object, keeping the audit trail outside the hot tables.
func (s *liveService) archiveEventLog(ctx context.Context, gameID int, events []models.ScoreEvent) {
	if s.archive == nil || len(events) == 0 {
		return
	}
	payload, err := json.Marshal(events)
	if err != nil {
		s.logger.Error("failed to marshal event log", slog.Int("game_id", gameID), slog.Any("error", err))
		return
	}
	key := fmt.Sprintf("games/%d/events.json", gameID)
	if _, err := s.archive.Upload(ctx, key, "application/json", bytes.NewReader(payload)); err != nil {
		s.logger.Error("failed to archive event log",
			slog.Int("game_id", gameID), slog.String("key", key), slog.Any("error", err))
		return
	}
	s.logger.Info("event log archived", slog.Int("game_id", gameID), slog.String("key", key))
}

// startClockLocked runs the 1s match clock for a session and
// rebroadcasts the periodic snapshots Tick emits. Caller holds s.mu.
func (s *liveService) startClockLocked(gameID int, lg *liveGame) {
	if lg.stopClock != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	lg.stopClock = cancel
	room := s.RoomName(gameID)

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if env := lg.session.Tick(); env != nil {
					s.hub.BroadcastToRoom(room, env)
				}
			}
		}
	}()
}
