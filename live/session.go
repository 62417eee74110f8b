package live

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/matchlive/matchlive/models"
	"github.com/rs/xid"
)

// snapshotInterval is how many clock seconds pass between periodic
// full-state rebroadcasts while the clock is running.
const snapshotInterval = 10

var (
	ErrInvalidSide       = errors.New("side must be 1 or 2")
	ErrInvalidTransition = errors.New("invalid game status transition")
	ErrSessionCompleted  = errors.New("game is already completed")
	ErrStaleSnapshot     = errors.New("snapshot is behind the applied state")
)

// Session is the authoritative in-memory state of one live game.
//
// Every change, whether a discrete score event, a manual adjustment, a
// clock tick or a status transition, goes through mutate, which bumps
// the per-game sequence number. There is no second path that can touch
// the scoreboard, so an event-driven increment and a snapshot can never
// disagree.
type Session struct {
	mu sync.Mutex

	gameID  int
	team1ID *int
	team2ID *int

	team1Score   int
	team2Score   int
	period       int
	clockSeconds int
	clockRunning bool
	status       models.GameStatus

	seq            uint64
	sinceBroadcast int
	events         []models.ScoreEvent
}

// NewSession seeds a session from the stored game row.
func NewSession(game *models.Game) *Session {
	return &Session{
		gameID:     game.ID,
		team1ID:    game.Team1ID,
		team2ID:    game.Team2ID,
		team1Score: game.Team1Score,
		team2Score: game.Team2Score,
		period:     1,
		status:     game.Status,
	}
}

// mutate applies fn under the lock and bumps the sequence number.
// All state changes funnel through here.
func (s *Session) mutate(fn func()) uint64 {
	fn()
	s.seq++
	return s.seq
}

func (s *Session) envelope(kind Kind, seq uint64, sender string) *Envelope {
	return &Envelope{
		Kind:   kind,
		V:      SchemaVersion,
		Seq:    seq,
		GameID: s.gameID,
		Sender: sender,
	}
}

func (s *Session) snapshotLocked(seq uint64, sender string) *Envelope {
	env := s.envelope(KindScoreUpdate, seq, sender)
	env.ScoreUpdate = &ScoreUpdate{
		Team1Score:   s.team1Score,
		Team2Score:   s.team2Score,
		Period:       s.period,
		ClockSeconds: s.clockSeconds,
		ClockRunning: s.clockRunning,
	}
	return env
}

// Snapshot returns a full-state envelope without mutating anything,
// used to bring a newly joined viewer up to date.
func (s *Session) Snapshot() *Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.seq, "")
}

// Start transitions scheduled -> in_progress and starts the clock.
func (s *Session) Start(sender string) (*Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.GameStatusScheduled {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.status, models.GameStatusInProgress)
	}
	seq := s.mutate(func() {
		s.status = models.GameStatusInProgress
		s.clockRunning = true
	})
	env := s.envelope(KindStatusChange, seq, sender)
	env.StatusChange = &StatusChange{Status: models.GameStatusInProgress}
	return env, nil
}

// SetClockRunning pauses or resumes the match clock. Pause is modeled
// as in_progress with a stopped clock, not a distinct status.
func (s *Session) SetClockRunning(running bool, sender string) (*Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.GameStatusInProgress {
		return nil, fmt.Errorf("%w: clock toggle while %s", ErrInvalidTransition, s.status)
	}
	seq := s.mutate(func() { s.clockRunning = running })
	return s.snapshotLocked(seq, sender), nil
}

// RecordEvent appends an immutable score event and, for scoring kinds,
// increments the implied side's score in the same mutation. It returns
// the event envelope followed by the snapshot that reflects it.
func (s *Session) RecordEvent(kind models.ScoreEventKind, side int, description, sender string) ([]*Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if side != 1 && side != 2 {
		return nil, ErrInvalidSide
	}
	if s.status == models.GameStatusCompleted {
		return nil, ErrSessionCompleted
	}

	event := models.ScoreEvent{
		ID:           xid.New().String(),
		GameID:       s.gameID,
		Kind:         kind,
		Side:         side,
		Period:       s.period,
		ClockSeconds: s.clockSeconds,
		Description:  description,
		CreatedAt:    time.Now().UTC(),
	}

	seq := s.mutate(func() {
		s.events = append(s.events, event)
		if kind.IsScoring() {
			if event.ScoringSide() == 1 {
				s.team1Score++
			} else {
				s.team2Score++
			}
		}
	})

	eventEnv := s.envelope(KindGameEvent, seq, sender)
	eventEnv.GameEvent = &GameEvent{Event: event}

	snapSeq := s.mutate(func() {})
	return []*Envelope{eventEnv, s.snapshotLocked(snapSeq, sender)}, nil
}

// Adjust changes one side's score by delta, clamped at zero.
func (s *Session) Adjust(side, delta int, sender string) (*Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if side != 1 && side != 2 {
		return nil, ErrInvalidSide
	}
	if s.status == models.GameStatusCompleted {
		return nil, ErrSessionCompleted
	}
	seq := s.mutate(func() {
		if side == 1 {
			s.team1Score = max(0, s.team1Score+delta)
		} else {
			s.team2Score = max(0, s.team2Score+delta)
		}
	})
	return s.snapshotLocked(seq, sender), nil
}

// SetPeriod moves the game to the given period.
func (s *Session) SetPeriod(period int, sender string) (*Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if period < 1 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	seq := s.mutate(func() { s.period = period })
	return s.snapshotLocked(seq, sender), nil
}

// ApplySnapshot folds a full scoreboard snapshot from the writer into
// the session. This is the reconciliation path for manual adjustments
// and for the coalesced state a writer pushes after being offline.
// seq is the sequence the writer claims to follow: a snapshot at or
// behind the last applied sequence is a reconnect replay and is
// discarded. A seq of zero claims no position (the coalesced offline
// flush) and is applied verbatim. Applied snapshots are re-sequenced,
// then rebroadcast.
func (s *Session) ApplySnapshot(su *ScoreUpdate, seq uint64, sender string) (*Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == models.GameStatusCompleted {
		return nil, ErrSessionCompleted
	}
	if seq != 0 && seq <= s.seq {
		return nil, fmt.Errorf("%w: %d <= %d", ErrStaleSnapshot, seq, s.seq)
	}
	if su.Team1Score < 0 || su.Team2Score < 0 {
		return nil, errors.New("scores must be non-negative")
	}
	seq = s.mutate(func() {
		s.team1Score = su.Team1Score
		s.team2Score = su.Team2Score
		if su.Period > 0 {
			s.period = su.Period
		}
		s.clockSeconds = su.ClockSeconds
		s.clockRunning = su.ClockRunning && s.status == models.GameStatusInProgress
	})
	return s.snapshotLocked(seq, sender), nil
}

// Tick advances the clock by one second while it is running. Every
// snapshotInterval seconds it returns a snapshot to rebroadcast;
// otherwise it returns nil.
func (s *Session) Tick() *Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.clockRunning || s.status != models.GameStatusInProgress {
		return nil
	}
	seq := s.mutate(func() {
		s.clockSeconds++
		s.sinceBroadcast++
	})
	if s.sinceBroadcast >= snapshotInterval {
		s.sinceBroadcast = 0
		return s.snapshotLocked(seq, "")
	}
	return nil
}

// Complete finishes the game. The winner is decided by strict score
// comparison; equal scores leave the winner unset.
func (s *Session) Complete(sender string) (*Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == models.GameStatusCompleted {
		return nil, ErrSessionCompleted
	}
	var winner *int
	seq := s.mutate(func() {
		s.status = models.GameStatusCompleted
		s.clockRunning = false
		switch {
		case s.team1Score > s.team2Score:
			winner = s.team1ID
		case s.team2Score > s.team1Score:
			winner = s.team2ID
		}
	})
	env := s.envelope(KindStatusChange, seq, sender)
	env.StatusChange = &StatusChange{Status: models.GameStatusCompleted, WinnerID: winner}
	return env, nil
}

// State is a copy of the session scoreboard for persistence.
type State struct {
	GameID       int
	Team1Score   int
	Team2Score   int
	Period       int
	ClockSeconds int
	Status       models.GameStatus
	WinnerID     *int
	Seq          uint64
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		GameID:       s.gameID,
		Team1Score:   s.team1Score,
		Team2Score:   s.team2Score,
		Period:       s.period,
		ClockSeconds: s.clockSeconds,
		Status:       s.status,
		Seq:          s.seq,
	}
	if s.status == models.GameStatusCompleted {
		switch {
		case s.team1Score > s.team2Score:
			st.WinnerID = s.team1ID
		case s.team2Score > s.team1Score:
			st.WinnerID = s.team2ID
		}
	}
	return st
}

// Events returns a copy of the accumulated event log.
func (s *Session) Events() []models.ScoreEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScoreEvent, len(s.events))
	copy(out, s.events)
	return out
}
