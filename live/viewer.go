package live

import (
	"sync"

	"github.com/matchlive/matchlive/models"
)

// ViewerState is the read-only scoreboard a viewer client maintains
// from the broadcast stream. Snapshots are applied verbatim, but only
// when their sequence is strictly greater than the last applied one,
// so an out-of-order message can never regress the score.
type ViewerState struct {
	mu sync.Mutex

	clientID string
	lastSeq  uint64

	Team1Score   int
	Team2Score   int
	Period       int
	ClockSeconds int
	ClockRunning bool
	Status       models.GameStatus
	WinnerID     *int
	Viewers      int

	events []models.ScoreEvent
}

func NewViewerState(clientID string) *ViewerState {
	return &ViewerState{clientID: clientID, Period: 1, Status: models.GameStatusScheduled}
}

// Apply folds one envelope into the local state. It reports whether
// the message was applied or discarded as stale or self-originated.
func (v *ViewerState) Apply(env *Envelope) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Presence counts are not scoreboard state and carry no ordering.
	if env.Kind == KindPresence {
		v.Viewers = env.Presence.Viewers
		return true
	}
	if env.Sender != "" && env.Sender == v.clientID {
		return false
	}
	if env.Seq <= v.lastSeq {
		return false
	}
	v.lastSeq = env.Seq

	switch env.Kind {
	case KindScoreUpdate:
		su := env.ScoreUpdate
		v.Team1Score = su.Team1Score
		v.Team2Score = su.Team2Score
		v.Period = su.Period
		v.ClockSeconds = su.ClockSeconds
		v.ClockRunning = su.ClockRunning
	case KindGameEvent:
		// Events only feed the local log; the scoreboard follows the
		// snapshot the session broadcasts in the same breath.
		v.events = append(v.events, env.GameEvent.Event)
	case KindStatusChange:
		v.Status = env.StatusChange.Status
		v.WinnerID = env.StatusChange.WinnerID
	}
	return true
}

// Clock renders the current match clock as m:ss.
func (v *ViewerState) Clock() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return FormatClock(v.ClockSeconds)
}

// Events returns a copy of the received event log.
func (v *ViewerState) Events() []models.ScoreEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.ScoreEvent, len(v.events))
	copy(out, v.events)
	return out
}
