package live

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matchlive/matchlive/models"
)

// SchemaVersion is carried on every envelope so payloads can evolve
// without breaking old clients.
const SchemaVersion = 1

type Kind string

const (
	KindScoreUpdate  Kind = "score_update"
	KindGameEvent    Kind = "game_event"
	KindStatusChange Kind = "status_change"
	KindPresence     Kind = "presence"
)

var (
	ErrUnknownKind    = errors.New("unknown message kind")
	ErrBadVersion     = errors.New("unsupported schema version")
	ErrMissingPayload = errors.New("envelope payload does not match kind")
)

// Envelope is the wire format of the per-game channel. Exactly one
// payload field is set, selected by Kind. Seq increases monotonically
// per game; receivers discard anything not strictly newer than the
// last applied sequence.
type Envelope struct {
	Kind   Kind   `json:"kind"`
	V      int    `json:"v"`
	Seq    uint64 `json:"seq"`
	GameID int    `json:"game_id"`
	Sender string `json:"sender,omitempty"`

	ScoreUpdate  *ScoreUpdate  `json:"score_update,omitempty"`
	GameEvent    *GameEvent    `json:"game_event,omitempty"`
	StatusChange *StatusChange `json:"status_change,omitempty"`
	Presence     *Presence     `json:"presence,omitempty"`
}

// ScoreUpdate is a full scoreboard snapshot. Applied verbatim by
// receivers, never merged.
type ScoreUpdate struct {
	Team1Score   int  `json:"team1_score"`
	Team2Score   int  `json:"team2_score"`
	Period       int  `json:"period"`
	ClockSeconds int  `json:"clock_seconds"`
	ClockRunning bool `json:"clock_running"`
}

// GameEvent carries one immutable score event for the audit log.
type GameEvent struct {
	Event models.ScoreEvent `json:"event"`
}

type StatusChange struct {
	Status   models.GameStatus `json:"status"`
	WinnerID *int              `json:"winner_id,omitempty"`
}

type Presence struct {
	Viewers int `json:"viewers"`
}

// Decode parses and validates an envelope from the wire.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.V != SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, env.V)
	}
	var ok bool
	switch env.Kind {
	case KindScoreUpdate:
		ok = env.ScoreUpdate != nil
	case KindGameEvent:
		ok = env.GameEvent != nil
	case KindStatusChange:
		ok = env.StatusChange != nil
	case KindPresence:
		ok = env.Presence != nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingPayload, env.Kind)
	}
	return &env, nil
}

// Encode serializes an envelope for the wire.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// FormatClock renders elapsed seconds as m:ss, e.g. 605 -> "10:05".
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
