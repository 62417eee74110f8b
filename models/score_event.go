package models

import "time"

// ScoreEventKind classifies a live-play annotation.
type ScoreEventKind string

const (
	EventGoal         ScoreEventKind = "goal"
	EventPenalty      ScoreEventKind = "penalty"
	EventOwnGoal      ScoreEventKind = "own_goal"
	EventCard         ScoreEventKind = "card"
	EventSubstitution ScoreEventKind = "substitution"
)

// ScoreEvent is an immutable annotation recorded while a game is live.
// Events are kept as an audit trail; the scoreboard is never rebuilt
// from them.
type ScoreEvent struct {
	ID           string         `json:"id" db:"id"`
	GameID       int            `json:"game_id" db:"game_id"`
	Kind         ScoreEventKind `json:"kind" db:"kind"`
	Side         int            `json:"side" db:"side"`
	Period       int            `json:"period" db:"period"`
	ClockSeconds int            `json:"clock_seconds" db:"clock_seconds"`
	Description  string         `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// IsScoring reports whether the event kind changes the scoreboard.
func (k ScoreEventKind) IsScoring() bool {
	switch k {
	case EventGoal, EventPenalty, EventOwnGoal:
		return true
	}
	return false
}

// ScoringSide returns the side (1 or 2) whose score the event increments.
// An own goal credits the opposing side.
func (e *ScoreEvent) ScoringSide() int {
	if e.Kind == EventOwnGoal {
		if e.Side == 1 {
			return 2
		}
		return 1
	}
	return e.Side
}
