package models

import "time"

// GameStatus represents the lifecycle states of a game, matching the ENUM in the DB.
type GameStatus string

const (
	GameStatusScheduled  GameStatus = "scheduled"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusCompleted  GameStatus = "completed"
	GameStatusCancelled  GameStatus = "cancelled"
)

// Game is a single match inside a bracket or schedule.
//
// Slot is the 0-based position of the game within its round. For a
// single-elimination bracket, games 2k and 2k+1 of round r both feed
// slot k of round r+1: the even sibling's winner lands in team1, the
// odd sibling's winner in team2 (NextSlot 1 or 2).
type Game struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	Round        int        `json:"round" db:"round"`
	Slot         int        `json:"slot" db:"slot"`
	Team1ID      *int       `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID      *int       `json:"team2_id,omitempty" db:"team2_id"`
	Team1Score   int        `json:"team1_score" db:"team1_score"`
	Team2Score   int        `json:"team2_score" db:"team2_score"`
	Status       GameStatus `json:"status" db:"status"`
	WinnerID     *int       `json:"winner_id,omitempty" db:"winner_id"`
	NextGameID   *int       `json:"next_game_id,omitempty" db:"next_game_id"`
	NextSlot     *int       `json:"next_slot,omitempty" db:"next_slot"`
	IsBye        bool       `json:"is_bye" db:"is_bye"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`
	StartedAt    *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`

	// Optional related entities (not mapped directly).
	Team1 *Team `json:"team1,omitempty" db:"-"`
	Team2 *Team `json:"team2,omitempty" db:"-"`
}

// HasTeam reports whether teamID occupies one of the game's slots.
func (g *Game) HasTeam(teamID int) bool {
	if g.Team1ID != nil && *g.Team1ID == teamID {
		return true
	}
	if g.Team2ID != nil && *g.Team2ID == teamID {
		return true
	}
	return false
}
