package models

import "time"

// TournamentStatus represents tournament statuses, matching the ENUM in the DB.
type TournamentStatus string

const (
	TournamentStatusDraft     TournamentStatus = "draft"
	TournamentStatusActive    TournamentStatus = "active"
	TournamentStatusCompleted TournamentStatus = "completed"
	TournamentStatusCancelled TournamentStatus = "cancelled"
)

// TournamentFormat selects the schedule generator.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
	FormatRoundRobin        TournamentFormat = "round_robin"
)

// DrawMode selects how teams are placed into the round-1 slots.
type DrawMode string

const (
	// DrawSeeded places teams by seed order so top seeds land in
	// opposite halves of the bracket.
	DrawSeeded DrawMode = "seeded"
	// DrawRandom shuffles the team list uniformly before placement.
	DrawRandom DrawMode = "random"
)

type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	OrganizerID int              `json:"organizer_id" db:"organizer_id"`
	Format      TournamentFormat `json:"format" db:"format"`
	DrawMode    DrawMode         `json:"draw_mode" db:"draw_mode"`
	Status      TournamentStatus `json:"status" db:"status"`
	StartDate   time.Time        `json:"start_date" db:"start_date"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	// Optional related entities (not mapped directly).
	Teams []Team `json:"teams,omitempty" db:"-"`
	Games []Game `json:"games,omitempty" db:"-"`
}
