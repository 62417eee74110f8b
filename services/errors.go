package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed       = errors.New("validation failed")
	ErrScoreOutOfRange        = errors.New("scores must be non-negative")
	ErrWinnerNotInGame        = errors.New("winner must be one of the game's teams")
	ErrGameNotDecided         = errors.New("game has no teams assigned yet")
	ErrTournamentNotActive    = errors.New("tournament is not active")
	ErrBracketAlreadyExists   = errors.New("bracket has already been generated for this tournament")
	ErrBracketNotFound        = errors.New("tournament has no generated bracket")
	ErrBracketInUse           = errors.New("bracket has games in progress or recorded results")
	ErrNotEnoughTeams         = errors.New("not enough teams to generate a schedule (minimum 2 required)")
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrTeamNameRequired       = errors.New("team name is required")
	ErrInvalidFormat          = errors.New("unsupported tournament format")
	ErrInvalidStartDate       = errors.New("tournament start date must be in the future")

	// Consistency
	ErrSlotNotFound = errors.New("linked next-round game not found")

	// Authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrNotOrganizer         = errors.New("only the tournament organizer may record scores")

	// Entity-specific lookups
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrGameNotFound       = errors.New("game not found")
)
