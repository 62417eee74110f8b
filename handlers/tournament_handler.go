package handlers

import (
	"errors"
	"net/http"

	"github.com/matchlive/matchlive/middleware"
	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	bracketService    services.BracketService
}

func NewTournamentHandler(ts services.TournamentService, bs services.BracketService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		bracketService:    bs,
	}
}

// CreateHandler handles POST /tournaments
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create tournament")
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /tournaments/{tournamentID}
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /tournaments
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var status *models.TournamentStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		s := models.TournamentStatus(statusStr)
		switch s {
		case models.TournamentStatusDraft, models.TournamentStatusActive,
			models.TournamentStatusCompleted, models.TournamentStatusCancelled:
			status = &s
		default:
			badRequestResponse(w, r, errors.New("invalid status query parameter"))
			return
		}
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type addTeamInput struct {
	TeamID int `json:"team_id"`
	Seed   int `json:"seed"`
}

// AddTeamHandler handles POST /tournaments/{tournamentID}/teams
func (h *TournamentHandler) AddTeamHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input addTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TeamID <= 0 || input.Seed <= 0 {
		badRequestResponse(w, r, errors.New("team_id and seed must be positive"))
		return
	}

	if err := h.tournamentService.AddTeam(r.Context(), tournamentID, currentUserID, input.TeamID, input.Seed); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusNoContent, nil, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateBracketHandler handles POST /tournaments/{tournamentID}/bracket
func (h *TournamentHandler) GenerateBracketHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.bracketService.GenerateAndSaveBracket(r.Context(), tournamentID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteBracketHandler handles DELETE /tournaments/{tournamentID}/bracket
func (h *TournamentHandler) DeleteBracketHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.bracketService.DeleteBracket(r.Context(), tournamentID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusNoContent, nil, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetBracketHandler handles GET /tournaments/{tournamentID}/bracket
func (h *TournamentHandler) GetBracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.bracketService.GetTournamentBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
