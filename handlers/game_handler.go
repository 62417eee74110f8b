package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/matchlive/matchlive/middleware"
	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/services"
)

type GameHandler struct {
	gameService   services.GameService
	resultService services.ResultService
}

func NewGameHandler(gs services.GameService, rs services.ResultService) *GameHandler {
	return &GameHandler{
		gameService:   gs,
		resultService: rs,
	}
}

// GetByIDHandler handles GET /games/{gameID}
func (h *GameHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetGame(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByTournamentHandler handles GET /tournaments/{tournamentID}/games
func (h *GameHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	query := r.URL.Query()
	var round *int
	if roundStr := query.Get("round"); roundStr != "" {
		n, err := strconv.Atoi(roundStr)
		if err != nil || n <= 0 {
			badRequestResponse(w, r, errors.New("invalid round query parameter"))
			return
		}
		round = &n
	}
	var status *models.GameStatus
	if statusStr := query.Get("status"); statusStr != "" {
		s := models.GameStatus(statusStr)
		switch s {
		case models.GameStatusScheduled, models.GameStatusInProgress,
			models.GameStatusCompleted, models.GameStatusCancelled:
			status = &s
		default:
			badRequestResponse(w, r, errors.New("invalid status query parameter"))
			return
		}
	}

	games, err := h.gameService.ListGames(r.Context(), tournamentID, round, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListEventsHandler handles GET /games/{gameID}/events
func (h *GameHandler) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	events, err := h.gameService.ListEvents(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitResultHandler handles POST /games/{gameID}/result
func (h *GameHandler) SubmitResultHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to submit a result")
		return
	}
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.resultService.SubmitResult(r.Context(), gameID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
