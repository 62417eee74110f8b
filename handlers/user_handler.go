package handlers

import (
	"net/http"

	"github.com/matchlive/matchlive/middleware"
	"github.com/matchlive/matchlive/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(us services.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

// MeHandler handles GET /users/me. It upserts the local mirror from
// the verified token claims and returns the current record.
func (h *UserHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	nickname := middleware.GetNicknameFromContext(r.Context())

	user, err := h.userService.SyncFromToken(r.Context(), userID, nickname, role)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
