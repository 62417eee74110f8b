package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/matchlive/matchlive/live"
	"github.com/matchlive/matchlive/middleware"
	"github.com/matchlive/matchlive/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origins once they are fixed.
		return true
	},
}

type LiveHandler struct {
	hub         *live.Hub
	liveService services.LiveService
	logger      *slog.Logger
}

func NewLiveHandler(hub *live.Hub, ls services.LiveService, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{
		hub:         hub,
		liveService: ls,
		logger:      logger,
	}
}

// ServeWs handles GET /ws/games/{gameID}?role=scorer|viewer.
//
// A scorer must present a valid token and be the tournament organizer;
// the check happens here, before the upgrade, so an unauthorized
// client never becomes a writer no matter what it claims.
func (h *LiveHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	role := live.RoleViewer
	if r.URL.Query().Get("role") == "scorer" {
		userID, err := middleware.GetUserIDFromContext(r.Context())
		if err != nil {
			unauthorizedResponse(w, r, "scorer connections require authentication")
			return
		}
		if err := h.liveService.CanWrite(r.Context(), gameID, userID); err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		role = live.RoleWriter
	}

	session, err := h.liveService.Attach(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.Int("game_id", gameID), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, h.liveService.RoomName(gameID), role)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	// Bring the new connection up to date immediately instead of
	// waiting for the next periodic snapshot.
	if data, err := session.Snapshot().Encode(); err == nil {
		select {
		case client.Send <- data:
		default:
		}
	}

	h.logger.Info("live client connected",
		slog.Int("game_id", gameID),
		slog.String("client_id", client.ID),
		slog.String("role", string(role)))
}
