package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matchlive/matchlive/handlers"
	"github.com/matchlive/matchlive/middleware"
	"github.com/matchlive/matchlive/models"
)

// SetupRoutes wires every HTTP and websocket endpoint onto the router.
// Reads are public; everything that mutates tournament state requires
// an organizer token, and the organizer-of-this-tournament check
// happens again in the service layer.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	tournamentHandler *handlers.TournamentHandler,
	teamHandler *handlers.TeamHandler,
	gameHandler *handlers.GameHandler,
	liveHandler *handlers.LiveHandler,
	userHandler *handlers.UserHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticated := middleware.Authenticate(jwtSecret)
	organizerOnly := middleware.Authorize(
		string(models.RoleOrganizer), string(models.RoleAdmin),
	)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/{tournamentID}/bracket", tournamentHandler.GetBracketHandler)
		r.Get("/{tournamentID}/games", gameHandler.ListByTournamentHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(organizerOnly)

			r.Post("/", tournamentHandler.CreateHandler)
			r.Post("/{tournamentID}/teams", tournamentHandler.AddTeamHandler)
			r.Post("/{tournamentID}/bracket", tournamentHandler.GenerateBracketHandler)
			r.Delete("/{tournamentID}/bracket", tournamentHandler.DeleteBracketHandler)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.ListHandler)
		r.Get("/{teamID}", teamHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(organizerOnly)

			r.Post("/", teamHandler.CreateHandler)
		})
	})

	router.Route("/games", func(r chi.Router) {
		r.Get("/{gameID}", gameHandler.GetByIDHandler)
		r.Get("/{gameID}/events", gameHandler.ListEventsHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(organizerOnly)

			r.Post("/{gameID}/result", gameHandler.SubmitResultHandler)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/users/me", userHandler.MeHandler)
	})

	// The websocket endpoint authenticates lazily: viewers need no
	// token, the scorer's token rides in the query string.
	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthenticateOptional(jwtSecret))
		r.Get("/ws/games/{gameID}", liveHandler.ServeWs)
	})

	handlers.MountDocs(router)
}
