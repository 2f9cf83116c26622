package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/voting-be/internal/api/handlers"
	"github.com/isdelr/voting-be/internal/api/respond"
	"github.com/isdelr/voting-be/internal/auth"
	"github.com/isdelr/voting-be/internal/models"
	"github.com/isdelr/voting-be/internal/services"
	"github.com/isdelr/voting-be/internal/websocket"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Candidates  services.CandidateServiceProvider
	Users       services.UserServiceProvider
	Events      services.EventServiceProvider // optional; nil disables the activity log
	Tokens      *auth.TokenManager
	Hub         *websocket.Hub // optional; nil disables live tally updates
	CORSOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(recoverer)

	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Message(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	var live handlers.TallyNotifier
	if deps.Hub != nil {
		live = deps.Hub
	}
	candidateHandler := handlers.NewCandidateHandler(deps.Candidates, deps.Events, live)
	userHandler := handlers.NewUserHandler(deps.Users, deps.Tokens)

	authenticated := deps.Tokens.Middleware()
	adminOnly := auth.RequireRole(deps.Users, models.RoleAdmin)

	r.Route("/user", func(r chi.Router) {
		r.Post("/signup", userHandler.Signup)
		r.Post("/login", userHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/profile", userHandler.Profile)
			r.Put("/profile/password", userHandler.ChangePassword)
		})
	})

	r.Route("/candidate", func(r chi.Router) {
		r.Get("/", candidateHandler.List)
		r.With(authenticated, adminOnly).Post("/", candidateHandler.Create)

		// The literal count routes are registered ahead of the {candidateID} pattern.
		r.Get("/vote/count", candidateHandler.Count)
		if deps.Hub != nil {
			wsHandler := handlers.NewWebSocketHandler(deps.Hub)
			r.Get("/vote/count/live", wsHandler.ServeTally)
		}
		r.With(authenticated).Get("/vote/{candidateID}", candidateHandler.Vote)

		r.Get("/{candidateID}", candidateHandler.Get)
		r.With(authenticated, adminOnly).Put("/{candidateID}", candidateHandler.Update)
		r.With(authenticated, adminOnly).Delete("/{candidateID}", candidateHandler.Delete)
	})

	if deps.Events != nil {
		eventHandler := handlers.NewEventHandler(deps.Events)
		r.With(authenticated, adminOnly).Get("/events", eventHandler.GetRecent)
	}

	return r
}
