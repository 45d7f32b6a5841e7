package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	// WebSocket connections outlive the request timeout
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		if h.staticServer != nil {
			r.Handle("/static/*", http.StripPrefix("/static/", h.staticServer))
		}

		// Pages
		r.Get("/", h.handleIndex)
		r.Get("/join/{code}", h.handleJoinPage)
		r.Get("/lobby/{code}", h.handleLobbyPage)
		r.Get("/play/{code}", h.handlePlayPage)
		r.Get("/quiz", h.handleQuizPage)

		// Rooms (public)
		r.Post("/api/rooms", h.handleCreateRoom)
		r.Get("/api/rooms/{code}", h.handleGetRoom)
		r.Post("/api/rooms/{code}/join", h.handleJoinRoom)
		r.Get("/api/rooms/{code}/share", h.handleShareLink)

		// Play (public reads)
		r.Get("/api/rooms/{code}/play", h.handleGetState)
		r.Get("/api/rooms/{code}/play/leaderboard", h.handleGetLeaderboard)
		r.Get("/api/rooms/{code}/play/usage", h.handleGetUsage)

		// Room members
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequirePlayer)

			r.Post("/api/rooms/{code}/ready", h.handleSetReady)
			r.Post("/api/rooms/{code}/leave", h.handleLeaveRoom)
			r.Put("/api/rooms/{code}/settings", h.handleUpdateSettings)
			r.Post("/api/rooms/{code}/start", h.handleStartGame)
			r.Post("/api/rooms/{code}/end", h.handleEndGame)

			r.Post("/api/rooms/{code}/play/answer", h.handleAnswer)
			r.Post("/api/rooms/{code}/play/pause", h.handleTogglePause)
			r.Post("/api/rooms/{code}/play/cards/use", h.handleUseCard)
		})

		// Cards
		r.Get("/api/cards", h.handleGetCards)

		// Quiz packs
		r.Get("/api/packs", h.handleGetPacks)
		r.Post("/api/packs", h.handleCreatePack)
		r.Get("/api/packs/{id}", h.handleGetPack)
		r.Put("/api/packs/{id}", h.handleUpdatePack)
		r.Delete("/api/packs/{id}", h.handleDeletePack)
		r.Post("/api/packs/{id}/questions", h.handleCreateQuestion)
		r.Put("/api/packs/{id}/questions/{questionID}", h.handleUpdateQuestion)
		r.Delete("/api/packs/{id}/questions/{questionID}", h.handleDeleteQuestion)

		// Settings
		r.Get("/api/settings", h.handleGetSettings)
		r.With(h.Auth.RequireAdmin).Put("/api/settings", h.handleSetBaseURL)
	})

	return r
}
