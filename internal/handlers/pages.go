package handlers

import (
	stderrors "errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/quizattack/internal/errors"
	"github.com/abrezinsky/quizattack/internal/gameconfig"
	"github.com/abrezinsky/quizattack/internal/models"
	"github.com/abrezinsky/quizattack/internal/services"
)

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, h.templates.Index, PageData{Title: "Quiz Attack"})
}

func (h *Handlers) handleQuizPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, h.templates.Quiz, PageData{Title: "Quiz Packs"})
}

func (h *Handlers) handleJoinPage(w http.ResponseWriter, r *http.Request) {
	room, ok := h.pageRoom(w, r)
	if !ok {
		return
	}
	h.render(w, http.StatusOK, h.templates.Join, PageData{
		Title:       "Join " + room.Code,
		RoomCode:    room.Code,
		HasPassword: room.HasPassword,
	})
}

func (h *Handlers) handleLobbyPage(w http.ResponseWriter, r *http.Request) {
	room, ok := h.pageRoom(w, r)
	if !ok {
		return
	}
	h.render(w, http.StatusOK, h.templates.Lobby, PageData{
		Title:    "Lobby " + room.Code,
		RoomCode: room.Code,
	})
}

// handlePlayPage makes sure the room has a live game before rendering it. A
// missing or broken config shows the error page, which sends the player home.
func (h *Handlers) handlePlayPage(w http.ResponseWriter, r *http.Request) {
	room, ok := h.pageRoom(w, r)
	if !ok {
		return
	}

	if _, err := h.Play.Ensure(r.Context(), room.Code); err != nil {
		var loadErr *gameconfig.LoadError
		if stderrors.As(err, &loadErr) {
			h.render(w, http.StatusUnprocessableEntity, h.templates.Error, PageData{
				Title:           "Game unavailable",
				RoomCode:        room.Code,
				Message:         loadErr.Message,
				RedirectTo:      loadErr.RedirectTo,
				RedirectAfterMS: loadErr.RedirectAfter.Milliseconds(),
			})
			return
		}
		h.renderError(w, err)
		return
	}

	h.render(w, http.StatusOK, h.templates.Play, PageData{
		Title:    "Quiz Attack " + room.Code,
		RoomCode: room.Code,
	})
}

// pageRoom loads the room named in the URL or renders the not-found page
func (h *Handlers) pageRoom(w http.ResponseWriter, r *http.Request) (*models.Room, bool) {
	room, err := h.Room.GetRoom(r.Context(), services.NormalizeCode(chi.URLParam(r, "code")))
	if err != nil {
		h.renderError(w, err)
		return nil, false
	}
	return room, true
}

func (h *Handlers) renderError(w http.ResponseWriter, err error) {
	if errors.Is(err, errors.ErrNotFound) {
		h.render(w, http.StatusNotFound, h.templates.Error, PageData{
			Title:   "Room not found",
			Message: "That room does not exist or has closed.",
		})
		return
	}
	apiErr := ToAPIError(err)
	h.render(w, apiErr.Status, h.templates.Error, PageData{
		Title:   "Something went wrong",
		Message: apiErr.Message,
	})
}

func (h *Handlers) render(w http.ResponseWriter, status int, tmpl *template.Template, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	// the status line is already out, so a failure can only be logged
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil && h.Log != nil {
		h.Log.Error("Failed to render page", "title", data.Title, "error", err)
	}
}
