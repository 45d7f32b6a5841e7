package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/quizattack/internal/auth"
	"github.com/abrezinsky/quizattack/internal/services"
)

func roomCode(r *http.Request) string {
	return services.NormalizeCode(chi.URLParam(r, "code"))
}

// member returns the caller's identity, which must belong to the room in the URL
func member(r *http.Request) (*auth.Identity, string, error) {
	code := roomCode(r)
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		return nil, code, ErrUnauthorized
	}
	if id.RoomCode != code {
		return nil, code, Forbidden("Your player token is for another room")
	}
	return id, code, nil
}

func (h *Handlers) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	m, err := h.Room.CreateRoom(r.Context(), services.CreateRoomRequest{
		Nickname: req.Nickname,
		Avatar:   req.Avatar,
		Password: req.Password,
		GameMode: req.GameMode,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	auth.SetPlayerCookie(w, m.Token)
	respondCreated(w, m)
}

func (h *Handlers) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.Room.GetRoom(r.Context(), roomCode(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, room)
}

func (h *Handlers) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req JoinRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	m, err := h.Room.JoinRoom(r.Context(), roomCode(r), services.JoinRoomRequest{
		Nickname: req.Nickname,
		Avatar:   req.Avatar,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	auth.SetPlayerCookie(w, m.Token)
	respondCreated(w, m)
}

func (h *Handlers) handleShareLink(w http.ResponseWriter, r *http.Request) {
	code := roomCode(r)
	url, err := h.Room.ShareLink(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, ShareLinkResponse{Code: code, URL: url})
}

func (h *Handlers) handleSetReady(w http.ResponseWriter, r *http.Request) {
	id, code, err := member(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req ReadyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Room.SetReady(r.Context(), code, id.PlayerID, req.Ready); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Ready state updated")
}

func (h *Handlers) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	id, code, err := member(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Room.LeaveRoom(r.Context(), code, id.PlayerID); err != nil {
		respondError(w, err)
		return
	}
	auth.ClearPlayerCookie(w)
	respondSuccess(w, "Left room")
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, code, err := member(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req SettingsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	room, err := h.Room.UpdateSettings(r.Context(), code, id.PlayerID, services.RoomSettings{
		GameMode: req.GameMode,
		Settings: req.Settings,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, room)
}

func (h *Handlers) handleStartGame(w http.ResponseWriter, r *http.Request) {
	id, code, err := member(r)
	if err != nil {
		respondError(w, err)
		return
	}

	room, err := h.Room.StartGame(r.Context(), code, id.PlayerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, room)
}

func (h *Handlers) handleEndGame(w http.ResponseWriter, r *http.Request) {
	id, code, err := member(r)
	if err != nil {
		respondError(w, err)
		return
	}

	room, err := h.Room.EndGame(r.Context(), code, id.PlayerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, room)
}
