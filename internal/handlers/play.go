package handlers

import (
	"net/http"
)

func (h *Handlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Play.State(r.Context(), roomCode(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, snap)
}

func (h *Handlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	code := roomCode(r)
	standings, err := h.Play.Leaderboard(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, LeaderboardResponse{RoomCode: code, Standings: standings})
}

func (h *Handlers) handleGetUsage(w http.ResponseWriter, r *http.Request) {
	code := roomCode(r)
	usage, err := h.Play.Usage(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, UsageResponse{RoomCode: code, Usage: usage})
}

func (h *Handlers) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id, code, err := member(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req AnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Answer == nil {
		respondError(w, BadRequest("answer is required"))
		return
	}

	if err := h.Play.Answer(r.Context(), code, id.PlayerID, *req.Answer); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Answer recorded")
}

func (h *Handlers) handleTogglePause(w http.ResponseWriter, r *http.Request) {
	id, code, err := member(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Play.TogglePause(r.Context(), code, id.PlayerID); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Pause toggled")
}

func (h *Handlers) handleUseCard(w http.ResponseWriter, r *http.Request) {
	id, code, err := member(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req UseCardRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.UniqueID == "" {
		respondError(w, BadRequest("unique_id is required"))
		return
	}

	usage, err := h.Play.UseCard(r.Context(), code, id.PlayerID, req.UniqueID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, usage)
}

func (h *Handlers) handleGetCards(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.Catalog.All())
}
