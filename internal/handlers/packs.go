package handlers

import (
	"net/http"
)

// ==================== Quiz Packs ====================

func (h *Handlers) handleGetPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := h.Pack.ListPacks(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, packs)
}

func (h *Handlers) handleGetPack(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	pack, err := h.Pack.GetPack(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, pack)
}

func (h *Handlers) handleCreatePack(w http.ResponseWriter, r *http.Request) {
	var req PackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	id, err := h.Pack.CreatePack(r.Context(), req.Name, req.Description)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, IDResponse{ID: id})
}

func (h *Handlers) handleUpdatePack(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req PackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Pack.UpdatePack(r.Context(), id, req.Name, req.Description); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Pack updated")
}

func (h *Handlers) handleDeletePack(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Pack.DeletePack(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

// ==================== Questions ====================

func (h *Handlers) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	packID, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req QuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	id, err := h.Pack.AddQuestion(r.Context(), packID, req.toModel())
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, IDResponse{ID: id})
}

func (h *Handlers) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	packID, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	id, err := parseIntParam(r, "questionID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req QuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Pack.UpdateQuestion(r.Context(), packID, id, req.toModel()); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Question updated")
}

func (h *Handlers) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	packID, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	id, err := parseIntParam(r, "questionID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.Pack.DeleteQuestion(r.Context(), packID, id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}
