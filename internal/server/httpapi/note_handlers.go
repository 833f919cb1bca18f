package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/gorilla/mux"
)

func noteID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

func (h *Handler) listNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.List(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) createNote(w http.ResponseWriter, r *http.Request) {
	in, img, err := h.decodeNoteInput(w, r)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	note, err := h.notes.Create(r.Context(), userFrom(r.Context()).ID, in, img)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *Handler) getNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	note, err := h.notes.Get(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *Handler) updateNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	patch, img, err := h.decodeNotePatch(w, r)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	if patch.Empty() && img == nil {
		h.logger.Debug(r.Context(), "update without recognised fields", "note_id", id)
	}

	note, err := h.notes.Update(r.Context(), userFrom(r.Context()).ID, id, patch, img)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *Handler) togglePin(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	note, err := h.notes.TogglePin(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *Handler) toggleArchive(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	note, err := h.notes.ToggleArchive(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *Handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	if err := h.notes.Delete(r.Context(), userFrom(r.Context()).ID, id); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeMessage(w, http.StatusOK, "note deleted")
}
