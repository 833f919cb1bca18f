package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the endpoints. Everything below /api/me and /api/notes
// requires a bearer token.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("NoteKeeper API is running"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", h.register).Methods(http.MethodPost)
	api.HandleFunc("/login", h.login).Methods(http.MethodPost)

	private := func(path string, fn http.HandlerFunc, methods ...string) {
		api.Handle(path, h.requireAuth(fn)).Methods(methods...)
	}
	private("/me", h.me, http.MethodGet)
	private("/notes", h.listNotes, http.MethodGet)
	private("/notes", h.createNote, http.MethodPost)
	private("/notes/{id:[0-9]+}", h.getNote, http.MethodGet)
	private("/notes/{id:[0-9]+}", h.updateNote, http.MethodPut, http.MethodPatch)
	private("/notes/{id:[0-9]+}", h.deleteNote, http.MethodDelete)
	private("/notes/{id:[0-9]+}/pin", h.togglePin, http.MethodPut)
	private("/notes/{id:[0-9]+}/archive", h.toggleArchive, http.MethodPut)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
