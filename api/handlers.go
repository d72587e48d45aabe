package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pthm-cable/orbfield/notes"
)

// MaxBody caps PUT request bodies.
const MaxBody = 64 << 10

// Handler holds note route handlers.
type Handler struct {
	store notes.Store
}

// NewHandler creates a new Handler.
func NewHandler(store notes.Store) *Handler {
	return &Handler{store: store}
}

// noteID extracts and validates the {id} URL parameter.
func noteID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := notes.ValidateID(id); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return "", false
	}
	return id, true
}

// serverError logs err and replies with a generic 500.
func serverError(w http.ResponseWriter, r *http.Request, op, id string, err error) {
	slog.Error("note "+op+" failed",
		slog.String("id", id),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("Server error"))
}

// GetNote handles GET /notes/{id}. Absent notes are returned empty.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	n, err := h.store.Get(r.Context(), id)
	if err != nil {
		serverError(w, r, "get", id, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// PutNote handles PUT /notes/{id}. Missing title or body fields store as
// empty strings; an empty request body stores an empty note.
func (h *Handler) PutNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	var in notes.Input
	r.Body = http.MaxBytesReader(w, r.Body, MaxBody)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("request body too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	if err := h.store.Put(r.Context(), id, in); err != nil {
		serverError(w, r, "put", id, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// DeleteNote handles DELETE /notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		serverError(w, r, "delete", id, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
