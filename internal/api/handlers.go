package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/snapnote/snapnote/internal/apperr"
	"github.com/snapnote/snapnote/internal/collection"
	"github.com/snapnote/snapnote/internal/export"
	"github.com/snapnote/snapnote/internal/filter"
	"github.com/snapnote/snapnote/internal/models"
	"github.com/snapnote/snapnote/internal/ocr"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	notes    *collection.Collection
	exporter *export.Exporter
	sharer   export.Sharer
	ocr      *ocr.Service
}

// NewHandler creates a new Handler. ocrSvc may be nil, in which case the
// scan endpoint reports that OCR is unavailable.
func NewHandler(notes *collection.Collection, exporter *export.Exporter, sharer export.Sharer, ocrSvc *ocr.Service) *Handler {
	return &Handler{notes: notes, exporter: exporter, sharer: sharer, ocr: ocrSvc}
}

// ListNotes handles GET /notes with optional filter and q parameters.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cat, err := filter.ParseCategory(q.Get("filter"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	notes := filter.Apply(h.notes.Notes(), cat, q.Get("q"), time.Now())
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// Counts handles GET /notes/counts.
func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, filter.Count(h.notes.Notes(), time.Now()))
}

// GetNote handles GET /notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, ok := h.notes.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /notes. The server assigns the id and both
// timestamps.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	note := models.New(req.Title, req.Body, nil)
	for _, t := range req.Tags {
		note.AddTag(t)
	}

	if err := h.notes.Save(r.Context(), note); err != nil {
		slog.Error("create note failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to save note"))
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /notes/{id}. createdAt of the stored row is
// preserved; updatedAt is bumped to now.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id := chi.URLParam(r, "id")

	existing, ok := h.notes.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	note := models.Note{
		ID:        id,
		Title:     req.Title,
		Body:      req.Body,
		Tags:      []string{},
		CreatedAt: existing.CreatedAt,
		UpdatedAt: models.NowMillis(),
	}
	for _, t := range req.Tags {
		note.AddTag(t)
	}

	if err := h.notes.Save(r.Context(), note); err != nil {
		slog.Error("update note failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to save note"))
		return
	}
	note.Normalize()
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /notes/{id}. Deleting an unknown id still
// returns 204.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.notes.Delete(r.Context(), id); err != nil {
		slog.Error("delete note failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to delete note"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportNote handles POST /notes/{id}/export.
func (h *Handler) ExportNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, ok := h.notes.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	var (
		path string
		mime string
		err  error
	)
	switch req.Format {
	case "pdf":
		path, err = h.exporter.AsPDF(note)
		mime = "application/pdf"
	case "txt":
		path, err = h.exporter.AsTXT(note)
		mime = "text/plain"
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("format must be \"pdf\" or \"txt\""))
		return
	}
	if err != nil {
		slog.Error("export failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("export failed"))
		return
	}

	shared := false
	if req.Share {
		switch shareErr := h.sharer.Share(r.Context(), path, mime); {
		case shareErr == nil:
			shared = true
		case errors.Is(shareErr, apperr.ErrShareCanceled):
			// User dismissed the share dialog; the export itself succeeded.
		default:
			slog.Error("share failed", slog.String("path", path), slog.String("error", shareErr.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("share failed"))
			return
		}
	}

	writeJSON(w, http.StatusOK, ExportResponse{Path: path, Shared: shared})
}
