package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/httpx"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/query"
	"github.com/atinyakov/NoteKeeper/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// multipartOverhead is allowed on top of the photo size for the
// multipart envelope.
const multipartOverhead = 1 << 20

// NoteService defines the note operations required by NoteHandler.
type NoteService interface {
	List(ctx context.Context, q query.Query) ([]models.Note, int, error)
	Get(ctx context.Context, id string) (*models.Note, error)
	Create(ctx context.Context, actor *models.User, title, body string) (*models.Note, error)
	Update(ctx context.Context, actor *models.User, id string, in service.NoteInput) (*models.Note, error)
	Delete(ctx context.Context, actor *models.User, id string) error
	UploadPhoto(ctx context.Context, actor *models.User, id string, file *service.Upload) (string, error)
}

// NoteHandler serves the /notes endpoints.
type NoteHandler struct {
	Service NoteService
	// Schema whitelists the fields list queries may use.
	Schema query.Schema
	// MaxUpload is the largest accepted photo in bytes.
	MaxUpload int64
	Log       *zap.Logger
}

type noteRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"noteBody"`
}

// List returns a page of notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := query.Parse(r.URL.Query(), h.Schema)
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	notes, total, err := h.Service.List(r.Context(), q)
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	resp, err := httpx.Page(notes, total, q)
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Get returns one note.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.OK(n))
}

// Create stores a note owned by the signed-in user.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r, h.Log)
	if !ok {
		return
	}
	var req noteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	n, err := h.Service.Create(r.Context(), actor, deref(req.Title), deref(req.Body))
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, httpx.Response{Success: true, Data: n, NoteLength: &n.Length})
}

// Update changes a note's title and/or body.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r, h.Log)
	if !ok {
		return
	}
	var req noteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	n, err := h.Service.Update(r.Context(), actor, chi.URLParam(r, "id"), service.NoteInput{Title: req.Title, Body: req.Body})
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.OK(n))
}

// Delete removes a note.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r, h.Log)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.OK(httpx.Empty))
}

// UploadPhoto stores the multipart field "file" as the note's photo.
func (h *NoteHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r, h.Log)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, h.Log, apperr.Validation("Please upload an image less than %d bytes", h.MaxUpload))
			return
		}
		httpx.WriteError(w, h.Log, &apperr.Error{Kind: apperr.KindValidation, Message: "Please upload a file", Err: err})
		return
	}
	defer file.Close()

	name, err := h.Service.UploadPhoto(r.Context(), actor, chi.URLParam(r, "id"), &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		httpx.WriteError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.OK(name))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
