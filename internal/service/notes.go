package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/query"
)

// NoteInput carries a partial note update. Nil fields are left unchanged.
type NoteInput struct {
	Title *string
	Body  *string
}

// Upload is a photo received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// NoteService implements note CRUD and enforces note ownership.
type NoteService struct {
	notes        NoteRepository
	photos       PhotoStore
	maxPhotoSize int64
}

// NewNoteService constructs a NoteService. Photos larger than
// maxPhotoSize bytes are rejected.
func NewNoteService(notes NoteRepository, photos PhotoStore, maxPhotoSize int64) *NoteService {
	return &NoteService{notes: notes, photos: photos, maxPhotoSize: maxPhotoSize}
}

// List returns one page of notes and the total number of matches.
func (s *NoteService) List(ctx context.Context, q query.Query) ([]models.Note, int, error) {
	return s.notes.List(ctx, q)
}

// Get returns the note with the given id.
func (s *NoteService) Get(ctx context.Context, id string) (*models.Note, error) {
	n, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, noteNotFound(err, id)
	}
	return n, nil
}

// Create stores a new note owned by actor.
func (s *NoteService) Create(ctx context.Context, actor *models.User, title, body string) (*models.Note, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	if err := validateBody(body); err != nil {
		return nil, err
	}
	n := &models.Note{Title: title, Body: body, UserID: actor.ID}
	n.Derive()
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Update applies in to the note if actor may modify it.
func (s *NoteService) Update(ctx context.Context, actor *models.User, id string, in NoteInput) (*models.Note, error) {
	n, err := s.owned(ctx, actor, id, "update")
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if n.Title, err = validateTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Body != nil {
		if err := validateBody(*in.Body); err != nil {
			return nil, err
		}
		n.Body = *in.Body
	}
	n.Derive()
	if err := s.notes.Update(ctx, n); err != nil {
		return nil, noteNotFound(err, id)
	}
	return n, nil
}

// Delete removes the note if actor may modify it.
func (s *NoteService) Delete(ctx context.Context, actor *models.User, id string) error {
	if _, err := s.owned(ctx, actor, id, "delete"); err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		return noteNotFound(err, id)
	}
	return nil
}

// UploadPhoto stores file as the note's photo and returns the stored
// file name, photo_<id><ext>.
func (s *NoteService) UploadPhoto(ctx context.Context, actor *models.User, id string, file *Upload) (string, error) {
	n, err := s.owned(ctx, actor, id, "update")
	if err != nil {
		return "", err
	}
	if file == nil || file.Body == nil {
		return "", apperr.Validation("Please upload a file")
	}
	if !strings.HasPrefix(file.ContentType, "image/") {
		return "", apperr.Validation("Please upload an image file")
	}
	if file.Size > s.maxPhotoSize {
		return "", apperr.Validation("Please upload an image less than %d bytes", s.maxPhotoSize)
	}

	name := "photo_" + n.ID + strings.ToLower(filepath.Ext(filepath.Base(file.Filename)))
	if err := s.photos.Save(ctx, name, file.ContentType, file.Body); err != nil {
		return "", apperr.Server("Problem with file upload", err)
	}
	n.Photo = name
	if err := s.notes.Update(ctx, n); err != nil {
		return "", noteNotFound(err, id)
	}
	return name, nil
}

// owned loads the note and checks that actor may modify it.
func (s *NoteService) owned(ctx context.Context, actor *models.User, id, action string) (*models.Note, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.OwnedBy(actor.ID) && !actor.Role.BypassesOwnership() {
		return nil, apperr.Authorization("User %s is not authorized to %s this note", actor.ID, action)
	}
	return n, nil
}

func noteNotFound(err error, id string) error {
	if apperr.Is(err, apperr.KindNotFound) {
		return apperr.NotFound("Note not found with id of %s", id)
	}
	return err
}
