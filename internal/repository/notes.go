package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/query"
	"github.com/google/uuid"
)

const noteColumns = `id, title, slug, note_body, note_length, photo, created_at, user_id`

// NoteQuerySchema lists the note fields available to list queries.
var NoteQuerySchema = query.Schema{
	Fields: map[string]query.Field{
		"id":          {Column: "id", Type: query.UUID},
		"title":       {Column: "title", Type: query.String},
		"slug":        {Column: "slug", Type: query.String},
		"noteBody":    {Column: "note_body", Type: query.String},
		"noteLength":  {Column: "note_length", Type: query.Int},
		"photo":       {Column: "photo", Type: query.String},
		"dateCreated": {Column: "created_at", Type: query.Time},
		"user":        {Column: "user_id", Type: query.UUID},
	},
	DefaultSort: "-dateCreated",
}

// PostgresNoteRepository stores notes in PostgreSQL.
type PostgresNoteRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresNoteRepository creates a new PostgresNoteRepository with the given database connection.
func NewPostgresNoteRepository(db *sql.DB) *PostgresNoteRepository {
	return &PostgresNoteRepository{DB: db}
}

// Create inserts n, assigning its ID and CreatedAt.
func (r *PostgresNoteRepository) Create(ctx context.Context, n *models.Note) error {
	n.ID = uuid.NewString()
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO notes (id, title, slug, note_body, note_length, photo, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, n.ID, n.Title, n.Slug, n.Body, n.Length, n.Photo, n.UserID).Scan(&n.CreatedAt)
	if err != nil {
		n.ID = ""
		return translate(err, "create note", "")
	}
	return nil
}

// GetByID fetches a note by ID.
func (r *PostgresNoteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	n, err := scanNote(row)
	if err != nil {
		return nil, translate(err, "get note", id)
	}
	return n, nil
}

// Update saves the content fields of n. Ownership and creation time are immutable.
func (r *PostgresNoteRepository) Update(ctx context.Context, n *models.Note) error {
	if err := checkID(n.ID); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE notes
		   SET title = $2, slug = $3, note_body = $4, note_length = $5, photo = $6
		 WHERE id = $1
	`, n.ID, n.Title, n.Slug, n.Body, n.Length, n.Photo)
	if err != nil {
		return translate(err, "update note", n.ID)
	}
	return expectOne(res, n.ID)
}

// Delete removes a note.
func (r *PostgresNoteRepository) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete note", id)
	}
	return expectOne(res, id)
}

// List returns one page of notes matching q and the total match count.
func (r *PostgresNoteRepository) List(ctx context.Context, q query.Query) ([]models.Note, int, error) {
	var total int
	countSQL, countArgs := q.CountSQL(`SELECT COUNT(*) FROM notes`)
	if err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, translate(err, "count notes", "")
	}

	stmt, args := q.SelectSQL(`SELECT ` + noteColumns + ` FROM notes`)
	rows, err := r.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, 0, translate(err, "list notes", "")
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}
	return notes, total, nil
}

func scanNote(s scanner) (*models.Note, error) {
	var n models.Note
	if err := s.Scan(&n.ID, &n.Title, &n.Slug, &n.Body, &n.Length, &n.Photo, &n.CreatedAt, &n.UserID); err != nil {
		return nil, err
	}
	return &n, nil
}
