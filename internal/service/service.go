// Package service implements the business rules of the API: the
// password lifecycle, note ownership and admin user management. It
// depends only on the small interfaces below so each rule can be tested
// against in-memory fakes.
package service

import (
	"context"
	"io"

	"github.com/atinyakov/NoteKeeper/internal/auth"
	"github.com/atinyakov/NoteKeeper/internal/mailer"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/query"
)

// UserRepository defines the persistence operations on users.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByResetToken returns the user holding the hashed token if it has not expired.
	GetByResetToken(ctx context.Context, hashed string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q query.Query) ([]models.User, int, error)
}

// NoteRepository defines the persistence operations on notes.
type NoteRepository interface {
	Create(ctx context.Context, n *models.Note) error
	GetByID(ctx context.Context, id string) (*models.Note, error)
	Update(ctx context.Context, n *models.Note) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q query.Query) ([]models.Note, int, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID string) (auth.Token, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(hash, password string) bool
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// PhotoStore persists uploaded photos under a file name.
type PhotoStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) error
}
