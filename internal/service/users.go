package service

import (
	"context"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/query"
)

// UserInput carries an admin update of a user. Nil fields are left unchanged.
type UserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
}

// UserService implements admin user management. Unlike registration it
// may assign any role.
type UserService struct {
	users  UserRepository
	hasher PasswordHasher
}

// NewUserService constructs a UserService.
func NewUserService(users UserRepository, hasher PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

// List returns one page of users and the total number of matches.
func (s *UserService) List(ctx context.Context, q query.Query) ([]models.User, int, error) {
	return s.users.List(ctx, q)
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create stores a new user with any role.
func (s *UserService) Create(ctx context.Context, in RegisterInput) (*models.User, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, apperr.Validation("%s is not a valid role", in.Role)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{Name: name, Email: email, Role: role, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update applies in to the user with the given id. A new password is
// hashed before it is stored.
func (s *UserService) Update(ctx context.Context, id string, in UserInput) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if u.Name, err = validateName(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if u.Email, err = normalizeEmail(*in.Email); err != nil {
			return nil, err
		}
	}
	if in.Role != nil {
		if u.Role, err = models.ParseRole(*in.Role); err != nil {
			return nil, apperr.Validation("%s is not a valid role", *in.Role)
		}
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		if u.PasswordHash, err = s.hasher.Hash(*in.Password); err != nil {
			return nil, err
		}
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes the user with the given id together with the user's notes.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}
