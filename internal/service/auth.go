package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/auth"
	"github.com/atinyakov/NoteKeeper/internal/mailer"
	"github.com/atinyakov/NoteKeeper/internal/models"
)

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = 10 * time.Minute

// Session is the result of a successful sign-in: a signed token and the
// user it identifies.
type Session struct {
	Token auth.Token
	User  *models.User
}

// RegisterInput carries the fields accepted at self-registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// DetailsInput carries a partial update of the caller's own profile.
// Nil fields are left unchanged.
type DetailsInput struct {
	Name  *string
	Email *string
}

// AuthService implements registration, sign-in and the password
// lifecycle on top of a UserRepository.
type AuthService struct {
	users  UserRepository
	tokens TokenIssuer
	hasher PasswordHasher
	mail   Mailer

	now        func() time.Time
	resetToken func() (raw, hashed string, err error)
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserRepository, tokens TokenIssuer, hasher PasswordHasher, mail Mailer) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		hasher:     hasher,
		mail:       mail,
		now:        time.Now,
		resetToken: auth.NewResetToken,
	}
}

// Register validates in, stores the new user with a hashed password and
// signs the user in. A missing name defaults to the local part of the email. Only roles that are Registrable may be requested.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name, err := validateName(registrationName(in.Name, email))
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
	if !role.Registrable() {
		return nil, apperr.Validation("Role %s can not be chosen at registration", role)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Name: name, Email: email, Role: role, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.session(u)
}

// Login checks the credentials and signs the user in. An unknown email
// and a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("Please provide an email and password")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Authentication("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Matches(u.PasswordHash, password) {
		return nil, apperr.Authentication("Invalid credentials")
	}
	return s.session(u)
}

// Me returns the current record of the user with the given id.
func (s *AuthService) Me(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateDetails changes the caller's name and/or email.
func (s *AuthService) UpdateDetails(ctx context.Context, id string, in DetailsInput) (*models.User, error) {
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
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdatePassword replaces the caller's password after checking the
// current one, and issues a fresh token.
func (s *AuthService) UpdatePassword(ctx context.Context, id, current, next string) (*Session, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Matches(u.PasswordHash, current) {
		return nil, apperr.Authentication("Password is incorrect")
	}
	if err := s.setPassword(u, next); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.session(u)
}

// ForgotPassword stores a hashed reset token for the user with the given
// email and mails the raw token as resetURL/<token>. When delivery fails
// the stored token is withdrawn.
func (s *AuthService) ForgotPassword(ctx context.Context, email, resetURL string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperr.Validation("Please provide an email")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return apperr.NotFound("There is no user with email %s", email)
	}
	if err != nil {
		return err
	}

	raw, hashed, err := s.resetToken()
	if err != nil {
		return err
	}
	expire := s.now().Add(ResetTokenTTL)
	u.ResetPasswordToken = hashed
	u.ResetPasswordExpire = &expire
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}

	msg := mailer.Message{
		To:      u.Email,
		Subject: "Password reset token",
		Body: fmt.Sprintf("You are receiving this email because you (or someone else) has requested "+
			"the reset of a password. Please make a PUT request to:\n\n%s/%s", strings.TrimRight(resetURL, "/"), raw),
	}
	if sendErr := s.mail.Send(ctx, msg); sendErr != nil {
		u.ClearResetToken()
		if err := s.users.Update(ctx, u); err != nil {
			return fmt.Errorf("withdraw reset token after %v: %w", sendErr, err)
		}
		return apperr.Server("Email could not be sent", sendErr)
	}
	return nil
}

// ResetPassword sets a new password for the holder of an unexpired reset
// token, consumes the token and signs the user in.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, password string) (*Session, error) {
	if rawToken == "" {
		return nil, apperr.Validation("Invalid token")
	}
	u, err := s.users.GetByResetToken(ctx, auth.HashResetToken(rawToken))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Validation("Invalid token")
	}
	if err != nil {
		return nil, err
	}
	if u.ResetPasswordExpire == nil || !u.ResetPasswordExpire.After(s.now()) {
		return nil, apperr.Validation("Invalid token")
	}

	if err := s.setPassword(u, password); err != nil {
		return nil, err
	}
	u.ClearResetToken()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *AuthService) setPassword(u *models.User, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (s *AuthService) session(u *models.User) (*Session, error) {
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, User: u}, nil
}
