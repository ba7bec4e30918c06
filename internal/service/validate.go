package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
)

const (
	maxNameLength     = 50
	maxTitleLength    = 100
	minPasswordLength = 5
	// bcrypt only reads the first 72 bytes.
	maxPasswordLength = 72
)

var emailPattern = regexp.MustCompile(`^\w+([.+-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("Please add a name")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", apperr.Validation("Name can not be more than %d characters", maxNameLength)
	}
	return name, nil
}

// registrationName is the display name used when a new account is
// registered without one: the local part of email.
func registrationName(name, email string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// normalizeEmail validates email and returns it trimmed and lower-cased.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.Validation("Please add an email")
	}
	if !emailPattern.MatchString(email) {
		return "", apperr.Validation("Please add a valid email")
	}
	return email, nil
}

func validatePassword(password string) error {
	switch {
	case password == "":
		return apperr.Validation("Please add a password")
	case utf8.RuneCountInString(password) < minPasswordLength:
		return apperr.Validation("Password must be at least %d characters", minPasswordLength)
	case len(password) > maxPasswordLength:
		return apperr.Validation("Password can not be more than %d bytes", maxPasswordLength)
	}
	return nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", apperr.Validation("Title can not be more than %d characters", maxTitleLength)
	}
	return title, nil
}

func validateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return apperr.Validation("Please add some text")
	}
	return nil
}
