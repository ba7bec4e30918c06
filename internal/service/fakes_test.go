package service

import (
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/auth"
	"github.com/atinyakov/NoteKeeper/internal/mailer"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/query"
)

type memUsers struct {
	mu   sync.Mutex
	seq  int
	byID map[string]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]models.User{}}
}

func (m *memUsers) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if other.Email == u.Email {
			return apperr.Validation("Duplicate field value entered")
		}
	}
	m.seq++
	u.ID = "u" + strconv.Itoa(m.seq)
	u.CreatedAt = time.Now()
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("Resource with id %s not found", id)
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("Resource with id %s not found", email)
}

func (m *memUsers) GetByResetToken(ctx context.Context, hashed string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.ResetPasswordToken == hashed && u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(time.Now()) {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("Resource with id  not found")
}

func (m *memUsers) Update(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; !ok {
		return apperr.NotFound("Resource with id %s not found", u.ID)
	}
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperr.NotFound("Resource with id %s not found", id)
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) List(ctx context.Context, q query.Query) ([]models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, len(out), nil
}

type memNotes struct {
	mu   sync.Mutex
	seq  int
	byID map[string]models.Note
}

func newMemNotes() *memNotes {
	return &memNotes{byID: map[string]models.Note{}}
}

func (m *memNotes) Create(ctx context.Context, n *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	n.ID = "n" + strconv.Itoa(m.seq)
	n.CreatedAt = time.Now()
	m.byID[n.ID] = *n
	return nil
}

func (m *memNotes) GetByID(ctx context.Context, id string) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("Resource with id %s not found", id)
	}
	return &n, nil
}

func (m *memNotes) Update(ctx context.Context, n *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[n.ID]; !ok {
		return apperr.NotFound("Resource with id %s not found", n.ID)
	}
	m.byID[n.ID] = *n
	return nil
}

func (m *memNotes) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperr.NotFound("Resource with id %s not found", id)
	}
	delete(m.byID, id)
	return nil
}

func (m *memNotes) List(ctx context.Context, q query.Query) ([]models.Note, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Note{}
	for _, n := range m.byID {
		out = append(out, n)
	}
	return out, len(out), nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Matches(hash, password string) bool  { return hash == "hashed:"+password }

type fakeTokens struct{}

func (fakeTokens) Issue(userID string) (auth.Token, error) {
	return auth.Token{Value: "token-for-" + userID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// lastToken extracts the raw reset token from the most recent message.
func (f *fakeMailer) lastToken() string {
	body := f.sent[len(f.sent)-1].Body
	return body[strings.LastIndex(body, "/")+1:]
}

type fakeStore struct {
	name        string
	contentType string
	data        string
	err         error
}

func (f *fakeStore) Save(ctx context.Context, name, contentType string, r io.Reader) error {
	if f.err != nil {
		return f.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.name, f.contentType, f.data = name, contentType, string(b)
	return nil
}

func defaultQuery() query.Query {
	return query.Query{Page: 1, Limit: query.DefaultLimit}
}
