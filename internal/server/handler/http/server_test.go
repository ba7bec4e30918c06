package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/auth"
	"github.com/atinyakov/NoteKeeper/internal/mailer"
	"github.com/atinyakov/NoteKeeper/internal/middleware"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/query"
	"github.com/atinyakov/NoteKeeper/internal/repository"
	"github.com/atinyakov/NoteKeeper/internal/service"
	"github.com/atinyakov/NoteKeeper/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type userStore struct {
	mu    sync.Mutex
	users []models.User
}

func (s *userStore) find(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("Resource with id  not found")
}

func (s *userStore) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if other.Email == u.Email {
			return apperr.Validation("Duplicate field value entered")
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	s.users = append(s.users, *u)
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.ID == id })
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *userStore) GetByResetToken(ctx context.Context, hashed string) (*models.User, error) {
	return s.find(func(u models.User) bool {
		return u.ResetPasswordToken == hashed && u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(time.Now())
	})
}

func (s *userStore) Update(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.users, func(other models.User) bool { return other.ID == u.ID })
	if i < 0 {
		return apperr.NotFound("Resource with id %s not found", u.ID)
	}
	s.users[i] = *u
	return nil
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.users, func(u models.User) bool { return u.ID == id })
	if i < 0 {
		return apperr.NotFound("Resource with id %s not found", id)
	}
	s.users = slices.Delete(s.users, i, i+1)
	return nil
}

func (s *userStore) List(ctx context.Context, q query.Query) ([]models.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.users, q), len(s.users), nil
}

type noteStore struct {
	mu    sync.Mutex
	notes []models.Note
}

func (s *noteStore) Create(ctx context.Context, n *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()
	s.notes = append(s.notes, *n)
	return nil
}

func (s *noteStore) GetByID(ctx context.Context, id string) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notes {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, apperr.NotFound("Resource with id %s not found", id)
}

func (s *noteStore) Update(ctx context.Context, n *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.notes, func(other models.Note) bool { return other.ID == n.ID })
	if i < 0 {
		return apperr.NotFound("Resource with id %s not found", n.ID)
	}
	s.notes[i] = *n
	return nil
}

func (s *noteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.notes, func(n models.Note) bool { return n.ID == id })
	if i < 0 {
		return apperr.NotFound("Resource with id %s not found", id)
	}
	s.notes = slices.Delete(s.notes, i, i+1)
	return nil
}

func (s *noteStore) List(ctx context.Context, q query.Query) ([]models.Note, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.notes, q), len(s.notes), nil
}

func page[T any](all []T, q query.Query) []T {
	start := min(q.Offset(), len(all))
	end := min(start+q.Limit, len(all))
	return slices.Clone(all[start:end])
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(ctx context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

type testServer struct {
	handler  http.Handler
	tokens   *auth.TokenManager
	users    *userStore
	notes    *noteStore
	mail     *outbox
	photoDir string
	hasher   *auth.PasswordHasher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	users := &userStore{}
	notes := &noteStore{}
	mail := &outbox{}
	tokens := auth.NewTokenManager("test-secret", 30, false)
	hasher := &auth.PasswordHasher{Cost: bcrypt.MinCost}

	dir := t.TempDir()
	photos, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	authHandler := &AuthHandler{
		Service: service.NewAuthService(users, tokens, hasher, mail),
		Cookies: tokens,
		Log:     log,
	}
	noteHandler := &NoteHandler{
		Service:   service.NewNoteService(notes, photos, 1000),
		Schema:    repository.NoteQuerySchema,
		MaxUpload: 1000,
		Log:       log,
	}
	userHandler := &UserHandler{
		Service: service.NewUserService(users, hasher),
		Schema:  repository.UserQuerySchema,
		Log:     log,
	}
	router := NewRouter(authHandler, noteHandler, userHandler, RouterOptions{
		Authenticate: middleware.Authenticate(tokens, users, log),
		CORSOrigin:   "*",
	}, log)

	return &testServer{
		handler:  router,
		tokens:   tokens,
		users:    users,
		notes:    notes,
		mail:     mail,
		photoDir: dir,
		hasher:   hasher,
	}
}

// envelope is the decoded response body.
type envelope struct {
	Success    bool              `json:"success"`
	Count      *int              `json:"count"`
	Pagination *query.Pagination `json:"pagination"`
	Data       json.RawMessage   `json:"data"`
	NoteLength *int              `json:"noteLength"`
	Token      string            `json:"token"`
	Error      string            `json:"error"`
}

type result struct {
	rec  *httptest.ResponseRecorder
	body envelope
}

func (r result) status() int { return r.rec.Code }

func (r result) data(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body.Data, v))
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) result {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) result {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return result{rec: rec, body: env}
}

// register creates an account through the API and returns its token.
func (s *testServer) register(t *testing.T, email, role string) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Test " + role, "email": email, "password": "secret1", "role": role,
	}, "")
	require.Equal(t, http.StatusOK, res.status(), res.body.Error)
	require.NotEmpty(t, res.body.Token)
	return res.body.Token
}

// seedAdmin stores an admin directly, since admins cannot self-register.
func (s *testServer) seedAdmin(t *testing.T) string {
	t.Helper()
	hash, err := s.hasher.Hash("adminpw")
	require.NoError(t, err)
	require.NoError(t, s.users.Create(context.Background(), &models.User{
		Name: "Admin", Email: "admin@x.com", Role: models.RoleAdmin, PasswordHash: hash,
	}))
	res := s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "admin@x.com", "password": "adminpw"}, "")
	require.Equal(t, http.StatusOK, res.status())
	return res.body.Token
}

func multipartPhoto(t *testing.T, path, filename, contentType string, data []byte, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
