package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tcharles/user-auth-api/internal/auth"
	"github.com/tcharles/user-auth-api/internal/config"
	"github.com/tcharles/user-auth-api/internal/logging"
	"github.com/tcharles/user-auth-api/internal/user"
)

// memStore is an in-memory user.Store for router-level tests.
type memStore struct {
	mu    sync.Mutex
	users []*user.User
}

func (s *memStore) Create(ctx context.Context, name, email, passwordHash string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return nil, user.ErrDuplicateEmail
		}
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users = append(s.users, u)
	return u, nil
}

func (s *memStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memStore) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(s.users) {
		return nil, nil
	}
	page := s.users[offset:]
	if limit > 0 && limit < len(page) {
		page = page[:limit]
	}
	return page, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Env = "prod" // no swagger route in tests
	cfg.Server.TrustedOrigins = []string{"http://localhost:3000"}

	logger := logging.NewLogger(true)

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	tokens, err := auth.NewPasetoService(key)
	require.NoError(t, err)

	store := &memStore{}
	svc := auth.NewService(store, auth.NewPasswordHasher(bcrypt.MinCost), tokens, 15*time.Minute)

	return NewRouter(
		cfg,
		auth.NewHandler(svc, logger),
		user.NewHandler(store, auth.GetUserIDFromContext, logger),
		auth.NewMiddleware(svc),
		logger,
	)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RegisterLoginProfileFlow(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	// Register
	rec := doJSON(t, router, http.MethodPost, "/register", "", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var registered struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	require.NotEmpty(t, registered.Token)

	// Login
	rec = doJSON(t, router, http.MethodPost, "/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var loggedIn struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loggedIn))
	require.NotEmpty(t, loggedIn.Token)

	// Both tokens open the profile, and it belongs to the same identity
	var ids []string
	for _, token := range []string{registered.Token, loggedIn.Token} {
		rec = doJSON(t, router, http.MethodGet, "/profile", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var profile struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		assert.Equal(t, "Alice", profile.Name)
		assert.Equal(t, "alice@example.com", profile.Email)
		ids = append(ids, profile.ID)
	}
	assert.Equal(t, ids[0], ids[1])
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	for _, path := range []string{"/profile", "/users"} {
		rec := doJSON(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_UsersListing(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	for _, u := range []struct{ name, email string }{
		{"Alice", "alice@example.com"},
		{"Bob", "bob@example.com"},
		{"Carol", "carol@example.com"},
	} {
		rec := doJSON(t, router, http.MethodPost, "/register", "", map[string]string{
			"name":     u.name,
			"email":    u.email,
			"password": "password123",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodPost, "/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var loggedIn struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loggedIn))

	rec = doJSON(t, router, http.MethodGet, "/users?limit=2", loggedIn.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Users []struct {
			Email string `json:"email"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Users, 2)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRouter_SecurityHeaders(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
