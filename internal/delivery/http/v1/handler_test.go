package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/adanyl0v/taskboard/internal/delivery/http/v1"
	"github.com/adanyl0v/taskboard/internal/ratelimit"
	"github.com/adanyl0v/taskboard/internal/services"
	"github.com/adanyl0v/taskboard/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLimiter struct {
	allow bool
	err   error
	calls int
}

func (l *fakeLimiter) Allow(_ context.Context, _ string) (*ratelimit.Result, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	if l.allow {
		return &ratelimit.Result{Allowed: true, Limit: 10, Remaining: 9}, nil
	}
	return &ratelimit.Result{Allowed: false, Limit: 10, RetryAfter: 1500 * time.Millisecond}, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

type server struct {
	t      *testing.T
	router *gin.Engine
}

func newServer(t *testing.T, limiter v1.Limiter) *server {
	t.Helper()

	store := memory.New()
	hasher := services.NewPasswordHasher(&argon2id.Params{
		Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	tokens := services.NewTokenManager("taskboard-test", []byte("secret"), 15*time.Minute, time.Hour)
	logger := zerolog.Nop()

	h := v1.New(
		logger,
		services.NewAuthService(logger, store, hasher, tokens),
		services.NewUserService(logger, store, hasher),
		services.NewTaskService(logger, store),
		store,
		limiter,
	)

	router := gin.New()
	v1.RegisterRoutes(router, h)
	return &server{t: t, router: router}
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type authBody struct {
	User struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Username string `json:"username"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userBody struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type taskBody struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Type        string    `json:"type"`
	CreatedBy   userBody  `json:"createdBy"`
	AssignedTo  *userBody `json:"assignedTo"`
	ParentID    *string   `json:"parentId"`
	StartDate   *string   `json:"startDate"`
	DueDate     *string   `json:"dueDate"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *server) register(email string) authBody {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "Test123456!", "username": "Test User",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[authBody](s.t, w)
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t, nil)

	registered := s.register("test@example.com")
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, "test@example.com", registered.User.Email)
	assert.NotContains(t, s.do(http.MethodGet, "/user/me", registered.AccessToken, nil).Body.String(), "password")

	w := s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "invalid-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "test@example.com", "password": "x"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "test@example.com", "password": "Test123456!"})
	require.Equal(t, http.StatusOK, w.Code)
	loggedIn := decode[authBody](t, w)
	assert.NotEmpty(t, loggedIn.AccessToken)

	w = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "test@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, decode[errorBody](t, w).Error)

	w = s.do(http.MethodGet, "/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/user", loggedIn.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]userBody](t, w), 1)

	w = s.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": loggedIn.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	refreshed := decode[map[string]string](t, w)
	assert.NotEmpty(t, refreshed["accessToken"])

	w = s.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": registered.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/auth/refresh", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/auth/logout", loggedIn.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out successfully", decode[map[string]string](t, w)["message"])

	w = s.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": loggedIn.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := newServer(t, nil)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "empty token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/task", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_RejectsRefreshTokenAndDeletedUser(t *testing.T) {
	s := newServer(t, nil)
	auth := s.register("a@example.com")

	w := s.do(http.MethodGet, "/task", auth.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodDelete, "/user/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, auth.User.ID, decode[userBody](t, w).ID)

	w = s.do(http.MethodGet, "/task", auth.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserEndpoints(t *testing.T) {
	s := newServer(t, nil)
	auth := s.register("a@example.com")

	w := s.do(http.MethodPost, "/user", "", map[string]string{
		"email": "new@example.com", "password": "Password123!", "username": "New User",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[userBody](t, w)
	assert.Equal(t, "new@example.com", created.Email)

	w = s.do(http.MethodPatch, "/user/me", auth.AccessToken, map[string]string{"username": "Updated Username"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Updated Username", decode[userBody](t, w).Username)

	w = s.do(http.MethodPatch, "/user/me", auth.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/user/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Updated Username", decode[userBody](t, w).Username)

	w = s.do(http.MethodDelete, "/user/"+created.ID, auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/user/"+created.ID, auth.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskEndpoints(t *testing.T) {
	s := newServer(t, nil)
	alice := s.register("alice@example.com")
	bob := s.register("bob@example.com")

	w := s.do(http.MethodPost, "/task", alice.AccessToken, map[string]any{
		"title":      "Parent",
		"assignedTo": bob.User.ID,
		"dueDate":    "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	parent := decode[taskBody](t, w)
	assert.Equal(t, "PENDING", parent.Status)
	assert.Equal(t, "TASK", parent.Type)
	assert.Equal(t, alice.User.ID, parent.CreatedBy.ID)
	assert.Equal(t, "alice@example.com", parent.CreatedBy.Email)
	require.NotNil(t, parent.AssignedTo)
	assert.Equal(t, bob.User.ID, parent.AssignedTo.ID)
	require.NotNil(t, parent.DueDate)
	assert.Equal(t, "2025-03-10", *parent.DueDate)

	w = s.do(http.MethodPost, "/task", alice.AccessToken, map[string]any{
		"title":    "Child",
		"type":     "SUBTASK",
		"parentId": parent.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	child := decode[taskBody](t, w)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)

	w = s.do(http.MethodGet, "/task", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]taskBody](t, w), 2)

	w = s.do(http.MethodGet, "/task?parentId="+parent.ID, alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	children := decode[[]taskBody](t, w)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)

	w = s.do(http.MethodPatch, "/task/"+parent.ID, bob.AccessToken, map[string]any{"status": "COMPLETED"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[taskBody](t, w)
	assert.Equal(t, "COMPLETED", updated.Status)
	assert.Equal(t, "Parent", updated.Title)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, bob.User.ID, updated.AssignedTo.ID)

	w = s.do(http.MethodGet, "/task/"+parent.ID, alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "COMPLETED", decode[taskBody](t, w).Status)

	w = s.do(http.MethodDelete, "/task/"+parent.ID, alice.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/task/"+parent.ID, alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	w = s.do(http.MethodDelete, "/task/"+parent.ID, alice.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPatch, "/task/"+parent.ID, alice.AccessToken, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskEndpoints_Failures(t *testing.T) {
	s := newServer(t, nil)
	alice := s.register("alice@example.com")

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{name: "empty title", body: map[string]any{"title": ""}, status: http.StatusBadRequest},
		{name: "bad status", body: map[string]any{"title": "x", "status": "DOING"}, status: http.StatusBadRequest},
		{name: "bad date", body: map[string]any{"title": "x", "startDate": "soon"}, status: http.StatusBadRequest},
		{name: "subtask without parent", body: map[string]any{"title": "x", "type": "SUBTASK"}, status: http.StatusBadRequest},
		{name: "missing assignee", body: map[string]any{"title": "x", "assignedTo": "0190f3b4-0000-7000-8000-000000000000"}, status: http.StatusNotFound},
		{name: "missing parent", body: map[string]any{"title": "x", "parentId": "0190f3b4-0000-7000-8000-000000000000"}, status: http.StatusNotFound},
		{name: "wrong field type", body: map[string]any{"title": 42}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/task", alice.AccessToken, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, decode[errorBody](t, w).Error)
		})
	}

	w := s.do(http.MethodGet, "/task", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]taskBody](t, w))
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocked", func(t *testing.T) {
		limiter := &fakeLimiter{allow: false}
		s := newServer(t, limiter)

		w := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "a@example.com", "password": "x"})
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "2", w.Header().Get("Retry-After"))
		assert.Equal(t, 1, limiter.calls)
	})

	t.Run("allowed", func(t *testing.T) {
		limiter := &fakeLimiter{allow: true}
		s := newServer(t, limiter)

		w := s.do(http.MethodGet, "/task", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("limiter failure fails open", func(t *testing.T) {
		limiter := &fakeLimiter{err: errors.New("redis down")}
		s := newServer(t, limiter)

		w := s.do(http.MethodPost, "/user", "", map[string]string{"email": "a@example.com", "password": "x"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("health is not throttled", func(t *testing.T) {
		limiter := &fakeLimiter{allow: false}
		s := newServer(t, limiter)

		w := s.do(http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, limiter.calls)
	})
}

func TestHealth_Unavailable(t *testing.T) {
	h := v1.New(zerolog.Nop(), nil, nil, nil, failingPinger{}, nil)

	router := gin.New()
	v1.RegisterRoutes(router, h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUpdateTaskNullClearsField(t *testing.T) {
	s := newServer(t, nil)
	alice := s.register("alice@example.com")
	bob := s.register("bob@example.com")

	w := s.do(http.MethodPost, "/task", alice.AccessToken, map[string]any{
		"title":      "Assigned",
		"assignedTo": bob.User.ID,
		"dueDate":    "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[taskBody](t, w)

	w = s.do(http.MethodPatch, "/task/"+task.ID, alice.AccessToken, map[string]any{"title": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	renamed := decode[taskBody](t, w)
	require.NotNil(t, renamed.AssignedTo)
	require.NotNil(t, renamed.DueDate)

	w = s.do(http.MethodPatch, "/task/"+task.ID, alice.AccessToken, map[string]any{"assignedTo": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cleared := decode[taskBody](t, w)
	assert.Nil(t, cleared.AssignedTo)
	require.NotNil(t, cleared.DueDate)
	assert.Equal(t, "Renamed", cleared.Title)

	w = s.do(http.MethodPatch, "/task/"+task.ID, alice.AccessToken, map[string]any{"dueDate": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decode[taskBody](t, w).DueDate)

	w = s.do(http.MethodGet, "/task/"+task.ID, alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[taskBody](t, w)
	assert.Nil(t, got.AssignedTo)
	assert.Nil(t, got.DueDate)
}
