package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping test: TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Skipf("Skipping test: database not available: %v", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("Skipping test: database ping failed: %v", err)
	}
	t.Cleanup(pool.Close)

	store := New(zerolog.Nop(), pool)
	require.NoError(t, store.Migrate(ctx))

	_, err = pool.Exec(ctx, `TRUNCATE tasks, users`)
	require.NoError(t, err)
	return store
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

func insertUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &models.User{
		ID:        newID(t),
		Email:     email,
		Username:  "user",
		Password:  "hash",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Users().InsertUser(context.Background(), user))
	return user
}

func TestStore_Users(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	user := insertUser(t, s, "a@example.com")

	err := s.Users().InsertUser(ctx, &models.User{
		ID: newID(t), Email: "a@example.com", Password: "hash",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, services.ErrUserAlreadyExists)

	got, err := s.Users().GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Nil(t, got.RefreshToken)

	token := "refresh"
	got.RefreshToken = &token
	require.NoError(t, s.Users().UpdateUser(ctx, got))

	got, err = s.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, token, *got.RefreshToken)

	_, err = s.Users().GetUserByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	require.NoError(t, s.Users().DeleteUser(ctx, user.ID))
	assert.ErrorIs(t, s.Users().DeleteUser(ctx, user.ID), services.ErrUserNotFound)
}

func TestStore_Tasks(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	creator := insertUser(t, s, "creator@example.com")
	assignee := insertUser(t, s, "assignee@example.com")

	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	parent := &models.Task{
		ID:         newID(t),
		Title:      "parent",
		Status:     models.StatusPending,
		Type:       models.TypeTask,
		CreatedBy:  creator.ID,
		AssignedTo: &assignee.ID,
		DueDate:    &due,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.Tasks().InsertTask(ctx, parent))

	child := &models.Task{
		ID:        newID(t),
		Title:     "child",
		Status:    models.StatusPending,
		Type:      models.TypeSubtask,
		CreatedBy: creator.ID,
		ParentID:  &parent.ID,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Tasks().InsertTask(ctx, child))

	got, err := s.Tasks().GetTaskByID(ctx, parent.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Creator)
	assert.Equal(t, creator.Email, got.Creator.Email)
	require.NotNil(t, got.Assignee)
	assert.Equal(t, assignee.Email, got.Assignee.Email)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2025-03-10", got.DueDate.Format(models.DateLayout))

	children, err := s.Tasks().ListTasks(ctx, services.TaskFilter{ParentID: &parent.ID})
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)

	got.Status = models.StatusCompleted
	require.NoError(t, s.Tasks().UpdateTask(ctx, got))

	got, err = s.Tasks().GetTaskByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	require.NoError(t, s.Tasks().DeleteTask(ctx, parent.ID))
	_, err = s.Tasks().GetTaskByID(ctx, parent.ID)
	assert.ErrorIs(t, err, services.ErrTaskNotFound)

	orphan, err := s.Tasks().GetTaskByID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, orphan.ParentID)
	assert.Equal(t, parent.ID, *orphan.ParentID)
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	id := newID(t)
	err := s.WithinTx(ctx, func(tx services.Store) error {
		require.NoError(t, tx.Users().InsertUser(ctx, &models.User{
			ID: id, Email: "tx@example.com", Password: "hash",
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}))

		exists, err := tx.Users().UserExists(ctx, id)
		require.NoError(t, err)
		assert.True(t, exists)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := s.Users().UserExists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
}
