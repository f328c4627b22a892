package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adanyl0v/taskboard/internal/models"
)

// Error classes. Every error returned by this package that the delivery
// layer is expected to translate wraps exactly one of them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrTaskNotFound         = fmt.Errorf("task %w", ErrNotFound)
	ErrParentNotFound       = fmt.Errorf("parent task %w", ErrNotFound)
	ErrAssigneeNotFound     = fmt.Errorf("assigned user %w", ErrNotFound)
	ErrUserAlreadyExists    = fmt.Errorf("%w: user with this email already exists", ErrConflict)
	ErrUserPasswordMismatch = fmt.Errorf("%w: email or password incorrect", ErrUnauthorized)
	ErrInvalidToken         = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrTokenExpired         = fmt.Errorf("%w: token is expired", ErrUnauthorized)
	ErrRefreshTokenRevoked  = fmt.Errorf("%w: refresh token has been revoked", ErrUnauthorized)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

type TaskService interface {
	// CreateTask validates the referenced creator, assignee and parent
	// and persists a new task. The creator defaults to actingUserID.
	//
	// It returns an error wrapping ErrNotFound if a referenced entity
	// doesn't exist, or ErrValidation if a field is malformed.
	CreateTask(ctx context.Context, params CreateTaskParams, actingUserID string) (*models.Task, error)

	// ListTasks returns a snapshot of all tasks matching the filter in
	// storage order, with creator and assignee populated.
	ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error)

	// GetTask returns nil and no error if the task doesn't exist.
	GetTask(ctx context.Context, id string) (*models.Task, error)

	// UpdateTask applies the fields present in params and leaves the rest
	// unchanged. Referenced assignee and parent are re-validated.
	//
	// It returns ErrTaskNotFound if the task doesn't exist.
	UpdateTask(ctx context.Context, id string, params UpdateTaskParams) (*models.Task, error)

	// RemoveTask deletes the task. Subtasks are left untouched and keep
	// their parent reference.
	//
	// It returns ErrTaskNotFound if the task doesn't exist.
	RemoveTask(ctx context.Context, id string) error
}

type AuthService interface {
	// Register creates a user and issues a fresh token pair.
	//
	// It returns ErrUserAlreadyExists if the email is taken.
	Register(ctx context.Context, params RegisterParams) (*AuthResult, error)

	// Login authenticates by email and password and rotates the stored
	// refresh token.
	//
	// It returns ErrUserPasswordMismatch for an unknown email or a
	// wrong password.
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)

	// Refresh issues a new access token for a valid refresh token that
	// matches the one stored for its user.
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)

	// Logout revokes the stored refresh token of the user.
	Logout(ctx context.Context, userID string) error

	// Authenticate verifies an access token and loads its subject.
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type UserService interface {
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*models.User, error)
	RemoveUser(ctx context.Context, id string) (*models.User, error)
}

// Store is the persistence boundary shared by the credential store and
// the task repository.
type Store interface {
	Users() UserRepository
	Tasks() TaskRepository

	// WithinTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
}

type UserRepository interface {
	// GetUserByID returns ErrUserNotFound if there is no such user.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUserByEmail returns ErrUserNotFound if there is no such user.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserExists locks the user row against deletion for the rest of the
	// surrounding transaction.
	UserExists(ctx context.Context, id string) (bool, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	// InsertUser returns ErrUserAlreadyExists on a duplicate email.
	InsertUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

type TaskRepository interface {
	// GetTaskByID returns ErrTaskNotFound if there is no such task.
	GetTaskByID(ctx context.Context, id string) (*models.Task, error)
	// TaskExists locks the task row against deletion for the rest of the
	// surrounding transaction.
	TaskExists(ctx context.Context, id string) (bool, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error)
	InsertTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
}

type TaskFilter struct {
	ParentID *string
}

type CreateTaskParams struct {
	Title       string
	Description *string
	Status      *models.TaskStatus
	Type        *models.TaskType
	CreatedBy   *string
	AssignedTo  *string
	ParentID    *string
	StartDate   *string
	DueDate     *string
}

// UpdateTaskParams is a partial update: nil fields are left unchanged.
// An empty AssignedTo or ParentID clears the reference.
type UpdateTaskParams struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Type        *models.TaskType
	AssignedTo  *string
	ParentID    *string
	StartDate   *string
	DueDate     *string
}

type CreateUserParams struct {
	Email    string
	Password string
	Username string
}

type UpdateUserParams struct {
	Username *string
}

type RegisterParams = CreateUserParams

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User                  *models.User
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshResult struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
}
