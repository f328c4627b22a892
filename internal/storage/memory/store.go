// Package memory keeps users and tasks in process memory. It backs
// STORAGE_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

type state struct {
	users     map[string]*models.User
	userOrder []string
	tasks     map[string]*models.Task
	taskOrder []string
}

func newState() *state {
	return &state{
		users: make(map[string]*models.User),
		tasks: make(map[string]*models.Task),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:     make(map[string]*models.User, len(s.users)),
		userOrder: slices.Clone(s.userOrder),
		tasks:     make(map[string]*models.Task, len(s.tasks)),
		taskOrder: slices.Clone(s.taskOrder),
	}
	for id, u := range s.users {
		c.users[id] = cloneUser(u)
	}
	for id, t := range s.tasks {
		c.tasks[id] = cloneTask(t)
	}
	return c
}

// guard serialises access to a state. The top-level store guards with its
// mutex; a transactional view already holds it.
type guard interface {
	read(fn func(st *state))
	write(fn func(st *state))
}

type Store struct {
	mu sync.RWMutex
	st *state
}

var _ services.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.st)
}

func (s *Store) write(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

func (s *Store) Users() services.UserRepository {
	return &userRepository{g: s}
}

func (s *Store) Tasks() services.TaskRepository {
	return &taskRepository{g: s}
}

// WithinTx holds the write lock for the whole of fn and restores the
// previous state if fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(tx services.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.st.clone()
	err := fn(&txStore{st: s.st})
	if err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type txStore struct {
	st *state
}

func (t *txStore) read(fn func(st *state))  { fn(t.st) }
func (t *txStore) write(fn func(st *state)) { fn(t.st) }

func (t *txStore) Users() services.UserRepository {
	return &userRepository{g: t}
}

func (t *txStore) Tasks() services.TaskRepository {
	return &taskRepository{g: t}
}

// WithinTx on a transactional view joins the surrounding transaction.
func (t *txStore) WithinTx(ctx context.Context, fn func(tx services.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(t)
}

func (t *txStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.RefreshToken != nil {
		token := *u.RefreshToken
		c.RefreshToken = &token
	}
	return &c
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	c.AssignedTo = cloneString(t.AssignedTo)
	c.ParentID = cloneString(t.ParentID)
	c.StartDate = cloneTime(t.StartDate)
	c.DueDate = cloneTime(t.DueDate)
	c.Creator = nil
	c.Assignee = nil
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
