// Package ui is the terminal kanban client. It renders the board, the
// task dialogs and the login form, and runs every remote call as a
// bubbletea command so the event loop never blocks on the network.
package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskboard/internal/board"
	"github.com/adanyl0v/taskboard/internal/client"
	"github.com/adanyl0v/taskboard/internal/dialog"
	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/notify"
)

// API is the part of the REST client the TUI needs.
type API interface {
	dialog.TaskAPI
	Login(ctx context.Context, email, password string) (*client.User, error)
	Register(ctx context.Context, email, password, username string) (*client.User, error)
	Logout(ctx context.Context) error
	ListUsers(ctx context.Context) ([]client.User, error)
	Authenticated() bool
	CurrentUser() *client.User
}

type screen int

const (
	screenLogin screen = iota
	screenBoard
)

const defaultNoticeTTL = 3 * time.Second

// Options preset the login form. With both Email and Password set the
// program logs in (or registers) on start.
type Options struct {
	Email    string
	Password string
	Username string
	Register bool
}

type boardLoadedMsg struct {
	tasks []client.Task
	users []client.User
	err   error
}

type authResultMsg struct {
	user *client.User
	err  error
}

type loggedOutMsg struct{}

// dropResultMsg is sent when a board move completes.
type dropResultMsg struct {
	notification *notify.Notification
	err          error
}

// dialogResultMsg is sent when a dialog action that touched the API
// completes. result is set for submit and delete.
type dialogResultMsg struct {
	result       *dialog.Result
	notification *notify.Notification
	err          error
}

type noticeFadeMsg struct {
	seq int
}

// Model is the top-level bubbletea model.
type Model struct {
	ctx    context.Context
	logger zerolog.Logger
	api    API
	board  *board.Board
	dialog *dialog.Controller
	keys   KeyMap
	theme  Theme

	screen screen
	width  int
	height int

	// Board cursor.
	column int
	row    int

	// Cursor over the subtasks of a viewing dialog.
	subtaskRow int

	users []client.User
	login loginForm
	form  taskForm

	// busy is set while a remote call is in flight; user actions are
	// ignored until its result arrives.
	busy bool

	notice    *notify.Notification
	noticeSeq int
	noticeTTL time.Duration
}

func New(ctx context.Context, logger zerolog.Logger, api API, opts Options) Model {
	m := Model{
		ctx:       ctx,
		logger:    logger,
		api:       api,
		board:     board.New(api, board.WithFilter(topLevel)),
		dialog:    dialog.New(api),
		keys:      DefaultKeyMap,
		theme:     DefaultTheme,
		login:     newLoginForm(opts),
		form:      newTaskForm(),
		noticeTTL: defaultNoticeTTL,
	}
	if api.Authenticated() {
		m.screen = screenBoard
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.screen == screenBoard {
		return m.loadBoard()
	}
	if m.login.ready() {
		return m.authenticate()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.form.resize(msg.Width)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if m.screen == screenLogin {
			return m.updateLogin(msg)
		}
		if m.dialog.State() != dialog.Closed {
			return m.updateDialog(msg)
		}
		return m.updateBoard(msg)

	case authResultMsg:
		m.busy = false
		if msg.err != nil {
			return m, m.setNotice(notify.Error("Authentication failed", msg.err))
		}
		m.screen = screenBoard
		m.login.reset()
		return m, tea.Batch(
			m.setNotice(notify.Success("Welcome, "+msg.user.DisplayName())),
			m.loadBoard(),
		)

	case boardLoadedMsg:
		m.busy = false
		if msg.err != nil {
			return m.handleRemoteError(msg.err, notify.Error("Failed to load tasks", msg.err))
		}
		m.board.Replace(msg.tasks)
		m.users = msg.users
		m.clampCursor()
		return m, nil

	case dropResultMsg:
		m.busy = false
		if msg.err != nil {
			return m.handleRemoteError(msg.err, msg.notification)
		}
		m.clampCursor()
		return m, m.setNotice(msg.notification)

	case dialogResultMsg:
		return m.handleDialogResult(msg)

	case loggedOutMsg:
		m.busy = false
		m.toLogin()
		return m, m.setNotice(notify.Info("Logged out"))

	case noticeFadeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = nil
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Left):
		if m.column > 0 {
			m.column--
			m.clampCursor()
		}

	case key.Matches(msg, m.keys.Right):
		if m.column < len(board.Columns)-1 {
			m.column++
			m.clampCursor()
		}

	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}

	case key.Matches(msg, m.keys.Down):
		if m.row < len(m.currentColumn())-1 {
			m.row++
		}

	case key.Matches(msg, m.keys.Move):
		if _, dragging := m.board.Dragging(); dragging {
			m.busy = true
			return m, m.drop(board.Columns[m.column].ID)
		}
		if task, ok := m.selectedTask(); ok {
			m.board.BeginDrag(task.ID)
		}

	case key.Matches(msg, m.keys.Back):
		m.board.CancelDrag()

	case key.Matches(msg, m.keys.Open):
		if task, ok := m.selectedTask(); ok {
			m.busy = true
			m.subtaskRow = 0
			return m, m.openView(task)
		}

	case key.Matches(msg, m.keys.New):
		err := m.dialog.OpenCreate(nil)
		if err != nil {
			return m, m.setNotice(notify.Error("Cannot create task", err))
		}
		m.form.load(m.dialog, m.users)

	case key.Matches(msg, m.keys.Refresh):
		m.busy = true
		return m, m.loadBoard()

	case key.Matches(msg, m.keys.Logout):
		m.busy = true
		return m, m.logout()
	}
	return m, nil
}

func (m Model) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	frame, _ := m.dialog.Current()
	if frame.State == dialog.Viewing {
		return m.updateViewing(msg, frame)
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.busy = true
		return m, m.dialogCall(func(ctx context.Context) dialogResultMsg {
			n, err := m.dialog.Cancel(ctx)
			return dialogResultMsg{notification: n, err: err}
		})

	case key.Matches(msg, m.keys.Submit):
		err := m.dialog.SetDraft(m.form.draft())
		if err != nil {
			return m, m.setNotice(notify.Error("Cannot save", err))
		}
		m.busy = true
		return m, m.dialogCall(func(ctx context.Context) dialogResultMsg {
			res, err := m.dialog.Submit(ctx)
			return dialogResultMsg{result: res, err: err}
		})

	default:
		m.form.update(msg, m.keys, m.users)
	}
	return m, nil
}

func (m Model) updateViewing(msg tea.KeyMsg, frame dialog.Frame) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.busy = true
		return m, m.dialogCall(func(ctx context.Context) dialogResultMsg {
			n, err := m.dialog.Close(ctx)
			return dialogResultMsg{notification: n, err: err}
		})

	case key.Matches(msg, m.keys.Edit):
		err := m.dialog.Edit()
		if err != nil {
			return m, m.setNotice(notify.Error("Cannot edit", err))
		}
		m.form.load(m.dialog, m.users)

	case key.Matches(msg, m.keys.AddSubtask):
		err := m.dialog.OpenCreate(frame.Task)
		if err != nil {
			return m, m.setNotice(notify.Error("Cannot add subtask", err))
		}
		m.form.load(m.dialog, m.users)

	case key.Matches(msg, m.keys.Delete):
		m.busy = true
		return m, m.dialogCall(func(ctx context.Context) dialogResultMsg {
			res, err := m.dialog.Delete(ctx)
			return dialogResultMsg{result: res, err: err}
		})

	case key.Matches(msg, m.keys.Up):
		if m.subtaskRow > 0 {
			m.subtaskRow--
		}

	case key.Matches(msg, m.keys.Down):
		if m.subtaskRow < len(frame.Subtasks)-1 {
			m.subtaskRow++
		}

	case key.Matches(msg, m.keys.Open):
		if m.subtaskRow < len(frame.Subtasks) {
			m.busy = true
			subtask := frame.Subtasks[m.subtaskRow]
			m.subtaskRow = 0
			return m, m.openView(subtask)
		}
	}
	return m, nil
}

func (m Model) handleDialogResult(msg dialogResultMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.subtaskRow = 0

	n := msg.notification
	if msg.result != nil {
		if msg.result.Created != nil {
			m.board.Upsert(*msg.result.Created)
		}
		if msg.result.Updated != nil {
			m.board.Upsert(*msg.result.Updated)
		}
		if msg.result.Deleted != "" {
			m.board.Remove(msg.result.Deleted)
		}
		n = msg.result.Notification
		m.clampCursor()
	}

	if msg.err != nil && !errors.Is(msg.err, dialog.ErrStale) && !errors.Is(msg.err, dialog.ErrTitleRequired) {
		if n == nil {
			n = notify.Error("Dialog action failed", msg.err)
		}
		return m.handleRemoteError(msg.err, n)
	}
	return m, m.setNotice(n)
}

// handleRemoteError returns to the login screen when the session can no
// longer be refreshed; otherwise it shows n.
func (m Model) handleRemoteError(err error, n *notify.Notification) (tea.Model, tea.Cmd) {
	m.logger.Error().
		Err(err).
		Msg("remote call failed")

	if errors.Is(err, client.ErrSessionExpired) || errors.Is(err, client.ErrNotAuthenticated) {
		m.toLogin()
		return m, m.setNotice(notify.Error("Session expired, please log in again", nil))
	}
	return m, m.setNotice(n)
}

func (m *Model) toLogin() {
	m.screen = screenLogin
	m.dialog.Reset()
	m.board.CancelDrag()
	m.board.Replace(nil)
	m.users = nil
	m.column, m.row, m.subtaskRow = 0, 0, 0
}

// setNotice shows n and schedules its removal. A later notice replaces
// an earlier one and cancels its fade.
func (m *Model) setNotice(n *notify.Notification) tea.Cmd {
	if n == nil {
		return nil
	}
	m.noticeSeq++
	m.notice = n
	seq := m.noticeSeq
	return tea.Tick(m.noticeTTL, func(time.Time) tea.Msg {
		return noticeFadeMsg{seq: seq}
	})
}

func (m Model) currentColumn() []client.Task {
	return m.board.Column(board.Columns[m.column].ID)
}

func (m Model) selectedTask() (client.Task, bool) {
	tasks := m.currentColumn()
	if m.row < 0 || m.row >= len(tasks) {
		return client.Task{}, false
	}
	return tasks[m.row], true
}

func (m *Model) clampCursor() {
	n := len(m.currentColumn())
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m Model) loadBoard() tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		tasks, err := api.ListTasks(ctx, "")
		if err != nil {
			return boardLoadedMsg{err: err}
		}
		users, err := api.ListUsers(ctx)
		if err != nil {
			return boardLoadedMsg{err: err}
		}
		return boardLoadedMsg{tasks: tasks, users: users}
	}
}

func (m Model) authenticate() tea.Cmd {
	api, ctx, form := m.api, m.ctx, m.login.values()
	return func() tea.Msg {
		var (
			user *client.User
			err  error
		)
		if form.register {
			user, err = api.Register(ctx, form.email, form.password, form.username)
		} else {
			user, err = api.Login(ctx, form.email, form.password)
		}
		return authResultMsg{user: user, err: err}
	}
}

func (m Model) logout() tea.Cmd {
	api, ctx, logger := m.api, m.ctx, m.logger
	return func() tea.Msg {
		err := api.Logout(ctx)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("logout failed, local session dropped")
		}
		return loggedOutMsg{}
	}
}

func (m Model) drop(target models.TaskStatus) tea.Cmd {
	b, ctx := m.board, m.ctx
	return func() tea.Msg {
		n, err := b.Drop(ctx, target)
		return dropResultMsg{notification: n, err: err}
	}
}

func (m Model) openView(task client.Task) tea.Cmd {
	return m.dialogCall(func(ctx context.Context) dialogResultMsg {
		n, err := m.dialog.OpenView(ctx, task)
		return dialogResultMsg{notification: n, err: err}
	})
}

func (m Model) dialogCall(fn func(ctx context.Context) dialogResultMsg) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return fn(ctx)
	}
}

// topLevel keeps subtasks off the board; they are reached through the
// dialog of their parent.
func topLevel(task client.Task) bool {
	return task.Type != models.TypeSubtask
}
