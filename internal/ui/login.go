package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	loginEmail = iota
	loginPassword
	loginUsername
)

type loginForm struct {
	inputs   []textinput.Model
	focus    int
	register bool
}

type loginValues struct {
	email    string
	password string
	username string
	register bool
}

func newLoginForm(opts Options) loginForm {
	email := textinput.New()
	email.Prompt = "Email:    "
	email.Placeholder = "you@example.com"
	email.CharLimit = 255
	email.SetValue(opts.Email)

	password := textinput.New()
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 255
	password.SetValue(opts.Password)

	username := textinput.New()
	username.Prompt = "Username: "
	username.Placeholder = "optional"
	username.CharLimit = 255
	username.SetValue(opts.Username)

	f := loginForm{
		inputs:   []textinput.Model{email, password, username},
		register: opts.Register,
	}
	if opts.Email != "" {
		f.focus = loginPassword
	}
	f.inputs[f.focus].Focus()
	return f
}

// ready reports whether the form holds enough to submit.
func (f loginForm) ready() bool {
	v := f.values()
	return v.email != "" && v.password != ""
}

func (f loginForm) values() loginValues {
	return loginValues{
		email:    strings.TrimSpace(f.inputs[loginEmail].Value()),
		password: f.inputs[loginPassword].Value(),
		username: strings.TrimSpace(f.inputs[loginUsername].Value()),
		register: f.register,
	}
}

// reset clears the password so it does not linger after login.
func (f *loginForm) reset() {
	f.inputs[loginPassword].SetValue("")
	f.setFocus(loginPassword)
}

func (f *loginForm) visible() int {
	if f.register {
		return 3
	}
	return 2
}

func (f *loginForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[f.focus].Focus()
}

func (f *loginForm) moveFocus(delta int) {
	n := f.visible()
	f.setFocus((f.focus + delta + n) % n)
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.login
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, tea.Quit

	case key.Matches(msg, m.keys.ToggleRegister):
		f.register = !f.register
		if f.focus >= f.visible() {
			f.setFocus(loginEmail)
		}

	case key.Matches(msg, m.keys.NextField), msg.Type == tea.KeyDown:
		f.moveFocus(1)

	case key.Matches(msg, m.keys.PrevField), msg.Type == tea.KeyUp:
		f.moveFocus(-1)

	case key.Matches(msg, m.keys.Open):
		if f.ready() {
			m.busy = true
			return m, m.authenticate()
		}
		f.moveFocus(1)

	default:
		// Cursor blink commands are dropped; the cursor stays visible.
		f.inputs[f.focus], _ = f.inputs[f.focus].Update(msg)
	}
	return m, nil
}
