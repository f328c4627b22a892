package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Session is the token pair of a logged-in user.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user,omitempty"`
}

type SessionStore interface {
	// Load returns nil and no error when nothing is stored.
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// FileSessionStore keeps the session as JSON in a file readable only by
// its owner.
type FileSessionStore struct {
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

func (s *FileSessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session Session
	err = json.Unmarshal(data, &session)
	if err != nil {
		return nil, fmt.Errorf("malformed session file %s: %w", s.path, err)
	}
	if session.AccessToken == "" {
		return nil, nil
	}
	return &session, nil
}

func (s *FileSessionStore) Save(session *Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(s.path), 0o700)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileSessionStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Client) setSession(session Session) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	c.persist(&session)
}

func (c *Client) setAccessToken(token string) {
	c.mu.Lock()
	c.session.AccessToken = token
	session := c.session
	c.mu.Unlock()
	c.persist(&session)
}

func (c *Client) dropSession() {
	c.mu.Lock()
	c.session = Session{}
	c.mu.Unlock()

	if c.sessions == nil {
		return
	}
	err := c.sessions.Clear()
	if err != nil {
		c.logger.Warn().
			Err(err).
			Msg("failed to clear stored session")
	}
}

// persist failures are logged only; the in-memory session stays valid.
func (c *Client) persist(session *Session) {
	if c.sessions == nil {
		return
	}
	err := c.sessions.Save(session)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Msg("failed to store session")
	}
}
