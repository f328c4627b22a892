package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 10 * time.Second

var (
	ErrNotAuthenticated = errors.New("not logged in")
	ErrSessionExpired   = errors.New("session expired, please log in again")
)

// APIError is a non-2xx response of the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client talks to the taskboard REST API on behalf of one user. An
// authenticated request that fails with 401 refreshes the access token
// once and is retried once.
type Client struct {
	logger     zerolog.Logger
	baseURL    string
	httpClient *http.Client
	sessions   SessionStore

	mu      sync.Mutex
	session Session
}

// New creates a client and restores the session kept by sessions, if
// any. sessions may be nil, in which case tokens live in memory only.
func New(logger zerolog.Logger, baseURL string, sessions SessionStore) (*Client, error) {
	c := &Client{
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		sessions:   sessions,
	}

	if sessions != nil {
		session, err := sessions.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if session != nil {
			c.session = *session
			logger.Debug().Msg("restored session")
		}
	}
	return c, nil
}

// Authenticated reports whether the client holds an access token.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.AccessToken != ""
}

// CurrentUser returns the user of the session, or nil when logged out.
func (c *Client) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.User == nil {
		return nil
	}
	user := *c.session.User
	return &user
}

type request struct {
	method string
	path   string
	body   any
	authed bool
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	err := c.send(ctx, req, payload, out)
	if !req.authed || !IsStatus(err, http.StatusUnauthorized) {
		return err
	}

	c.logger.Debug().
		Str("path", req.path).
		Msg("access token rejected, refreshing")
	refreshErr := c.refresh(ctx)
	if refreshErr != nil {
		if IsStatus(refreshErr, http.StatusUnauthorized) || errors.Is(refreshErr, ErrNotAuthenticated) {
			c.dropSession()
			return ErrSessionExpired
		}
		return refreshErr
	}
	return c.send(ctx, req, payload, out)
}

func (c *Client) send(ctx context.Context, req request, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.authed {
		token := c.accessToken()
		if token == "" {
			return ErrNotAuthenticated
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("method", req.method).
			Str("path", req.path).
			Msg("request failed")
		return fmt.Errorf("failed to %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Error string `json:"error"`
	}
	if json.NewDecoder(resp.Body).Decode(&payload) == nil {
		apiErr.Message = payload.Error
	}
	return apiErr
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.AccessToken
}
