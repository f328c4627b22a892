package client

import (
	"context"
	"net/http"
)

type authResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (c *Client) Register(ctx context.Context, email, password, username string) (*User, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username,omitempty"`
	}{email, password, username}

	var resp authResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: body}, &resp)
	if err != nil {
		return nil, err
	}
	return c.startSession(resp), nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var resp authResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: body}, &resp)
	if err != nil {
		return nil, err
	}
	return c.startSession(resp), nil
}

func (c *Client) startSession(resp authResponse) *User {
	user := resp.User
	c.setSession(Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         &user,
	})
	c.logger.Info().
		Str("user_id", user.ID).
		Msg("logged in")
	return &user
}

// Logout revokes the refresh token on the server and forgets the local
// session. The local session is dropped even if the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.dropSession()

	if !c.Authenticated() {
		return nil
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/logout", authed: true}, nil)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Msg("failed to logout on server")
		return err
	}
	return nil
}

func (c *Client) refresh(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.session.RefreshToken
	c.mu.Unlock()
	if refreshToken == "" {
		return ErrNotAuthenticated
	}

	body := struct {
		RefreshToken string `json:"refreshToken"`
	}{refreshToken}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/refresh", body: body}, &resp)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Msg("failed to refresh access token")
		return err
	}

	c.setAccessToken(resp.AccessToken)
	return nil
}
