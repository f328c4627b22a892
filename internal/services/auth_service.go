package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskboard/internal/models"
)

type authServiceImpl struct {
	logger zerolog.Logger
	store  Store
	hasher *PasswordHasher
	tokens *TokenManager
}

func NewAuthService(
	logger zerolog.Logger,
	store Store,
	hasher *PasswordHasher,
	tokens *TokenManager,
) AuthService {
	return &authServiceImpl{
		logger: logger,
		store:  store,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *authServiceImpl) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	user, err := newUser(s.hasher, params)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("email", params.Email).
			Msg("invalid user")
		return nil, err
	}

	var result *AuthResult
	err = s.store.WithinTx(ctx, func(tx Store) error {
		err := tx.Users().InsertUser(ctx, user)
		if err != nil {
			return err
		}
		s.logger.Debug().
			Str("user_id", user.ID).
			Str("email", user.Email).
			Msg("inserted user")

		result, err = s.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("email", user.Email).
			Msg("failed to register user")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("registered user")
	return result, nil
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	var result *AuthResult
	err := s.store.WithinTx(ctx, func(tx Store) error {
		user, err := tx.Users().GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return ErrUserPasswordMismatch
			}
			return err
		}

		match, needsRehash, err := s.hasher.Verify(params.Password, user.Password)
		if err != nil {
			return err
		} else if !match {
			return ErrUserPasswordMismatch
		}

		if needsRehash {
			user.Password, err = s.hasher.Hash(params.Password)
			if err != nil {
				return err
			}
			s.logger.Debug().
				Str("user_id", user.ID).
				Msg("rehashed legacy password")
		}

		result, err = s.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("email", email).
			Msg("failed to log in")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", result.User.ID).
		Msg("logged in")
	return result, nil
}

// issueTokens signs a new token pair and stores the refresh token on the
// user, replacing any previous one.
func (s *authServiceImpl) issueTokens(ctx context.Context, tx Store, user *models.User) (*AuthResult, error) {
	accessToken, accessTokenExpiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshTokenExpiresAt, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	user.RefreshToken = &refreshToken
	user.UpdatedAt = time.Now().UTC()
	err = tx.Users().UpdateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:                  user,
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessTokenExpiresAt,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: refreshTokenExpiresAt,
	}, nil
}

func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, validationError("refresh token is required")
	}

	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to parse refresh token")
		return nil, err
	}

	user, err := s.store.Users().GetUserByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Error().
				Str("user_id", claims.UserID()).
				Msg("refresh token subject not found")
			return nil, ErrInvalidToken
		}

		s.logger.Error().
			Err(err).
			Str("user_id", claims.UserID()).
			Msg("failed to get user")
		return nil, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		s.logger.Error().
			Str("user_id", user.ID).
			Msg("refresh token has been revoked")
		return nil, ErrRefreshTokenRevoked
	}

	accessToken, accessTokenExpiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate access token")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("refreshed access token")
	return &RefreshResult{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: accessTokenExpiresAt,
	}, nil
}

func (s *authServiceImpl) Logout(ctx context.Context, userID string) error {
	err := s.store.WithinTx(ctx, func(tx Store) error {
		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		user.RefreshToken = nil
		user.UpdatedAt = time.Now().UTC()
		return tx.Users().UpdateUser(ctx, user)
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to revoke refresh token")
		return err
	}

	s.logger.Info().
		Str("user_id", userID).
		Msg("logged out")
	return nil
}

func (s *authServiceImpl) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Msg("rejected access token")
		return nil, err
	}

	user, err := s.store.Users().GetUserByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Debug().
				Str("user_id", claims.UserID()).
				Msg("access token subject not found")
			return nil, ErrInvalidToken
		}

		s.logger.Error().
			Err(err).
			Str("user_id", claims.UserID()).
			Msg("failed to get user")
		return nil, err
	}
	return user, nil
}
