package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskboard/internal/models"
)

type userServiceImpl struct {
	logger zerolog.Logger
	store  Store
	hasher *PasswordHasher
}

func NewUserService(
	logger zerolog.Logger,
	store Store,
	hasher *PasswordHasher,
) UserService {
	return &userServiceImpl{
		logger: logger,
		store:  store,
		hasher: hasher,
	}
}

func (s *userServiceImpl) CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error) {
	user, err := newUser(s.hasher, params)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("email", params.Email).
			Msg("invalid user")
		return nil, err
	}

	err = s.store.Users().InsertUser(ctx, user)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("email", user.Email).
			Msg("failed to insert user")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("created user")
	return user, nil
}

func (s *userServiceImpl) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.Users().ListUsers(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list users")
		return nil, err
	}
	return users, nil
}

func (s *userServiceImpl) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.Users().GetUserByID(ctx, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to get user")
		return nil, err
	}
	return user, nil
}

func (s *userServiceImpl) UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*models.User, error) {
	if params.Username == nil || strings.TrimSpace(*params.Username) == "" {
		return nil, validationError("data not sent")
	}

	var updated *models.User
	err := s.store.WithinTx(ctx, func(tx Store) error {
		user, err := tx.Users().GetUserByID(ctx, id)
		if err != nil {
			return err
		}

		user.Username = strings.TrimSpace(*params.Username)
		user.UpdatedAt = time.Now().UTC()
		err = tx.Users().UpdateUser(ctx, user)
		if err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to update user")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", id).
		Msg("updated user")
	return updated, nil
}

func (s *userServiceImpl) RemoveUser(ctx context.Context, id string) (*models.User, error) {
	var removed *models.User
	err := s.store.WithinTx(ctx, func(tx Store) error {
		user, err := tx.Users().GetUserByID(ctx, id)
		if err != nil {
			return err
		}

		err = tx.Users().DeleteUser(ctx, id)
		if err != nil {
			return err
		}
		removed = user
		return nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to delete user")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", id).
		Msg("deleted user")
	return removed, nil
}

func newUser(hasher *PasswordHasher, params CreateUserParams) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, validationError("email must be a valid address")
	}
	if params.Password == "" {
		return nil, validationError("password must not be empty")
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	passwordHash, err := hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &models.User{
		ID:        userUUID.String(),
		Email:     email,
		Username:  strings.TrimSpace(params.Username),
		Password:  passwordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
