package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

type userRepository struct {
	q querier
}

const selectUserColumns = `
SELECT id,
       email,
       username,
       password,
       refresh_token,
       created_at,
       updated_at
FROM users
`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.Password,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, services.ErrUserNotFound
	}

	user, err := scanUser(r.q.QueryRow(ctx, selectUserColumns+`WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(r.q.QueryRow(ctx, selectUserColumns+`WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) UserExists(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}

	const selectUserForShareQuery = `
SELECT 1
FROM users
WHERE id = $1
FOR SHARE
`
	var one int
	err := r.q.QueryRow(ctx, selectUserForShareQuery, id).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *userRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := r.q.Query(ctx, selectUserColumns+`ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) InsertUser(ctx context.Context, user *models.User) error {
	const insertUserQuery = `
INSERT INTO users (id,
                   email,
                   username,
                   password,
                   refresh_token,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := r.q.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Email,
		user.Username,
		user.Password,
		user.RefreshToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return services.ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *models.User) error {
	if !validID(user.ID) {
		return services.ErrUserNotFound
	}

	const updateUserQuery = `
UPDATE users
SET email = $1,
    username = $2,
    password = $3,
    refresh_token = $4,
    updated_at = $5
WHERE id = $6
`
	tag, err := r.q.Exec(
		ctx,
		updateUserQuery,
		user.Email,
		user.Username,
		user.Password,
		user.RefreshToken,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return services.ErrUserAlreadyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return services.ErrUserNotFound
	}

	const deleteUserQuery = `
DELETE FROM users
       WHERE id = $1
`
	tag, err := r.q.Exec(ctx, deleteUserQuery, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrUserNotFound
	}
	return nil
}
