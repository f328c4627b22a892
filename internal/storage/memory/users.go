package memory

import (
	"context"
	"slices"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

type userRepository struct {
	g guard
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (user *models.User, err error) {
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	r.g.read(func(st *state) {
		u, ok := st.users[id]
		if !ok {
			err = services.ErrUserNotFound
			return
		}
		user = cloneUser(u)
	})
	return user, err
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (user *models.User, err error) {
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	err = services.ErrUserNotFound
	r.g.read(func(st *state) {
		for _, id := range st.userOrder {
			if u := st.users[id]; u.Email == email {
				user, err = cloneUser(u), nil
				return
			}
		}
	})
	return user, err
}

func (r *userRepository) UserExists(ctx context.Context, id string) (exists bool, err error) {
	if err = ctx.Err(); err != nil {
		return false, err
	}

	r.g.read(func(st *state) {
		_, exists = st.users[id]
	})
	return exists, nil
}

func (r *userRepository) ListUsers(ctx context.Context) (users []*models.User, err error) {
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	r.g.read(func(st *state) {
		users = make([]*models.User, 0, len(st.userOrder))
		for _, id := range st.userOrder {
			users = append(users, cloneUser(st.users[id]))
		}
	})
	return users, nil
}

func (r *userRepository) InsertUser(ctx context.Context, user *models.User) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	r.g.write(func(st *state) {
		for _, u := range st.users {
			if u.Email == user.Email {
				err = services.ErrUserAlreadyExists
				return
			}
		}
		st.users[user.ID] = cloneUser(user)
		st.userOrder = append(st.userOrder, user.ID)
	})
	return err
}

func (r *userRepository) UpdateUser(ctx context.Context, user *models.User) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	r.g.write(func(st *state) {
		current, ok := st.users[user.ID]
		if !ok {
			err = services.ErrUserNotFound
			return
		}
		for _, u := range st.users {
			if u.ID != user.ID && u.Email == user.Email {
				err = services.ErrUserAlreadyExists
				return
			}
		}

		updated := cloneUser(user)
		updated.CreatedAt = current.CreatedAt
		st.users[user.ID] = updated
	})
	return err
}

func (r *userRepository) DeleteUser(ctx context.Context, id string) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	r.g.write(func(st *state) {
		if _, ok := st.users[id]; !ok {
			err = services.ErrUserNotFound
			return
		}
		delete(st.users, id)
		st.userOrder = slices.DeleteFunc(st.userOrder, func(v string) bool { return v == id })
	})
	return err
}
