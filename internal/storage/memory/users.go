package memory

import (
	"context"
	"strings"
	"time"

	"movietracker/proj/internal/domain/models"
	"movietracker/proj/internal/storage"
)

type UserStore struct {
	s *Storage
}

func (u *UserStore) Insert(ctx context.Context, user *models.User) error {
	return u.s.run(ctx, func(st *state) error {
		for _, existing := range st.users {
			if existing.Username == user.Username || strings.EqualFold(existing.Email, user.Email) {
				return storage.ErrConflict
			}
		}
		st.nextUserID++
		now := u.s.now()
		user.ID = st.nextUserID
		user.CreatedAt = now
		user.UpdatedAt = now
		st.users[user.ID] = *user
		return nil
	})
}

func (u *UserStore) Get(ctx context.Context, id int64) (*models.User, error) {
	return u.find(ctx, func(user models.User) bool { return user.ID == id })
}

func (u *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return u.find(ctx, func(user models.User) bool { return user.Username == username })
}

func (u *UserStore) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return u.s.run(ctx, func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return storage.ErrNotFound
		}
		user.LastLogin = &at
		st.users[id] = user
		return nil
	})
}

func (u *UserStore) find(ctx context.Context, match func(models.User) bool) (*models.User, error) {
	var user models.User
	err := u.s.run(ctx, func(st *state) error {
		for _, candidate := range st.users {
			if match(candidate) {
				user = candidate
				return nil
			}
		}
		return storage.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
