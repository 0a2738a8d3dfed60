package models

import (
	"context"
	"errors"
	"movietracker/proj/internal/domain/models"
	"movietracker/proj/internal/storage"
	"movietracker/proj/internal/storage/postgres"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, email, password_hash, role, is_active, last_login, created_at, updated_at`

type UserModel struct {
	DB *pgxpool.Pool
}

func (m *UserModel) Insert(ctx context.Context, user *models.User) error {
	err := postgres.Executor(ctx, m.DB).QueryRow(
		ctx,
		`INSERT INTO users (username, email, password_hash, role, is_active) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		user.Username, user.Email, user.PasswordHash, user.Role, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if postgres.IsConflict(err) {
			return storage.ErrConflict
		}
		return err
	}
	return nil
}

func (m *UserModel) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	rows, err := postgres.Executor(ctx, m.DB).Query(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	if err != nil {
		return nil, err
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (m *UserModel) Get(ctx context.Context, id int64) (*models.User, error) {
	return m.getBy(ctx, "id", id)
}

func (m *UserModel) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.getBy(ctx, "username", username)
}

func (m *UserModel) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	status, err := postgres.Executor(ctx, m.DB).Exec(ctx, "UPDATE users SET last_login = $1 WHERE id = $2", at, id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
