package models

import (
	"context"
	"errors"
	"fmt"
	"movietracker/proj/internal/domain/filters"
	"movietracker/proj/internal/domain/models"
	"movietracker/proj/internal/storage"
	"movietracker/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reviewColumns = `id, movie_id, user_id, rating, comment, created_at, updated_at`

const reviewsMovieFKey = "reviews_movie_id_fkey"

type ReviewModel struct {
	DB *pgxpool.Pool
}

func (m *ReviewModel) Insert(ctx context.Context, review *models.Review) error {
	err := postgres.Executor(ctx, m.DB).QueryRow(
		ctx,
		`INSERT INTO reviews (movie_id, user_id, rating, comment) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		review.MovieID, review.UserID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		switch {
		case postgres.IsConflict(err):
			return storage.ErrConflict
		case postgres.IsForeignKeyViolation(err):
			constraint := postgres.ViolatedConstraint(err)
			if constraint == reviewsMovieFKey {
				return storage.ErrNotFound
			}
			return fmt.Errorf("%w: %s", storage.ErrInvalidReference, constraint)
		}
		return err
	}
	return nil
}

func (m *ReviewModel) Get(ctx context.Context, id int64) (*models.Review, error) {
	rows, err := postgres.Executor(ctx, m.DB).Query(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	review, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Review])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (m *ReviewModel) Update(ctx context.Context, review *models.Review) error {
	err := postgres.Executor(ctx, m.DB).QueryRow(
		ctx,
		`UPDATE reviews SET rating = $1, comment = $2, updated_at = now() WHERE id = $3 RETURNING updated_at`,
		review.Rating, review.Comment, review.ID,
	).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		return err
	}
	return nil
}

func (m *ReviewModel) Delete(ctx context.Context, id int64) error {
	status, err := postgres.Executor(ctx, m.DB).Exec(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *ReviewModel) RatingsForMovie(ctx context.Context, movieID int64) ([]int, error) {
	rows, err := postgres.Executor(ctx, m.DB).Query(ctx, "SELECT rating FROM reviews WHERE movie_id = $1", movieID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (m *ReviewModel) List(ctx context.Context, query filters.ReviewQuery) ([]models.Review, int, error) {
	rows, err := postgres.Executor(ctx, m.DB).Query(
		ctx,
		`SELECT count(*) OVER() AS total, `+reviewColumns+` FROM reviews
		WHERE ($1::bigint = 0 OR movie_id = $1) AND ($2::bigint = 0 OR user_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		query.MovieID, query.UserID, query.Limit(), query.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	type row struct {
		Total int `db:"total"`
		models.Review
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, err
	}
	reviews := make([]models.Review, 0, len(outputRows))
	for _, row := range outputRows {
		reviews = append(reviews, row.Review)
	}
	totalRecords := 0
	if len(outputRows) > 0 {
		totalRecords = outputRows[0].Total
	}
	return reviews, totalRecords, nil
}
