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

const movieColumns = `id, title, director, year, genre, description, duration, cost, is_recommended,
	rating, photo_url, added_by, version, created_at, updated_at`

type MovieModel struct {
	DB *pgxpool.Pool
}

func (m *MovieModel) get(ctx context.Context, query string, id int64) (*models.Movie, error) {
	rows, err := postgres.Executor(ctx, m.DB).Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	movie, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Movie])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &movie, nil
}

func (m *MovieModel) Get(ctx context.Context, id int64) (*models.Movie, error) {
	return m.get(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1`, id)
}

// GetForUpdate locks the movie row until the surrounding transaction ends.
func (m *MovieModel) GetForUpdate(ctx context.Context, id int64) (*models.Movie, error) {
	return m.get(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1 FOR UPDATE`, id)
}

func (m *MovieModel) Insert(ctx context.Context, movie *models.Movie) error {
	err := postgres.Executor(ctx, m.DB).QueryRow(
		ctx,
		`INSERT INTO movies (title, director, year, genre, description, duration, cost, is_recommended, photo_url, added_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, rating, version, created_at, updated_at`,
		movie.Title,
		movie.Director,
		movie.Year,
		movie.Genre,
		movie.Description,
		movie.Duration,
		movie.Cost,
		movie.IsRecommended,
		movie.PhotoURL,
		movie.AddedBy,
	).Scan(&movie.ID, &movie.Rating, &movie.Version, &movie.CreatedAt, &movie.UpdatedAt)
	if err != nil {
		switch {
		case postgres.IsConflict(err):
			return storage.ErrConflict
		case postgres.IsForeignKeyViolation(err):
			return fmt.Errorf("%w: %s", storage.ErrInvalidReference, postgres.ViolatedConstraint(err))
		}
		return err
	}
	return nil
}

func (m *MovieModel) List(ctx context.Context, query filters.MovieQuery) ([]models.Movie, int, error) {
	sql := fmt.Sprintf(`
	SELECT count(*) OVER() AS total, %s FROM movies
	WHERE ($1::text = '' OR strpos(lower(genre), lower($1)) > 0)
	AND (rating >= $2::double precision)
	AND ($3::text = '' OR strpos(lower(title), lower($3)) > 0)
	ORDER BY %s %s, id ASC
	LIMIT $4 OFFSET $5
	`, movieColumns, query.SortColumn(), query.SortDirection())
	rows, err := postgres.Executor(ctx, m.DB).Query(
		ctx, sql, query.Genre, query.MinRating, query.Title, query.Limit(), query.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	type row struct {
		Total int `db:"total"`
		models.Movie
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, err
	}
	movies := make([]models.Movie, 0, len(outputRows))
	for _, row := range outputRows {
		movies = append(movies, row.Movie)
	}
	totalRecords := 0
	if len(outputRows) > 0 {
		totalRecords = outputRows[0].Total
	}
	return movies, totalRecords, nil
}

func (m *MovieModel) ListByOwner(ctx context.Context, ownerID int64) ([]models.Movie, error) {
	rows, err := postgres.Executor(ctx, m.DB).Query(
		ctx,
		`SELECT `+movieColumns+` FROM movies WHERE added_by = $1 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Movie])
}

func (m *MovieModel) ListRecommended(ctx context.Context, minRating float64, excludeOwnerID int64, limit int) ([]models.Movie, error) {
	rows, err := postgres.Executor(ctx, m.DB).Query(
		ctx,
		`SELECT `+movieColumns+` FROM movies
		WHERE rating >= $1 AND added_by IS DISTINCT FROM $2
		ORDER BY rating DESC, id ASC
		LIMIT $3`,
		minRating, excludeOwnerID, limit,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Movie])
}

// Update writes the editable columns only. The rating column belongs to SetRating.
func (m *MovieModel) Update(ctx context.Context, movie *models.Movie) error {
	err := postgres.Executor(ctx, m.DB).QueryRow(
		ctx,
		`UPDATE movies SET version = version + 1, updated_at = now(),
		title = $1, director = $2, year = $3, genre = $4, description = $5,
		duration = $6, cost = $7, is_recommended = $8, photo_url = $9
		WHERE id = $10 AND version = $11
		RETURNING version, updated_at, rating`,
		movie.Title,
		movie.Director,
		movie.Year,
		movie.Genre,
		movie.Description,
		movie.Duration,
		movie.Cost,
		movie.IsRecommended,
		movie.PhotoURL,
		movie.ID,
		movie.Version,
	).Scan(&movie.Version, &movie.UpdatedAt, &movie.Rating)
	if err != nil {
		switch {
		case postgres.IsConflict(err):
			return storage.ErrConflict
		case errors.Is(err, pgx.ErrNoRows):
			return storage.ErrEditConflict
		}
		return err
	}
	return nil
}

func (m *MovieModel) SetRating(ctx context.Context, id int64, rating float64) error {
	status, err := postgres.Executor(ctx, m.DB).Exec(ctx, "UPDATE movies SET rating = $1 WHERE id = $2", rating, id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *MovieModel) Delete(ctx context.Context, id int64) error {
	status, err := postgres.Executor(ctx, m.DB).Exec(ctx, "DELETE FROM movies WHERE id = $1", id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
