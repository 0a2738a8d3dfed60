package movies

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"movietracker/proj/internal/domain/fields"
	"movietracker/proj/internal/domain/filters"
	"movietracker/proj/internal/domain/models"
	"movietracker/proj/internal/events"
	"movietracker/proj/internal/storage"
)

const (
	RecommendationMinRating     = 7.0
	DefaultRecommendationsLimit = 10
	MaxRecommendationsLimit     = 50
)

type MoviesStorage interface {
	Get(ctx context.Context, id int64) (*models.Movie, error)
	Insert(ctx context.Context, movie *models.Movie) error
	List(ctx context.Context, query filters.MovieQuery) ([]models.Movie, int, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Movie, error)
	ListRecommended(ctx context.Context, minRating float64, excludeOwnerID int64, limit int) ([]models.Movie, error)
	Update(ctx context.Context, movie *models.Movie) error
	Delete(ctx context.Context, id int64) error
}

type PhotoStorage interface {
	Save(ctx context.Context, filename string, src io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
}

// MovieCache invalidation bumps a per-movie generation; Set is a no-op when
// the generation changed since it was read.
type MovieCache interface {
	Get(ctx context.Context, id int64) (*models.Movie, bool)
	Generation(ctx context.Context, id int64) (int64, error)
	Set(ctx context.Context, movie *models.Movie, gen int64) error
	Delete(ctx context.Context, id int64) error
}

type TaskExecutor interface {
	Add(task func())
}

type EventPublisher interface {
	Publish(ctx context.Context, name string, payload any)
}

type MovieService struct {
	log          *slog.Logger
	storage      MoviesStorage
	photos       PhotoStorage
	cache        MovieCache
	taskExecutor TaskExecutor
	events       EventPublisher
}

func New(
	log *slog.Logger,
	storage MoviesStorage,
	photos PhotoStorage,
	cache MovieCache,
	taskExecutor TaskExecutor,
	publisher EventPublisher,
) *MovieService {
	return &MovieService{
		log:          log,
		storage:      storage,
		photos:       photos,
		cache:        cache,
		taskExecutor: taskExecutor,
		events:       publisher,
	}
}

// Photo is an uploaded image; only the extension of Filename is kept.
type Photo struct {
	Filename string
	Content  io.Reader
}

type CreateParams struct {
	Title         string
	Director      string
	Year          int32
	Genre         string
	Description   string
	Duration      fields.MovieRuntime
	Cost          float64
	IsRecommended bool
}

type UpdateParams struct {
	Title         *string
	Director      *string
	Year          *int32
	Genre         *string
	Description   *string
	Duration      *fields.MovieRuntime
	Cost          *float64
	IsRecommended *bool
}

func (s *MovieService) Get(ctx context.Context, id int64) (*models.Movie, error) {
	const op = "movies.MovieService.Get"
	log := s.log.With("op", op, "id", id)
	cacheable := false
	var gen int64
	if s.cache != nil {
		if movie, ok := s.cache.Get(ctx, id); ok {
			return movie, nil
		}
		var err error
		if gen, err = s.cache.Generation(ctx, id); err != nil {
			log.Warn("failed to read cache generation", "err", err)
		} else {
			cacheable = true
		}
	}
	movie, err := s.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("movie not found")
			return nil, ErrMovieNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	if cacheable {
		if err := s.cache.Set(ctx, movie, gen); err != nil {
			log.Warn("failed to cache movie", "err", err)
		}
	}
	return movie, nil
}

func (s *MovieService) Create(ctx context.Context, params CreateParams, ownerID int64, photo *Photo) (*models.Movie, error) {
	const op = "movies.MovieService.Create"
	log := s.log.With("op", op, "title", params.Title, "owner_id", ownerID)
	movie := &models.Movie{
		Title:         params.Title,
		Director:      params.Director,
		Year:          params.Year,
		Genre:         params.Genre,
		Description:   params.Description,
		Duration:      params.Duration,
		Cost:          params.Cost,
		IsRecommended: params.IsRecommended,
		PhotoURL:      models.DefaultMoviePhoto,
	}
	if ownerID != 0 {
		movie.AddedBy = &ownerID
	}
	if photo != nil {
		path, err := s.photos.Save(ctx, photo.Filename, photo.Content)
		if err != nil {
			log.Error("failed to save photo", "err", err)
			return nil, err
		}
		movie.PhotoURL = path
	}
	if err := s.storage.Insert(ctx, movie); err != nil {
		if photo != nil {
			s.removePhoto(movie.PhotoURL)
		}
		if errors.Is(err, storage.ErrConflict) {
			log.Info("movie already exists")
			return nil, ErrMovieAlreadyExists
		}
		log.Error(err.Error())
		return nil, err
	}
	s.publish(ctx, events.MovieCreated, movie)
	return movie, nil
}

func (s *MovieService) List(ctx context.Context, query filters.MovieQuery) ([]models.Movie, filters.Metadata, error) {
	const op = "movies.MovieService.List"
	log := s.log.With("op", op)
	query.Filters = query.Filters.WithDefaults()
	query.SortSafelist = filters.MovieSortSafelist
	movies, total, err := s.storage.List(ctx, query)
	if err != nil {
		log.Error(err.Error())
		return nil, filters.Metadata{}, err
	}
	return movies, filters.CalculateMetadata(total, query.Page, query.Limit()), nil
}

func (s *MovieService) ListOwned(ctx context.Context, ownerID int64) ([]models.Movie, error) {
	const op = "movies.MovieService.ListOwned"
	movies, err := s.storage.ListByOwner(ctx, ownerID)
	if err != nil {
		s.log.Error(err.Error(), "op", op, "owner_id", ownerID)
		return nil, err
	}
	return movies, nil
}

// Recommendations lists well rated movies the user did not add themselves, best first.
func (s *MovieService) Recommendations(ctx context.Context, userID int64, limit int) ([]models.Movie, error) {
	const op = "movies.MovieService.Recommendations"
	if limit == 0 {
		limit = DefaultRecommendationsLimit
	}
	if limit < 1 || limit > MaxRecommendationsLimit {
		return nil, ErrInvalidLimit
	}
	movies, err := s.storage.ListRecommended(ctx, RecommendationMinRating, userID, limit)
	if err != nil {
		s.log.Error(err.Error(), "op", op, "user_id", userID)
		return nil, err
	}
	return movies, nil
}

// Update applies a partial update. Admins may edit any movie, users only their own.
func (s *MovieService) Update(ctx context.Context, id int64, actor models.Actor, params UpdateParams, photo *Photo) (*models.Movie, error) {
	const op = "movies.MovieService.Update"
	log := s.log.With("op", op, "id", id, "actor_id", actor.UserID)
	movie, err := s.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("movie not found")
			return nil, ErrMovieNotFound
		}
		log.Error("Error getting movie: " + err.Error())
		return nil, err
	}
	if !actor.IsAdmin && !movie.IsOwnedBy(actor.UserID) {
		log.Info("forbidden")
		return nil, ErrForbidden
	}
	if params.Title != nil {
		movie.Title = *params.Title
	}
	if params.Director != nil {
		movie.Director = *params.Director
	}
	if params.Year != nil {
		movie.Year = *params.Year
	}
	if params.Genre != nil {
		movie.Genre = *params.Genre
	}
	if params.Description != nil {
		movie.Description = *params.Description
	}
	if params.Duration != nil {
		movie.Duration = *params.Duration
	}
	if params.Cost != nil {
		movie.Cost = *params.Cost
	}
	if params.IsRecommended != nil {
		movie.IsRecommended = *params.IsRecommended
	}
	previous := *movie
	if photo != nil {
		path, err := s.photos.Save(ctx, photo.Filename, photo.Content)
		if err != nil {
			log.Error("failed to save photo", "err", err)
			return nil, err
		}
		movie.PhotoURL = path
	}
	if err := s.storage.Update(ctx, movie); err != nil {
		if photo != nil {
			s.removePhoto(movie.PhotoURL)
		}
		switch {
		case errors.Is(err, storage.ErrConflict):
			log.Info("movie already exists")
			return nil, ErrMovieAlreadyExists
		case errors.Is(err, storage.ErrEditConflict):
			log.Info("edit conflict")
			return nil, ErrEditConflict
		}
		log.Error("Error updating movie: " + err.Error())
		return nil, err
	}
	if photo != nil && previous.HasCustomPhoto() {
		s.removePhoto(previous.PhotoURL)
	}
	s.invalidate(ctx, id)
	s.publish(ctx, events.MovieUpdated, movie)
	return movie, nil
}

// Delete removes the movie together with its reviews and requests removal
// of its photo unless it is the shared placeholder.
func (s *MovieService) Delete(ctx context.Context, id int64, actor models.Actor) error {
	const op = "movies.MovieService.Delete"
	log := s.log.With("op", op, "id", id, "actor_id", actor.UserID, "actor_is_admin", actor.IsAdmin)
	movie, err := s.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("movie not found")
			return ErrMovieNotFound
		}
		log.Error(err.Error())
		return err
	}
	if !actor.IsAdmin && !movie.IsOwnedBy(actor.UserID) {
		log.Info("forbidden")
		return ErrForbidden
	}
	if err := s.storage.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrMovieNotFound
		}
		log.Error(err.Error())
		return err
	}
	if movie.HasCustomPhoto() {
		s.removePhoto(movie.PhotoURL)
	}
	s.invalidate(ctx, id)
	s.publish(ctx, events.MovieDeleted, map[string]any{"movie_id": id})
	return nil
}

func (s *MovieService) removePhoto(path string) {
	remove := func() {
		if err := s.photos.Remove(context.Background(), path); err != nil {
			s.log.Warn("failed to remove photo", "path", path, "err", err)
		}
	}
	if s.taskExecutor == nil {
		remove()
		return
	}
	s.taskExecutor.Add(remove)
}

func (s *MovieService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn("failed to invalidate cached movie", "id", id, "err", err)
	}
}

func (s *MovieService) publish(ctx context.Context, name string, payload any) {
	if s.events != nil {
		s.events.Publish(ctx, name, payload)
	}
}
