package reviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"movietracker/proj/internal/domain/filters"
	"movietracker/proj/internal/domain/models"
	"movietracker/proj/internal/events"
	"movietracker/proj/internal/storage"
	"unicode/utf8"
)

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type MoviesStorage interface {
	// GetForUpdate must serialize concurrent callers on the same movie
	// until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*models.Movie, error)
	SetRating(ctx context.Context, id int64, rating float64) error
}

type ReviewStorage interface {
	Get(ctx context.Context, id int64) (*models.Review, error)
	Insert(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id int64) error
	RatingsForMovie(ctx context.Context, movieID int64) ([]int, error)
	List(ctx context.Context, query filters.ReviewQuery) ([]models.Review, int, error)
}

type MovieCache interface {
	Delete(ctx context.Context, movieID int64) error
}

type EventPublisher interface {
	Publish(ctx context.Context, name string, payload any)
}

type ReviewService struct {
	log     *slog.Logger
	tx      Transactor
	movies  MoviesStorage
	storage ReviewStorage
	cache   MovieCache
	events  EventPublisher
}

func New(
	log *slog.Logger,
	tx Transactor,
	movies MoviesStorage,
	storage ReviewStorage,
	cache MovieCache,
	publisher EventPublisher,
) *ReviewService {
	return &ReviewService{
		log:     log,
		tx:      tx,
		movies:  movies,
		storage: storage,
		cache:   cache,
		events:  publisher,
	}
}

type CreateReviewParams struct {
	MovieID int64
	UserID  int64
	Rating  int
	Comment string
}

// UpdateReviewParams carries a partial update: nil fields are left unchanged.
type UpdateReviewParams struct {
	Rating  *int
	Comment *string
}

func validateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

func validateComment(comment string) error {
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}

func (s *ReviewService) CreateReview(ctx context.Context, params CreateReviewParams) (*models.Review, error) {
	const op = "reviews.ReviewService.CreateReview"
	log := s.log.With("op", op, "movie_id", params.MovieID, "user_id", params.UserID)
	if err := validateRating(params.Rating); err != nil {
		return nil, err
	}
	if err := validateComment(params.Comment); err != nil {
		return nil, err
	}
	review := &models.Review{
		MovieID: params.MovieID,
		UserID:  params.UserID,
		Rating:  params.Rating,
		Comment: params.Comment,
	}
	var rating float64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockMovie(ctx, params.MovieID); err != nil {
			return err
		}
		if err := s.storage.Insert(ctx, review); err != nil {
			switch {
			case errors.Is(err, storage.ErrConflict):
				return ErrDuplicateReview
			case errors.Is(err, storage.ErrNotFound):
				return ErrMovieNotFound
			}
			return fmt.Errorf("%s: insert review: %w", op, err)
		}
		var err error
		rating, err = s.recompute(ctx, params.MovieID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) || errors.Is(err, ErrDuplicateReview) {
			log.Info(err.Error())
		} else {
			log.Error("failed to create review", "err", err)
		}
		return nil, err
	}
	s.ratingChanged(ctx, params.MovieID, rating)
	s.publish(ctx, events.ReviewCreated, review)
	return review, nil
}

// UpdateReview may only be performed by the review's author; administrators
// are not exempt. The movie rating is recomputed only when a rating is supplied.
func (s *ReviewService) UpdateReview(ctx context.Context, id int64, actor models.Actor, params UpdateReviewParams) (*models.Review, error) {
	const op = "reviews.ReviewService.UpdateReview"
	log := s.log.With("op", op, "id", id, "actor_id", actor.UserID)
	if params.Rating != nil {
		if err := validateRating(*params.Rating); err != nil {
			return nil, err
		}
	}
	if params.Comment != nil {
		if err := validateComment(*params.Comment); err != nil {
			return nil, err
		}
	}
	var (
		review *models.Review
		rating float64
	)
	err := s.withLockedReview(ctx, id, func(ctx context.Context, locked *models.Review) error {
		if locked.UserID != actor.UserID {
			return ErrForbidden
		}
		review = locked
		if params.Rating == nil && params.Comment == nil {
			return nil
		}
		if params.Rating != nil {
			review.Rating = *params.Rating
		}
		if params.Comment != nil {
			review.Comment = *params.Comment
		}
		if err := s.storage.Update(ctx, review); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrReviewNotFound
			}
			return fmt.Errorf("%s: update review: %w", op, err)
		}
		if params.Rating == nil {
			return nil
		}
		var err error
		rating, err = s.recompute(ctx, review.MovieID)
		return err
	})
	if err != nil {
		s.logOutcome(log, err)
		return nil, err
	}
	switch {
	case params.Rating != nil:
		s.ratingChanged(ctx, review.MovieID, rating)
		s.publish(ctx, events.ReviewUpdated, review)
	case params.Comment != nil:
		s.publish(ctx, events.ReviewUpdated, review)
	}
	return review, nil
}

// DeleteReview may be performed by the review's author or by an administrator.
func (s *ReviewService) DeleteReview(ctx context.Context, id int64, actor models.Actor) error {
	const op = "reviews.ReviewService.DeleteReview"
	log := s.log.With("op", op, "id", id, "actor_id", actor.UserID, "actor_is_admin", actor.IsAdmin)
	var (
		review *models.Review
		rating float64
	)
	err := s.withLockedReview(ctx, id, func(ctx context.Context, locked *models.Review) error {
		if locked.UserID != actor.UserID && !actor.IsAdmin {
			return ErrForbidden
		}
		review = locked
		if err := s.storage.Delete(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrReviewNotFound
			}
			return fmt.Errorf("%s: delete review: %w", op, err)
		}
		var err error
		rating, err = s.recompute(ctx, review.MovieID)
		return err
	})
	if err != nil {
		s.logOutcome(log, err)
		return err
	}
	s.ratingChanged(ctx, review.MovieID, rating)
	s.publish(ctx, events.ReviewDeleted, review)
	return nil
}

// RecomputeMovieRating recalculates and stores the rating of a single movie.
func (s *ReviewService) RecomputeMovieRating(ctx context.Context, movieID int64) (float64, error) {
	const op = "reviews.ReviewService.RecomputeMovieRating"
	log := s.log.With("op", op, "movie_id", movieID)
	var rating float64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockMovie(ctx, movieID); err != nil {
			return err
		}
		var err error
		rating, err = s.recompute(ctx, movieID)
		return err
	})
	if err != nil {
		s.logOutcome(log, err)
		return 0, err
	}
	s.ratingChanged(ctx, movieID, rating)
	return rating, nil
}

func (s *ReviewService) Get(ctx context.Context, id int64) (*models.Review, error) {
	review, err := s.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) List(ctx context.Context, query filters.ReviewQuery) ([]models.Review, filters.Metadata, error) {
	const op = "reviews.ReviewService.List"
	query.Filters = query.Filters.WithDefaults()
	reviews, total, err := s.storage.List(ctx, query)
	if err != nil {
		s.log.Error(err.Error(), "op", op)
		return nil, filters.Metadata{}, err
	}
	return reviews, filters.CalculateMetadata(total, query.Page, query.Limit()), nil
}

func (s *ReviewService) ListForUser(ctx context.Context, userID int64, f filters.Filters) ([]models.Review, filters.Metadata, error) {
	return s.List(ctx, filters.ReviewQuery{UserID: userID, Filters: f})
}

// withLockedReview resolves the review's movie, then inside one transaction
// locks that movie and re-reads the review before handing it to fn.
func (s *ReviewService) withLockedReview(ctx context.Context, id int64, fn func(ctx context.Context, review *models.Review) error) error {
	review, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockMovie(ctx, review.MovieID); err != nil {
			if errors.Is(err, ErrMovieNotFound) {
				// the movie went away together with its reviews
				return ErrReviewNotFound
			}
			return err
		}
		locked, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, locked)
	})
}

func (s *ReviewService) lockMovie(ctx context.Context, movieID int64) error {
	if _, err := s.movies.GetForUpdate(ctx, movieID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrMovieNotFound
		}
		return fmt.Errorf("lock movie %d: %w", movieID, err)
	}
	return nil
}

// recompute must run inside the transaction holding the movie lock.
func (s *ReviewService) recompute(ctx context.Context, movieID int64) (float64, error) {
	ratings, err := s.storage.RatingsForMovie(ctx, movieID)
	if err != nil {
		return 0, fmt.Errorf("load ratings of movie %d: %w", movieID, err)
	}
	rating := AggregateRating(ratings)
	if err := s.movies.SetRating(ctx, movieID, rating); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, ErrMovieNotFound
		}
		return 0, fmt.Errorf("store rating of movie %d: %w", movieID, err)
	}
	return rating, nil
}

func (s *ReviewService) ratingChanged(ctx context.Context, movieID int64, rating float64) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, movieID); err != nil {
			s.log.Warn("failed to invalidate cached movie", "movie_id", movieID, "err", err)
		}
	}
	s.publish(ctx, events.MovieRatingRecomputed, map[string]any{"movie_id": movieID, "rating": rating})
}

func (s *ReviewService) publish(ctx context.Context, name string, payload any) {
	if s.events != nil {
		s.events.Publish(ctx, name, payload)
	}
}

func (s *ReviewService) logOutcome(log *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrReviewNotFound), errors.Is(err, ErrMovieNotFound), errors.Is(err, ErrForbidden):
		log.Info(err.Error())
	default:
		log.Error(err.Error())
	}
}
