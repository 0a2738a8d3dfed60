package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"movietracker/proj/internal/domain/filters"
	"movietracker/proj/internal/domain/models"
	"movietracker/proj/internal/storage"
)

type ReviewStore struct {
	s *Storage
}

func (r *ReviewStore) Insert(ctx context.Context, review *models.Review) error {
	return r.s.run(ctx, func(st *state) error {
		if _, ok := st.movies[review.MovieID]; !ok {
			return storage.ErrNotFound
		}
		if _, ok := st.users[review.UserID]; !ok {
			return fmt.Errorf("%w: user %d", storage.ErrInvalidReference, review.UserID)
		}
		for _, existing := range st.reviews {
			if existing.MovieID == review.MovieID && existing.UserID == review.UserID {
				return storage.ErrConflict
			}
		}
		st.nextReviewID++
		now := r.s.now()
		review.ID = st.nextReviewID
		review.CreatedAt = now
		review.UpdatedAt = now
		st.reviews[review.ID] = *review
		return nil
	})
}

func (r *ReviewStore) Get(ctx context.Context, id int64) (*models.Review, error) {
	var review models.Review
	err := r.s.run(ctx, func(st *state) error {
		found, ok := st.reviews[id]
		if !ok {
			return storage.ErrNotFound
		}
		review = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewStore) Update(ctx context.Context, review *models.Review) error {
	return r.s.run(ctx, func(st *state) error {
		current, ok := st.reviews[review.ID]
		if !ok {
			return storage.ErrNotFound
		}
		current.Rating = review.Rating
		current.Comment = review.Comment
		current.UpdatedAt = r.s.now()
		st.reviews[review.ID] = current
		*review = current
		return nil
	})
}

func (r *ReviewStore) Delete(ctx context.Context, id int64) error {
	return r.s.run(ctx, func(st *state) error {
		if _, ok := st.reviews[id]; !ok {
			return storage.ErrNotFound
		}
		delete(st.reviews, id)
		return nil
	})
}

func (r *ReviewStore) RatingsForMovie(ctx context.Context, movieID int64) ([]int, error) {
	ratings := []int{}
	err := r.s.run(ctx, func(st *state) error {
		for _, review := range st.reviews {
			if review.MovieID == movieID {
				ratings = append(ratings, review.Rating)
			}
		}
		return nil
	})
	return ratings, err
}

func (r *ReviewStore) List(ctx context.Context, query filters.ReviewQuery) ([]models.Review, int, error) {
	matched := []models.Review{}
	err := r.s.run(ctx, func(st *state) error {
		for _, review := range st.reviews {
			if query.MovieID != 0 && review.MovieID != query.MovieID {
				continue
			}
			if query.UserID != 0 && review.UserID != query.UserID {
				continue
			}
			matched = append(matched, review)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	slices.SortFunc(matched, func(a, b models.Review) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return paginate(matched, query.Offset(), query.Limit()), len(matched), nil
}
