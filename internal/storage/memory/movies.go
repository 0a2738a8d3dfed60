package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"movietracker/proj/internal/domain/fields"
	"movietracker/proj/internal/domain/filters"
	"movietracker/proj/internal/domain/models"
	"movietracker/proj/internal/storage"
)

type MovieStore struct {
	s *Storage
}

func (m *MovieStore) Get(ctx context.Context, id int64) (*models.Movie, error) {
	var movie models.Movie
	err := m.s.run(ctx, func(st *state) error {
		found, ok := st.movies[id]
		if !ok {
			return storage.ErrNotFound
		}
		movie = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetForUpdate needs no row lock: transactions of the store are already serialized.
func (m *MovieStore) GetForUpdate(ctx context.Context, id int64) (*models.Movie, error) {
	return m.Get(ctx, id)
}

func (m *MovieStore) Insert(ctx context.Context, movie *models.Movie) error {
	return m.s.run(ctx, func(st *state) error {
		for _, existing := range st.movies {
			if existing.Title == movie.Title {
				return storage.ErrConflict
			}
		}
		if movie.AddedBy != nil {
			if _, ok := st.users[*movie.AddedBy]; !ok {
				return fmt.Errorf("%w: user %d", storage.ErrInvalidReference, *movie.AddedBy)
			}
		}
		st.nextMovieID++
		now := m.s.now()
		movie.ID = st.nextMovieID
		movie.Rating = 0
		movie.Version = 1
		movie.CreatedAt = now
		movie.UpdatedAt = now
		st.movies[movie.ID] = *movie
		return nil
	})
}

func (m *MovieStore) List(ctx context.Context, query filters.MovieQuery) ([]models.Movie, int, error) {
	var page []models.Movie
	var total int
	err := m.s.run(ctx, func(st *state) error {
		matched := make([]models.Movie, 0, len(st.movies))
		for _, movie := range st.movies {
			if query.Genre != "" && !containsFold(movie.Genre, query.Genre) {
				continue
			}
			if query.Title != "" && !containsFold(movie.Title, query.Title) {
				continue
			}
			if float64(movie.Rating) < query.MinRating {
				continue
			}
			matched = append(matched, movie)
		}
		column, desc := query.SortColumn(), query.SortDirection() == filters.DescSort
		slices.SortFunc(matched, func(a, b models.Movie) int {
			c := compareMovies(a, b, column)
			if desc {
				c = -c
			}
			if c == 0 {
				c = cmp.Compare(a.ID, b.ID)
			}
			return c
		})
		total = len(matched)
		page = paginate(matched, query.Offset(), query.Limit())
		return nil
	})
	return page, total, err
}

func (m *MovieStore) ListByOwner(ctx context.Context, ownerID int64) ([]models.Movie, error) {
	movies := []models.Movie{}
	err := m.s.run(ctx, func(st *state) error {
		for _, movie := range st.movies {
			if movie.IsOwnedBy(ownerID) {
				movies = append(movies, movie)
			}
		}
		return nil
	})
	slices.SortFunc(movies, func(a, b models.Movie) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return movies, err
}

func (m *MovieStore) ListRecommended(ctx context.Context, minRating float64, excludeOwnerID int64, limit int) ([]models.Movie, error) {
	movies := []models.Movie{}
	err := m.s.run(ctx, func(st *state) error {
		for _, movie := range st.movies {
			if float64(movie.Rating) >= minRating && !movie.IsOwnedBy(excludeOwnerID) {
				movies = append(movies, movie)
			}
		}
		return nil
	})
	slices.SortFunc(movies, func(a, b models.Movie) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return paginate(movies, 0, limit), err
}

func (m *MovieStore) Update(ctx context.Context, movie *models.Movie) error {
	return m.s.run(ctx, func(st *state) error {
		current, ok := st.movies[movie.ID]
		if !ok || current.Version != movie.Version {
			return storage.ErrEditConflict
		}
		for id, existing := range st.movies {
			if id != movie.ID && existing.Title == movie.Title {
				return storage.ErrConflict
			}
		}
		current.Title = movie.Title
		current.Director = movie.Director
		current.Year = movie.Year
		current.Genre = movie.Genre
		current.Description = movie.Description
		current.Duration = movie.Duration
		current.Cost = movie.Cost
		current.IsRecommended = movie.IsRecommended
		current.PhotoURL = movie.PhotoURL
		current.Version++
		current.UpdatedAt = m.s.now()
		st.movies[movie.ID] = current
		*movie = current
		return nil
	})
}

func (m *MovieStore) SetRating(ctx context.Context, id int64, rating float64) error {
	return m.s.run(ctx, func(st *state) error {
		movie, ok := st.movies[id]
		if !ok {
			return storage.ErrNotFound
		}
		movie.Rating = fields.Rating(rating)
		st.movies[id] = movie
		return nil
	})
}

// Delete cascades to the movie's reviews.
func (m *MovieStore) Delete(ctx context.Context, id int64) error {
	return m.s.run(ctx, func(st *state) error {
		if _, ok := st.movies[id]; !ok {
			return storage.ErrNotFound
		}
		delete(st.movies, id)
		for reviewID, review := range st.reviews {
			if review.MovieID == id {
				delete(st.reviews, reviewID)
			}
		}
		return nil
	})
}

func compareMovies(a, b models.Movie, column string) int {
	switch column {
	case "title":
		return cmp.Compare(a.Title, b.Title)
	case "year":
		return cmp.Compare(a.Year, b.Year)
	case "rating":
		return cmp.Compare(a.Rating, b.Rating)
	case "duration":
		return cmp.Compare(a.Duration, b.Duration)
	case "cost":
		return cmp.Compare(a.Cost, b.Cost)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
