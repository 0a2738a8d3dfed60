// Package memory is an isolated in-process storage used by tests and local runs.
// Transactions work on a snapshot that replaces the committed state only when
// the transaction function returns nil, so a failed mutation leaves no trace.
package memory

import (
	"context"
	"sync"
	"time"

	"movietracker/proj/internal/domain/models"
)

type state struct {
	movies  map[int64]models.Movie
	reviews map[int64]models.Review
	users   map[int64]models.User

	nextMovieID  int64
	nextReviewID int64
	nextUserID   int64
}

func newState() *state {
	return &state{
		movies:  make(map[int64]models.Movie),
		reviews: make(map[int64]models.Review),
		users:   make(map[int64]models.User),
	}
}

func (s *state) clone() *state {
	c := &state{
		movies:       make(map[int64]models.Movie, len(s.movies)),
		reviews:      make(map[int64]models.Review, len(s.reviews)),
		users:        make(map[int64]models.User, len(s.users)),
		nextMovieID:  s.nextMovieID,
		nextReviewID: s.nextReviewID,
		nextUserID:   s.nextUserID,
	}
	for id, m := range s.movies {
		c.movies[id] = m
	}
	for id, r := range s.reviews {
		c.reviews[id] = r
	}
	for id, u := range s.users {
		c.users[id] = u
	}
	return c
}

type Storage struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time

	Movies  *MovieStore
	Reviews *ReviewStore
	Users   *UserStore
}

func New() *Storage {
	s := &Storage{
		state: newState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	s.Movies = &MovieStore{s}
	s.Reviews = &ReviewStore{s}
	s.Users = &UserStore{s}
	return s
}

type txKey struct{}

// WithinTx serializes all transactions of the store. Nested calls join the outer one.
func (s *Storage) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	working := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, working)); err != nil {
		return err
	}
	s.state = working
	return nil
}

// run executes fn against the transaction snapshot bound to ctx, or against
// the committed state under the store lock.
func (s *Storage) run(ctx context.Context, fn func(st *state) error) error {
	if st, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}
