package reviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"movietracker/proj/internal/domain/filters"
	"movietracker/proj/internal/domain/models"
	"movietracker/proj/internal/events"
	"movietracker/proj/internal/storage"
	"movietracker/proj/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	ctx     context.Context
	store   *memory.Storage
	service *ReviewService
	events  *recordingPublisher
	cache   *recordingCache
	movie   *models.Movie
	alice   *models.User
	bob     *models.User
	admin   *models.User
}

type recordingPublisher struct {
	mu    sync.Mutex
	names []string
}

func (p *recordingPublisher) Publish(_ context.Context, name string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, name)
}

type recordingCache struct {
	mu      sync.Mutex
	deleted []int64
}

func (c *recordingCache) Delete(_ context.Context, movieID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, movieID)
	return nil
}

// failingMovies fails SetRating after the review write has already happened.
type failingMovies struct {
	MoviesStorage
	err error
}

func (f *failingMovies) SetRating(context.Context, int64, float64) error {
	return f.err
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		ctx:    context.Background(),
		store:  memory.New(),
		events: &recordingPublisher{},
		cache:  &recordingCache{},
	}
	env.service = New(slog.Default(), env.store, env.store.Movies, env.store.Reviews, env.cache, env.events)
	env.alice = env.mustCreateUser(t, "alice", models.RoleUser)
	env.bob = env.mustCreateUser(t, "bob", models.RoleUser)
	env.admin = env.mustCreateUser(t, "admin", models.RoleAdmin)
	env.movie = &models.Movie{Title: "Interstellar", Director: "Christopher Nolan", PhotoURL: models.DefaultMoviePhoto}
	require.NoError(t, env.store.Movies.Insert(env.ctx, env.movie))
	return env
}

func (env *testEnv) mustCreateUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Role: role, IsActive: true}
	require.NoError(t, env.store.Users.Insert(env.ctx, user))
	return user
}

func (env *testEnv) movieRating(t *testing.T) float64 {
	t.Helper()
	movie, err := env.store.Movies.Get(env.ctx, env.movie.ID)
	require.NoError(t, err)
	return float64(movie.Rating)
}

func (env *testEnv) mustCreateReview(t *testing.T, user *models.User, rating int) *models.Review {
	t.Helper()
	review, err := env.service.CreateReview(env.ctx, CreateReviewParams{
		MovieID: env.movie.ID,
		UserID:  user.ID,
		Rating:  rating,
		Comment: fmt.Sprintf("%s rates it %d", user.Username, rating),
	})
	require.NoError(t, err)
	return review
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestRatingLifecycle(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, 0.0, env.movieRating(t))

	reviewA := env.mustCreateReview(t, env.alice, 4)
	assert.Equal(t, 8.0, env.movieRating(t))

	reviewB := env.mustCreateReview(t, env.bob, 2)
	assert.Equal(t, 6.0, env.movieRating(t))

	_, err := env.service.UpdateReview(env.ctx, reviewA.ID, env.alice.Actor(), UpdateReviewParams{Rating: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 7.0, env.movieRating(t))

	// a second review by the same user is rejected and changes nothing
	_, err = env.service.CreateReview(env.ctx, CreateReviewParams{MovieID: env.movie.ID, UserID: env.alice.ID, Rating: 1})
	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.Equal(t, 7.0, env.movieRating(t))
	first, err := env.service.Get(env.ctx, reviewA.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Rating)

	require.NoError(t, env.service.DeleteReview(env.ctx, reviewB.ID, env.bob.Actor()))
	assert.Equal(t, 10.0, env.movieRating(t))

	require.NoError(t, env.service.DeleteReview(env.ctx, reviewA.ID, env.alice.Actor()))
	assert.Equal(t, 0.0, env.movieRating(t))
}

func TestCreateReviewValidation(t *testing.T) {
	env := newTestEnv(t)
	testCases := []struct {
		name    string
		params  CreateReviewParams
		wantErr error
	}{
		{"rating too low", CreateReviewParams{MovieID: env.movie.ID, UserID: env.alice.ID, Rating: 0}, ErrInvalidRating},
		{"rating too high", CreateReviewParams{MovieID: env.movie.ID, UserID: env.alice.ID, Rating: 6}, ErrInvalidRating},
		{"missing movie", CreateReviewParams{MovieID: env.movie.ID + 42, UserID: env.alice.ID, Rating: 3}, ErrMovieNotFound},
		{
			"comment too long",
			CreateReviewParams{MovieID: env.movie.ID, UserID: env.alice.ID, Rating: 3, Comment: string(make([]rune, MaxCommentLength+1))},
			ErrCommentTooLong,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.service.CreateReview(env.ctx, tc.params)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
	assert.ErrorIs(t, ErrInvalidRating, ErrInvalidArgument)
	assert.Equal(t, 0.0, env.movieRating(t))
}

func TestCreateReviewUnknownAuthor(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.service.CreateReview(env.ctx, CreateReviewParams{MovieID: env.movie.ID, UserID: env.admin.ID + 100, Rating: 3})
	assert.ErrorIs(t, err, storage.ErrInvalidReference)
	assert.NotErrorIs(t, err, ErrMovieNotFound)
	assert.Equal(t, 0.0, env.movieRating(t))
}

func TestUpdateReviewOwnership(t *testing.T) {
	env := newTestEnv(t)
	review := env.mustCreateReview(t, env.alice, 3)

	for _, actor := range []*models.User{env.bob, env.admin} {
		t.Run(actor.Username, func(t *testing.T) {
			_, err := env.service.UpdateReview(env.ctx, review.ID, actor.Actor(), UpdateReviewParams{Rating: intPtr(1)})
			assert.ErrorIs(t, err, ErrForbidden)
			assert.Equal(t, 6.0, env.movieRating(t))
		})
	}

	_, err := env.service.UpdateReview(env.ctx, review.ID+100, env.alice.Actor(), UpdateReviewParams{Rating: intPtr(1)})
	assert.ErrorIs(t, err, ErrReviewNotFound)

	_, err = env.service.UpdateReview(env.ctx, review.ID, env.alice.Actor(), UpdateReviewParams{Rating: intPtr(9)})
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestUpdateReviewPartial(t *testing.T) {
	env := newTestEnv(t)
	review := env.mustCreateReview(t, env.alice, 3)
	env.cache.deleted = nil

	updated, err := env.service.UpdateReview(env.ctx, review.ID, env.alice.Actor(), UpdateReviewParams{Comment: strPtr("changed my mind")})
	require.NoError(t, err)
	assert.Equal(t, "changed my mind", updated.Comment)
	assert.Equal(t, 3, updated.Rating)
	assert.Empty(t, env.cache.deleted, "comment-only update must not trigger a recompute")
	assert.Equal(t, 6.0, env.movieRating(t))

	updated, err = env.service.UpdateReview(env.ctx, review.ID, env.alice.Actor(), UpdateReviewParams{Rating: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, "changed my mind", updated.Comment)
	assert.Equal(t, 2.0, env.movieRating(t))
	assert.Equal(t, []int64{env.movie.ID}, env.cache.deleted)
}

func TestDeleteReviewPermissions(t *testing.T) {
	env := newTestEnv(t)
	review := env.mustCreateReview(t, env.alice, 5)

	err := env.service.DeleteReview(env.ctx, review.ID, env.bob.Actor())
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 10.0, env.movieRating(t))

	require.NoError(t, env.service.DeleteReview(env.ctx, review.ID, env.admin.Actor()))
	assert.Equal(t, 0.0, env.movieRating(t))

	err = env.service.DeleteReview(env.ctx, review.ID, env.alice.Actor())
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestMutationRollsBackWhenRecomputeFails(t *testing.T) {
	env := newTestEnv(t)
	errDown := errors.New("database is down")
	broken := New(slog.Default(), env.store, &failingMovies{MoviesStorage: env.store.Movies, err: errDown}, env.store.Reviews, nil, nil)

	_, err := broken.CreateReview(env.ctx, CreateReviewParams{MovieID: env.movie.ID, UserID: env.alice.ID, Rating: 4})
	assert.ErrorIs(t, err, errDown)
	reviews, _, err := env.service.List(env.ctx, filters.ReviewQuery{MovieID: env.movie.ID})
	require.NoError(t, err)
	assert.Empty(t, reviews)

	review := env.mustCreateReview(t, env.alice, 4)
	err = broken.DeleteReview(env.ctx, review.ID, env.alice.Actor())
	assert.ErrorIs(t, err, errDown)
	_, err = env.service.Get(env.ctx, review.ID)
	assert.NoError(t, err)
	assert.Equal(t, 8.0, env.movieRating(t))
}

func TestRecomputeMovieRating(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreateReview(t, env.alice, 1)
	env.mustCreateReview(t, env.bob, 2)
	require.NoError(t, env.store.Movies.SetRating(env.ctx, env.movie.ID, 0))

	rating, err := env.service.RecomputeMovieRating(env.ctx, env.movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, rating)
	assert.Equal(t, 3.0, env.movieRating(t))

	_, err = env.service.RecomputeMovieRating(env.ctx, env.movie.ID+1)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestConcurrentReviewsConverge(t *testing.T) {
	env := newTestEnv(t)
	const reviewers = 20
	users := make([]*models.User, reviewers)
	for i := range users {
		users[i] = env.mustCreateUser(t, fmt.Sprintf("user%d", i), models.RoleUser)
	}
	var wg sync.WaitGroup
	errs := make(chan error, reviewers)
	for i, user := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.service.CreateReview(env.ctx, CreateReviewParams{MovieID: env.movie.ID, UserID: user.ID, Rating: i%5 + 1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	ratings, err := env.store.Reviews.RatingsForMovie(env.ctx, env.movie.ID)
	require.NoError(t, err)
	assert.Len(t, ratings, reviewers)
	assert.Equal(t, AggregateRating(ratings), env.movieRating(t))
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	env := newTestEnv(t)
	review := env.mustCreateReview(t, env.alice, 4)
	_, err := env.service.CreateReview(env.ctx, CreateReviewParams{MovieID: env.movie.ID, UserID: env.alice.ID, Rating: 4})
	require.ErrorIs(t, err, ErrDuplicateReview)
	require.NoError(t, env.service.DeleteReview(env.ctx, review.ID, env.alice.Actor()))

	assert.Equal(t, []string{
		events.MovieRatingRecomputed,
		events.ReviewCreated,
		events.MovieRatingRecomputed,
		events.ReviewDeleted,
	}, env.events.names)
}

func TestListReviews(t *testing.T) {
	env := newTestEnv(t)
	env.mustCreateReview(t, env.alice, 4)
	env.mustCreateReview(t, env.bob, 2)

	reviews, metadata, err := env.service.List(env.ctx, filters.ReviewQuery{MovieID: env.movie.ID})
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.Equal(t, 2, metadata.TotalRecords)

	reviews, _, err = env.service.ListForUser(env.ctx, env.bob.ID, filters.Filters{})
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, env.bob.ID, reviews[0].UserID)
}
