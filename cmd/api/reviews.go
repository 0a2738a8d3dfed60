package main

import (
	"errors"
	"movietracker/proj/internal/domain/filters"
	"movietracker/proj/internal/services/reviews"
	"net/http"
)

func (app *Application) reviewError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, reviews.ErrMovieNotFound), errors.Is(err, reviews.ErrReviewNotFound):
		app.Http.NotFound(w, r, err.Error())
	case errors.Is(err, reviews.ErrDuplicateReview):
		app.Http.Conflict(w, r, err.Error())
	case errors.Is(err, reviews.ErrForbidden):
		app.Http.Forbidden(w, r, err.Error())
	case errors.Is(err, reviews.ErrInvalidRating):
		app.Http.UnprocessableEntity(w, r, map[string]string{"rating": err.Error()})
	case errors.Is(err, reviews.ErrCommentTooLong):
		app.Http.UnprocessableEntity(w, r, map[string]string{"comment": err.Error()})
	case errors.Is(err, reviews.ErrInvalidArgument):
		app.Http.UnprocessableEntity(w, r, map[string]string{"error": err.Error()})
	default:
		app.Http.ServerError(w, r, err, "")
	}
}

func (app *Application) listReviews(w http.ResponseWriter, r *http.Request) {
	var query filters.ReviewQuery
	if !app.readQuery(w, r, &query) {
		return
	}
	app.respondWithReviews(w, r, query)
}

func (app *Application) listMovieReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	var query filters.ReviewQuery
	if !app.readQuery(w, r, &query) {
		return
	}
	if _, err := app.Services.Movies.Get(r.Context(), id); err != nil {
		app.movieError(w, r, err)
		return
	}
	query.MovieID = id
	app.respondWithReviews(w, r, query)
}

func (app *Application) listUserReviews(w http.ResponseWriter, r *http.Request) {
	var f filters.Filters
	if !app.readQuery(w, r, &f) {
		return
	}
	reviews, metadata, err := app.Services.Reviews.ListForUser(r.Context(), app.currentUser(r).ID, f)
	if err != nil {
		app.reviewError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"reviews": reviews, "metadata": metadata}, "")
}

func (app *Application) respondWithReviews(w http.ResponseWriter, r *http.Request, query filters.ReviewQuery) {
	reviews, metadata, err := app.Services.Reviews.List(r.Context(), query)
	if err != nil {
		app.reviewError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"reviews": reviews, "metadata": metadata}, "")
}

func (app *Application) createReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MovieID int64  `json:"movie_id" validate:"required,gte=1"`
		Rating  *int   `json:"rating" validate:"required"`
		Comment string `json:"comment"`
	}
	if !app.readBody(w, r, &req) {
		return
	}
	review, err := app.Services.Reviews.CreateReview(r.Context(), reviews.CreateReviewParams{
		MovieID: req.MovieID,
		UserID:  app.currentUser(r).ID,
		Rating:  *req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		app.reviewError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"review": review}, "Review created")
}

func (app *Application) updateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Rating  *int    `json:"rating"`
		Comment *string `json:"comment"`
	}
	if !app.readBody(w, r, &req) {
		return
	}
	review, err := app.Services.Reviews.UpdateReview(r.Context(), id, app.currentUser(r).Actor(), reviews.UpdateReviewParams{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		app.reviewError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"review": review}, "Review updated")
}

func (app *Application) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	if err := app.Services.Reviews.DeleteReview(r.Context(), id, app.currentUser(r).Actor()); err != nil {
		app.reviewError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}
