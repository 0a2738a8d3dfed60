package main

import (
	"errors"
	"movietracker/proj/internal/domain/fields"
	"movietracker/proj/internal/domain/filters"
	"movietracker/proj/internal/services/movies"
	"movietracker/proj/internal/storage/photos"
	"net/http"
)

type createMovieRequest struct {
	Title         string              `json:"title" schema:"title" validate:"required,max=255"`
	Director      string              `json:"director" schema:"director" validate:"required,max=255"`
	Year          int32               `json:"year" schema:"year" validate:"omitempty,gte=1888,lte=2100"`
	Genre         string              `json:"genre" schema:"genre" validate:"omitempty,max=100"`
	Description   string              `json:"description" schema:"description" validate:"omitempty,max=5000"`
	Duration      fields.MovieRuntime `json:"duration" schema:"duration" validate:"omitempty,gte=1,lte=1000"`
	Cost          float64             `json:"cost" schema:"cost" validate:"gte=0"`
	IsRecommended bool                `json:"is_recommended" schema:"is_recommended"`
}

type updateMovieRequest struct {
	Title         *string              `json:"title" schema:"title" validate:"omitempty,min=1,max=255"`
	Director      *string              `json:"director" schema:"director" validate:"omitempty,min=1,max=255"`
	Year          *int32               `json:"year" schema:"year" validate:"omitempty,gte=1888,lte=2100"`
	Genre         *string              `json:"genre" schema:"genre" validate:"omitempty,max=100"`
	Description   *string              `json:"description" schema:"description" validate:"omitempty,max=5000"`
	Duration      *fields.MovieRuntime `json:"duration" schema:"duration" validate:"omitempty,gte=1,lte=1000"`
	Cost          *float64             `json:"cost" schema:"cost" validate:"omitempty,gte=0"`
	IsRecommended *bool                `json:"is_recommended" schema:"is_recommended"`
}

func (app *Application) movieError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, movies.ErrMovieNotFound):
		app.Http.NotFound(w, r, err.Error())
	case errors.Is(err, movies.ErrMovieAlreadyExists):
		app.Http.Conflict(w, r, err.Error())
	case errors.Is(err, movies.ErrEditConflict):
		app.Http.Conflict(w, r, err.Error())
	case errors.Is(err, movies.ErrForbidden):
		app.Http.Forbidden(w, r, err.Error())
	case errors.Is(err, movies.ErrInvalidLimit):
		app.Http.UnprocessableEntity(w, r, map[string]string{"limit": err.Error()})
	case errors.Is(err, photos.ErrUnsupportedFormat):
		app.Http.UnprocessableEntity(w, r, map[string]string{"photo": "Photo must be a jpg, png, gif or webp image"})
	default:
		app.Http.ServerError(w, r, err, "")
	}
}

func (app *Application) listMovies(w http.ResponseWriter, r *http.Request) {
	query := filters.MovieQuery{Filters: filters.Filters{SortSafelist: filters.MovieSortSafelist}}
	if !app.readQuery(w, r, &query) {
		return
	}
	movies, metadata, err := app.Services.Movies.List(r.Context(), query)
	if err != nil {
		app.movieError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movies": movies, "metadata": metadata}, "")
}

func (app *Application) getMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	movie, err := app.Services.Movies.Get(r.Context(), id)
	if err != nil {
		app.movieError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movie": movie}, "")
}

func (app *Application) createMovie(w http.ResponseWriter, r *http.Request) {
	var req createMovieRequest
	photo, closer, ok := app.readMovieForm(w, r, &req)
	if !ok {
		return
	}
	if closer != nil {
		defer closer.Close()
	}
	movie, err := app.Services.Movies.Create(r.Context(), movies.CreateParams{
		Title:         req.Title,
		Director:      req.Director,
		Year:          req.Year,
		Genre:         req.Genre,
		Description:   req.Description,
		Duration:      req.Duration,
		Cost:          req.Cost,
		IsRecommended: req.IsRecommended,
	}, app.currentUser(r).ID, photo)
	if err != nil {
		app.movieError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"movie": movie}, "Movie created")
}

func (app *Application) updateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	var req updateMovieRequest
	photo, closer, ok := app.readMovieForm(w, r, &req)
	if !ok {
		return
	}
	if closer != nil {
		defer closer.Close()
	}
	movie, err := app.Services.Movies.Update(r.Context(), id, app.currentUser(r).Actor(), movies.UpdateParams{
		Title:         req.Title,
		Director:      req.Director,
		Year:          req.Year,
		Genre:         req.Genre,
		Description:   req.Description,
		Duration:      req.Duration,
		Cost:          req.Cost,
		IsRecommended: req.IsRecommended,
	}, photo)
	if err != nil {
		app.movieError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movie": movie}, "Movie updated")
}

func (app *Application) deleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	if err := app.Services.Movies.Delete(r.Context(), id, app.currentUser(r).Actor()); err != nil {
		app.movieError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) listUserMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := app.Services.Movies.ListOwned(r.Context(), app.currentUser(r).ID)
	if err != nil {
		app.movieError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movies": movies}, "")
}

func (app *Application) recommendations(w http.ResponseWriter, r *http.Request) {
	var query struct {
		Limit int `schema:"limit"`
	}
	if !app.readQuery(w, r, &query) {
		return
	}
	movies, err := app.Services.Movies.Recommendations(r.Context(), app.currentUser(r).ID, query.Limit)
	if err != nil {
		app.movieError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movies": movies}, "")
}
