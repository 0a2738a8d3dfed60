package movies

import "errors"

var (
	ErrMovieNotFound      = errors.New("movie not found")
	ErrMovieAlreadyExists = errors.New("movie with that title already exists")
	ErrEditConflict       = errors.New("unable to update the movie due to an edit conflict, please try again")
	ErrForbidden          = errors.New("not allowed to modify this movie")
	ErrInvalidLimit       = errors.New("limit must be between 1 and 50")
)
