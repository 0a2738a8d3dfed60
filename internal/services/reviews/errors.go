package reviews

import (
	"errors"
	"fmt"
)

var (
	ErrMovieNotFound   = errors.New("movie not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("user has already reviewed this movie")
	ErrForbidden       = errors.New("not allowed to modify this review")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidRating   = fmt.Errorf("%w: rating must be an integer between %d and %d", ErrInvalidArgument, MinRating, MaxRating)
	ErrCommentTooLong  = fmt.Errorf("%w: comment must not exceed %d characters", ErrInvalidArgument, MaxCommentLength)
)
