package reviews

const (
	MinRating = 1
	MaxRating = 5

	MaxCommentLength = 1000
)

// AggregateRating maps review ratings (1..5) to a movie rating on a 0..10 scale:
// every rating is doubled before averaging, and an empty set yields 0.
// The result is not rounded.
func AggregateRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r * 2
	}
	return float64(sum) / float64(len(ratings))
}
