package reviews

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateRating(t *testing.T) {
	testCases := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"no reviews", nil, 0},
		{"empty set", []int{}, 0},
		{"single", []int{4}, 8},
		{"two", []int{4, 2}, 6},
		{"max", []int{5, 5, 5}, 10},
		{"min", []int{1}, 2},
		{"not rounded", []int{1, 2, 4}, 14.0 / 3.0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AggregateRating(tc.ratings))
		})
	}
}
