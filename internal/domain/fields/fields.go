package fields

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidRuntimeFormat = errors.New("invalid runtime format")

type MovieRuntime int32

func (m MovieRuntime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(fmt.Sprintf("%d mins", m))), nil
}

// UnmarshalJSON accepts both a plain number of minutes and the "<n> mins" form.
func (m *MovieRuntime) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSuffix(strings.TrimSpace(unquoted), " mins")
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return ErrInvalidRuntimeFormat
	}
	*m = MovieRuntime(n)
	return nil
}

// Rating is stored with full precision and rendered with one decimal place.
type Rating float64

func (r Rating) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(math.Round(float64(r)*10)/10, 'f', 1, 64)), nil
}
