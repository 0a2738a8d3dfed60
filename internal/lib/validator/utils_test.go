package validator

import (
	"testing"

	"movietracker/proj/internal/domain/filters"

	"github.com/stretchr/testify/assert"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum,max=50"`
	Password string `json:"password" validate:"required,min=8" errorMsg:"Password must be at least 8 characters long"`
	Nickname string `validate:"omitempty,max=3"`
}

func TestValidateStruct(t *testing.T) {
	v := New()

	errs := ValidateStruct(v, &signupRequest{Email: "nope", Password: "short", Nickname: "toolong"})
	assert.Equal(t, map[string]string{
		"email":    "Value must be a valid email address",
		"username": "This field is required",
		"password": "Password must be at least 8 characters long",
		"nickname": "The maximum value is 3",
	}, errs)

	assert.Nil(t, ValidateStruct(v, signupRequest{Email: "neo@example.com", Username: "neo", Password: "trinity123"}))
}

func TestValidateSafeSort(t *testing.T) {
	v := New()
	testCases := []struct {
		sort  string
		valid bool
	}{
		{"", true},
		{"title", true},
		{"-rating", true},
		{"password_hash", false},
		{"title; DROP TABLE movies", false},
	}
	for _, tc := range testCases {
		t.Run(tc.sort, func(t *testing.T) {
			query := filters.MovieQuery{Filters: filters.Filters{Sort: tc.sort, SortSafelist: filters.MovieSortSafelist}}
			errs := ValidateStruct(v, &query)
			if tc.valid {
				assert.Empty(t, errs)
				return
			}
			assert.Contains(t, errs, "sort")
		})
	}
}
