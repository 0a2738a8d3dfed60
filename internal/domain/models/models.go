package models

import (
	"movietracker/proj/internal/domain/fields"
	"time"
)

const DefaultMoviePhoto = "static/default_movie.jpg"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Movie struct {
	ID            int64               `json:"id" db:"id"`
	Title         string              `json:"title" db:"title"`
	Director      string              `json:"director" db:"director"`
	Year          int32               `json:"year,omitempty" db:"year"`
	Genre         string              `json:"genre,omitempty" db:"genre"`
	Description   string              `json:"description,omitempty" db:"description"`
	Duration      fields.MovieRuntime `json:"duration,omitempty" db:"duration"` // Movie runtime (in minutes)
	Cost          float64             `json:"cost" db:"cost"`
	IsRecommended bool                `json:"is_recommended" db:"is_recommended"`
	// Derived from the movie's reviews, never written by movie edits.
	Rating    fields.Rating `json:"rating" db:"rating"`
	PhotoURL  string        `json:"photo_url" db:"photo_url"`
	AddedBy   *int64        `json:"added_by" db:"added_by"`
	Version   int32         `json:"version" db:"version"` // incremented each time the movie information is updated
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

func (m *Movie) IsOwnedBy(userID int64) bool {
	return m.AddedBy != nil && *m.AddedBy == userID
}

func (m *Movie) HasCustomPhoto() bool {
	return m.PhotoURL != "" && m.PhotoURL != DefaultMoviePhoto
}

type User struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash []byte     `json:"-" db:"password_hash"`
	Role         string     `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

var AnonymousUser = &User{}

func (u *User) IsAnonymous() bool {
	return u == nil || u == AnonymousUser
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Actor is the acting principal of a mutation, as already authenticated by the caller.
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, IsAdmin: u.IsAdmin()}
}

type Actor struct {
	UserID  int64
	IsAdmin bool
}

type Review struct {
	ID        int64     `json:"id" db:"id"`
	MovieID   int64     `json:"movie_id" db:"movie_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type AuthTokens struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
