package models

import "movietracker/proj/internal/storage/postgres"

type Models struct {
	Movie  *MovieModel
	Review *ReviewModel
	User   *UserModel
}

func New(db *postgres.PostgresDB) *Models {
	return &Models{
		Movie:  &MovieModel{db.Conn},
		Review: &ReviewModel{db.Conn},
		User:   &UserModel{db.Conn},
	}
}
