package services

import (
	"log/slog"
	"movietracker/proj/internal/config"
	"movietracker/proj/internal/mails"
	"movietracker/proj/internal/services/auth"
	"movietracker/proj/internal/services/movies"
	"movietracker/proj/internal/services/reviews"
	"movietracker/proj/internal/storage/memory"
	"movietracker/proj/internal/storage/postgres"
	pgmodels "movietracker/proj/internal/storage/postgres/models"
)

type MoviesStorage interface {
	movies.MoviesStorage
	reviews.MoviesStorage
}

// Storage groups the repositories and the transaction runner the services share.
type Storage struct {
	Tx      reviews.Transactor
	Movies  MoviesStorage
	Reviews reviews.ReviewStorage
	Users   auth.UsersStorage
}

func NewPostgresStorage(db *postgres.PostgresDB) Storage {
	m := pgmodels.New(db)
	return Storage{Tx: db, Movies: m.Movie, Reviews: m.Review, Users: m.User}
}

func NewMemoryStorage(db *memory.Storage) Storage {
	return Storage{Tx: db, Movies: db.Movies, Reviews: db.Reviews, Users: db.Users}
}

type MovieCache interface {
	movies.MovieCache
}

type EventPublisher interface {
	movies.EventPublisher
}

type Deps struct {
	Photos       movies.PhotoStorage
	Cache        MovieCache
	TaskExecutor auth.TaskExecutor
	Events       EventPublisher
}

type Services struct {
	Auth    *auth.AuthService
	Movies  *movies.MovieService
	Reviews *reviews.ReviewService
}

func New(log *slog.Logger, cfg *config.Config, storage Storage, deps Deps) *Services {
	var mailer auth.MailProvider
	if cfg.SMTP.Enabled() {
		mailer = mails.New(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Timeout,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
			cfg.SMTP.Sender,
			cfg.SMTP.RetriesCount,
		)
	} else {
		log.Warn("smtp is not configured, welcome emails are disabled")
	}
	tokens := auth.NewTokenProvider(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	return &Services{
		Auth:    auth.New(log, mailer, storage.Users, tokens, deps.TaskExecutor, deps.Events),
		Movies:  movies.New(log, storage.Movies, deps.Photos, deps.Cache, deps.TaskExecutor, deps.Events),
		Reviews: reviews.New(log, storage.Tx, storage.Movies, storage.Reviews, deps.Cache, deps.Events),
	}
}
