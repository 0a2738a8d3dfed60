package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.Http.NotFound(w, r, "Page not found")
	})
	router.MethodNotAllowed(app.Http.MethodNotAllowed)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(app.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(app.RateLimiter)

	staticFS := http.StripPrefix("/static/", http.FileServer(http.Dir(app.cfg.Storage.StaticDir)))
	router.Handle("/static/*", staticFS)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(app.Authenticate)
		r.Get("/healthcheck", app.healthcheck)
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/signup", app.signup)
			r.Post("/login", app.login)
			r.With(app.requireAuthenticatedUser).Get("/me", app.me)
		})
		r.Route("/movies", func(r chi.Router) {
			r.Get("/", app.listMovies)
			r.Get("/{id}", app.getMovie)
			r.Get("/{id}/reviews", app.listMovieReviews)
		})
		r.Route("/admin/movies", func(r chi.Router) {
			r.Use(app.requireAdmin)
			r.Post("/", app.createMovie)
			r.Patch("/{id}", app.updateMovie)
			r.Delete("/{id}", app.deleteMovie)
		})
		r.Route("/user", func(r chi.Router) {
			r.Use(app.requireActivatedUser)
			r.Get("/movies", app.listUserMovies)
			r.Post("/movies", app.createMovie)
			r.Patch("/movies/{id}", app.updateMovie)
			r.Delete("/movies/{id}", app.deleteMovie)
			r.Get("/reviews", app.listUserReviews)
		})
		r.With(app.requireActivatedUser).Get("/recommendations", app.recommendations)
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", app.listReviews)
			r.Group(func(r chi.Router) {
				r.Use(app.requireActivatedUser)
				r.Post("/", app.createReview)
				r.Patch("/{id}", app.updateReview)
				r.Delete("/{id}", app.deleteReview)
			})
		})
	})
	return router
}
