package main

import (
	"context"
	"errors"
	"fmt"
	"movietracker/proj/internal/domain/models"
	"movietracker/proj/internal/services/auth"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

func (app *Application) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil && rec != http.ErrAbortHandler {
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				w.Header().Set("Connection", "close")
				app.Http.ServerError(w, r, err, "")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

type rateLimitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (app *Application) RateLimiter(next http.Handler) http.Handler {
	const op = "middlewares.RateLimiter"
	log := app.log.With("op", op)
	if !app.cfg.Limiter.Enabled {
		return next
	}
	clients := make(map[string]*rateLimitedClient)
	var mu sync.Mutex
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-app.done:
				return
			case <-ticker.C:
			}
			mu.Lock()
			for ip, client := range clients {
				if time.Since(client.lastSeen) > 3*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// RealIP leaves a bare address without port
			ip = r.RemoteAddr
		}
		mu.Lock()
		client, ok := clients[ip]
		if !ok {
			client = &rateLimitedClient{
				limiter: rate.NewLimiter(rate.Limit(app.cfg.Limiter.Rps), app.cfg.Limiter.Burst),
			}
			clients[ip] = client
		}
		client.lastSeen = time.Now()
		allowed := client.limiter.Allow()
		mu.Unlock()
		if !allowed {
			log.Warn("rate limit exceeded", "ip", ip)
			app.Http.TooManyRequests(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type CtxKey string

const CtxKeyUser CtxKey = "user"

// Authenticate resolves the bearer token into a user. Requests without
// an Authorization header continue as the anonymous user.
func (app *Application) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")
		user := models.AnonymousUser

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				app.log.Warn("Invalid auth header")
				app.Http.Unauthorized(w, r, "Invalid Authorization header, should be 'Bearer <token>'")
				return
			}
			userID, err := app.Services.Auth.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				app.log.Debug("rejected token", "error", err)
				app.Http.Unauthorized(w, r, "Invalid or expired token")
				return
			}
			user, err = app.Services.Auth.GetUser(r.Context(), userID)
			if err != nil {
				if errors.Is(err, auth.ErrUserNotFound) {
					app.log.Warn("token of unknown user", "user_id", userID)
					app.Http.Unauthorized(w, r, "Invalid or expired token")
					return
				}
				app.Http.ServerError(w, r, err, "")
				return
			}
		}
		r = r.WithContext(context.WithValue(r.Context(), CtxKeyUser, user))
		next.ServeHTTP(w, r)
	})
}

func (app *Application) requireAuthenticatedUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.currentUser(r).IsAnonymous() {
			app.Http.Unauthorized(w, r, "You must be authenticated to access this resource")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (app *Application) requireActivatedUser(next http.Handler) http.Handler {
	return app.requireAuthenticatedUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.currentUser(r).IsActive {
			app.Http.Forbidden(w, r, "Your account must be active to access this resource")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (app *Application) requireAdmin(next http.Handler) http.Handler {
	return app.requireActivatedUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.currentUser(r).IsAdmin() {
			app.Http.Forbidden(w, r, "Administrator rights are required to access this resource")
			return
		}
		next.ServeHTTP(w, r)
	}))
}
