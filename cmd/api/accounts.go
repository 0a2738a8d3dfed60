package main

import (
	"errors"
	"movietracker/proj/internal/services/auth"
	"net/http"
)

func (app *Application) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Username string `json:"username" validate:"required,alphanum,min=3,max=50"`
		Password string `json:"password" validate:"required,min=8,max=72" errorMsg:"Password must be between 8 and 72 characters long"`
	}
	if !app.readBody(w, r, &req) {
		return
	}
	user, err := app.Services.Auth.Signup(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserAlreadyExists):
			app.Http.Conflict(w, r, err.Error())
		case errors.Is(err, auth.ErrPasswordTooLong):
			app.Http.UnprocessableEntity(w, r, map[string]string{"password": err.Error()})
		default:
			app.Http.ServerError(w, r, err, "")
		}
		return
	}
	app.Http.Created(w, r, envelop{"user": user}, "Account created")
}

func (app *Application) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !app.readBody(w, r, &req) {
		return
	}
	tokens, err := app.Services.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			app.Http.Unauthorized(w, r, err.Error())
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"access_token": tokens.AccessToken, "token_type": tokens.TokenType}, "")
}

func (app *Application) me(w http.ResponseWriter, r *http.Request) {
	app.Http.Ok(w, r, envelop{"user": app.currentUser(r)}, "")
}
