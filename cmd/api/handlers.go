package main

import (
	"net/http"

	"github.com/go-chi/render"
)

type integrations struct {
	Cache  bool   `json:"cache"`
	Mail   bool   `json:"mail"`
	Events string `json:"events"`
}

func (app *Application) healthcheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, struct {
		Status       string       `json:"status"`
		Debug        bool         `json:"debug"`
		Version      string       `json:"version"`
		Integrations integrations `json:"integrations"`
	}{
		Status:  "available",
		Debug:   app.cfg.Debug,
		Version: version,
		Integrations: integrations{
			Cache:  app.cfg.Redis.Enabled(),
			Mail:   app.cfg.SMTP.Enabled(),
			Events: app.cfg.Events.Driver,
		},
	})
}
