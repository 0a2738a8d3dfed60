package main

import (
	"context"
	"log/slog"
	"movietracker/proj/internal/config"
	"movietracker/proj/internal/lib/decoder"
	"movietracker/proj/internal/lib/validator"
	"movietracker/proj/internal/services"
	"sync"

	govalidator "github.com/go-playground/validator/v10"
)

type BackgroundTasks interface {
	Add(task func())
	Shutdown(ctx context.Context) error
}

type Application struct {
	cfg       *config.Config
	log       *slog.Logger
	Http      *Http
	Services  *services.Services
	validator *govalidator.Validate
	decoder   *decoder.URLDecoder
	tasks     BackgroundTasks
	done      chan struct{}
	closeOnce sync.Once
}

func NewApplication(cfg *config.Config, log *slog.Logger, services *services.Services, tasks BackgroundTasks) *Application {
	app := &Application{
		cfg:       cfg,
		log:       log,
		validator: validator.New(),
		decoder:   decoder.New(),
		Services:  services,
		tasks:     tasks,
		done:      make(chan struct{}),
		Http: &Http{
			log: log,
			cfg: cfg,
		},
	}
	return app
}

// Close stops the goroutines started while building the handler chain.
func (app *Application) Close() {
	app.closeOnce.Do(func() { close(app.done) })
}
