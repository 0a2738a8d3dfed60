package main

import (
	"context"
	"movietracker/proj/internal/api/tasks"
	"movietracker/proj/internal/cache"
	"movietracker/proj/internal/config"
	"movietracker/proj/internal/events"
	"movietracker/proj/internal/lib/logger"
	"movietracker/proj/internal/services"
	"movietracker/proj/internal/storage/photos"
	"movietracker/proj/internal/storage/postgres"
	"os"
	"time"
)

const version = "1.0.0"

func main() {
	cfg := config.MustLoad(config.ConfigPath())
	log := logger.SetupLogger(cfg.Debug)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	storage, err := postgres.New(ctx, cfg.DB.Dsn, dbOptions(cfg.DB))
	if err != nil {
		log.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer storage.Close()
	log.Info("database connection established")

	photoStorage, err := photos.NewLocalStorage(cfg.Storage.StaticDir, cfg.Storage.UploadsDir)
	if err != nil {
		log.Error("failed to prepare photo storage", "err", err)
		os.Exit(1)
	}

	deps := services.Deps{Photos: photoStorage}
	if cfg.Redis.Enabled() {
		movieCache, err := cache.New(ctx, log, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			// the cache is an optimization, serve from the database
			log.Warn("redis is unavailable, movie cache disabled", "err", err)
		} else {
			defer movieCache.Close()
			deps.Cache = movieCache
		}
	}

	broker, err := events.NewBroker(events.BrokerOptions{
		Driver:        cfg.Events.Driver,
		URL:           cfg.Events.URL,
		Exchange:      cfg.Events.Exchange,
		SubjectPrefix: cfg.Events.Subject,
	})
	if err != nil {
		log.Error("failed to connect to events broker", "driver", cfg.Events.Driver, "err", err)
		os.Exit(1)
	}
	publisher := events.NewPublisher(log, broker)
	defer publisher.Close()
	deps.Events = publisher

	bgTasks := tasks.New(log, cfg.Tasks.Workers, cfg.Tasks.QueueSize)
	bgTasks.Run()
	deps.TaskExecutor = bgTasks

	svc := services.New(log, cfg, services.NewPostgresStorage(storage), deps)
	if cfg.Admin.Username != "" {
		if _, err := svc.Auth.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Error("failed to create administrator", "err", err)
			os.Exit(1)
		}
	}

	app := NewApplication(cfg, log, svc, bgTasks)
	if err := app.serve(); err != nil {
		app.log.Error("shutting down the server", "reason", err.Error())
		os.Exit(1)
	}
}

func dbOptions(cfg config.DB) postgres.Options {
	return postgres.Options{
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
		MaxConnLifetime: cfg.MaxConnLifetime,
	}
}
