package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug   bool    `yaml:"debug" env:"DEBUG"`
	Limiter Limiter `yaml:"limiter"`
	Server  Server  `yaml:"server"`
	DB      DB      `yaml:"db"`
	Auth    Auth    `yaml:"auth"`
	Admin   Admin   `yaml:"admin"`
	SMTP    SMTP    `yaml:"smtp"`
	Redis   Redis   `yaml:"redis"`
	Events  Events  `yaml:"events"`
	Storage Storage `yaml:"storage"`
	Tasks   Tasks   `yaml:"tasks"`
	CORS    CORS    `yaml:"cors"`
}

type Limiter struct {
	Enabled bool    `yaml:"enabled" env:"LIMITER_ENABLED"`
	Rps     float64 `yaml:"rps" env:"LIMITER_RPS" env-default:"20"`
	Burst   int     `yaml:"burst" env:"LIMITER_BURST" env-default:"5"`
}

type Server struct {
	Port string `yaml:"port" env:"SERVER_PORT" env-default:"8000"`
	Host string `yaml:"host" env:"SERVER_HOST" env-default:"localhost"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"20s"`
}

func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

type DB struct {
	Dsn             string        `yaml:"dsn" env:"DB_DSN" env-required:"true"`
	MaxConns        int           `yaml:"max_conns" env-default:"25"`
	MinConns        int           `yaml:"min_conns" env-default:"0"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env-default:"10m"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env-default:"1h"`
}

type Auth struct {
	TokenSecret string        `yaml:"token_secret" env:"AUTH_TOKEN_SECRET" env-required:"true"`
	TokenTTL    time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL" env-default:"24h"`
}

// Admin is the account seeded on startup when Username is set.
type Admin struct {
	Username string `yaml:"username" env:"ADMIN_USERNAME"`
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

type SMTP struct {
	Host         string        `yaml:"host" env:"SMTP_HOST"`
	Port         int           `yaml:"port" env:"SMTP_PORT" env-default:"25"`
	Username     string        `yaml:"username" env:"SMTP_USERNAME"`
	Password     string        `yaml:"password" env:"SMTP_PASSWORD"`
	Sender       string        `yaml:"sender" env:"SMTP_SENDER" env-default:"Movie Tracker <no-reply@movietracker.local>"`
	Timeout      time.Duration `yaml:"timeout" env-default:"5s"`
	RetriesCount int           `yaml:"retries_count" env-default:"3"`
}

func (s SMTP) Enabled() bool {
	return s.Host != ""
}

type Redis struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"5m"`
	Prefix   string        `yaml:"prefix" env-default:"movietracker:movie:"`
}

func (r Redis) Enabled() bool {
	return r.Addr != ""
}

const (
	EventsDriverNone = "none"
	EventsDriverAMQP = "amqp"
	EventsDriverNATS = "nats"
)

type Events struct {
	Driver   string `yaml:"driver" env:"EVENTS_DRIVER" env-default:"none"`
	URL      string `yaml:"url" env:"EVENTS_URL"`
	Exchange string `yaml:"exchange" env-default:"movietracker.events"`
	Subject  string `yaml:"subject_prefix" env-default:"movietracker"`
}

type Storage struct {
	StaticDir  string `yaml:"static_dir" env:"STATIC_DIR" env-default:"static"`
	UploadsDir string `yaml:"uploads_dir" env-default:"uploads"`
	// multipart request limit in bytes
	MaxUploadSize int64 `yaml:"max_upload_size" env-default:"5242880"`
}

type Tasks struct {
	Workers   int `yaml:"workers" env-default:"3"`
	QueueSize int `yaml:"queue_size" env-default:"100"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

func (c *Config) validate() error {
	switch c.Events.Driver {
	case EventsDriverNone:
	case EventsDriverAMQP, EventsDriverNATS:
		if c.Events.URL == "" {
			return fmt.Errorf("events.url is required for %s driver", c.Events.Driver)
		}
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}
	if c.Admin.Username != "" && c.Admin.Password == "" {
		return errors.New("admin.password is required when admin.username is set")
	}
	return nil
}

// Load reads the yaml file, letting environment variables (optionally from .env) override it.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file %s not found", configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}

// ConfigPath resolves the -config flag, falling back to CONFIG_PATH.
func ConfigPath() string {
	var path string
	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}
