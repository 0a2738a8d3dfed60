package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"movietracker/proj/internal/domain/fields"
	"movietracker/proj/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

// MovieCache keeps serialized movies in redis. A nil *MovieCache is a valid
// cache that never hits, so callers don't need to check whether redis is configured.
type MovieCache struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
	log    *slog.Logger
}

var errStale = errors.New("cache entry invalidated")

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

func New(ctx context.Context, log *slog.Logger, opts Options) (*MovieCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewWithClient(log, client, opts.TTL, opts.Prefix), nil
}

func NewWithClient(log *slog.Logger, client *redis.Client, ttl time.Duration, prefix string) *MovieCache {
	return &MovieCache{
		Client: client,
		TTL:    ttl,
		Prefix: prefix,
		log:    log,
	}
}

func (c *MovieCache) key(id int64) string {
	return c.Prefix + strconv.FormatInt(id, 10)
}

// Get reports a miss on any redis or decoding error; the caller falls back to the database.
func (c *MovieCache) Get(ctx context.Context, id int64) (*models.Movie, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.Client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("redis get failed", "id", id, "err", err)
		}
		return nil, false
	}
	var cached cachedMovie
	if err := json.Unmarshal(val, &cached); err != nil {
		c.log.Warn("cached movie is corrupted", "id", id, "err", err)
		return nil, false
	}
	movie := cached.Movie
	movie.Rating = fields.Rating(cached.Rating)
	return &movie, true
}

func (c *MovieCache) genKey(id int64) string {
	return c.key(id) + ":gen"
}

// Generation returns the invalidation counter of a movie. Read it before
// loading the movie from the database and pass it to Set.
func (c *MovieCache) Generation(ctx context.Context, id int64) (int64, error) {
	if c == nil {
		return 0, nil
	}
	gen, err := c.Client.Get(ctx, c.genKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set stores the movie unless it was invalidated after gen was read, in
// which case the copy may predate the invalidating write and is dropped.
func (c *MovieCache) Set(ctx context.Context, movie *models.Movie, gen int64) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(cachedMovie{Movie: *movie, Rating: float64(movie.Rating)})
	if err != nil {
		return err
	}
	genKey := c.genKey(movie.ID)
	err = c.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(movie.ID), b, c.TTL)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, errStale) || errors.Is(err, redis.TxFailedErr) {
		c.log.Debug("movie invalidated while loading, not cached", "id", movie.ID)
		return nil
	}
	return err
}

// Delete drops the cached movie and bumps its generation so that loads
// started before this call don't put the old copy back.
func (c *MovieCache) Delete(ctx context.Context, id int64) error {
	if c == nil {
		return nil
	}
	genKey := c.genKey(id)
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		if c.TTL > 0 {
			pipe.Expire(ctx, genKey, c.TTL)
		}
		pipe.Del(ctx, c.key(id))
		return nil
	})
	return err
}

func (c *MovieCache) Close() error {
	if c == nil {
		return nil
	}
	return c.Client.Close()
}

// cachedMovie stores the rating unrounded.
type cachedMovie struct {
	models.Movie
	Rating float64 `json:"rating"`
}
