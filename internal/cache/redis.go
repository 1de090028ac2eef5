package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jcalder/tablebook/config"
	"github.com/jcalder/tablebook/internal/domain"
)

// RedisCache holds the by-date reservation listings. Keys are dropped on any
// write touching that date.
type RedisCache struct {
	client *redis.Client
	dayTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, dayTTL time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		dayTTL: dayTTL,
	}
}

func (c *RedisCache) GetDay(ctx context.Context, date string) ([]domain.Reservation, error) {
	data, err := c.client.Get(ctx, dayKey(date)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var reservations []domain.Reservation
	if err := json.Unmarshal(data, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (c *RedisCache) SetDay(ctx context.Context, date string, reservations []domain.Reservation) error {
	payload, err := json.Marshal(reservations)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, dayKey(date), payload, c.dayTTL).Err()
}

func (c *RedisCache) DropDay(ctx context.Context, date string) error {
	return c.client.Del(ctx, dayKey(date)).Err()
}

func dayKey(date string) string {
	return fmt.Sprintf("cache:reservations:%s", date)
}
