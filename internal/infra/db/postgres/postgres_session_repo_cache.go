package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/repository"
	"telegram-ecommerce-bot/internal/infra/metrics"
	red "telegram-ecommerce-bot/internal/infra/redis"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

var _ repository.SessionRepository = (*sessionRepoCacheDecorator)(nil)

// sessionRepoCacheDecorator serves the per-event auth lookups from redis.
// Writes go to the inner repo first and then drop the cached entry.
type sessionRepoCacheDecorator struct {
	inner repository.SessionRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewSessionRepoCacheDecorator(inner repository.SessionRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.SessionRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &sessionRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func sessionKey(chatID int64) string { return fmt.Sprintf("session:%d", chatID) }

func (d *sessionRepoCacheDecorator) FindByChatID(ctx context.Context, chatID int64) (*model.Session, error) {
	key := sessionKey(chatID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var s model.Session
		if json.Unmarshal([]byte(val), &s) == nil {
			metrics.IncCacheRequest("session", "hit")
			return &s, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Int64("chat_id", chatID).Msg("session cache read failed")
	}

	metrics.IncCacheRequest("session", "miss")
	s, err := d.inner.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(s); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return s, nil
}

func (d *sessionRepoCacheDecorator) Create(ctx context.Context, s *model.Session) error {
	err := d.inner.Create(ctx, s)
	_ = d.cache.Del(ctx, sessionKey(s.ChatID))
	return err
}

func (d *sessionRepoCacheDecorator) UpdateToken(ctx context.Context, chatID int64, token string, lifetimeHours int, issuedAt time.Time) error {
	err := d.inner.UpdateToken(ctx, chatID, token, lifetimeHours, issuedAt)
	if delErr := d.cache.Del(ctx, sessionKey(chatID)); delErr != nil {
		d.log.Warn().Err(delErr).Int64("chat_id", chatID).Msg("session cache invalidation failed")
	}
	return err
}
