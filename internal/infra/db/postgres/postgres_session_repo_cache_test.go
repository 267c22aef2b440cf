//go:build !integration

package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"telegram-ecommerce-bot/internal/domain"
	"telegram-ecommerce-bot/internal/domain/model"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestSessionCache_FindByChatID(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	tok := "jwt"
	hours := 50
	cached := &model.Session{ChatID: 7, Token: &tok, LifetimeHours: &hours, CreatedAt: now, UpdatedAt: now}

	t.Run("cache hit skips the database", func(t *testing.T) {
		// --- Arrange ---
		b, _ := json.Marshal(cached)
		inner := &mockInnerSessionRepo{
			FindByChatIDFunc: func(ctx context.Context, chatID int64) (*model.Session, error) {
				t.Fatal("inner repo must not be called on a cache hit")
				return nil, nil
			},
		}
		cache := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				if key != "session:7" {
					t.Errorf("unexpected cache key %q", key)
				}
				return string(b), nil
			},
		}
		repo := NewSessionRepoCacheDecorator(inner, cache, time.Minute, newTestLogger())

		// --- Act ---
		s, err := repo.FindByChatID(ctx, 7)

		// --- Assert ---
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Token == nil || *s.Token != "jwt" {
			t.Errorf("expected cached token, got %+v", s)
		}
	})

	t.Run("cache miss populates redis", func(t *testing.T) {
		var setKey string
		var setTTL time.Duration
		inner := &mockInnerSessionRepo{
			FindByChatIDFunc: func(ctx context.Context, chatID int64) (*model.Session, error) {
				return cached, nil
			},
		}
		cache := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "", redis.Nil },
			SetFunc: func(ctx context.Context, key string, value interface{}, exp time.Duration) error {
				setKey, setTTL = key, exp
				return nil
			},
		}
		repo := NewSessionRepoCacheDecorator(inner, cache, time.Minute, newTestLogger())

		if _, err := repo.FindByChatID(ctx, 7); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if setKey != "session:7" || setTTL != time.Minute {
			t.Errorf("expected session:7 cached for 1m, got %q for %v", setKey, setTTL)
		}
	})

	t.Run("not found is not cached", func(t *testing.T) {
		inner := &mockInnerSessionRepo{
			FindByChatIDFunc: func(ctx context.Context, chatID int64) (*model.Session, error) {
				return nil, domain.ErrNotFound
			},
		}
		cache := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "", redis.Nil },
			SetFunc: func(ctx context.Context, key string, value interface{}, exp time.Duration) error {
				t.Error("missing sessions must not be cached")
				return nil
			},
		}
		repo := NewSessionRepoCacheDecorator(inner, cache, time.Minute, newTestLogger())

		if _, err := repo.FindByChatID(ctx, 7); err != domain.ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSessionCache_UpdateTokenInvalidates(t *testing.T) {
	var deleted []string
	inner := &mockInnerSessionRepo{
		UpdateTokenFunc: func(ctx context.Context, chatID int64, token string, h int, at time.Time) error { return nil },
	}
	cache := &mockRedisClient{
		DelFunc: func(ctx context.Context, keys ...string) error {
			deleted = append(deleted, keys...)
			return nil
		},
	}
	repo := NewSessionRepoCacheDecorator(inner, cache, time.Minute, newTestLogger())

	if err := repo.UpdateToken(context.Background(), 7, "jwt", 50, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != "session:7" {
		t.Errorf("expected session:7 invalidated, got %v", deleted)
	}
}
