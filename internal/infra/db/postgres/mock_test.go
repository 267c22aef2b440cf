//go:build !integration

package postgres

import (
	"context"
	"time"

	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/repository"
	red "telegram-ecommerce-bot/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerSessionRepo mocks the database repository that the session decorator wraps.
type mockInnerSessionRepo struct {
	FindByChatIDFunc func(ctx context.Context, chatID int64) (*model.Session, error)
	CreateFunc       func(ctx context.Context, s *model.Session) error
	UpdateTokenFunc  func(ctx context.Context, chatID int64, token string, lifetimeHours int, issuedAt time.Time) error
}

var _ repository.SessionRepository = &mockInnerSessionRepo{}

func (m *mockInnerSessionRepo) FindByChatID(ctx context.Context, chatID int64) (*model.Session, error) {
	return m.FindByChatIDFunc(ctx, chatID)
}
func (m *mockInnerSessionRepo) Create(ctx context.Context, s *model.Session) error {
	return m.CreateFunc(ctx, s)
}
func (m *mockInnerSessionRepo) UpdateToken(ctx context.Context, chatID int64, token string, lifetimeHours int, issuedAt time.Time) error {
	return m.UpdateTokenFunc(ctx, chatID, token, lifetimeHours, issuedAt)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
