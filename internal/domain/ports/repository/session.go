package repository

import (
	"context"
	"time"

	"telegram-ecommerce-bot/internal/domain/model"
)

// SessionRepository is the port for the per-user auth record store.
type SessionRepository interface {
	// FindByChatID returns domain.ErrNotFound when no row exists.
	FindByChatID(ctx context.Context, chatID int64) (*model.Session, error)
	// Create inserts an empty session and returns domain.ErrAlreadyExists on a
	// duplicate key.
	Create(ctx context.Context, s *model.Session) error
	// UpdateToken sets token, lifetime and updated_at; returns domain.ErrNotFound
	// when the row is missing.
	UpdateToken(ctx context.Context, chatID int64, token string, lifetimeHours int, issuedAt time.Time) error
}
