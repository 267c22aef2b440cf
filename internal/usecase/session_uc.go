package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-ecommerce-bot/internal/domain"
	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/repository"
	"telegram-ecommerce-bot/internal/infra/logging"
	"telegram-ecommerce-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

// SessionUseCase owns the per-user session row (bearer token + validity window).
type SessionUseCase interface {
	// GetOrCreate returns the row for chatID, inserting an anonymous one if needed.
	GetOrCreate(ctx context.Context, chatID int64) (*model.Session, error)
	// Lookup returns nil, nil when no row exists.
	Lookup(ctx context.Context, chatID int64) (*model.Session, error)
	StoreToken(ctx context.Context, chatID int64, token string) (*model.Session, error)
	LifetimeHours() int
}

type sessionUC struct {
	repo          repository.SessionRepository
	lifetimeHours int
	log           *zerolog.Logger
	now           func() time.Time
}

func NewSessionUseCase(repo repository.SessionRepository, lifetimeHours int, logger *zerolog.Logger) *sessionUC {
	if lifetimeHours <= 0 {
		lifetimeHours = 50
	}
	return &sessionUC{repo: repo, lifetimeHours: lifetimeHours, log: logger, now: time.Now}
}

func (u *sessionUC) LifetimeHours() int { return u.lifetimeHours }

func (u *sessionUC) Lookup(ctx context.Context, chatID int64) (*model.Session, error) {
	s, err := u.repo.FindByChatID(ctx, chatID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return s, err
}

func (u *sessionUC) GetOrCreate(ctx context.Context, chatID int64) (*model.Session, error) {
	defer logging.TraceDuration(u.log, "SessionUC.GetOrCreate")()

	s, err := u.repo.FindByChatID(ctx, chatID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find session: %w", err)
	}

	s, err = model.NewSession(chatID, u.now())
	if err != nil {
		return nil, err
	}
	switch err := u.repo.Create(ctx, s); {
	case err == nil:
		metrics.IncSessionCreated()
		u.log.Info().Int64("chat_id", chatID).Msg("session created")
		return s, nil
	case errors.Is(err, domain.ErrAlreadyExists):
		// a concurrent event for the same user inserted first
		return u.repo.FindByChatID(ctx, chatID)
	default:
		return nil, fmt.Errorf("create session: %w", err)
	}
}

func (u *sessionUC) StoreToken(ctx context.Context, chatID int64, token string) (*model.Session, error) {
	defer logging.TraceDuration(u.log, "SessionUC.StoreToken")()

	s, err := u.GetOrCreate(ctx, chatID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	if err := s.SetToken(token, u.lifetimeHours, now); err != nil {
		return nil, err
	}
	if err := u.repo.UpdateToken(ctx, chatID, token, u.lifetimeHours, s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	u.log.Info().
		Int64("chat_id", chatID).
		Str("token", logging.Redact(token, false)).
		Int("lifetime_hours", u.lifetimeHours).
		Msg("session token stored")
	return s, nil
}
