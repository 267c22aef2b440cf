package model

import (
	"time"

	"telegram-ecommerce-bot/internal/domain"
)

// Session is the locally persisted auth record of one chat user.
// UpdatedAt doubles as the moment the token was issued.
type Session struct {
	ChatID        int64
	Token         *string
	LifetimeHours *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewSession(chatID int64, now time.Time) (*Session, error) {
	if chatID == 0 {
		return nil, domain.ErrInvalidArgument
	}
	now = now.UTC()
	return &Session{ChatID: chatID, CreatedAt: now, UpdatedAt: now}, nil
}

// HasToken reports whether a non-empty bearer token is stored.
func (s *Session) HasToken() bool {
	return s != nil && s.Token != nil && *s.Token != ""
}

// BearerToken returns the stored token or "".
func (s *Session) BearerToken() string {
	if !s.HasToken() {
		return ""
	}
	return *s.Token
}

// ExpiresAt returns UpdatedAt + LifetimeHours. ok is false when no lifetime is set.
func (s *Session) ExpiresAt() (t time.Time, ok bool) {
	if s == nil || s.LifetimeHours == nil {
		return time.Time{}, false
	}
	return s.UpdatedAt.UTC().Add(time.Duration(*s.LifetimeHours) * time.Hour), true
}

// IsExpired is true for sessions without a token or lifetime, and for
// sessions whose window ended strictly before now.
func (s *Session) IsExpired(now time.Time) bool {
	if !s.HasToken() {
		return true
	}
	exp, ok := s.ExpiresAt()
	if !ok {
		return true
	}
	return now.UTC().After(exp)
}

func (s *Session) IsAuthenticated(now time.Time) bool {
	return s.HasToken() && !s.IsExpired(now)
}

// SetToken stores a fresh token and restarts the validity window at now.
func (s *Session) SetToken(token string, lifetimeHours int, now time.Time) error {
	if token == "" || lifetimeHours <= 0 {
		return domain.ErrInvalidArgument
	}
	s.Token = &token
	s.LifetimeHours = &lifetimeHours
	s.UpdatedAt = now.UTC()
	return nil
}
