package usecase

import (
	"context"
	"strings"
	"time"

	"telegram-ecommerce-bot/internal/domain/model"
)

type DenyReason string

const (
	DenyNotLoggedIn DenyReason = "not_logged_in"
	DenyExpired     DenyReason = "expired"
)

// Decision is the outcome of Authorize. Reason is set only when Allowed is false.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

var allow = Decision{Allowed: true}

// SessionLookup returns the stored session for a user, or nil when none exists.
type SessionLookup func(ctx context.Context, userID int64) (*model.Session, error)

// Commands reachable without a session. Matched as a case-sensitive prefix.
var publicCommandPrefixes = []string{"/start", "/register", "/login"}

// Authorize decides whether ev may reach the handlers. It has no side effects;
// a lookup failure is returned as an error.
func Authorize(ctx context.Context, ev model.Event, lookup SessionLookup, now time.Time) (Decision, error) {
	if ev == nil || ev.User() == 0 {
		return allow, nil
	}
	if msg, ok := ev.(model.MessageEvent); ok && isPublicCommand(msg.Text) {
		return allow, nil
	}

	s, err := lookup(ctx, ev.User())
	if err != nil {
		return Decision{}, err
	}
	switch {
	case s == nil || !s.HasToken():
		return Decision{Reason: DenyNotLoggedIn}, nil
	case s.IsExpired(now):
		return Decision{Reason: DenyExpired}, nil
	}
	return allow, nil
}

func isPublicCommand(text string) bool {
	for _, p := range publicCommandPrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}
