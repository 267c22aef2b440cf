package repository

import (
	"context"

	"telegram-ecommerce-bot/internal/domain/model"
)

// StateRepository is the port for managing a user's conversational state.
// GetState returns an idle state, not an error, when nothing is stored.
type StateRepository interface {
	SetState(ctx context.Context, userID int64, state *model.ConversationState) error
	GetState(ctx context.Context, userID int64) (*model.ConversationState, error)
	ClearState(ctx context.Context, userID int64) error
}
