package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo keeps conversation state in Redis so it survives restarts.
type StateRepo struct {
	client RedisClient
	ttl    time.Duration
}

// NewStateRepo stores flows with the given expiry; ttl <= 0 keeps them
// until they finish or are cancelled.
func NewStateRepo(client RedisClient, ttl time.Duration) *StateRepo {
	if ttl < 0 {
		ttl = 0
	}
	return &StateRepo{client: client, ttl: ttl}
}

func stateKey(userID int64) string {
	return fmt.Sprintf("conv_state:%d", userID)
}

func (s *StateRepo) SetState(ctx context.Context, userID int64, state *model.ConversationState) error {
	if state == nil || state.IsIdle() {
		return s.ClearState(ctx, userID)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey(userID), data, s.ttl)
}

func (s *StateRepo) GetState(ctx context.Context, userID int64) (*model.ConversationState, error) {
	data, err := s.client.Get(ctx, stateKey(userID))
	if errors.Is(err, redis.Nil) {
		return model.IdleState(), nil
	}
	if err != nil {
		return nil, err
	}

	var state model.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("decode state for %d: %w", userID, err)
	}
	if !state.Step.Valid() {
		return model.IdleState(), nil
	}
	return &state, nil
}

func (s *StateRepo) ClearState(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, stateKey(userID))
}
