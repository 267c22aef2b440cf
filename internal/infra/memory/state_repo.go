// Package memory holds process-local stores used when no durable backend is
// configured. Contents are lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*StateRepo)(nil)

type StateRepo struct {
	mu     sync.RWMutex
	states map[int64]model.ConversationState
}

func NewStateRepo() *StateRepo {
	return &StateRepo{states: make(map[int64]model.ConversationState)}
}

func (r *StateRepo) SetState(_ context.Context, userID int64, state *model.ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state.IsIdle() {
		delete(r.states, userID)
		return nil
	}
	r.states[userID] = clone(state)
	return nil
}

func (r *StateRepo) GetState(_ context.Context, userID int64) (*model.ConversationState, error) {
	r.mu.RLock()
	st, ok := r.states[userID]
	r.mu.RUnlock()
	if !ok {
		return model.IdleState(), nil
	}
	out := clone(&st)
	return &out, nil
}

func (r *StateRepo) ClearState(_ context.Context, userID int64) error {
	r.mu.Lock()
	delete(r.states, userID)
	r.mu.Unlock()
	return nil
}

// clone copies the scratch map so callers never share it with the store.
func clone(s *model.ConversationState) model.ConversationState {
	out := model.ConversationState{Step: s.Step, UpdatedAt: s.UpdatedAt, Scratch: make(map[string]string, len(s.Scratch))}
	for k, v := range s.Scratch {
		out.Scratch[k] = v
	}
	return out
}

// Expire drops flows last touched before cutoff and returns how many went.
func (r *StateRepo) Expire(_ context.Context, cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, st := range r.states {
		if st.UpdatedAt.Before(cutoff) {
			delete(r.states, id)
			n++
		}
	}
	return n
}
