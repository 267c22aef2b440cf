// Package bolt persists conversation state in a local bbolt file for
// single-node deployments without redis.
package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"

	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/repository"
)

var stateBucket = []byte("conversation_state")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("bolt: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("bolt: CBOR decoder initialization failed: " + err.Error())
	}
}

var _ repository.StateRepository = (*StateRepo)(nil)

type StateRepo struct {
	db *bbolt.DB
}

// Open creates or opens the state file at path.
func Open(path string) (*StateRepo, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating state bucket: %w", err)
	}
	return &StateRepo{db: db}, nil
}

func (r *StateRepo) Close() error {
	return r.db.Close()
}

func userKey(userID int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(userID))
	return k
}

func (r *StateRepo) SetState(ctx context.Context, userID int64, state *model.ConversationState) error {
	if state.IsIdle() {
		return r.ClearState(ctx, userID)
	}
	data, err := encMode.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(stateBucket).Put(userKey(userID), data)
	})
}

func (r *StateRepo) GetState(_ context.Context, userID int64) (*model.ConversationState, error) {
	var st model.ConversationState
	found := false
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(stateBucket).Get(userKey(userID))
		if data == nil {
			return nil
		}
		found = true
		return decMode.Unmarshal(data, &st)
	})
	if err != nil {
		return nil, fmt.Errorf("decode state for %d: %w", userID, err)
	}
	if !found || !st.Step.Valid() {
		return model.IdleState(), nil
	}
	if st.Scratch == nil {
		st.Scratch = map[string]string{}
	}
	return &st, nil
}

func (r *StateRepo) ClearState(_ context.Context, userID int64) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(stateBucket).Delete(userKey(userID))
	})
}
