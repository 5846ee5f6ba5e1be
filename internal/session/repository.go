package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pitabwire/frame/datastore/pool"

	"github.com/convobot/convobot/pkg/dialog"
)

// Repository is the database-backed dialog session store.
type Repository struct {
	pool pool.Pool
}

var _ dialog.Store = (*Repository)(nil)

// NewRepository creates a session repository over the datastore pool.
func NewRepository(pool pool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context, readOnly bool) *gorm.DB {
	return r.pool.DB(ctx, readOnly)
}

// Load returns the session for the conversation key, or nil when the
// conversation has no stored session yet.
func (r *Repository) Load(ctx context.Context, key string) (*dialog.Session, error) {
	var record ConversationRecord
	err := r.db(ctx, true).Where("conversation_key = ?", key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", key, err)
	}

	var sess dialog.Session
	if err := json.Unmarshal([]byte(record.State), &sess); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", key, err)
	}
	return &sess, nil
}

// Save upserts the session keyed by its conversation key.
func (r *Repository) Save(ctx context.Context, sess *dialog.Session) error {
	state, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", sess.Key, err)
	}

	var record ConversationRecord
	err = r.db(ctx, false).Where("conversation_key = ?", sess.Key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = ConversationRecord{ConversationKey: sess.Key, State: SessionJSON(state)}
		if err := r.db(ctx, false).Create(&record).Error; err != nil {
			return fmt.Errorf("create session %q: %w", sess.Key, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("find session %q: %w", sess.Key, err)
	}

	record.State = SessionJSON(state)
	if err := r.db(ctx, false).Save(&record).Error; err != nil {
		return fmt.Errorf("save session %q: %w", sess.Key, err)
	}
	return nil
}
