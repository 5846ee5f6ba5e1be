package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pitabwire/frame/workerpool"
)

// DefaultSessionTTL is how long an idle conversation's state is retained
// by the in-memory store before the reaper evicts it.
const DefaultSessionTTL = 30 * time.Minute

const reaperInterval = 1 * time.Minute

// Store persists dialog sessions per conversation key. The runner saves
// the session before a turn's replies are returned, so a resumed
// conversation observes a consistent stack.
type Store interface {
	// Load returns the session for key, or nil when none exists.
	Load(ctx context.Context, key string) (*Session, error)
	// Save durably commits the session.
	Save(ctx context.Context, sess *Session) error
}

type memEntry struct {
	data    []byte
	updated time.Time
}

// MemoryStore keeps sessions in process memory. Sessions are held in
// serialized form so the store round-trips exactly what a durable backend
// would. State is lost on restart; this is the documented limitation of
// the reference deployment.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memEntry
	ttl      time.Duration
}

// NewMemoryStore creates an in-memory session store. A non-positive ttl
// falls back to DefaultSessionTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemoryStore{
		sessions: make(map[string]memEntry),
		ttl:      ttl,
	}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, key string) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal(entry.data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", key, err)
	}
	return &sess, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", sess.Key, err)
	}

	m.mu.Lock()
	m.sessions[sess.Key] = memEntry{data: data, updated: time.Now()}
	m.mu.Unlock()
	return nil
}

// StartReaper begins the background eviction loop for idle sessions.
func (m *MemoryStore) StartReaper(ctx context.Context, pool workerpool.WorkerPool) {
	reap := func() {
		ticker := time.NewTicker(reaperInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.reapIdleSessions()
			}
		}
	}
	if pool != nil {
		_ = pool.Submit(ctx, reap)
	} else {
		go reap()
	}
}

func (m *MemoryStore) reapIdleSessions() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, entry := range m.sessions {
		if now.Sub(entry.updated) > m.ttl {
			slog.Warn("reaping idle conversation session", slog.String("conversation_key", key))
			delete(m.sessions, key)
		}
	}
}
