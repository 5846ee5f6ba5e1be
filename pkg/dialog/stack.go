package dialog

import (
	"encoding/json"
	"time"
)

// Entry is one frame of a conversation's dialog stack: which dialog is
// active, the step it last ran, its serialized state, and the prompt it
// is suspended on, if any.
type Entry struct {
	DialogID string          `json:"dialog_id"`
	Step     int             `json:"step"`
	State    json.RawMessage `json:"state,omitempty"`
	Pending  *Prompt         `json:"pending,omitempty"`
}

// Session is the persisted dialog state of one conversation. The topmost
// stack entry is the dialog resumed by the next inbound message.
type Session struct {
	Key       string    `json:"key"`
	Stack     []Entry   `json:"stack"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an empty session for the given conversation key.
func NewSession(key string) *Session {
	return &Session{Key: key, StartedAt: time.Now().UTC()}
}

func (s *Session) top() *Entry {
	if len(s.Stack) == 0 {
		return nil
	}
	return &s.Stack[len(s.Stack)-1]
}

func (s *Session) push(e Entry) {
	s.Stack = append(s.Stack, e)
}

func (s *Session) pop() {
	if len(s.Stack) > 0 {
		s.Stack = s.Stack[:len(s.Stack)-1]
	}
}
