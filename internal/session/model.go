// Package session persists dialog sessions in the service datastore so
// conversations survive restarts and can be shared across replicas.
package session

import (
	"encoding/json"

	"github.com/pitabwire/frame/data"
)

// ConversationRecord is one conversation's serialized dialog session.
type ConversationRecord struct {
	data.BaseModel

	ConversationKey string          `gorm:"type:varchar(512);not null;uniqueIndex:idx_conversation_key" json:"conversation_key"`
	State           SessionJSON     `gorm:"type:jsonb;not null"                                         json:"state"`
}

func (ConversationRecord) TableName() string { return "conversation_sessions" }

// SessionJSON stores the serialized session as JSONB.
type SessionJSON json.RawMessage

func (s SessionJSON) Value() (interface{}, error) {
	if len(s) == 0 {
		return []byte("{}"), nil
	}
	return []byte(s), nil
}

func (s *SessionJSON) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		*s = append((*s)[:0], v...)
	case string:
		*s = SessionJSON(v)
	default:
		*s = nil
	}
	return nil
}
