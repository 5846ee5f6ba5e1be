package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event flowing through the system.
type EventType string

const (
	TurnReceived      EventType = "turn.received"
	TurnCompleted     EventType = "turn.completed"
	DialogStarted     EventType = "dialog.started"
	DialogEnded       EventType = "dialog.ended"
	DialogCancelled   EventType = "dialog.cancelled"
	PromptSent        EventType = "prompt.sent"
	IntentRecognized  EventType = "intent.recognized"
	KnowledgeAnswered EventType = "knowledge.answered"
	BackendFailed     EventType = "backend.error"
	SystemError       EventType = "error"
)

// Envelope is the standard event wrapper published to the event bus.
type Envelope struct {
	ID              string            `json:"id"`
	Type            EventType         `json:"type"`
	Source          string            `json:"source"`
	ConversationKey string            `json:"conversation_key"`
	Timestamp       time.Time         `json:"timestamp"`
	Data            json.RawMessage   `json:"data"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// TurnReceivedData is the payload for turn.received events.
type TurnReceivedData struct {
	ActivityType string `json:"activity_type"`
	Text         string `json:"text,omitempty"`
}

// TurnCompletedData is the payload for turn.completed events.
type TurnCompletedData struct {
	Replies int `json:"replies"`
}

// DialogData is the payload for dialog.started, dialog.ended, and
// dialog.cancelled events.
type DialogData struct {
	DialogID  string `json:"dialog_id"`
	Completed bool   `json:"completed,omitempty"`
}

// PromptSentData is the payload for prompt.sent events.
type PromptSentData struct {
	DialogID string `json:"dialog_id"`
	Kind     string `json:"kind"`
}

// IntentRecognizedData is the payload for intent.recognized events.
type IntentRecognizedData struct {
	Intent string `json:"intent"`
	Query  string `json:"query"`
}

// KnowledgeAnsweredData is the payload for knowledge.answered events.
type KnowledgeAnsweredData struct {
	Answered bool    `json:"answered"`
	Score    float64 `json:"score,omitempty"`
}

// BackendFailedData is the payload for backend.error events.
type BackendFailedData struct {
	Operation string `json:"operation"`
	Error     string `json:"error"`
}
