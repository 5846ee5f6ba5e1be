package activity

import (
	"time"

	"github.com/rs/xid"
)

// Activity types understood by the bot.
const (
	TypeMessage            = "message"
	TypeConversationUpdate = "conversationUpdate"
	TypeEvent              = "event"
)

// EventJoin is the out-of-band join event some chat surfaces send instead
// of a conversationUpdate.
const EventJoin = "webchat/join"

// Account identifies one party of a conversation.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Activity is a single inbound or outbound chat activity.
type Activity struct {
	ID           string    `json:"id,omitempty"`
	Type         string    `json:"type"`
	Name         string    `json:"name,omitempty"`
	Text         string    `json:"text,omitempty"`
	ChannelID    string    `json:"channelId,omitempty"`
	Conversation Account   `json:"conversation"`
	From         Account   `json:"from"`
	Recipient    Account   `json:"recipient"`
	MembersAdded []Account `json:"membersAdded,omitempty"`

	// SuggestedChoices carries the options of a single-select prompt so the
	// channel can render them as buttons.
	SuggestedChoices []string `json:"suggestedChoices,omitempty"`

	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ConversationKey returns the key that scopes dialog state to one
// conversation on one channel.
func (a *Activity) ConversationKey() string {
	return a.ChannelID + ":" + a.Conversation.ID
}

// NewReply builds an outbound message activity addressed back to the
// sender of the inbound one.
func NewReply(to *Activity, text string) *Activity {
	return &Activity{
		ID:           xid.New().String(),
		Type:         TypeMessage,
		Text:         text,
		ChannelID:    to.ChannelID,
		Conversation: to.Conversation,
		From:         to.Recipient,
		Recipient:    to.From,
		Timestamp:    time.Now().UTC(),
	}
}
