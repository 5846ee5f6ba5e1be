// Package handler turns inbound channel activities into dialog turns
// and serves the webhook endpoint the channel posts them to.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pitabwire/util"

	"github.com/convobot/convobot/internal/messages"
	"github.com/convobot/convobot/pkg/activity"
	"github.com/convobot/convobot/pkg/dialog"
	"github.com/convobot/convobot/pkg/events"
)

// BotHandler dispatches activities to the dialog runner.
type BotHandler struct {
	runner    *dialog.Runner
	catalog   *dialog.Catalog
	publisher *events.Publisher
}

// NewBotHandler creates the handler. The publisher may be nil.
func NewBotHandler(runner *dialog.Runner, catalog *dialog.Catalog, pub *events.Publisher) *BotHandler {
	return &BotHandler{runner: runner, catalog: catalog, publisher: pub}
}

// OnActivity processes one inbound activity and returns the replies for
// the turn. A message turn that fails still replies with an apology so
// the conversation never goes silent.
func (h *BotHandler) OnActivity(ctx context.Context, act *activity.Activity) []*activity.Activity {
	switch act.Type {
	case activity.TypeConversationUpdate:
		return h.onMembersAdded(ctx, act)

	case activity.TypeEvent:
		if act.Name == activity.EventJoin {
			return h.welcome(ctx, act)
		}
		return nil

	case activity.TypeMessage:
		return h.onMessage(ctx, act)

	default:
		slog.DebugContext(ctx, "ignoring activity", slog.String("type", act.Type))
		return nil
	}
}

// onMembersAdded greets every member joining the conversation except the
// bot itself.
func (h *BotHandler) onMembersAdded(ctx context.Context, act *activity.Activity) []*activity.Activity {
	for _, member := range act.MembersAdded {
		if member.ID != act.Recipient.ID {
			return h.welcome(ctx, act)
		}
	}
	return nil
}

func (h *BotHandler) welcome(ctx context.Context, act *activity.Activity) []*activity.Activity {
	replies := []*activity.Activity{
		activity.NewReply(act, h.catalog.Render(messages.KeyWelcome, nil)),
	}

	turn, err := h.runner.Start(ctx, act.ConversationKey())
	if err != nil {
		util.Log(ctx).WithError(err).Error("bot handler: start conversation")
		return replies
	}
	return append(replies, toActivities(act, turn)...)
}

func (h *BotHandler) onMessage(ctx context.Context, act *activity.Activity) []*activity.Activity {
	key := act.ConversationKey()
	h.emit(ctx, key, events.TurnReceived, &events.TurnReceivedData{
		ActivityType: act.Type,
		Text:         act.Text,
	})

	turn, err := h.runner.Resume(ctx, key, act.Text)
	if err != nil {
		util.Log(ctx).WithError(err).Error("bot handler: process turn")
		h.emit(ctx, key, events.SystemError, map[string]string{"error": err.Error()})
		return []*activity.Activity{
			activity.NewReply(act, h.catalog.Render(messages.KeyTurnError, nil)),
		}
	}

	replies := toActivities(act, turn)
	h.emit(ctx, key, events.TurnCompleted, &events.TurnCompletedData{Replies: len(replies)})
	return replies
}

func toActivities(inbound *activity.Activity, turn *dialog.Turn) []*activity.Activity {
	var out []*activity.Activity
	for _, reply := range turn.Replies() {
		a := activity.NewReply(inbound, reply.Text)
		a.SuggestedChoices = reply.Choices
		out = append(out, a)
	}
	return out
}

func (h *BotHandler) emit(ctx context.Context, key string, eventType events.EventType, data any) {
	if h.publisher != nil {
		_ = h.publisher.Emit(ctx, eventType, key, data)
	}
}

// activitiesResponse is the webhook reply body.
type activitiesResponse struct {
	Activities []*activity.Activity `json:"activities"`
}

// ServeHTTP handles POST /api/messages: one inbound activity per
// request, replies returned in the response body.
func (h *BotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var act activity.Activity
	if err := json.NewDecoder(r.Body).Decode(&act); err != nil {
		http.Error(w, "invalid activity payload", http.StatusBadRequest)
		return
	}
	if act.Conversation.ID == "" {
		http.Error(w, "activity missing conversation id", http.StatusBadRequest)
		return
	}

	replies := h.OnActivity(r.Context(), &act)
	if replies == nil {
		replies = []*activity.Activity{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(activitiesResponse{Activities: replies}); err != nil {
		util.Log(r.Context()).WithError(err).Error("bot handler: encode replies")
	}
}
