// Package router holds the root dialog: it greets the user, classifies
// each utterance, and dispatches to the matching task dialog or to the
// knowledge-base fallback.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/convobot/convobot/internal/knowledge"
	"github.com/convobot/convobot/internal/messages"
	"github.com/convobot/convobot/internal/recognizer"
	"github.com/convobot/convobot/internal/tasks"
	"github.com/convobot/convobot/pkg/dialog"
	"github.com/convobot/convobot/pkg/events"
)

// DialogID is the root dialog's registered name.
const DialogID = "main"

// IntentRecognizer classifies utterances into intents and entities.
type IntentRecognizer interface {
	IsConfigured() bool
	Recognize(ctx context.Context, utterance string) (*recognizer.Result, error)
}

// KnowledgeBase answers utterances no intent matched.
type KnowledgeBase interface {
	IsConfigured() bool
	GetAnswers(ctx context.Context, question string) ([]knowledge.Answer, error)
}

// options is the root dialog's persisted state. Restart marks a loop
// iteration so the greeting switches to the follow-up wording.
type options struct {
	Restart bool `json:"restart,omitempty"`
}

// taskResult is the slice of a task dialog's result the router consumes.
type taskResult struct {
	Message *string `json:"message"`
}

// New builds the root dialog. The recognizer and knowledge base must be
// non-nil; use unconfigured clients when the services are absent.
func New(catalog *dialog.Catalog, rec IntentRecognizer, kb KnowledgeBase, pub *events.Publisher) (*dialog.Waterfall, error) {
	if catalog == nil {
		return nil, fmt.Errorf("router: catalog is required")
	}
	if rec == nil {
		return nil, fmt.Errorf("router: recognizer is required")
	}
	if kb == nil {
		return nil, fmt.Errorf("router: knowledge base is required")
	}

	r := &router{catalog: catalog, recognizer: rec, knowledge: kb, publisher: pub}
	return dialog.NewWaterfall(DialogID, r.intro, r.dispatch, r.loop), nil
}

type router struct {
	catalog    *dialog.Catalog
	recognizer IntentRecognizer
	knowledge  KnowledgeBase
	publisher  *events.Publisher
}

// intro greets the user and suspends for their request. Without any
// configured language service there is nothing to classify, so it warns
// once and falls straight through to the default task.
func (r *router) intro(ctx context.Context, sc *dialog.StepContext) (dialog.Signal, error) {
	var opts options
	if err := sc.State(&opts); err != nil {
		return dialog.Signal{}, err
	}

	if !r.recognizer.IsConfigured() && !r.knowledge.IsConfigured() {
		sc.Send(r.catalog.Render(messages.KeyNotConfigured, nil))
		return sc.Next(nil)
	}

	key := messages.KeyIntro
	if opts.Restart {
		key = messages.KeyIntroRestart
	}
	return sc.Prompt(dialog.Prompt{
		Kind: dialog.PromptText,
		Text: r.catalog.Render(key, nil),
	})
}

// dispatch routes the utterance: an intent begins the matching task with
// whatever slots the recognizer extracted, anything else goes to the
// knowledge base.
func (r *router) dispatch(ctx context.Context, sc *dialog.StepContext) (dialog.Signal, error) {
	if !r.recognizer.IsConfigured() {
		return sc.Begin(tasks.ChangeAddressID, &tasks.Slots{})
	}

	utterance, _ := sc.Result.(string)

	result, err := r.recognizer.Recognize(ctx, utterance)
	if err != nil {
		slog.WarnContext(ctx, "intent recognition failed", slog.String("error", err.Error()))
		return r.fallback(ctx, sc, utterance)
	}

	r.emit(ctx, sc.ConversationKey(), events.IntentRecognized, &events.IntentRecognizedData{
		Intent: result.TopIntent.String(),
		Query:  result.Query,
	})

	ent := result.Entities
	switch result.TopIntent {
	case recognizer.IntentChangeAddress:
		return sc.Begin(tasks.ChangeAddressID, &tasks.Slots{UserID: ent.UserID, NewAddress: ent.Geography})
	case recognizer.IntentChangeEmail:
		return sc.Begin(tasks.ChangeEmailID, &tasks.Slots{UserID: ent.UserID, NewEmail: ent.Email})
	case recognizer.IntentGetUserDetails:
		return sc.Begin(tasks.GetUserDetailsID, &tasks.Slots{UserID: ent.UserID, Email: ent.Email})
	case recognizer.IntentGetAddress:
		return sc.Begin(tasks.GetAddressID, &tasks.Slots{UserID: ent.UserID})
	case recognizer.IntentGetEmail:
		return sc.Begin(tasks.GetEmailID, &tasks.Slots{UserID: ent.UserID})
	case recognizer.IntentNone:
		return r.fallback(ctx, sc, utterance)
	default:
		return r.fallback(ctx, sc, utterance)
	}
}

// fallback answers from the knowledge base, or apologizes when it has
// nothing.
func (r *router) fallback(ctx context.Context, sc *dialog.StepContext, utterance string) (dialog.Signal, error) {
	if !r.knowledge.IsConfigured() {
		sc.Send(r.catalog.Render(messages.KeyNoMatch, nil))
		return sc.Next(nil)
	}

	answers, err := r.knowledge.GetAnswers(ctx, utterance)
	if err != nil {
		slog.WarnContext(ctx, "knowledge base query failed", slog.String("error", err.Error()))
	}
	if len(answers) == 0 {
		r.emit(ctx, sc.ConversationKey(), events.KnowledgeAnswered, &events.KnowledgeAnsweredData{Answered: false})
		sc.Send(r.catalog.Render(messages.KeyNoMatch, nil))
		return sc.Next(nil)
	}

	r.emit(ctx, sc.ConversationKey(), events.KnowledgeAnswered, &events.KnowledgeAnsweredData{
		Answered: true,
		Score:    answers[0].Score,
	})
	sc.Send(answers[0].Answer)
	return sc.Next(nil)
}

// loop relays a completed task's outcome and restarts the root dialog
// for the next request.
func (r *router) loop(ctx context.Context, sc *dialog.StepContext) (dialog.Signal, error) {
	var res taskResult
	ok, err := sc.DecodeResult(&res)
	if err != nil {
		return dialog.Signal{}, err
	}
	if ok && res.Message != nil {
		sc.Send(*res.Message)
	}
	return sc.Replace(DialogID, &options{Restart: true})
}

func (r *router) emit(ctx context.Context, key string, eventType events.EventType, data any) {
	if r.publisher != nil {
		_ = r.publisher.Emit(ctx, eventType, key, data)
	}
}
