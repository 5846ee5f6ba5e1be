package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/convobot/convobot/pkg/events"
)

// maxStepsPerTurn bounds how many step invocations one inbound message
// may trigger before the turn is aborted as a definition bug.
const maxStepsPerTurn = 48

// Runner schedules waterfall dialogs per conversation. On each inbound
// message it loads the conversation's stack, resumes the topmost entry at
// its recorded step, and commits the updated stack before the turn's
// replies are handed back.
type Runner struct {
	registry  map[string]*Waterfall
	rootID    string
	store     Store
	guard     *Guard
	publisher *events.Publisher
}

// NewRunner creates a runner over the given session store. The guard and
// publisher are optional.
func NewRunner(store Store, guard *Guard, pub *events.Publisher) *Runner {
	return &Runner{
		registry:  make(map[string]*Waterfall),
		store:     store,
		guard:     guard,
		publisher: pub,
	}
}

// Register adds dialog definitions to the process-wide registry.
func (r *Runner) Register(dialogs ...*Waterfall) error {
	for _, w := range dialogs {
		if w.id == "" {
			return fmt.Errorf("dialog with empty id")
		}
		if _, exists := r.registry[w.id]; exists {
			return fmt.Errorf("dialog %q already registered", w.id)
		}
		r.registry[w.id] = w
	}
	return nil
}

// SetRoot names the dialog begun when a conversation has no active stack.
func (r *Runner) SetRoot(id string) error {
	if _, ok := r.registry[id]; !ok {
		return fmt.Errorf("root dialog %q not registered", id)
	}
	r.rootID = id
	return nil
}

// Start begins the root dialog for a conversation that has no active
// stack. It is a no-op on an already active conversation.
func (r *Runner) Start(ctx context.Context, key string) (*Turn, error) {
	turn := &Turn{ConversationKey: key}

	sess, err := r.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = NewSession(key)
	}
	if len(sess.Stack) > 0 {
		return turn, nil
	}

	if err := r.begin(ctx, turn, sess, r.rootID, nil); err != nil {
		return nil, err
	}
	return turn, r.commit(ctx, sess)
}

// Resume processes one inbound message for the conversation and returns
// the turn's replies. The session is committed before returning.
func (r *Runner) Resume(ctx context.Context, key, text string) (*Turn, error) {
	turn := &Turn{ConversationKey: key}

	sess, err := r.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = NewSession(key)
	}

	if len(sess.Stack) == 0 {
		if err := r.begin(ctx, turn, sess, r.rootID, nil); err != nil {
			return nil, err
		}
		return turn, r.commit(ctx, sess)
	}

	top := sess.top()
	w, ok := r.registry[top.DialogID]
	if !ok {
		return nil, fmt.Errorf("active dialog %q not registered", top.DialogID)
	}

	// The interrupt check runs before prompt validation so a cancel
	// phrase wins even when the pending prompt expects another type.
	if w.interruptible && r.guard != nil {
		switch r.guard.Check(text) {
		case InterruptCancel:
			if r.guard.CancelText != "" {
				turn.Send(r.guard.CancelText)
			}
			r.emit(ctx, key, events.DialogCancelled, &events.DialogData{DialogID: top.DialogID})
			if err := r.cancelTop(ctx, turn, sess); err != nil {
				return nil, err
			}
			return turn, r.commit(ctx, sess)
		case InterruptHelp:
			turn.Send(r.guard.HelpText)
			return turn, r.commit(ctx, sess)
		}
	}

	var result any
	if top.Pending != nil {
		value, valid := top.Pending.Parse(text)
		if !valid {
			turn.Send(top.Pending.Retry())
			return turn, r.commit(ctx, sess)
		}
		top.Pending = nil
		result = value
	} else {
		result = text
	}

	if err := r.run(ctx, turn, sess, top.Step+1, result); err != nil {
		return nil, err
	}
	return turn, r.commit(ctx, sess)
}

// begin pushes a dialog and runs it from step zero.
func (r *Runner) begin(ctx context.Context, turn *Turn, sess *Session, dialogID string, options json.RawMessage) error {
	if _, ok := r.registry[dialogID]; !ok {
		return fmt.Errorf("dialog %q not registered", dialogID)
	}
	sess.push(Entry{DialogID: dialogID, State: options})
	r.emit(ctx, sess.Key, events.DialogStarted, &events.DialogData{DialogID: dialogID})
	return r.run(ctx, turn, sess, 0, nil)
}

// cancelTop pops the suspended dialog and resumes its parent with an
// undefined result, as if the dialog ended without completing its task.
func (r *Runner) cancelTop(ctx context.Context, turn *Turn, sess *Session) error {
	sess.pop()
	parent := sess.top()
	if parent == nil {
		return nil
	}
	return r.run(ctx, turn, sess, parent.Step+1, nil)
}

// run drives the step loop until a dialog suspends on a prompt or the
// stack empties.
func (r *Runner) run(ctx context.Context, turn *Turn, sess *Session, stepIdx int, result any) error {
	for hops := 0; hops < maxStepsPerTurn; hops++ {
		top := sess.top()
		if top == nil {
			return nil
		}
		w, ok := r.registry[top.DialogID]
		if !ok {
			return fmt.Errorf("active dialog %q not registered", top.DialogID)
		}

		var sig Signal
		if stepIdx >= len(w.steps) {
			// Running off the final step ends the dialog without a result.
			sig = Signal{kind: sigEnd}
		} else {
			sc := &StepContext{Index: stepIdx, Result: result, turn: turn, entry: top}
			var err error
			sig, err = w.steps[stepIdx](ctx, sc)
			if err != nil {
				return fmt.Errorf("dialog %q step %d: %w", top.DialogID, stepIdx, err)
			}
		}

		switch sig.kind {
		case sigPrompt:
			top.Step = stepIdx
			pending := sig.prompt
			top.Pending = &pending
			turn.SendPrompt(pending)
			r.emit(ctx, sess.Key, events.PromptSent, &events.PromptSentData{
				DialogID: top.DialogID,
				Kind:     string(pending.Kind),
			})
			return nil

		case sigNext:
			stepIdx++
			result = sig.value

		case sigBegin:
			if _, ok := r.registry[sig.dialogID]; !ok {
				return fmt.Errorf("dialog %q not registered", sig.dialogID)
			}
			top.Step = stepIdx
			sess.push(Entry{DialogID: sig.dialogID, State: sig.payload})
			r.emit(ctx, sess.Key, events.DialogStarted, &events.DialogData{DialogID: sig.dialogID})
			stepIdx, result = 0, nil

		case sigEnd:
			ended := top.DialogID
			sess.pop()
			r.emit(ctx, sess.Key, events.DialogEnded, &events.DialogData{
				DialogID:  ended,
				Completed: len(sig.payload) > 0,
			})
			parent := sess.top()
			if parent == nil {
				return nil
			}
			stepIdx = parent.Step + 1
			if len(sig.payload) > 0 {
				result = sig.payload
			} else {
				result = nil
			}

		case sigReplace:
			if _, ok := r.registry[sig.dialogID]; !ok {
				return fmt.Errorf("dialog %q not registered", sig.dialogID)
			}
			sess.pop()
			sess.push(Entry{DialogID: sig.dialogID, State: sig.payload})
			stepIdx, result = 0, nil
		}
	}
	return fmt.Errorf("turn exceeded %d steps without suspending", maxStepsPerTurn)
}

func (r *Runner) commit(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	return r.store.Save(ctx, sess)
}

func (r *Runner) emit(ctx context.Context, key string, eventType events.EventType, data any) {
	if r.publisher != nil {
		_ = r.publisher.Emit(ctx, eventType, key, data)
	}
}
