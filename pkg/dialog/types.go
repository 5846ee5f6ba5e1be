package dialog

import (
	"context"
	"encoding/json"
	"fmt"
)

// StepFunc is one step of a waterfall dialog. A step must return exactly
// one signal: suspend on a prompt, fall through with a value, begin a
// child dialog, end the dialog, or replace it.
type StepFunc func(ctx context.Context, step *StepContext) (Signal, error)

// Waterfall is an ordered sequence of steps executed one inbound message
// at a time. Definitions are registered once at startup and are read-only
// afterwards.
type Waterfall struct {
	id            string
	steps         []StepFunc
	interruptible bool
}

// NewWaterfall creates a waterfall dialog definition.
func NewWaterfall(id string, steps ...StepFunc) *Waterfall {
	return &Waterfall{id: id, steps: steps}
}

// WithInterrupts marks the dialog as subject to the runner's cancel/help
// guard while it is suspended on a prompt.
func (w *Waterfall) WithInterrupts() *Waterfall {
	w.interruptible = true
	return w
}

// ID returns the dialog's registered name.
func (w *Waterfall) ID() string { return w.id }

type signalKind int

const (
	sigPrompt signalKind = iota
	sigNext
	sigBegin
	sigEnd
	sigReplace
)

// Signal is the outcome of one step invocation, interpreted by the runner.
type Signal struct {
	kind     signalKind
	prompt   Prompt
	value    any
	dialogID string
	payload  json.RawMessage
}

// Reply is one outbound message produced during a turn.
type Reply struct {
	Text    string
	Choices []string
}

// Turn accumulates the outbound replies of processing one inbound message.
type Turn struct {
	ConversationKey string

	replies []Reply
}

// Send queues a plain text reply for this turn.
func (t *Turn) Send(text string) {
	t.replies = append(t.replies, Reply{Text: text})
}

// SendPrompt queues a prompt's question, carrying its choices when present.
func (t *Turn) SendPrompt(p Prompt) {
	t.replies = append(t.replies, Reply{Text: p.Text, Choices: p.Choices})
}

// Replies returns the outbound messages queued so far, in order.
func (t *Turn) Replies() []Reply { return t.replies }

// StepContext is passed to every step invocation. Result carries the
// previous step's value: a validated prompt reply, the value of a Next
// fall-through, or a completed child dialog's serialized result.
type StepContext struct {
	Index  int
	Result any

	turn  *Turn
	entry *Entry
}

// Send queues a plain text reply on the current turn.
func (sc *StepContext) Send(text string) { sc.turn.Send(text) }

// ConversationKey identifies the conversation this turn belongs to.
func (sc *StepContext) ConversationKey() string { return sc.turn.ConversationKey }

// State unmarshals the dialog's persisted state into v. A dialog that has
// no state yet leaves v untouched.
func (sc *StepContext) State(v any) error {
	if len(sc.entry.State) == 0 {
		return nil
	}
	if err := json.Unmarshal(sc.entry.State, v); err != nil {
		return fmt.Errorf("decode dialog state: %w", err)
	}
	return nil
}

// PutState persists v as the dialog's state for subsequent steps and turns.
func (sc *StepContext) PutState(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode dialog state: %w", err)
	}
	sc.entry.State = raw
	return nil
}

// DecodeResult unmarshals a completed child dialog's result into v.
// It returns false when the child ended without a result.
func (sc *StepContext) DecodeResult(v any) (bool, error) {
	raw, ok := sc.Result.(json.RawMessage)
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode dialog result: %w", err)
	}
	return true, nil
}

// Prompt suspends the dialog: the question is sent to the user and the
// next inbound message resumes at the following step with the validated
// reply as its Result.
func (sc *StepContext) Prompt(p Prompt) (Signal, error) {
	return Signal{kind: sigPrompt, prompt: p}, nil
}

// Next falls through to the following step immediately, without a turn
// boundary, delivering value as its Result.
func (sc *StepContext) Next(value any) (Signal, error) {
	return Signal{kind: sigNext, value: value}, nil
}

// Begin pushes a child dialog initialized with options. When the child
// ends, this dialog resumes at the following step with the child's result.
func (sc *StepContext) Begin(dialogID string, options any) (Signal, error) {
	raw, err := marshalPayload(options)
	if err != nil {
		return Signal{}, err
	}
	return Signal{kind: sigBegin, dialogID: dialogID, payload: raw}, nil
}

// End pops this dialog, delivering result to the parent. A nil result
// means the dialog ended without completing its task.
func (sc *StepContext) End(result any) (Signal, error) {
	raw, err := marshalPayload(result)
	if err != nil {
		return Signal{}, err
	}
	return Signal{kind: sigEnd, payload: raw}, nil
}

// Replace pops this dialog and immediately restarts the named dialog at
// step zero with options.
func (sc *StepContext) Replace(dialogID string, options any) (Signal, error) {
	raw, err := marshalPayload(options)
	if err != nil {
		return Signal{}, err
	}
	return Signal{kind: sigReplace, dialogID: dialogID, payload: raw}, nil
}

func marshalPayload(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode dialog payload: %w", err)
	}
	return raw, nil
}
