package tasks

import (
	"context"
	"fmt"

	"github.com/convobot/convobot/pkg/dialog"
)

// SlotSpec is one slot a task must fill before it can act. Resolve
// reports whether the slot is already filled, Prompt builds the
// elicitation for it, and Assign stores the validated reply.
type SlotSpec struct {
	Resolve func(s *Slots) bool
	Prompt  func(s *Slots) dialog.Prompt
	Assign  func(s *Slots, value any) error
}

// Task describes one slot-filling dialog: the slots to gather, the
// confirmation template, and the action to run once the user confirms.
// Finalize returns the outcome text, or nil when the call never reached
// the service.
type Task struct {
	ID         string
	Slots      []SlotSpec
	ConfirmKey string
	Finalize   func(ctx context.Context, key string, s *Slots) *string
}

// Build assembles the task into a waterfall: one step per slot, a
// confirmation step, and a final step that runs the action. Slots the
// recognizer pre-filled fall straight through their elicitation step.
func (t *Task) Build(catalog *dialog.Catalog) *dialog.Waterfall {
	steps := make([]dialog.StepFunc, 0, len(t.Slots)+2)

	for i := range t.Slots {
		spec := t.Slots[i]
		steps = append(steps, func(ctx context.Context, sc *dialog.StepContext) (dialog.Signal, error) {
			var s Slots
			if err := sc.State(&s); err != nil {
				return dialog.Signal{}, err
			}
			if err := t.assignReply(sc, &s, i); err != nil {
				return dialog.Signal{}, err
			}
			if spec.Resolve(&s) {
				if err := sc.PutState(&s); err != nil {
					return dialog.Signal{}, err
				}
				return sc.Next(nil)
			}
			if err := sc.PutState(&s); err != nil {
				return dialog.Signal{}, err
			}
			return sc.Prompt(spec.Prompt(&s))
		})
	}

	steps = append(steps, func(ctx context.Context, sc *dialog.StepContext) (dialog.Signal, error) {
		var s Slots
		if err := sc.State(&s); err != nil {
			return dialog.Signal{}, err
		}
		if err := t.assignReply(sc, &s, len(t.Slots)); err != nil {
			return dialog.Signal{}, err
		}
		if err := sc.PutState(&s); err != nil {
			return dialog.Signal{}, err
		}
		return sc.Prompt(dialog.Prompt{
			Kind: dialog.PromptConfirm,
			Text: catalog.Render(t.ConfirmKey, s.values()),
		})
	})

	steps = append(steps, func(ctx context.Context, sc *dialog.StepContext) (dialog.Signal, error) {
		confirmed, _ := sc.Result.(bool)
		if !confirmed {
			return sc.End(nil)
		}
		var s Slots
		if err := sc.State(&s); err != nil {
			return dialog.Signal{}, err
		}
		msg := t.Finalize(ctx, sc.ConversationKey(), &s)
		if msg == nil {
			return sc.End(nil)
		}
		s.Message = msg
		return sc.End(&s)
	})

	return dialog.NewWaterfall(t.ID, steps...).WithInterrupts()
}

// assignReply stores the previous elicitation step's validated reply.
// Steps reached through a fall-through carry no reply.
func (t *Task) assignReply(sc *dialog.StepContext, s *Slots, stepIdx int) error {
	if sc.Result == nil || stepIdx == 0 {
		return nil
	}
	spec := t.Slots[stepIdx-1]
	if err := spec.Assign(s, sc.Result); err != nil {
		return fmt.Errorf("assign slot for %s step %d: %w", t.ID, stepIdx-1, err)
	}
	return nil
}
