package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/convobot/convobot/internal/backend"
	"github.com/convobot/convobot/internal/messages"
	"github.com/convobot/convobot/pkg/dialog"
	"github.com/convobot/convobot/pkg/events"
)

// Registered dialog ids for the task dialogs.
const (
	ChangeAddressID  = "changeAddress"
	ChangeEmailID    = "changeEmail"
	GetUserDetailsID = "getUserDetails"
	GetAddressID     = "getAddress"
	GetEmailID       = "getEmail"
)

// Builder wires the task dialogs to the user-record client, the message
// catalog, and the event publisher.
type Builder struct {
	backend   *backend.Client
	catalog   *dialog.Catalog
	publisher *events.Publisher
}

// NewBuilder creates a Builder. The publisher may be nil.
func NewBuilder(client *backend.Client, catalog *dialog.Catalog, pub *events.Publisher) *Builder {
	return &Builder{backend: client, catalog: catalog, publisher: pub}
}

// All returns every task dialog, ready for registration.
func (b *Builder) All() []*dialog.Waterfall {
	return []*dialog.Waterfall{
		b.ChangeAddress(),
		b.ChangeEmail(),
		b.GetUserDetails(),
		b.GetAddress(),
		b.GetEmail(),
	}
}

// ChangeAddress elicits a user id and a new address, confirms, and
// updates the record.
func (b *Builder) ChangeAddress() *dialog.Waterfall {
	task := &Task{
		ID: ChangeAddressID,
		Slots: []SlotSpec{
			b.userIDSlot(messages.KeyPromptUserID),
			{
				Resolve: func(s *Slots) bool { return s.NewAddress != nil },
				Prompt:  b.textPrompt(messages.KeyPromptNewAddress),
				Assign:  assignString(func(s *Slots, v string) { s.NewAddress = &v }),
			},
		},
		ConfirmKey: messages.KeyConfirmChangeAddress,
		Finalize: func(ctx context.Context, key string, s *Slots) *string {
			fault, err := b.backend.UpdateAddress(ctx, *s.UserID, *s.NewAddress)
			if err != nil {
				b.reportFailure(ctx, key, "updateAddress", err)
				return nil
			}
			if fault != nil {
				return &fault.Message
			}
			return b.render(messages.KeyResultChangeAddress, s.values())
		},
	}
	return task.Build(b.catalog)
}

// ChangeEmail elicits a user id and a new email, confirms, and updates
// the record.
func (b *Builder) ChangeEmail() *dialog.Waterfall {
	task := &Task{
		ID: ChangeEmailID,
		Slots: []SlotSpec{
			b.userIDSlot(messages.KeyPromptUserID),
			{
				Resolve: func(s *Slots) bool { return s.NewEmail != nil },
				Prompt:  b.textPrompt(messages.KeyPromptNewEmail),
				Assign:  assignString(func(s *Slots, v string) { s.NewEmail = &v }),
			},
		},
		ConfirmKey: messages.KeyConfirmChangeEmail,
		Finalize: func(ctx context.Context, key string, s *Slots) *string {
			fault, err := b.backend.UpdateEmail(ctx, *s.UserID, *s.NewEmail)
			if err != nil {
				b.reportFailure(ctx, key, "updateEmail", err)
				return nil
			}
			if fault != nil {
				return &fault.Message
			}
			return b.render(messages.KeyResultChangeEmail, s.values())
		},
	}
	return task.Build(b.catalog)
}

// GetUserDetails looks a user up by id or by email. When neither is
// known it first asks which of the two the user can provide, then
// elicits that value.
func (b *Builder) GetUserDetails() *dialog.Waterfall {
	known := func(s *Slots) bool { return s.UserID != nil || s.Email != nil }

	task := &Task{
		ID: GetUserDetailsID,
		Slots: []SlotSpec{
			{
				Resolve: known,
				Prompt: func(*Slots) dialog.Prompt {
					return dialog.Prompt{
						Kind:    dialog.PromptChoice,
						Text:    b.catalog.Render(messages.KeyPromptKnownKey, nil),
						Choices: []string{messages.ChoiceUserID, messages.ChoiceEmail},
					}
				},
				Assign: assignString(func(s *Slots, v string) { s.Choice = &v }),
			},
			{
				Resolve: known,
				Prompt: func(s *Slots) dialog.Prompt {
					if s.Choice != nil && *s.Choice == messages.ChoiceEmail {
						return dialog.Prompt{
							Kind: dialog.PromptText,
							Text: b.catalog.Render(messages.KeyPromptDetailEmail, nil),
						}
					}
					return dialog.Prompt{
						Kind: dialog.PromptNumber,
						Text: b.catalog.Render(messages.KeyPromptDetailID, nil),
					}
				},
				Assign: func(s *Slots, value any) error {
					switch v := value.(type) {
					case int64:
						s.UserID = &v
					case string:
						s.Email = &v
					default:
						return fmt.Errorf("unexpected reply type %T", value)
					}
					return nil
				},
			},
		},
		ConfirmKey: messages.KeyConfirmGetDetails,
		Finalize: func(ctx context.Context, key string, s *Slots) *string {
			var (
				details *backend.Details
				fault   *backend.Fault
				err     error
			)
			if s.UserID != nil {
				details, fault, err = b.backend.GetDetailsByID(ctx, *s.UserID)
			} else {
				details, fault, err = b.backend.GetDetailsByEmail(ctx, *s.Email)
			}
			if err != nil {
				b.reportFailure(ctx, key, "getUserDetails", err)
				return nil
			}
			if fault != nil {
				return &fault.Message
			}
			return b.render(messages.KeyResultGetDetails, map[string]any{
				"userId":    details.UserID,
				"userName":  details.UserName,
				"address":   details.Address,
				"email":     details.Email,
				"birthDate": details.BirthDate,
			})
		},
	}
	return task.Build(b.catalog)
}

// GetAddress elicits a user id, confirms, and reads the address.
func (b *Builder) GetAddress() *dialog.Waterfall {
	task := &Task{
		ID:         GetAddressID,
		Slots:      []SlotSpec{b.userIDSlot(messages.KeyPromptUserID)},
		ConfirmKey: messages.KeyConfirmGetAddress,
		Finalize: func(ctx context.Context, key string, s *Slots) *string {
			address, fault, err := b.backend.GetAddress(ctx, *s.UserID)
			if err != nil {
				b.reportFailure(ctx, key, "getAddress", err)
				return nil
			}
			if fault != nil {
				return &fault.Message
			}
			data := s.values()
			data["address"] = address
			return b.render(messages.KeyResultGetAddress, data)
		},
	}
	return task.Build(b.catalog)
}

// GetEmail elicits a user id, confirms, and reads the email.
func (b *Builder) GetEmail() *dialog.Waterfall {
	task := &Task{
		ID:         GetEmailID,
		Slots:      []SlotSpec{b.userIDSlot(messages.KeyPromptUserID)},
		ConfirmKey: messages.KeyConfirmGetEmail,
		Finalize: func(ctx context.Context, key string, s *Slots) *string {
			email, fault, err := b.backend.GetEmail(ctx, *s.UserID)
			if err != nil {
				b.reportFailure(ctx, key, "getEmail", err)
				return nil
			}
			if fault != nil {
				return &fault.Message
			}
			data := s.values()
			data["email"] = email
			return b.render(messages.KeyResultGetEmail, data)
		},
	}
	return task.Build(b.catalog)
}

func (b *Builder) userIDSlot(promptKey string) SlotSpec {
	return SlotSpec{
		Resolve: func(s *Slots) bool { return s.UserID != nil },
		Prompt: func(*Slots) dialog.Prompt {
			return dialog.Prompt{
				Kind: dialog.PromptNumber,
				Text: b.catalog.Render(promptKey, nil),
			}
		},
		Assign: func(s *Slots, value any) error {
			v, ok := value.(int64)
			if !ok {
				return fmt.Errorf("unexpected reply type %T", value)
			}
			s.UserID = &v
			return nil
		},
	}
}

func (b *Builder) textPrompt(key string) func(*Slots) dialog.Prompt {
	return func(*Slots) dialog.Prompt {
		return dialog.Prompt{
			Kind: dialog.PromptText,
			Text: b.catalog.Render(key, nil),
		}
	}
}

func (b *Builder) render(key string, data map[string]any) *string {
	text := b.catalog.Render(key, data)
	return &text
}

// reportFailure records a call that never reached the service. The
// dialog ends without a user-facing message in that case.
func (b *Builder) reportFailure(ctx context.Context, key, operation string, err error) {
	slog.ErrorContext(ctx, "user service call failed",
		slog.String("operation", operation),
		slog.String("error", err.Error()))
	if b.publisher != nil {
		_ = b.publisher.Emit(ctx, events.BackendFailed, key, &events.BackendFailedData{
			Operation: operation,
			Error:     err.Error(),
		})
	}
}

func assignString(set func(s *Slots, v string)) func(*Slots, any) error {
	return func(s *Slots, value any) error {
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected reply type %T", value)
		}
		set(s, v)
		return nil
	}
}
