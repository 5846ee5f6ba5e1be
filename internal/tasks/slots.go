// Package tasks defines the leaf dialogs that gather slot values,
// confirm them with the user, and call the user-record service.
package tasks

// Slots is the working state of a task dialog. A nil field means the
// value has not been supplied, either by the recognizer or by the user,
// so the dialog still elicits it. Message carries the task's final
// outcome text back to the dialog that began it.
type Slots struct {
	UserID     *int64  `json:"userId,omitempty"`
	Email      *string `json:"email,omitempty"`
	NewAddress *string `json:"newAddress,omitempty"`
	NewEmail   *string `json:"newEmail,omitempty"`
	Choice     *string `json:"choice,omitempty"`
	Message    *string `json:"message,omitempty"`
}

// values exposes the filled slots to the message templates. Absent
// slots are omitted so templates can test for them.
func (s *Slots) values() map[string]any {
	m := make(map[string]any)
	if s.UserID != nil {
		m["userId"] = *s.UserID
	}
	if s.Email != nil {
		m["email"] = *s.Email
	}
	if s.NewAddress != nil {
		m["newAddress"] = *s.NewAddress
	}
	if s.NewEmail != nil {
		m["newEmail"] = *s.NewEmail
	}
	if s.Choice != nil {
		m["choice"] = *s.Choice
	}
	return m
}
