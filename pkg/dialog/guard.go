package dialog

import "strings"

// Interrupt classifies an inbound message checked against the guard
// phrases before it reaches a suspended dialog.
type Interrupt int

const (
	InterruptNone Interrupt = iota
	InterruptHelp
	InterruptCancel
)

// Guard is the cancellation/help overlay for interruptible dialogs. The
// phrase check runs before prompt validation, so a cancel phrase wins
// even when the pending prompt expects a different input type.
type Guard struct {
	cancelPhrases map[string]bool
	helpPhrases   map[string]bool

	HelpText   string
	CancelText string
}

// NewGuard creates a guard with the given informational texts and the
// default phrase sets.
func NewGuard(helpText, cancelText string) *Guard {
	return &Guard{
		cancelPhrases: phraseSet("cancel", "quit"),
		helpPhrases:   phraseSet("help", "?"),
		HelpText:      helpText,
		CancelText:    cancelText,
	}
}

// WithCancelPhrases replaces the cancellation phrase set.
func (g *Guard) WithCancelPhrases(phrases ...string) *Guard {
	g.cancelPhrases = phraseSet(phrases...)
	return g
}

// WithHelpPhrases replaces the help phrase set.
func (g *Guard) WithHelpPhrases(phrases ...string) *Guard {
	g.helpPhrases = phraseSet(phrases...)
	return g
}

// Check classifies text, case-insensitively, against the guard phrases.
func (g *Guard) Check(text string) Interrupt {
	lowered := strings.ToLower(strings.TrimSpace(text))
	switch {
	case g.cancelPhrases[lowered]:
		return InterruptCancel
	case g.helpPhrases[lowered]:
		return InterruptHelp
	default:
		return InterruptNone
	}
}

func phraseSet(phrases ...string) map[string]bool {
	set := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		set[strings.ToLower(strings.TrimSpace(p))] = true
	}
	return set
}
