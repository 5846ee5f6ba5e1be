package dialog

import (
	"strconv"
	"strings"
)

// PromptKind selects how a prompt's reply is validated.
type PromptKind string

const (
	PromptText    PromptKind = "text"
	PromptNumber  PromptKind = "number"
	PromptConfirm PromptKind = "confirm"
	PromptChoice  PromptKind = "choice"
)

// Prompt is a single elicitation unit: a question sent to the user whose
// reply is validated before the waterfall advances. It is serialized into
// the stack entry while the dialog is suspended.
type Prompt struct {
	Kind      PromptKind `json:"kind"`
	Text      string     `json:"text"`
	RetryText string     `json:"retry_text,omitempty"`
	Choices   []string   `json:"choices,omitempty"`
}

var affirmatives = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true,
	"sure": true, "ok": true, "okay": true, "confirm": true,
}

var negatives = map[string]bool{
	"no": true, "n": true, "nope": true, "nah": true, "never": true,
}

// Parse validates a raw reply against the prompt kind. It returns the
// typed value (string, int64, bool, or the matched choice) and whether
// the reply was acceptable.
func (p Prompt) Parse(input string) (any, bool) {
	text := strings.TrimSpace(input)
	if text == "" {
		return nil, false
	}

	switch p.Kind {
	case PromptNumber:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true

	case PromptConfirm:
		lowered := strings.ToLower(text)
		if affirmatives[lowered] {
			return true, true
		}
		if negatives[lowered] {
			return false, true
		}
		return nil, false

	case PromptChoice:
		for _, choice := range p.Choices {
			if strings.EqualFold(text, choice) {
				return choice, true
			}
		}
		// A 1-based index is accepted in place of the choice text.
		if idx, err := strconv.Atoi(text); err == nil && idx >= 1 && idx <= len(p.Choices) {
			return p.Choices[idx-1], true
		}
		return nil, false

	default:
		return text, true
	}
}

// Retry returns the message sent when a reply fails validation.
func (p Prompt) Retry() string {
	if p.RetryText != "" {
		return p.RetryText
	}
	switch p.Kind {
	case PromptNumber:
		return "Please enter a number."
	case PromptConfirm:
		return "Please answer yes or no."
	case PromptChoice:
		return "Please choose one of: " + strings.Join(p.Choices, ", ")
	default:
		return p.Text
	}
}
