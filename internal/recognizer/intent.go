package recognizer

// Intent is the closed set of actions the bot can dispatch on.
type Intent int

const (
	IntentNone Intent = iota
	IntentChangeAddress
	IntentChangeEmail
	IntentGetUserDetails
	IntentGetAddress
	IntentGetEmail
)

var intentNames = map[Intent]string{
	IntentNone:           "None",
	IntentChangeAddress:  "ChangeAddress",
	IntentChangeEmail:    "ChangeEmail",
	IntentGetUserDetails: "GetUserDetails",
	IntentGetAddress:     "GetAddress",
	IntentGetEmail:       "GetEmail",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "None"
}

// parseIntent maps a recognizer intent label to the closed enum. Unknown
// labels map to IntentNone, which routes to the knowledge-base fallback.
func parseIntent(label string) Intent {
	switch label {
	case "ChangeAddress":
		return IntentChangeAddress
	case "ChangeEmail":
		return IntentChangeEmail
	case "GetUserDetails":
		return IntentGetUserDetails
	case "GetAddress":
		return IntentGetAddress
	case "GetEmail":
		return IntentGetEmail
	default:
		return IntentNone
	}
}
