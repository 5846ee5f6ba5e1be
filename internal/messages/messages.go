// Package messages holds the catalog keys and default texts for every
// user-visible message the bot produces. Operators can override any of
// them through the message catalog's YAML directory.
package messages

// Catalog keys.
const (
	KeyWelcome        = "welcome"
	KeyTurnError      = "turn.error"
	KeyHelp           = "help"
	KeyCancelled      = "cancelled"
	KeyIntro          = "intro"
	KeyIntroRestart   = "intro.restart"
	KeyNotConfigured  = "intro.not_configured"
	KeyNoMatch        = "fallback.no_match"
	KeyPromptUserID   = "prompt.user_id"
	KeyPromptDetailID = "prompt.detail_user_id"
	KeyPromptDetailEmail = "prompt.detail_email"
	KeyPromptNewAddress  = "prompt.new_address"
	KeyPromptNewEmail    = "prompt.new_email"
	KeyPromptKnownKey    = "prompt.known_key"

	KeyConfirmChangeAddress = "confirm.change_address"
	KeyConfirmChangeEmail   = "confirm.change_email"
	KeyConfirmGetDetails    = "confirm.get_details"
	KeyConfirmGetAddress    = "confirm.get_address"
	KeyConfirmGetEmail      = "confirm.get_email"

	KeyResultChangeAddress = "result.change_address"
	KeyResultChangeEmail   = "result.change_email"
	KeyResultGetDetails    = "result.get_details"
	KeyResultGetAddress    = "result.get_address"
	KeyResultGetEmail      = "result.get_email"
)

// Choice labels offered by the get-details dialog.
const (
	ChoiceUserID = "User ID"
	ChoiceEmail  = "Email"
)

// Defaults returns the compiled-in message texts. Confirmation and result
// entries are Go templates rendered against the dialog's slot values.
func Defaults() map[string]string {
	return map[string]string{
		KeyWelcome:       "Hey there! Good to see you here.",
		KeyTurnError:     "The bot encountered an error or bug.",
		KeyHelp:          "You can ask me to get or change a user's address, email or details. Say \"cancel\" to stop the current request.",
		KeyCancelled:     "Cancelling...",
		KeyIntro:         "What can I help you with today?\n\nSay something like \"I want the details of user having userid 1\"",
		KeyIntroRestart:  "What else can I do for you?",
		KeyNotConfigured: "NOTE: LUIS and QnA is not configured. To enable all capabilities, add `LUIS_APP_ID`, `LUIS_API_KEY` and `LUIS_API_HOST_NAME` to the environment.",
		KeyNoMatch:       "Sorry, I didn't get that. Please try asking in a different way",

		KeyPromptUserID:      "What is the User ID?",
		KeyPromptDetailID:    "What is the User ID of that User?",
		KeyPromptDetailEmail: "What is the Email of that User?",
		KeyPromptNewAddress:  "What is the new address?",
		KeyPromptNewEmail:    "What is the new Email?",
		KeyPromptKnownKey:    "Please select what do you know about user currently ?",

		KeyConfirmChangeAddress: "Please confirm, You want to change the address of user id {{.userId}} to: {{.newAddress}}. Is this correct?",
		KeyConfirmChangeEmail:   "Please confirm, You want to change the email of user id {{.userId}} to: {{.newEmail}}. Is this correct?",
		KeyConfirmGetDetails:    "{{if .userId}}Please confirm, You want to get the details of user ID {{.userId}}. Is this correct?{{else}}Please confirm, You want to get the details of user having email {{.email}}. Is this correct?{{end}}",
		KeyConfirmGetAddress:    "Please confirm, You want to get the address details of user id {{.userId}}. Is this correct?",
		KeyConfirmGetEmail:      "Please confirm, You want to get the email of user id {{.userId}}. Is this correct?",

		KeyResultChangeAddress: "The address of given user Id {{.userId}} changed to {{.newAddress}} successfully.",
		KeyResultChangeEmail:   "The email of given user Id {{.userId}} changed to {{.newEmail}} successfully.",
		KeyResultGetDetails:    "The details of given user are:\n\nUser ID : {{.userId}}  \n\nName : {{.userName}}\n\nAddress : {{.address}}\n\nEmail : {{.email}}\n\nDate of Birth : {{.birthDate}}",
		KeyResultGetAddress:    "The address of given userId {{.userId}} is {{.address}}",
		KeyResultGetEmail:      "The email of given user Id {{.userId}} is {{.email}}",
	}
}
