package config

import (
	"github.com/pitabwire/frame/config"
)

// BotConfig holds configuration for the bot service.
type BotConfig struct {
	config.ConfigurationDefault

	// Language understanding (LUIS) prediction endpoint. All three must
	// be set for intent recognition to be enabled.
	LuisAppID    string `envDefault:"" env:"LUIS_APP_ID"`
	LuisAPIKey   string `envDefault:"" env:"LUIS_API_KEY"`
	LuisHostname string `envDefault:"" env:"LUIS_API_HOST_NAME"`

	// Knowledge base (QnA Maker) fallback endpoint.
	QnAKnowledgeBaseID string `envDefault:"" env:"QNA_KNOWLEDGEBASE_ID"`
	QnAEndpointKey     string `envDefault:"" env:"QNA_ENDPOINT_KEY"`
	QnAHost            string `envDefault:"" env:"QNA_ENDPOINT_HOST_NAME"`

	// Downstream user-record service.
	UserServiceURL string `envDefault:"http://127.0.0.1:8080" env:"USER_SERVICE_URL"`

	// Shared secret guarding the webhook endpoint. Empty disables auth.
	AppSecret string `envDefault:"" env:"BOT_APP_SECRET"`

	// Directory of YAML message overrides, hot-reloaded when set.
	MessageDir string `envDefault:"" env:"MESSAGE_DIR"`

	// Session persistence: "memory" or "database".
	SessionStore      string `envDefault:"memory" env:"SESSION_STORE"`
	SessionTTLMinutes int    `envDefault:"30"     env:"SESSION_TTL_MINUTES"`
}
