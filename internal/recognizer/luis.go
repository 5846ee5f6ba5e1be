// Package recognizer wraps the LUIS v3 prediction REST endpoint behind a
// feature-detected client: an incomplete configuration yields a client
// that reports unconfigured instead of failing startup.
package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Config carries the recognizer settings from the environment. All three
// fields are required for the client to be considered configured.
type Config struct {
	AppID    string
	APIKey   string
	Hostname string
}

// Entities holds the slot values extracted from an utterance. A nil
// pointer means the entity was absent, so downstream elicitation steps
// still prompt.
type Entities struct {
	UserID    *int64
	Email     *string
	Geography *string
}

// Result is the recognizer output for one utterance.
type Result struct {
	TopIntent Intent
	Entities  Entities
	Query     string
}

// Client calls the LUIS prediction endpoint.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	configured bool
}

// New creates a recognizer client. An incomplete config produces a
// disabled client; callers are expected to feature-detect with
// IsConfigured before recognizing.
func New(cfg Config) *Client {
	configured := cfg.AppID != "" && cfg.APIKey != "" && cfg.Hostname != ""

	base := cfg.Hostname
	if base != "" && !strings.Contains(base, "://") {
		base = "https://" + base
	}

	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimSuffix(base, "/"),
		httpClient: &http.Client{},
		configured: configured,
	}
}

// IsConfigured reports whether the recognizer can be queried.
func (c *Client) IsConfigured() bool { return c.configured }

// predictionResponse mirrors the LUIS v3 prediction payload for the
// fields the bot consumes.
type predictionResponse struct {
	Prediction struct {
		TopIntent string `json:"topIntent"`
		Entities  struct {
			Number      []json.Number `json:"number"`
			Email       []string      `json:"email"`
			GeographyV2 []struct {
				Location string `json:"location"`
			} `json:"geographyV2"`
		} `json:"entities"`
	} `json:"prediction"`
}

// Recognize classifies the utterance and extracts any entities.
func (c *Client) Recognize(ctx context.Context, utterance string) (*Result, error) {
	if !c.configured {
		return nil, fmt.Errorf("recognizer is not configured")
	}

	endpoint := fmt.Sprintf("%s/luis/prediction/v3.0/apps/%s/slots/production/predict", c.baseURL, url.PathEscape(c.cfg.AppID))
	query := url.Values{}
	query.Set("subscription-key", c.cfg.APIKey)
	query.Set("query", utterance)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create prediction request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read prediction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prediction returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var parsed predictionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal prediction response: %w", err)
	}

	result := &Result{
		TopIntent: parseIntent(parsed.Prediction.TopIntent),
		Query:     utterance,
	}

	if nums := parsed.Prediction.Entities.Number; len(nums) > 0 {
		if id, err := nums[0].Int64(); err == nil {
			result.Entities.UserID = &id
		}
	}
	if emails := parsed.Prediction.Entities.Email; len(emails) > 0 && emails[0] != "" {
		email := emails[0]
		result.Entities.Email = &email
	}
	if geo := parsed.Prediction.Entities.GeographyV2; len(geo) > 0 && geo[0].Location != "" {
		location := geo[0].Location
		result.Entities.Geography = &location
	}

	return result, nil
}
