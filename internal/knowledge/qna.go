// Package knowledge wraps the QnA Maker generateAnswer REST endpoint as
// the fallback for utterances no intent matches.
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Config carries the knowledge-base settings from the environment.
type Config struct {
	KnowledgeBaseID string
	EndpointKey     string
	Host            string
}

// Answer is one ranked candidate answer from the knowledge base.
type Answer struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
}

// Client calls the knowledge-base generateAnswer endpoint.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	configured bool
}

// New creates a knowledge-base client. An incomplete config produces a
// disabled client.
func New(cfg Config) *Client {
	configured := cfg.KnowledgeBaseID != "" && cfg.EndpointKey != "" && cfg.Host != ""

	base := cfg.Host
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

// IsConfigured reports whether the knowledge base can be queried.
func (c *Client) IsConfigured() bool { return c.configured }

// GetAnswers returns candidate answers ordered by descending confidence.
// An utterance with no match yields an empty slice, not an error.
func (c *Client) GetAnswers(ctx context.Context, question string) ([]Answer, error) {
	if !c.configured {
		return nil, fmt.Errorf("knowledge base is not configured")
	}

	endpoint := fmt.Sprintf("%s/qnamaker/knowledgebases/%s/generateAnswer", c.baseURL, url.PathEscape(c.cfg.KnowledgeBaseID))

	payload, err := json.Marshal(map[string]any{"question": question})
	if err != nil {
		return nil, fmt.Errorf("marshal question: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create answer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "EndpointKey "+c.cfg.EndpointKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("answer request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read answer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("knowledge base returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Answers []Answer `json:"answers"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal answer response: %w", err)
	}

	// The service reports "no match" as a zero-score sentinel answer.
	answers := parsed.Answers[:0]
	for _, a := range parsed.Answers {
		if a.Score > 0 {
			answers = append(answers, a)
		}
	}
	sort.SliceStable(answers, func(i, j int) bool { return answers[i].Score > answers[j].Score })

	return answers, nil
}
