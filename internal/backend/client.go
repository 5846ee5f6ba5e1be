// Package backend is the REST client for the downstream user-record
// service. The service signals a successful read with a 302 status and a
// successful write with 200; any other status carries a message payload
// that is surfaced to the user verbatim.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Details is the remote user record. It is owned entirely by the
// external service and never cached here.
type Details struct {
	UserID    int64  `json:"userId"`
	UserName  string `json:"userName"`
	Address   string `json:"address"`
	Email     string `json:"email"`
	BirthDate string `json:"birthDate"`
}

// Fault is a service-provided failure: the call reached the service but
// was rejected, and Message is relayed to the user verbatim.
type Fault struct {
	Message string `json:"message"`
}

// Client calls the user-record service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a backend client for the given base URL. Redirect statuses
// are returned as-is because the service uses 302 as its read-success
// status, with the payload in the response body.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// do dispatches one request and classifies the response: the wanted
// status yields the body, any other status yields the service's fault
// message, and transport or parse failures yield an error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, wantStatus int) ([]byte, *Fault, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("read response for %s %s: %w", method, path, err)
	}

	if resp.StatusCode != wantStatus {
		var fault Fault
		if err := json.Unmarshal(body, &fault); err != nil {
			return nil, nil, fmt.Errorf("%s %s returned HTTP %d with malformed body", method, path, resp.StatusCode)
		}
		return nil, &fault, nil
	}
	return body, nil, nil
}

// GetDetailsByID looks up a user record by numeric id.
func (c *Client) GetDetailsByID(ctx context.Context, userID int64) (*Details, *Fault, error) {
	body, fault, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/details/userId/%d", userID), nil, http.StatusFound)
	if err != nil || fault != nil {
		return nil, fault, err
	}
	return decodeDetails(body)
}

// GetDetailsByEmail looks up a user record by email.
func (c *Client) GetDetailsByEmail(ctx context.Context, email string) (*Details, *Fault, error) {
	body, fault, err := c.do(ctx, http.MethodGet, "/details/email/"+url.PathEscape(email), nil, http.StatusFound)
	if err != nil || fault != nil {
		return nil, fault, err
	}
	return decodeDetails(body)
}

// GetAddress returns the address of the given user.
func (c *Client) GetAddress(ctx context.Context, userID int64) (string, *Fault, error) {
	return c.getMessage(ctx, fmt.Sprintf("/address/%d", userID))
}

// UpdateAddress changes the address of the given user.
func (c *Client) UpdateAddress(ctx context.Context, userID int64, address string) (*Fault, error) {
	query := url.Values{}
	query.Set("Address", address)
	_, fault, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/address/%d", userID), query, http.StatusOK)
	return fault, err
}

// GetEmail returns the email of the given user.
func (c *Client) GetEmail(ctx context.Context, userID int64) (string, *Fault, error) {
	return c.getMessage(ctx, fmt.Sprintf("/email/%d", userID))
}

// UpdateEmail changes the email of the given user.
func (c *Client) UpdateEmail(ctx context.Context, userID int64, email string) (*Fault, error) {
	query := url.Values{}
	query.Set("Email", email)
	_, fault, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/email/%d", userID), query, http.StatusOK)
	return fault, err
}

// getMessage handles the read endpoints whose success payload is a
// single message field.
func (c *Client) getMessage(ctx context.Context, path string) (string, *Fault, error) {
	body, fault, err := c.do(ctx, http.MethodGet, path, nil, http.StatusFound)
	if err != nil || fault != nil {
		return "", fault, err
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil, fmt.Errorf("unmarshal response for %s: %w", path, err)
	}
	return payload.Message, nil, nil
}

func decodeDetails(body []byte) (*Details, *Fault, error) {
	var details Details
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, nil, fmt.Errorf("unmarshal user details: %w", err)
	}
	return &details, nil, nil
}
