// Package calendly talks to the scheduling provider: OAuth token grants,
// account lookups, webhook subscriptions and invitee cancellation.
package calendly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAPIBaseURL = "https://api.calendly.com"

	defaultTimeout   = 15 * time.Second
	maxErrorBodySize = 4 << 10
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultAPIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: base, http: httpClient}
}

type User struct {
	URI                 string `json:"uri"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	SchedulingURL       string `json:"scheduling_url"`
	CurrentOrganization string `json:"current_organization"`
}

type EventType struct {
	URI           string `json:"uri"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Active        bool   `json:"active"`
	Duration      int    `json:"duration"`
	SchedulingURL string `json:"scheduling_url"`
}

type WebhookSubscription struct {
	URL          string   `json:"url"`
	Events       []string `json:"events"`
	Organization string   `json:"organization"`
	Scope        string   `json:"scope"`
	SigningKey   string   `json:"signing_key,omitempty"`
}

func (c *Client) CurrentUser(ctx context.Context, accessToken string) (User, error) {
	var out struct {
		Resource User `json:"resource"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/users/me", accessToken, nil, &out); err != nil {
		return User{}, err
	}
	return out.Resource, nil
}

func (c *Client) ListEventTypes(ctx context.Context, accessToken, userURI string) ([]EventType, error) {
	q := url.Values{}
	q.Set("user", userURI)
	var out struct {
		Collection []EventType `json:"collection"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/event_types?"+q.Encode(), accessToken, nil, &out); err != nil {
		return nil, err
	}
	return out.Collection, nil
}

func (c *Client) CreateWebhookSubscription(ctx context.Context, accessToken string, sub WebhookSubscription) error {
	return c.do(ctx, http.MethodPost, c.baseURL+"/webhook_subscriptions", accessToken, sub, nil)
}

// CancelInvitee posts to the per-booking cancellation URL issued by the
// provider. No retries are attempted.
func (c *Client) CancelInvitee(ctx context.Context, accessToken, cancellationURL string) error {
	return c.do(ctx, http.MethodPost, cancellationURL, accessToken, nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
