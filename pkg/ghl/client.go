package ghl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://services.leadconnectorhq.com"

// Client talks to the GoHighLevel conversations API. It is read-only: the
// sync loop pulls messages and call transcripts that never hit our webhooks.
type Client struct {
	apiKey     string
	locationID string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new GoHighLevel API client
func NewClient(apiKey, locationID string) *Client {
	return &Client{
		apiKey:     apiKey,
		locationID: locationID,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Message is one conversation message as the provider reports it.
type Message struct {
	ID        string    `json:"id"`
	Direction string    `json:"direction"` // inbound, outbound
	Body      string    `json:"body"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	DateAdded time.Time `json:"dateAdded"`
}

// CallRecord is one completed call, with its transcript when the provider
// has finished transcribing.
type CallRecord struct {
	ID         string    `json:"id"`
	Direction  string    `json:"direction"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Duration   int       `json:"duration"`
	Transcript string    `json:"transcript"`
	DateAdded  time.Time `json:"dateAdded"`
}

type messagesResponse struct {
	Messages []Message `json:"messages"`
}

type callsResponse struct {
	Calls []CallRecord `json:"calls"`
}

// MessagesSince returns conversation messages added after the given time.
func (c *Client) MessagesSince(ctx context.Context, since time.Time) ([]Message, error) {
	var resp messagesResponse
	if err := c.get(ctx, "/conversations/messages", since, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// CallsSince returns completed calls added after the given time.
func (c *Client) CallsSince(ctx context.Context, since time.Time) ([]CallRecord, error) {
	var resp callsResponse
	if err := c.get(ctx, "/conversations/calls", since, &resp); err != nil {
		return nil, err
	}
	return resp.Calls, nil
}

func (c *Client) get(ctx context.Context, path string, since time.Time, out any) error {
	q := url.Values{}
	q.Set("locationId", c.locationID)
	if !since.IsZero() {
		q.Set("startAfter", strconv.FormatInt(since.UnixMilli(), 10))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ghl request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read ghl response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ghl returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode ghl response: %w", err)
	}
	return nil
}
