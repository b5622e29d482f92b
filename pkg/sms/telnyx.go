package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const telnyxMessagesURL = "https://api.telnyx.com/v2/messages"

// TelnyxClient implements Provider against the Telnyx v2 Messages API.
type TelnyxClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTelnyxClient creates a new Telnyx SMS client
func NewTelnyxClient(apiKey string) *TelnyxClient {
	return &TelnyxClient{
		apiKey:  apiKey,
		baseURL: telnyxMessagesURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type telnyxSendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

type telnyxSendResponse struct {
	Data struct {
		ID string `json:"id"`
		To []struct {
			Status string `json:"status"`
		} `json:"to"`
	} `json:"data"`
	Errors []struct {
		Code   string `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// SendSMS sends a message via Telnyx
func (c *TelnyxClient) SendSMS(ctx context.Context, to, from, body string) (*Result, error) {
	payload, err := json.Marshal(telnyxSendRequest{From: from, To: to, Text: body})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telnyx request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read telnyx response: %w", err)
	}

	var parsed telnyxSendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode telnyx response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(parsed.Errors) > 0 {
			return nil, fmt.Errorf("telnyx rejected message: %s (%s)", parsed.Errors[0].Title, parsed.Errors[0].Code)
		}
		return nil, fmt.Errorf("telnyx returned status %d", resp.StatusCode)
	}

	status := "queued"
	if len(parsed.Data.To) > 0 && parsed.Data.To[0].Status != "" {
		status = parsed.Data.To[0].Status
	}

	return &Result{
		MessageID: parsed.Data.ID,
		Status:    status,
	}, nil
}
