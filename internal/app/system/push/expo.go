// Package push delivers platform push events through the Expo push API.
// Delivery is best effort: the notification inbox is the durable record,
// and callers treat a send failure as a logged degradation, never a fault.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the Expo push service.
const DefaultEndpoint = "https://exp.host/--/api/v2/push/send"

// Client posts push messages to an Expo-compatible endpoint.
type Client struct {
	endpoint string
	httpc    *http.Client
}

// NewClient builds a push client. An empty endpoint selects the public
// Expo service; timeout bounds the whole send round trip.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: timeout},
	}
}

// message is the Expo push payload. The data map rides along so the
// receiving client can deep-link to the referenced screen.
type message struct {
	To        string            `json:"to"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Sound     string            `json:"sound"`
	ChannelID string            `json:"channelId,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Disabled is a no-op sender used when push delivery is turned off.
// Inbox records are still written; nothing reaches devices.
type Disabled struct{}

// Send discards the event.
func (Disabled) Send(context.Context, string, string, string, map[string]string) error {
	return nil
}

// Send delivers one push event to the device behind token.
func (c *Client) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	payload, err := json.Marshal(message{
		To:        token,
		Title:     title,
		Body:      body,
		Sound:     "default",
		ChannelID: "tasks",
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("encoding push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("push transport: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push endpoint returned %s", resp.Status)
	}
	return nil
}
