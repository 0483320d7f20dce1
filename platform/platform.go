// Package platform holds the boundary interface to the messaging platform.
// The pipeline only ever calls these primitives through the effects bundle
// on a reflex response; any failure executing them is the caller's concern.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BecasLan/BecasScore-sub002/util"
)

// Client is the set of platform primitives moderation effects need.
type Client interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	TimeoutAuthor(ctx context.Context, tenantID, authorID string, dur time.Duration, reason string) error
	BanAuthor(ctx context.Context, tenantID, authorID, reason string) error
	SendChannelMessage(ctx context.Context, channelID, text string) error
	SendDirectMessage(ctx context.Context, authorID, text string) error
}

// RESTClient talks to the platform's HTTP API with retrying transport
// defaults. Not a full API binding: only the moderation primitives.
type RESTClient struct {
	Host      string
	Token     string
	UserAgent string
	HTTP      *http.Client
}

func NewRESTClient(host, token, userAgent string) *RESTClient {
	return &RESTClient{
		Host:      host,
		Token:     token,
		UserAgent: userAgent,
		HTTP:      util.RobustHTTPClient(),
	}
}

func (c *RESTClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/channels/%s/messages/%s", channelID, messageID), nil)
}

func (c *RESTClient) TimeoutAuthor(ctx context.Context, tenantID, authorID string, dur time.Duration, reason string) error {
	body := map[string]any{
		"communication_disabled_until": time.Now().Add(dur).UTC().Format(time.RFC3339),
		"reason":                       reason,
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/guilds/%s/members/%s", tenantID, authorID), body)
}

func (c *RESTClient) BanAuthor(ctx context.Context, tenantID, authorID, reason string) error {
	body := map[string]any{"reason": reason}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/guilds/%s/bans/%s", tenantID, authorID), body)
}

func (c *RESTClient) SendChannelMessage(ctx context.Context, channelID, text string) error {
	body := map[string]any{"content": text}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/channels/%s/messages", channelID), body)
}

func (c *RESTClient) SendDirectMessage(ctx context.Context, authorID, text string) error {
	body := map[string]any{"recipient_id": authorID, "content": text}
	return c.do(ctx, http.MethodPost, "/api/users/@me/channels/messages", body)
}

func (c *RESTClient) do(ctx context.Context, method, path string, body any) error {
	var buf *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewBuffer(raw)
	} else {
		buf = new(bytes.Buffer)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Host+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+c.Token)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("platform API request failed: %s %s: status=%d", method, path, resp.StatusCode)
	}
	return nil
}
