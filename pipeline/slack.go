package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/BecasLan/BecasScore-sub002/gateway"
	"github.com/BecasLan/BecasScore-sub002/reflex"
	"github.com/BecasLan/BecasScore-sub002/util"
)

// SlackAlerter sends moderation alerts to a channel via slack "incoming
// webhook". Sends are rate-bounded so an event flood cannot turn into a
// webhook flood; excess alerts are dropped, not queued.
type SlackAlerter struct {
	WebhookURL string

	limiter *rate.Limiter
	client  *http.Client
}

func NewSlackAlerter(webhookURL string) *SlackAlerter {
	return &SlackAlerter{
		WebhookURL: webhookURL,
		limiter:    rate.NewLimiter(rate.Limit(1), 10),
		client:     util.RobustHTTPClient(),
	}
}

type slackWebhookBody struct {
	Text string `json:"text"`
}

func (a *SlackAlerter) Alert(ctx context.Context, text string) error {
	if !a.limiter.Allow() {
		return fmt.Errorf("alert rate limit exceeded, dropping alert")
	}
	body, err := json.Marshal(slackWebhookBody{Text: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}

var _ Alerter = (*SlackAlerter)(nil)

// alertBody formats one moderation alert message.
func alertBody(sc *gateway.StabilizedContext, resp *reflex.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ Reflex Moderation Action ⚠️\n")
	fmt.Fprintf(&b, "`%s` in tenant `%s` channel `%s`\n", sc.Event.AuthorID, sc.Event.TenantID, sc.Event.ChannelID)
	fmt.Fprintf(&b, "Action: `%s` (confidence %.2f)\n", resp.Kind, resp.Confidence)
	if resp.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", resp.Reason)
	}
	if text := sc.Event.Text; text != "" {
		if len(text) > 280 {
			text = text[:280] + "…"
		}
		fmt.Fprintf(&b, "Message: %s\n", text)
	}
	return b.String()
}
