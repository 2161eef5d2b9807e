// Package notify announces committed presales writes to a chat webhook. Delivery is
// best-effort: callers log failures and never undo the write.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpportunityLine one solution line in a creation notice.
type OpportunityLine struct {
	Solution string
	Brand    string
	Cost     string // already formatted
}

// OpportunityCreated notice sent after a submission commits.
type OpportunityCreated struct {
	OpportunityID   string
	OpportunityName string
	CompanyName     string
	SalesName       string
	SalesGroupID    string
	PresalesName    string
	Lines           []OpportunityLine
}

// Notifier delivers creation notices.
type Notifier interface {
	OpportunityCreated(ctx context.Context, n OpportunityCreated) error
}

// Nop discards every notice.
type Nop struct{}

func (Nop) OpportunityCreated(context.Context, OpportunityCreated) error { return nil }

// WebhookNotifier posts interactive cards to a group-bot webhook URL.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (w *WebhookNotifier) OpportunityCreated(ctx context.Context, n OpportunityCreated) error {
	return w.send(ctx, NewOpportunityCreatedCard(n))
}

func (w *WebhookNotifier) send(ctx context.Context, card InteractiveCard) error {
	body, err := json.Marshal(map[string]interface{}{
		"msg_type": "interactive",
		"card":     card,
	})
	if err != nil {
		return fmt.Errorf("marshal card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	// group bots answer 200 with a non-zero code on rejection
	var result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if len(respBody) > 0 && json.Unmarshal(respBody, &result) == nil && result.Code != 0 {
		return fmt.Errorf("webhook error[%d]: %s", result.Code, result.Msg)
	}
	return nil
}

// NewOpportunityCreatedCard renders a creation notice.
func NewOpportunityCreatedCard(n OpportunityCreated) InteractiveCard {
	var lines strings.Builder
	for _, l := range n.Lines {
		fmt.Fprintf(&lines, "- **%s** (%s) - Rp %s\n", l.Solution, l.Brand, l.Cost)
	}

	return InteractiveCard{
		Config: &CardConfig{WideScreenMode: true},
		Header: &CardHeader{
			Title:    CardText{Tag: "plain_text", Content: "[New Opp] " + n.OpportunityName},
			Template: "blue",
		},
		Elements: []CardElement{
			{
				Tag: "div",
				Fields: []CardField{
					mdField(true, fmt.Sprintf("**Opportunity ID**\n%s", n.OpportunityID)),
					mdField(true, fmt.Sprintf("**Customer**\n%s", n.CompanyName)),
					mdField(true, fmt.Sprintf("**Sales**\n%s (%s)", n.SalesName, n.SalesGroupID)),
					mdField(true, fmt.Sprintf("**Inputter**\n%s", n.PresalesName)),
				},
			},
			{Tag: "hr"},
			{Tag: "markdown", Content: "**Solution Details**\n" + lines.String()},
			{
				Tag:      "note",
				Elements: []CardElement{{Tag: "plain_text", Content: "Generated by Presales App"}},
			},
		},
	}
}
