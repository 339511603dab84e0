// Package slack posts escalation notifications for Immediate-risk triage
// decisions to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/acuity/internal/triage"
)

const httpTimeout = 10 * time.Second

// Notifier sends triage decisions to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts a decision to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, d *triage.Decision) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(d)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(d *triage.Decision) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(d),
			{"type": "divider"},
			fieldsBlock(d),
			{"type": "divider"},
			contextBlock(d),
		},
	}
}

func headerBlock(d *triage.Decision) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf(":rotating_light: Immediate triage: %s", patientLabel(d)),
		},
	}
}

func fieldsBlock(d *triage.Decision) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Risk:* %s", d.Risk),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Intervention:* %s", d.Intervention),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Severity:* %.1f", d.Severity),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Source:* %s", d.Source),
		},
	}
	if d.Location != "" {
		fields = append(fields, map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Location:* %s", d.Location),
		})
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func contextBlock(d *triage.Decision) map[string]any {
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("acuity • decision %s • %s", d.ID, d.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")),
			},
		},
	}
}

func patientLabel(d *triage.Decision) string {
	if d.PatientID != "" {
		return d.PatientID
	}
	return "unidentified patient"
}
