package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookSink posts notification envelopes to external callback URLs,
// e.g. a Discord bot bridge.
type WebhookSink struct {
	urls   []string
	client *http.Client
}

// NewWebhookSink creates a sink posting to the given URLs.
func NewWebhookSink(urls []string) *WebhookSink {
	return &WebhookSink{
		urls: urls,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Deliver posts the envelope to every configured URL. The first failure
// is returned; remaining URLs are still attempted.
func (w *WebhookSink) Deliver(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	var firstErr error
	for _, url := range w.urls {
		if err := w.post(ctx, url, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (w *WebhookSink) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook to %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned %d", url, resp.StatusCode)
	}
	return nil
}
