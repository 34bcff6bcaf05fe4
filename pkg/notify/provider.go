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

// Provider delivers a templated notification to an external service
type Provider interface {
	Trigger(ctx context.Context, templateKey string, to Recipient, payload map[string]interface{}) error
}

// HTTPProvider triggers notification workflows over a Novu-style REST API
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider creates a provider pointed at the given API base URL
func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// triggerRequest is the wire format of the provider's trigger endpoint
type triggerRequest struct {
	Name    string                 `json:"name"`
	To      Recipient              `json:"to"`
	Payload map[string]interface{} `json:"payload"`
}

// Trigger posts a trigger event for the given template. Non-2xx responses
// and transport failures are both reported as errors; the caller decides
// whether to retry.
func (p *HTTPProvider) Trigger(ctx context.Context, templateKey string, to Recipient, payload map[string]interface{}) error {
	body, err := json.Marshal(triggerRequest{
		Name:    templateKey,
		To:      to,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal trigger payload: %w", err)
	}

	url := p.baseURL + "/v1/events/trigger"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "ApiKey "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("trigger request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Keep a short response excerpt for diagnostics
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("trigger returned status %d: %s", resp.StatusCode, string(excerpt))
	}
	return nil
}
