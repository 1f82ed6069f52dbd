// Package webhook delivers the finished release request to the downstream
// bot that turns it into a pull request against the plugin index.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the release bot's intake endpoint. Payload acceptance
// and PR creation are its concern; this client only guarantees delivery.
const DefaultEndpoint = "https://spin-plugin-release-bot.fermyon.app/api/plugin-release"

// ReleaseRequest is the JSON body sent to the release bot. ProcessedTemplate
// carries the rendered manifest base64-encoded so the body stays
// transport-safe regardless of manifest content.
type ReleaseRequest struct {
	TagName            string `json:"tagName"`
	PluginName         string `json:"pluginName"`
	PluginRepo         string `json:"pluginRepo"`
	PluginOwner        string `json:"pluginOwner"`
	PluginReleaseActor string `json:"pluginReleaseActor"`
	ProcessedTemplate  string `json:"processedTemplate"`
}

type Client struct {
	endpoint   string
	httpClient *http.Client
}

func New(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: time.Minute,
		},
	}
}

// Send POSTs the release request. A non-2xx response fails the run; the
// response body is only read to surface a useful error message.
func (c *Client) Send(ctx context.Context, releaseRequest *ReleaseRequest) error {
	var bodyBuffer bytes.Buffer
	if err := json.NewEncoder(&bodyBuffer).Encode(releaseRequest); err != nil {
		return fmt.Errorf("failed to encode release request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &bodyBuffer)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send release request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("release request rejected with status code %d: %s", resp.StatusCode, msg)
	}
	return nil
}
