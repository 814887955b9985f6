package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voyagecrm/booking-core/internal/apperrors"
)

// Config holds error-tracking collaborator settings
type Config struct {
	URL         string
	APIKey      string
	Service     string
	Environment string
}

// Client posts classified errors to an external error-tracking service
type Client struct {
	config Config
	client *http.Client
}

// NewClient creates a tracking client
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Event is the payload sent for one error
type Event struct {
	Service     string                 `json:"service"`
	Environment string                 `json:"environment"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// SendToTracking forwards err with its logging context
func (c *Client) SendToTracking(ctx context.Context, err *apperrors.AppError, fields map[string]interface{}) error {
	body, mErr := json.Marshal(Event{
		Service:     c.config.Service,
		Environment: c.config.Environment,
		Code:        err.Code,
		Message:     err.Message,
		Details:     err.Details,
		Context:     fields,
		Timestamp:   err.Timestamp,
	})
	if mErr != nil {
		return fmt.Errorf("failed to marshal tracking event: %w", mErr)
	}

	req, rErr := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if rErr != nil {
		return fmt.Errorf("failed to create request: %w", rErr)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, dErr := c.client.Do(req)
	if dErr != nil {
		return fmt.Errorf("failed to send tracking event: %w", dErr)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("tracking service returned status %d", resp.StatusCode)
	}
	return nil
}
