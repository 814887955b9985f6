package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Type is a kind of booking document
type Type string

const (
	TypeInvoice   Type = "invoice"
	TypeVoucher   Type = "voucher"
	TypeItinerary Type = "itinerary"
	TypeReceipt   Type = "receipt"
)

// IsValid reports whether t is a supported document type
func (t Type) IsValid() bool {
	switch t {
	case TypeInvoice, TypeVoucher, TypeItinerary, TypeReceipt:
		return true
	}
	return false
}

var ErrEmptyURL = errors.New("document service returned no url")

// Request describes the booking a document is generated for
type Request struct {
	BookingID    string    `json:"booking_id"`
	Type         Type      `json:"type"`
	CustomerName string    `json:"customer_name"`
	ItemName     string    `json:"item_name"`
	TravelDate   time.Time `json:"travel_date"`
	TotalAmount  float64   `json:"total_amount"`
	Status       string    `json:"status"`
}

// StatusError is returned when the document service answers with a non-2xx status
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("document service returned status %d: %s", e.Status, e.Body)
}

// StatusCode exposes the HTTP status for error classification
func (e *StatusError) StatusCode() int {
	return e.Status
}

// Client generates documents through a remote rendering service
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a document service client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type generateResponse struct {
	URL string `json:"url"`
}

// Generate asks the service to render a document and returns its URL
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if out.URL == "" {
		return "", ErrEmptyURL
	}
	return out.URL, nil
}

// LinkGenerator builds deterministic document links without a rendering service
type LinkGenerator struct {
	baseURL string
}

// NewLinkGenerator creates a generator rooted at baseURL
func NewLinkGenerator(baseURL string) *LinkGenerator {
	return &LinkGenerator{baseURL: strings.TrimRight(baseURL, "/")}
}

// Generate returns the link of the requested document
func (g *LinkGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/bookings/%s/%s.pdf", g.baseURL, url.PathEscape(req.BookingID), req.Type), nil
}
