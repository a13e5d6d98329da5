// Package whatsapp talks to the WhatsApp Cloud API through the Kapso proxy.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hrygo/wabot/plugin/ai/timeout"
)

const (
	DefaultBaseURL    = "https://api.kapso.ai/meta/whatsapp"
	DefaultAPIVersion = "v23.0"
)

// ErrNotConfigured is returned when no Kapso API key is set.
var ErrNotConfigured = errors.New("kapso api key not configured")

// Transport delivers replies and read receipts.
type Transport interface {
	// SendText sends a text message to a recipient.
	SendText(ctx context.Context, phoneNumberID, to, body string) error

	// MarkRead marks a message as read, optionally showing a typing indicator.
	MarkRead(ctx context.Context, phoneNumberID, messageID string, typing bool) error
}

// Config configures a Kapso client.
type Config struct {
	APIKey     string
	BaseURL    string        // default: DefaultBaseURL
	APIVersion string        // default: DefaultAPIVersion
	Timeout    time.Duration // default: timeout.TransportTimeout
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kapso api error: status %d: %s", e.StatusCode, e.Body)
}

// Client is the Kapso implementation of Transport.
type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	client     *http.Client
}

var _ Transport = (*Client)(nil)

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeout.TransportTimeout
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiVersion: cfg.APIVersion,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type sendTextRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type typingIndicator struct {
	Type string `json:"type"`
}

type markReadRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	Status           string           `json:"status"`
	MessageID        string           `json:"message_id"`
	TypingIndicator  *typingIndicator `json:"typing_indicator,omitempty"`
}

func (c *Client) SendText(ctx context.Context, phoneNumberID, to, body string) error {
	return c.postMessages(ctx, phoneNumberID, sendTextRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	})
}

func (c *Client) MarkRead(ctx context.Context, phoneNumberID, messageID string, typing bool) error {
	req := markReadRequest{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	}
	if typing {
		req.TypingIndicator = &typingIndicator{Type: "text"}
	}
	return c.postMessages(ctx, phoneNumberID, req)
}

func (c *Client) postMessages(ctx context.Context, phoneNumberID string, payload any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if phoneNumberID == "" {
		return errors.New("phone number id is required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("kapso request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
