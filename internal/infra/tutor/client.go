package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"voice-tutor/internal/domain"
)

// DefaultEndpoint is used when the config file names no endpoint.
const DefaultEndpoint = "http://localhost:8000/chat"

const maxReplyBytes = 1 << 20

// StatusError is returned for non-2xx replies.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tutor API error %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient binds the client to endpoint for its lifetime. No client-side
// timeout is set; cancel ctx to abandon a request.
func NewClient(endpoint string, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

type request struct {
	Text string `json:"text"`
}

type response struct {
	Reply *json.RawMessage `json:"reply"`
}

// Send posts one utterance and returns the tutor's reply. Every failure wraps
// domain.ErrNetwork; there is no retry.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	reply, err := c.send(ctx, text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	return reply, nil
}

func (c *Client) send(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(request{Text: text})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("sending utterance", "endpoint", c.endpoint, "chars", len(text))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return decodeReply(respBody)
}

func decodeReply(body []byte) (string, error) {
	var result response
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedReply, err)
	}
	if result.Reply == nil {
		return "", fmt.Errorf("%w: missing reply field", domain.ErrMalformedReply)
	}

	var reply string
	if err := json.Unmarshal(*result.Reply, &reply); err != nil {
		return "", fmt.Errorf("%w: reply is not a string", domain.ErrMalformedReply)
	}
	return reply, nil
}
