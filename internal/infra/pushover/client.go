package pushover

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-tutor/internal/domain"
)

const DefaultURL = "https://api.pushover.net/1/messages.json"

// Client mirrors alerts to a Pushover device. Without credentials it does nothing.
type Client struct {
	token      string
	userKey    string
	url        string
	httpClient *http.Client
}

func NewClient(token, userKey string) *Client {
	return &Client{
		token:      token,
		userKey:    userKey,
		url:        DefaultURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithURL points the client at another messages endpoint.
func (c *Client) WithURL(u string) *Client {
	c.url = u
	return c
}

func (c *Client) Enabled() bool {
	return c.token != "" && c.userKey != ""
}

func (c *Client) Alert(ctx context.Context, alert domain.Alert) error {
	if !c.Enabled() {
		return nil
	}

	data := url.Values{}
	data.Set("token", c.token)
	data.Set("user", c.userKey)
	data.Set("title", "Voice Tutor: "+alert.Title)
	data.Set("message", alert.Message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushover error: %s", resp.Status)
	}

	return nil
}
