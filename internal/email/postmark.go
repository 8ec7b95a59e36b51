// Package email sends transactional mail through the Postmark API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
)

const postmarkURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient returns a Postmark client. baseURL is the public address of the
// app, used to build links in messages.
func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c != nil && c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendInvite tells toEmail that inviterName has invited them to a household.
func (c *Client) SendInvite(ctx context.Context, toEmail, householdName, inviterName string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	if inviterName == "" {
		inviterName = "Someone"
	}
	subject := fmt.Sprintf("You've been invited to %s", householdName)
	link := c.baseURL + "/household"
	textBody := fmt.Sprintf(
		"%s invited you to join %s on Meal Plan.\n\nSign in with this email address to accept:\n\n%s\n\nThe invitation expires in 7 days.",
		inviterName, householdName, link,
	)
	htmlBody := fmt.Sprintf(
		`<p>%s invited you to join <strong>%s</strong> on Meal Plan.</p><p><a href="%s">Sign in to accept</a></p><p>The invitation expires in 7 days.</p>`,
		html.EscapeString(inviterName), html.EscapeString(householdName), link,
	)

	return c.send(ctx, postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

func (c *Client) send(ctx context.Context, payload postmarkEmail) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
