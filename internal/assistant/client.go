package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	requestTimeout   = 60 * time.Second
)

// Client wraps the Anthropic SDK with the household assistant's defaults.
type Client struct {
	api    anthropic.Client
	apiKey string
	model  anthropic.Model
}

// NewClient returns a client for model, or DefaultModel when model is empty.
// opts are applied after the API key, so tests can point the client at a
// local server with option.WithBaseURL.
func NewClient(apiKey, model string, opts ...option.RequestOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(requestTimeout),
	}, opts...)
	return &Client{
		api:    anthropic.NewClient(all...),
		apiKey: apiKey,
		model:  anthropic.Model(model),
	}
}

// Configured returns true if an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// CreateMessage sends one Messages API request. Model and MaxTokens default
// to the client's settings when unset.
func (c *Client) CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("assistant client not configured: missing api key")
	}
	if params.Model == "" {
		params.Model = c.model
	}
	if params.MaxTokens == 0 {
		params.MaxTokens = defaultMaxTokens
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("anthropic API error: status %d: %w", apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("send request: %w", err)
	}
	return msg, nil
}
