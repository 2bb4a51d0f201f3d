// Package illustration wraps the OpenAI image API used to paint the
// identified species.
package illustration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/starford/ecolog/internal/apperr"
	"github.com/starford/ecolog/internal/upstream"
)

// Options configures a Client.
type Options struct {
	APIKey     string
	Model      string
	Size       string
	Quality    string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint
	RetryDelay time.Duration
}

// Client generates one illustration per prompt.
type Client struct {
	api     *openai.Client
	model   string
	size    string
	quality string
	policy  upstream.Policy
}

// NewClient builds a client. Empty model, size and quality fall back to
// dall-e-3, 1024x1024 and hd.
func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	c := &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   opts.Model,
		size:    opts.Size,
		quality: opts.Quality,
		policy: upstream.Policy{
			Service:    "image",
			MaxRetries: opts.MaxRetries,
			BaseDelay:  opts.RetryDelay,
		},
	}
	if c.model == "" {
		c.model = openai.CreateImageModelDallE3
	}
	if c.size == "" {
		c.size = openai.CreateImageSize1024x1024
	}
	if c.quality == "" {
		c.quality = openai.CreateImageQualityHD
	}
	return c
}

// Generate asks for a single image and returns its URL.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.model,
		N:              1,
		Size:           c.size,
		Quality:        c.quality,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	}

	var url string
	err := c.policy.Do(ctx, func() error {
		resp, err := c.api.CreateImage(ctx, req)
		if err != nil {
			return classify(err)
		}
		if len(resp.Data) == 0 || resp.Data[0].URL == "" {
			return fmt.Errorf("image: reply has no image url: %w", apperr.ErrParse)
		}
		url = resp.Data[0].URL
		return nil
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

// classify turns go-openai errors into upstream errors so the retry policy
// can tell transient failures from permanent ones.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &upstream.StatusError{Service: "image", Code: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &upstream.StatusError{Service: "image", Code: reqErr.HTTPStatusCode, Body: body}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("image: create image: %w: %w", apperr.ErrUpstream, err)
}
