// Package vision talks to the Gemini generateContent REST endpoint to turn a
// photo plus an instruction into free text.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/starford/ecolog/internal/apperr"
	"github.com/starford/ecolog/internal/upstream"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1"
	DefaultModel   = "gemini-1.5-flash"
)

// Options configures a Client.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint
	RetryDelay time.Duration
}

// Client is a Gemini vision client.
type Client struct {
	httpClient *resty.Client
	apiKey     string
	model      string
	policy     upstream.Policy
}

// NewClient builds a client. An empty API key is accepted; calls then fail
// at the service.
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetHeader("Content-Type", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	return &Client{
		httpClient: client,
		apiKey:     opts.APIKey,
		model:      model,
		policy: upstream.Policy{
			Service:    "vision",
			MaxRetries: opts.MaxRetries,
			BaseDelay:  opts.RetryDelay,
		},
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.httpClient.Close()
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	InlineData *inlineData `json:"inlineData,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Describe sends the image and instruction and returns the first candidate's
// text, trimmed.
func (c *Client) Describe(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	body := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: instruction},
			},
		}},
	}

	var text string
	err := c.policy.Do(ctx, func() error {
		out, err := c.generate(ctx, body)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) generate(ctx context.Context, body generateRequest) (string, error) {
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		SetResult(&generateResponse{}).
		Post(fmt.Sprintf("/models/%s:generateContent", c.model))
	if err != nil {
		return "", fmt.Errorf("vision: generateContent: %w: %w", apperr.ErrUpstream, err)
	}
	if response.IsError() {
		return "", &upstream.StatusError{Service: "vision", Code: response.StatusCode(), Body: response.String()}
	}

	reply, _ := response.Result().(*generateResponse)
	if reply == nil || len(reply.Candidates) == 0 || len(reply.Candidates[0].Content.Parts) == 0 {
		reason := ""
		if reply != nil && reply.PromptFeedback.BlockReason != "" {
			reason = " (blocked: " + reply.PromptFeedback.BlockReason + ")"
		}
		return "", fmt.Errorf("vision: reply has no candidate text%s: %w", reason, apperr.ErrParse)
	}
	return strings.TrimSpace(reply.Candidates[0].Content.Parts[0].Text), nil
}
