package caption

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	openAIDefaultModel   = "gpt-4o-mini"
	openAIDefaultTimeout = 60 * time.Second
	openAIMaxTokens      = 300
)

// OpenAIOptions controls how the OpenAI captioner is configured.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
	Timeout    time.Duration
}

// OpenAICaptioner sends captioning requests to an OpenAI-compatible chat
// completion endpoint with the image attached as a data-URI part.
type OpenAICaptioner struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAICaptioner builds a captioner from the supplied credentials. The
// client is constructed once and reused for the process lifetime.
func NewOpenAICaptioner(opts OpenAIOptions) (*OpenAICaptioner, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("caption: openai api key is required")
	}
	cfg := openai.DefaultConfig(strings.TrimSpace(opts.APIKey))
	if base := strings.TrimRight(opts.BaseURL, "/"); base != "" {
		cfg.BaseURL = base
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	} else {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = openAIDefaultTimeout
		}
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openAIDefaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = openAIMaxTokens
	}
	return &OpenAICaptioner{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Caption sends one vision chat completion and returns the raw reply text.
func (c *OpenAICaptioner) Caption(ctx context.Context, req Request) (string, error) {
	if len(req.ImageData) == 0 {
		return "", &ServiceError{Err: errors.New("image data is required")}
	}
	mime := req.ImageMIME
	if mime == "" {
		mime = "image/png"
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(req.ImageData))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: BuildTaskPrompt(req),
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURI},
					},
				},
			},
		},
	})
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Err: errors.New("no choices in reply")}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &ServiceError{Err: errors.New("empty reply")}
	}
	return text, nil
}

var _ Captioner = (*OpenAICaptioner)(nil)
