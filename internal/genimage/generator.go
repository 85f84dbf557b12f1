package genimage

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	generatorDefaultModel   = "dall-e-3"
	generatorDefaultSize    = "1024x1024"
	generatorDefaultTimeout = 120 * time.Second
)

// GeneratorOptions controls how the generation client is configured.
type GeneratorOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	Size       string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// OpenAIGenerator produces an image from a text prompt and returns a
// retrievable URL rather than inline bytes; pair it with Fetcher.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	size   string
}

// NewOpenAIGenerator builds a generation client from the supplied
// credentials.
func NewOpenAIGenerator(opts GeneratorOptions) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("genimage: openai api key is required")
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
			timeout = generatorDefaultTimeout
		}
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = generatorDefaultModel
	}
	size := strings.TrimSpace(opts.Size)
	if size == "" {
		size = generatorDefaultSize
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		size:   size,
	}, nil
}

// Generate sends one generation request and returns the URL of the produced
// image.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", &ServiceError{Err: errors.New("prompt is required")}
	}
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              1,
		Size:           g.size,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	if len(resp.Data) == 0 {
		return "", &EmptyResultError{Detail: "empty data array"}
	}
	url := strings.TrimSpace(resp.Data[0].URL)
	if url == "" {
		return "", &EmptyResultError{Detail: "blank image url"}
	}
	return url, nil
}
