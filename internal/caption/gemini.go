package caption

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiDefaultModel = "gemini-1.5-flash"

// GeminiOptions controls how the Gemini captioner is configured.
type GeminiOptions struct {
	APIKey string
	Model  string
}

// GeminiCaptioner sends captioning requests to the Gemini API. It exists so
// deployments without OpenAI access can still run the two-stage flows; the
// reply contract (a JSON object embedded in free text) is the same.
type GeminiCaptioner struct {
	client *genai.Client
	model  string
}

// NewGeminiCaptioner builds a captioner with a long-lived Gemini client.
func NewGeminiCaptioner(ctx context.Context, opts GeminiOptions) (*GeminiCaptioner, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("caption: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("caption: create gemini client: %w", err)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiCaptioner{client: client, model: model}, nil
}

// Close releases the underlying API connection.
func (c *GeminiCaptioner) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Caption sends one multimodal generation request and returns the raw reply
// text.
func (c *GeminiCaptioner) Caption(ctx context.Context, req Request) (string, error) {
	if len(req.ImageData) == 0 {
		return "", &ServiceError{Err: errors.New("image data is required")}
	}
	format := "png"
	if strings.Contains(req.ImageMIME, "jpeg") || strings.Contains(req.ImageMIME, "jpg") {
		format = "jpeg"
	}

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(format, req.ImageData),
		genai.Text(BuildTaskPrompt(req)),
	)
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	if len(resp.Candidates) == 0 {
		return "", &ServiceError{Err: errors.New("no candidates in reply")}
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &ServiceError{Err: errors.New("empty reply")}
	}
	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return "", &ServiceError{Err: errors.New("unexpected reply part type")}
	}
	text := strings.TrimSpace(string(txt))
	if text == "" {
		return "", &ServiceError{Err: errors.New("empty reply")}
	}
	return text, nil
}

var _ Captioner = (*GeminiCaptioner)(nil)
