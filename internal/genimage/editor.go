package genimage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	editorDefaultBaseURL = "https://api.openai.com/v1"
	editorDefaultModel   = "gpt-4.1-mini"
	editorDefaultTimeout = 180 * time.Second
)

// EditorOptions controls how the direct-edit client is configured.
type EditorOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Editor performs a single-call image edit: the source image and instruction
// go out together and the reply carries the produced image inline as base64.
type Editor struct {
	httpClient *http.Client
	baseURL    string
	token      string
	model      string
}

// NewEditor builds a direct-edit client from the supplied credentials.
func NewEditor(opts EditorOptions) (*Editor, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("genimage: openai api key is required")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = editorDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = editorDefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = editorDefaultModel
	}
	return &Editor{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIKey),
		model:      model,
	}, nil
}

type editContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type editRequest struct {
	Model string `json:"model"`
	Input []struct {
		Role    string            `json:"role"`
		Content []editContentPart `json:"content"`
	} `json:"input"`
	Tools []struct {
		Type string `json:"type"`
	} `json:"tools"`
}

type editResponse struct {
	Output []struct {
		Type   string `json:"type"`
		Result string `json:"result"`
	} `json:"output"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Edit sends the source image and instruction in one request and returns the
// decoded bytes of the produced image.
func (e *Editor) Edit(ctx context.Context, imageData []byte, mime, instruction string) ([]byte, error) {
	if e == nil {
		return nil, &ServiceError{Err: errors.New("editor not configured")}
	}
	if len(imageData) == 0 {
		return nil, &ServiceError{Err: errors.New("image data is required")}
	}
	if mime == "" {
		mime = "image/png"
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(imageData))

	var payload editRequest
	payload.Model = e.model
	msg := struct {
		Role    string            `json:"role"`
		Content []editContentPart `json:"content"`
	}{
		Role: "user",
		Content: []editContentPart{
			{Type: "input_text", Text: instruction},
			{Type: "input_image", ImageURL: dataURI},
		},
	}
	payload.Input = append(payload.Input, msg)
	payload.Tools = append(payload.Tools, struct {
		Type string `json:"type"`
	}{Type: "image_generation"})

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	var out editResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &ServiceError{Err: fmt.Errorf("http %d", resp.StatusCode)}
		}
		return nil, &ServiceError{Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if out.Error != nil && out.Error.Message != "" {
			return nil, &ServiceError{Err: fmt.Errorf("%s (%s)", out.Error.Message, out.Error.Code)}
		}
		return nil, &ServiceError{Err: fmt.Errorf("http %d", resp.StatusCode)}
	}

	for _, item := range out.Output {
		if item.Type != "image_generation_call" || item.Result == "" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(item.Result)
		if err != nil {
			return nil, &ServiceError{Err: fmt.Errorf("decode image payload: %w", err)}
		}
		return decoded, nil
	}
	return nil, &EmptyResultError{Detail: "no image_generation_call output"}
}
