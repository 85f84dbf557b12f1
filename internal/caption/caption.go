package caption

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Schema selects which keys the captioning service is asked for and which are
// required in its reply.
type Schema string

const (
	// SchemaBasic requires category and caption.
	SchemaBasic Schema = "basic"
	// SchemaEnhanced requires caption; drawing_style, quantity and
	// background are expected but optional.
	SchemaEnhanced Schema = "enhanced"
)

// Caption is the structured result of the captioning stage.
type Caption struct {
	Category     string
	Text         string
	DrawingStyle string
	Quantity     *int
	Background   string
}

// Request carries one captioning call to a provider.
type Request struct {
	ImageData   []byte
	ImageMIME   string
	Instruction string
	Schema      Schema
}

// Captioner sends one request to a captioning service and returns the raw
// text reply. Implementations do not retry; retry policy belongs to callers.
type Captioner interface {
	Caption(ctx context.Context, req Request) (string, error)
}

// Extract runs one captioning call and parses the semi-structured reply into
// a validated Caption. Transport and service failures surface as
// *ServiceError, replies without a usable JSON object or with missing or
// invalid keys as *ParseError.
func Extract(ctx context.Context, c Captioner, req Request) (*Caption, error) {
	raw, err := c.Caption(ctx, req)
	if err != nil {
		if _, ok := err.(*ServiceError); ok {
			return nil, err
		}
		return nil, &ServiceError{Err: err}
	}
	return Parse(raw, req.Schema)
}

// Parse locates the JSON object embedded in the reply and validates it
// against the schema.
func Parse(raw string, schema Schema) (*Caption, error) {
	fragment, err := extractObject(raw)
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	var payload struct {
		Category     string          `json:"category"`
		Caption      string          `json:"caption"`
		DrawingStyle string          `json:"drawing_style"`
		Quantity     json.RawMessage `json:"quantity"`
		Background   string          `json:"background"`
	}
	if err := json.Unmarshal([]byte(fragment), &payload); err != nil {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("decode object: %w", err)}
	}

	out := &Caption{
		Category:     strings.TrimSpace(payload.Category),
		Text:         strings.TrimSpace(payload.Caption),
		DrawingStyle: strings.TrimSpace(payload.DrawingStyle),
		Background:   strings.TrimSpace(payload.Background),
	}
	if out.Text == "" {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("missing required key %q", "caption")}
	}
	if schema == SchemaBasic && out.Category == "" {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("missing required key %q", "category")}
	}
	if schema == SchemaEnhanced && len(payload.Quantity) > 0 {
		qty, err := coerceQuantity(payload.Quantity)
		if err != nil {
			return nil, &ParseError{Raw: raw, Err: err}
		}
		out.Quantity = qty
	}
	return out, nil
}

// coerceQuantity accepts a JSON number or a numeric string and returns a
// non-negative integer. Anything else fails validation.
func coerceQuantity(raw json.RawMessage) (*int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return nil, fmt.Errorf("quantity must be >= 0, got %d", n)
		}
		return &n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("quantity %q is not an integer", s)
		}
		if n < 0 {
			return nil, fmt.Errorf("quantity must be >= 0, got %d", n)
		}
		return &n, nil
	}
	var null any
	if err := json.Unmarshal(raw, &null); err == nil && null == nil {
		return nil, nil
	}
	return nil, fmt.Errorf("quantity %s is not an integer", string(raw))
}
