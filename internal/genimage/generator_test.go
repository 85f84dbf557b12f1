package genimage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIGeneratorReturnsURL(t *testing.T) {
	var captured struct {
		Prompt         string `json:"prompt"`
		Model          string `json:"model"`
		N              int    `json:"n"`
		Size           string `json:"size"`
		ResponseFormat string `json:"response_format"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://img.example.com/out.png"}]}`))
	}))
	defer ts.Close()

	g, err := NewOpenAIGenerator(GeneratorOptions{APIKey: "test-key", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator error: %v", err)
	}
	url, err := g.Generate(context.Background(), "a green pear in flat vector style")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if url != "https://img.example.com/out.png" {
		t.Fatalf("unexpected url: %s", url)
	}
	if captured.Model != "dall-e-3" || captured.N != 1 || captured.Size != "1024x1024" {
		t.Fatalf("unexpected request: %+v", captured)
	}
	if captured.ResponseFormat != "url" {
		t.Fatalf("unexpected response format: %s", captured.ResponseFormat)
	}
	if captured.Prompt != "a green pear in flat vector style" {
		t.Fatalf("prompt mismatch: %s", captured.Prompt)
	}
}

func TestOpenAIGeneratorEmptyData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	}))
	defer ts.Close()

	g, err := NewOpenAIGenerator(GeneratorOptions{APIKey: "test-key", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator error: %v", err)
	}
	_, err = g.Generate(context.Background(), "prompt")
	var empty *EmptyResultError
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptyResultError, got %v", err)
	}
}

func TestOpenAIGeneratorServiceFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"billing"}}`, http.StatusPaymentRequired)
	}))
	defer ts.Close()

	g, err := NewOpenAIGenerator(GeneratorOptions{APIKey: "test-key", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator error: %v", err)
	}
	_, err = g.Generate(context.Background(), "prompt")
	var serr *ServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
}

func TestOpenAIGeneratorRequiresKey(t *testing.T) {
	if _, err := NewOpenAIGenerator(GeneratorOptions{}); err == nil {
		t.Fatalf("expected error when api key missing")
	}
}
