package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Ferdagulay/apps-challenge/internal/caption"
	"github.com/Ferdagulay/apps-challenge/internal/genimage"
	"github.com/Ferdagulay/apps-challenge/internal/pipeline"
	"github.com/Ferdagulay/apps-challenge/internal/session"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

type stubRunner struct {
	res     *pipeline.Result
	err     error
	variant pipeline.Variant
	mime    string
	prompt  string
	called  bool
}

func (s *stubRunner) Run(_ context.Context, _ []byte, mime, instruction string, v pipeline.Variant) (*pipeline.Result, error) {
	s.called = true
	s.mime = mime
	s.prompt = instruction
	s.variant = v
	return s.res, s.err
}

func newTestApp(runner *stubRunner) *App {
	return NewApp(runner, zerolog.Nop(), "/srv/output", 1<<20)
}

func multipartBody(t *testing.T, image []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "upload.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return buf, mw.FormDataContentType()
}

func postSession(t *testing.T, app *App, image []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, image, fields)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.CreateSession(rec, req)
	return rec
}

func TestCreateSessionSuccess(t *testing.T) {
	runner := &stubRunner{res: &pipeline.Result{
		SessionPath:        "/srv/output/session_x",
		UploadedImagePath:  filepath.Join("/srv/output/session_x", "uploaded_1.png"),
		GeneratedImagePath: filepath.Join("/srv/output/session_x", "generated_1.png"),
		Provenance:         &session.Record{Caption: "a red apple", UserPrompt: "draw a pear"},
	}}
	app := newTestApp(runner)

	rec := postSession(t, app, pngMagic, map[string]string{"prompt": "draw a pear", "variant": "basic"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if runner.mime != "image/png" {
		t.Fatalf("detected mime = %q", runner.mime)
	}
	if runner.variant != pipeline.VariantBasic || runner.prompt != "draw a pear" {
		t.Fatalf("runner got variant=%q prompt=%q", runner.variant, runner.prompt)
	}

	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UploadedImageURL != "/files/session_x/uploaded_1.png" {
		t.Fatalf("uploaded url = %q", resp.UploadedImageURL)
	}
	if resp.GeneratedImageURL != "/files/session_x/generated_1.png" {
		t.Fatalf("generated url = %q", resp.GeneratedImageURL)
	}
	if resp.Provenance == nil || resp.Provenance.Caption != "a red apple" {
		t.Fatalf("provenance missing: %+v", resp.Provenance)
	}
}

func TestCreateSessionRequiresPrompt(t *testing.T) {
	runner := &stubRunner{}
	rec := postSession(t, newTestApp(runner), pngMagic, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if runner.called {
		t.Fatalf("runner should not run without a prompt")
	}
}

func TestCreateSessionRejectsUnknownVariant(t *testing.T) {
	rec := postSession(t, newTestApp(&stubRunner{}), pngMagic, map[string]string{"prompt": "p", "variant": "turbo"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateSessionRejectsNonImageUpload(t *testing.T) {
	rec := postSession(t, newTestApp(&stubRunner{}), []byte("plain text payload"), map[string]string{"prompt": "p"})
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateSessionRejectsMissingFile(t *testing.T) {
	rec := postSession(t, newTestApp(&stubRunner{}), nil, map[string]string{"prompt": "p"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateSessionEnforcesUploadLimit(t *testing.T) {
	app := newTestApp(&stubRunner{})
	app.MaxUploadBytes = 128

	big := append(append([]byte{}, pngMagic...), bytes.Repeat([]byte{0}, 4096)...)
	rec := postSession(t, app, big, map[string]string{"prompt": "p"})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateSessionCaptionParseFailureIs422(t *testing.T) {
	runner := &stubRunner{
		res: &pipeline.Result{SessionPath: "/srv/output/session_x", Error: "caption parse: no JSON object in reply"},
		err: &caption.ParseError{Raw: "gibberish", Err: io.ErrUnexpectedEOF},
	}
	rec := postSession(t, newTestApp(runner), pngMagic, map[string]string{"prompt": "p"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == "" {
		t.Fatalf("response should surface the run error")
	}
}

func TestCreateSessionUpstreamFailureIs502(t *testing.T) {
	cases := []error{
		&caption.ServiceError{Err: io.ErrUnexpectedEOF},
		&genimage.ServiceError{Err: io.ErrUnexpectedEOF},
		&genimage.EmptyResultError{Detail: "no image data"},
		&genimage.FetchError{URL: "https://img.example/x.png", Status: 404},
	}
	for _, cause := range cases {
		runner := &stubRunner{res: &pipeline.Result{SessionPath: "/srv/output/session_x", Error: cause.Error()}, err: cause}
		rec := postSession(t, newTestApp(runner), pngMagic, map[string]string{"prompt": "p"})
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("cause %T: status = %d", cause, rec.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	newTestApp(&stubRunner{}).Health(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
