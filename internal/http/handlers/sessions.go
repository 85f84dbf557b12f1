package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Ferdagulay/apps-challenge/internal/caption"
	"github.com/Ferdagulay/apps-challenge/internal/genimage"
	"github.com/Ferdagulay/apps-challenge/internal/pipeline"
	"github.com/Ferdagulay/apps-challenge/internal/session"
)

type sessionResponse struct {
	SessionPath       string          `json:"session_path"`
	Variant           string          `json:"variant"`
	UploadedImageURL  string          `json:"uploaded_image_url,omitempty"`
	GeneratedImageURL string          `json:"generated_image_url,omitempty"`
	Provenance        *session.Record `json:"provenance,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// CreateSession accepts a multipart upload (image, prompt, optional variant),
// runs the selected flow, and reports the persisted artifacts.
func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		// The multipart reader does not always wrap the limit error, so
		// match on the message as a fallback.
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "upload exceeds the size limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}

	instruction := r.FormValue("prompt")
	if instruction == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	variant, err := pipeline.ParseVariant(r.FormValue("variant"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image file is required")
		return
	}
	defer file.Close()
	imageData, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable image upload")
		return
	}
	mime := http.DetectContentType(imageData)
	if mime != "image/png" && mime != "image/jpeg" {
		a.error(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "only PNG and JPEG uploads are accepted")
		return
	}

	res, err := a.Runner.Run(r.Context(), imageData, mime, instruction, variant)
	if err != nil {
		a.runError(w, res, variant, err)
		return
	}
	a.json(w, http.StatusCreated, a.toResponse(res, variant))
}

func (a *App) toResponse(res *pipeline.Result, v pipeline.Variant) sessionResponse {
	return sessionResponse{
		SessionPath:       res.SessionPath,
		Variant:           string(v),
		UploadedImageURL:  a.fileURL(res.UploadedImagePath),
		GeneratedImageURL: a.fileURL(res.GeneratedImagePath),
		Provenance:        res.Provenance,
		Error:             res.Error,
	}
}

// runError maps the typed pipeline failure onto a response status. Partial
// artifacts persisted before the failure are still reported.
func (a *App) runError(w http.ResponseWriter, res *pipeline.Result, v pipeline.Variant, err error) {
	status := http.StatusInternalServerError
	code := "internal"
	var (
		parseErr   *caption.ParseError
		captionErr *caption.ServiceError
		genErr     *genimage.ServiceError
		emptyErr   *genimage.EmptyResultError
		fetchErr   *genimage.FetchError
	)
	switch {
	case errors.As(err, &parseErr):
		status = http.StatusUnprocessableEntity
		code = "caption_unparseable"
	case errors.As(err, &captionErr), errors.As(err, &genErr), errors.As(err, &emptyErr), errors.As(err, &fetchErr):
		status = http.StatusBadGateway
		code = "upstream_failure"
	}
	a.Logger.Error().Err(err).Str("code", code).Msg("session run failed")
	if res == nil {
		a.error(w, status, code, err.Error())
		return
	}
	a.json(w, status, a.toResponse(res, v))
}
