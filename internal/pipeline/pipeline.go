package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Ferdagulay/apps-challenge/internal/caption"
	"github.com/Ferdagulay/apps-challenge/internal/session"
)

// Generator produces an image from a prompt and returns a retrievable URL.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Editor performs a single-call edit and returns the image bytes inline.
type Editor interface {
	Edit(ctx context.Context, imageData []byte, mime, instruction string) ([]byte, error)
}

// ImageFetcher downloads a generated image from its URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Options wires the pipeline's collaborators.
type Options struct {
	Store     *session.Store
	Captioner caption.Captioner
	Generator Generator
	Editor    Editor
	Fetcher   ImageFetcher
	Logger    zerolog.Logger
}

// Pipeline orchestrates one run: open a session, persist the upload, caption
// (two-stage variants only), compose the generation prompt, produce and
// persist the image, and write the provenance record.
type Pipeline struct {
	store     *session.Store
	captioner caption.Captioner
	generator Generator
	editor    Editor
	fetcher   ImageFetcher
	logger    zerolog.Logger
}

// Result reports one pipeline run. A failed run still carries whatever
// artifacts were persisted before the failure.
type Result struct {
	SessionPath        string          `json:"session_path"`
	UploadedImagePath  string          `json:"uploaded_image_path,omitempty"`
	GeneratedImagePath string          `json:"generated_image_path,omitempty"`
	Provenance         *session.Record `json:"provenance,omitempty"`
	Error              string          `json:"error,omitempty"`
}

// New builds a Pipeline from its collaborators.
func New(opts Options) (*Pipeline, error) {
	if opts.Store == nil {
		return nil, errors.New("pipeline: session store is required")
	}
	return &Pipeline{
		store:     opts.Store,
		captioner: opts.Captioner,
		generator: opts.Generator,
		editor:    opts.Editor,
		fetcher:   opts.Fetcher,
		logger:    opts.Logger,
	}, nil
}

// Run executes one pipeline invocation. The returned error is the typed
// failure cause for the caller to map to a user-facing message; the Result is
// always non-nil once a session directory exists and mirrors the error as
// text. Upstream failures never panic and are never retried here.
func (p *Pipeline) Run(ctx context.Context, imageData []byte, mime, instruction string, v Variant) (*Result, error) {
	metaPrefix := ""
	if v == VariantDirectEdit {
		metaPrefix = session.DirectEditMetaPrefix
	}
	h, err := p.store.Open(metaPrefix)
	if err != nil {
		return nil, err
	}
	res := &Result{SessionPath: h.Dir}
	log := p.logger.With().Str("session", h.ID).Str("variant", string(v)).Logger()

	uploadedPath, err := p.store.SaveUploadedImage(h, imageData)
	if err != nil {
		return p.fail(res, err)
	}
	res.UploadedImagePath = uploadedPath
	rec := session.Record{UserPrompt: instruction, ImagePath: uploadedPath}

	var cpt *caption.Caption
	if v != VariantDirectEdit {
		cpt, err = caption.Extract(ctx, p.captioner, caption.Request{
			ImageData:   imageData,
			ImageMIME:   mime,
			Instruction: instruction,
			Schema:      v.Schema(),
		})
		if err != nil {
			log.Error().Err(err).Msg("captioning failed")
			p.writeProvenance(h, rec, res)
			return p.fail(res, err)
		}
		rec.Category = cpt.Category
		rec.Caption = cpt.Text
		rec.DrawingStyle = cpt.DrawingStyle
		rec.Quantity = cpt.Quantity
		rec.Background = cpt.Background
		log.Info().Str("caption", cpt.Text).Msg("caption extracted")
	}

	prompt := ComposePrompt(instruction, cpt, v)

	var generated []byte
	if v == VariantDirectEdit {
		generated, err = p.editor.Edit(ctx, imageData, mime, prompt)
	} else {
		var url string
		url, err = p.generator.Generate(ctx, prompt)
		if err == nil {
			log.Info().Str("url", url).Msg("image generated, fetching")
			generated, err = p.fetcher.Fetch(ctx, url)
		}
	}
	if err != nil {
		// Keep the session with its upload and known provenance; only
		// the generated image is missing.
		log.Error().Err(err).Msg("generation failed")
		p.writeProvenance(h, rec, res)
		return p.fail(res, err)
	}

	generatedPath, err := p.store.SaveGeneratedImage(h, generated)
	if err != nil {
		p.writeProvenance(h, rec, res)
		return p.fail(res, err)
	}
	res.GeneratedImagePath = generatedPath
	rec.GeneratedImagePath = generatedPath

	if !p.writeProvenance(h, rec, res) {
		return p.fail(res, errors.New("pipeline: provenance write failed"))
	}
	log.Info().Str("generated", generatedPath).Msg("session complete")
	return res, nil
}

func (p *Pipeline) writeProvenance(h *session.Handle, rec session.Record, res *Result) bool {
	if _, err := p.store.WriteProvenance(h, rec); err != nil {
		p.logger.Error().Err(err).Msg("provenance write failed")
		return false
	}
	res.Provenance = &rec
	return true
}

func (p *Pipeline) fail(res *Result, err error) (*Result, error) {
	res.Error = err.Error()
	return res, err
}
