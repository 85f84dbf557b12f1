package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Ferdagulay/apps-challenge/internal/pipeline"
)

// Runner executes one captioning and generation run.
type Runner interface {
	Run(ctx context.Context, imageData []byte, mime, instruction string, v pipeline.Variant) (*pipeline.Result, error)
}

// App holds the handler dependencies.
type App struct {
	Runner         Runner
	Logger         zerolog.Logger
	OutputDir      string
	MaxUploadBytes int64
}

// NewApp wires the handler set.
func NewApp(runner Runner, logger zerolog.Logger, outputDir string, maxUploadBytes int64) *App {
	return &App{
		Runner:         runner,
		Logger:         logger,
		OutputDir:      outputDir,
		MaxUploadBytes: maxUploadBytes,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// fileURL maps an artifact path under the output directory to its serving
// path on the files route. Paths outside the output directory come back
// empty.
func (a *App) fileURL(path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(a.OutputDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return "/files/" + filepath.ToSlash(rel)
}
