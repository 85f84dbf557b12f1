package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DirectEditMetaPrefix is prepended to the provenance file name for sessions
// produced by the direct-edit flow, matching the artifact layout the dataset
// tooling already expects.
const DirectEditMetaPrefix = "data_"

// Record is the provenance document persisted alongside the session images.
// Caption-related fields are only set by the two-stage flows.
type Record struct {
	Category           string `json:"category,omitempty"`
	Caption            string `json:"caption,omitempty"`
	DrawingStyle       string `json:"drawing_style,omitempty"`
	Quantity           *int   `json:"quantity,omitempty"`
	Background         string `json:"background,omitempty"`
	UserPrompt         string `json:"user_prompt"`
	ImagePath          string `json:"image_path"`
	GeneratedImagePath string `json:"generated_image_path,omitempty"`
}

// Handle identifies one open session and its directory on disk.
type Handle struct {
	ID         string
	Dir        string
	Timestamp  string
	metaPrefix string
}

// Store persists per-run artifacts (uploaded image, generated image,
// provenance JSON) into one directory per session under a base path.
type Store struct {
	basePath string
}

// NewStore initializes a Store rooted at basePath.
func NewStore(basePath string) (*Store, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("session: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("session: ensure base path: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *Store) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Open creates a fresh session directory. The identifier combines a
// second-resolution timestamp with a random suffix so two sessions opened
// within the same clock tick never collide. metaPrefix is prepended to the
// provenance file name (DirectEditMetaPrefix or empty).
func (s *Store) Open(metaPrefix string) (*Handle, error) {
	if s == nil {
		return nil, errors.New("session: no store configured")
	}
	ts := time.Now().Format("20060102_150405")
	id := ts + "_" + uuid.NewString()[:8]
	dir := filepath.Join(s.basePath, "session_"+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: create directory: %w", err)
	}
	return &Handle{ID: id, Dir: dir, Timestamp: ts, metaPrefix: metaPrefix}, nil
}

// SaveUploadedImage writes the uploaded image bytes unmodified into the
// session directory and returns the resulting path.
func (s *Store) SaveUploadedImage(h *Handle, data []byte) (string, error) {
	return s.writeFile(h, fmt.Sprintf("uploaded_%s.png", h.Timestamp), data)
}

// SaveGeneratedImage writes the generated image bytes into the session
// directory and returns the resulting path.
func (s *Store) SaveGeneratedImage(h *Handle, data []byte) (string, error) {
	return s.writeFile(h, fmt.Sprintf("generated_%s.png", h.Timestamp), data)
}

// WriteProvenance serializes the record as indented JSON into the session
// directory. Path fields in the record must already point at files inside
// the same directory.
func (s *Store) WriteProvenance(h *Handle, rec Record) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("session: encode provenance: %w", err)
	}
	return s.writeFile(h, fmt.Sprintf("%s%s.json", h.metaPrefix, h.Timestamp), data)
}

func (s *Store) writeFile(h *Handle, name string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("session: no store configured")
	}
	if h == nil {
		return "", errors.New("session: nil handle")
	}
	// Components within one session write into the same directory, so
	// directory creation stays idempotent.
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return "", fmt.Errorf("session: ensure directory: %w", err)
	}
	path := filepath.Join(h.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("session: write %s: %w", name, err)
	}
	return path, nil
}
