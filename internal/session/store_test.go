package session

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenCreatesUniqueDirectories(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		h, err := store.Open("")
		if err != nil {
			t.Fatalf("Open error: %v", err)
		}
		if _, ok := seen[h.Dir]; ok {
			t.Fatalf("duplicate session directory: %s", h.Dir)
		}
		seen[h.Dir] = struct{}{}
		if info, err := os.Stat(h.Dir); err != nil || !info.IsDir() {
			t.Fatalf("session directory missing: %v", err)
		}
	}
}

func TestSaveUploadedImageRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	h, err := store.Open("")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	input := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x01, 0x02}
	path, err := store.SaveUploadedImage(h, input)
	if err != nil {
		t.Fatalf("SaveUploadedImage error: %v", err)
	}
	if filepath.Dir(path) != h.Dir {
		t.Fatalf("image saved outside session dir: %s", path)
	}
	if !strings.HasPrefix(filepath.Base(path), "uploaded_") {
		t.Fatalf("unexpected file name: %s", filepath.Base(path))
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved image: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Fatalf("saved bytes differ from input")
	}
}

func TestWriteProvenanceNaming(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}

	h, err := store.Open("")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	path, err := store.WriteProvenance(h, Record{UserPrompt: "draw a pear", ImagePath: "x", Caption: "a red apple"})
	if err != nil {
		t.Fatalf("WriteProvenance error: %v", err)
	}
	if got := filepath.Base(path); got != h.Timestamp+".json" {
		t.Fatalf("unexpected provenance name: %s", got)
	}

	direct, err := store.Open(DirectEditMetaPrefix)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	path, err = store.WriteProvenance(direct, Record{UserPrompt: "draw a pear", ImagePath: "x"})
	if err != nil {
		t.Fatalf("WriteProvenance error: %v", err)
	}
	if got := filepath.Base(path); got != "data_"+direct.Timestamp+".json" {
		t.Fatalf("unexpected direct-edit provenance name: %s", got)
	}
}

func TestWriteProvenanceOmitsAbsentFields(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	h, err := store.Open("")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	path, err := store.WriteProvenance(h, Record{UserPrompt: "p", ImagePath: "i", Caption: "c"})
	if err != nil {
		t.Fatalf("WriteProvenance error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read provenance: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("provenance is not valid JSON: %v", err)
	}
	if _, ok := decoded["generated_image_path"]; ok {
		t.Fatalf("generated_image_path should be absent: %s", data)
	}
	if decoded["user_prompt"] != "p" || decoded["caption"] != "c" {
		t.Fatalf("unexpected provenance content: %s", data)
	}
}

func TestNewStoreRequiresBasePath(t *testing.T) {
	if _, err := NewStore("  "); err == nil {
		t.Fatalf("expected error for empty base path")
	}
}
