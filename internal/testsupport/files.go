package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"dualsub/internal/translation"
)

// WriteFile creates path, and any missing parents, holding size filler bytes.
// A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, max(size, 1)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WritePunkt lays out an NLTK punkt install under dir with models for langs:
// <name>.pickle at the top level and under PY3/, as nltk's downloader does.
func WritePunkt(t testing.TB, dir string, langs ...string) {
	t.Helper()
	for _, lang := range langs {
		name := translation.PunktName(lang)
		if name == "" {
			t.Fatalf("no punkt model name for %q", lang)
		}
		WriteFile(t, filepath.Join(dir, name+".pickle"), 16)
		WriteFile(t, filepath.Join(dir, "PY3", name+".pickle"), 16)
	}
	WriteFile(t, filepath.Join(dir, "README"), 16)
}
