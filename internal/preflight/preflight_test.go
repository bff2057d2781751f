package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dualsub/internal/config"
	"dualsub/internal/deps"
	"dualsub/internal/preflight"
	"dualsub/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := preflight.CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheckEndpoint(t *testing.T) {
	ok := preflight.CheckEndpoint(context.Background(), "svc", "http://x", pingFunc(func(context.Context) error { return nil }))
	if !ok.Passed {
		t.Fatalf("expected pass, got %s", ok.Detail)
	}

	failed := preflight.CheckEndpoint(context.Background(), "svc", "http://x", pingFunc(func(ctx context.Context) error {
		return context.DeadlineExceeded
	}))
	if failed.Passed || !strings.Contains(failed.Detail, "timed out") {
		t.Fatalf("expected timeout detail, got %+v", failed)
	}

	missing := preflight.CheckEndpoint(context.Background(), "svc", " ", pingFunc(func(context.Context) error { return nil }))
	if missing.Passed || missing.Detail != "missing url" {
		t.Fatalf("expected missing url, got %+v", missing)
	}
}

func TestCheckTokenizers(t *testing.T) {
	dir := t.TempDir()
	testsupport.WritePunkt(t, dir, "en")

	if r := preflight.CheckTokenizers(dir, "auto", "en"); !r.Passed {
		t.Fatalf("expected pass with auto source, got %s", r.Detail)
	}
	r := preflight.CheckTokenizers(dir, "ja", "en-US")
	if r.Passed {
		t.Fatal("expected failure for missing ja tokenizer")
	}
	if !strings.Contains(r.Detail, "ja") {
		t.Fatalf("expected ja in detail, got %s", r.Detail)
	}
}

func TestFromDeps(t *testing.T) {
	results := preflight.FromDeps([]deps.Status{
		{Name: "FFmpeg", Command: "/usr/bin/ffmpeg", Available: true, Version: "ffmpeg version 7"},
		{Name: "uvx", Command: "uvx", Detail: `binary "uvx" not found`},
	})
	if !results[0].Passed || results[0].Detail != "/usr/bin/ffmpeg (ffmpeg version 7)" {
		t.Fatalf("unexpected ffmpeg result: %+v", results[0])
	}
	if results[1].Passed || results[1].Detail == "" {
		t.Fatalf("unexpected uvx result: %+v", results[1])
	}
	if failed := preflight.Failed(results); len(failed) != 1 || failed[0].Name != "uvx" {
		t.Fatalf("unexpected failed set: %+v", failed)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := preflight.RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func prepare(t *testing.T, cfg *config.Config) {
	t.Helper()
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
}

func TestRunAll_FastBatchConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/languages" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"code":"en","name":"English","targets":["de"]}]`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Translation.FastBatchURL = srv.URL
	prepare(t, cfg)

	results := preflight.RunAll(context.Background(), cfg)
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	for _, want := range []string{"Work directory", "History ledger", "FFmpeg", "uvx", "LibreTranslate"} {
		if !names[want] {
			t.Errorf("expected %q check in results", want)
		}
	}
	if names["Tokenizers"] || names["Whisper server"] {
		t.Fatalf("unexpected checks for unselected backends: %v", names)
	}
}

func TestRunAll_HighQualityMissingTokenizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`"opus-mt"`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithEngine("highquality"),
		testsupport.WithTargetLanguage("ja"),
		testsupport.WithTokenizers("en"),
	)
	cfg.Translation.HighQualityURL = srv.URL
	prepare(t, cfg)

	failed := preflight.Failed(preflight.RunAll(context.Background(), cfg))
	if len(failed) != 1 || failed[0].Name != "Tokenizers" {
		t.Fatalf("expected only the tokenizer check to fail, got %+v", failed)
	}
}

func TestRunAll_ServerBackendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	translateURL := srv.URL
	defer srv.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg"))
	cfg.Transcription.Backend = "server"
	cfg.Transcription.ServerURL = deadURL
	cfg.Translation.FastBatchURL = translateURL
	prepare(t, cfg)

	results := preflight.RunAll(context.Background(), cfg)
	for _, r := range results {
		if r.Name == "uvx" {
			t.Fatal("uvx should not be required for the server backend")
		}
	}
	failed := preflight.Failed(results)
	found := false
	for _, r := range failed {
		if r.Name == "Whisper server" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected whisper server failure, got %+v", failed)
	}
}
