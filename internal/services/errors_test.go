package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"dualsub/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcribe", "whisperx", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient", services.Wrap(services.ErrTransient, "x", "y", "z", nil), true},
		{"timeout", services.Wrap(services.ErrTimeout, "x", "y", "z", nil), true},
		{"validation", services.Wrap(services.ErrValidation, "x", "y", "z", nil), false},
		{"canceled", services.Wrap(services.ErrTransient, "x", "y", "z", context.Canceled), false},
		{"deadline", fmt.Errorf("%w: %w", services.ErrTransient, context.DeadlineExceeded), false},
	}
	for _, tc := range cases {
		if got := services.IsTransient(tc.err); got != tc.want {
			t.Fatalf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTaxonomyMatchesSentinels(t *testing.T) {
	cause := errors.New("cause")
	cases := []struct {
		err    error
		marker error
		kind   string
	}{
		{&services.AudioError{Reason: "empty"}, services.ErrAudio, "AudioError"},
		{&services.TranscriptionError{Index: 3, Err: cause}, services.ErrTranscription, "TranscriptionError"},
		{&services.MissingResourceError{Resource: "tokenizer", Language: "ja"}, services.ErrMissingResource, "MissingResourceError"},
		{&services.TranslationError{Engine: "highquality", Err: cause}, services.ErrTranslation, "TranslationError"},
		{&services.AssemblyInvariantError{Index: 2, Reason: "start decreased"}, services.ErrAssemblyInvariant, "AssemblyInvariantError"},
		{&services.IOError{Op: "rename", Path: "/tmp/x", Err: cause}, services.ErrIO, "IOError"},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("outer: %w", tc.err)
		if !errors.Is(wrapped, tc.marker) {
			t.Fatalf("%T: expected errors.Is to match marker", tc.err)
		}
		if got := services.KindOf(wrapped); got != tc.kind {
			t.Fatalf("%T: KindOf = %q, want %q", tc.err, got, tc.kind)
		}
	}

	var te *services.TranscriptionError
	if !errors.As(fmt.Errorf("wrap: %w", &services.TranscriptionError{Index: 7, Err: cause}), &te) || te.Index != 7 {
		t.Fatalf("expected errors.As to recover index 7, got %+v", te)
	}
	if !errors.Is(te, cause) {
		t.Fatal("expected transcription error to unwrap to its cause")
	}
}

func TestHintForMissingResource(t *testing.T) {
	err := &services.MissingResourceError{Resource: "tokenizer", Language: "ja"}
	if hint := services.Hint(err); !strings.Contains(hint, "tokenizer") {
		t.Fatalf("unexpected hint %q", hint)
	}
	if services.Hint(nil) != "" {
		t.Fatal("expected empty hint for nil")
	}
}
