package services

import (
	"errors"
	"fmt"
)

// Kind sentinels. Each typed error below matches its sentinel through errors.Is,
// so callers can classify without errors.As when they do not need the fields.
var (
	ErrAudio             = errors.New("audio error")
	ErrTranscription     = errors.New("transcription error")
	ErrMissingResource   = errors.New("missing resource")
	ErrTranslation       = errors.New("translation error")
	ErrAssemblyInvariant = errors.New("assembly invariant violated")
	ErrIO                = errors.New("io error")
)

// AudioError reports empty or undecodable audio.
type AudioError struct {
	Reason string
	Err    error
}

func (e *AudioError) Error() string {
	return joinCause("audio: "+e.Reason, e.Err)
}

func (e *AudioError) Unwrap() error { return e.Err }

func (e *AudioError) Is(target error) bool { return target == ErrAudio }

// TranscriptionError reports the segment whose recognition failed after retries.
type TranscriptionError struct {
	Index int
	Err   error
}

func (e *TranscriptionError) Error() string {
	return joinCause(fmt.Sprintf("transcription of segment %d failed", e.Index), e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

func (e *TranscriptionError) Is(target error) bool { return target == ErrTranscription }

// MissingResourceError reports a tokenizer or model resource that must be
// installed before the engine can run.
type MissingResourceError struct {
	Resource string
	Language string
}

func (e *MissingResourceError) Error() string {
	if e.Language == "" {
		return fmt.Sprintf("missing resource %q", e.Resource)
	}
	return fmt.Sprintf("missing resource %q for language %q", e.Resource, e.Language)
}

func (e *MissingResourceError) Is(target error) bool { return target == ErrMissingResource }

// TranslationError reports a hard translation failure.
type TranslationError struct {
	Engine string
	Reason string
	Err    error
}

func (e *TranslationError) Error() string {
	msg := "translation failed"
	if e.Engine != "" {
		msg = e.Engine + " " + msg
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return joinCause(msg, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

func (e *TranslationError) Is(target error) bool { return target == ErrTranslation }

// AssemblyInvariantError is a programming defect: entries reached the
// assembler out of order.
type AssemblyInvariantError struct {
	Index  int
	Reason string
}

func (e *AssemblyInvariantError) Error() string {
	return fmt.Sprintf("assembly invariant violated at entry %d: %s", e.Index, e.Reason)
}

func (e *AssemblyInvariantError) Is(target error) bool { return target == ErrAssemblyInvariant }

// IOError reports a failed filesystem operation on Path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	op := e.Op
	if op == "" {
		op = "io"
	}
	return joinCause(fmt.Sprintf("%s %s", op, e.Path), e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// KindOf names the taxonomy kind of err, or "" when err carries none.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAssemblyInvariant):
		return "AssemblyInvariantError"
	case errors.Is(err, ErrMissingResource):
		return "MissingResourceError"
	case errors.Is(err, ErrTranscription):
		return "TranscriptionError"
	case errors.Is(err, ErrTranslation):
		return "TranslationError"
	case errors.Is(err, ErrAudio):
		return "AudioError"
	case errors.Is(err, ErrIO):
		return "IOError"
	default:
		return ""
	}
}

func joinCause(msg string, err error) string {
	if err == nil {
		return msg
	}
	return msg + ": " + err.Error()
}
