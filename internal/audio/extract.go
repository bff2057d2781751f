package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"dualsub/internal/services"
)

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Extractor decodes a video's audio through ffmpeg.
type Extractor struct {
	FFmpegBinary string
	// AudioTrack selects the n-th audio stream (0-based) of the input.
	AudioTrack int
	run        CommandRunner
}

// NewExtractor returns an extractor using the given ffmpeg binary.
func NewExtractor(ffmpegBinary string) *Extractor {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Extractor{FFmpegBinary: ffmpegBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner CommandRunner) {
	e.run = runner
}

// ExtractArgs builds the ffmpeg arguments that write a mono 16 kHz WAV.
func ExtractArgs(source string, audioTrack int, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", fmt.Sprintf("0:a:%d", audioTrack),
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", fmt.Sprint(DefaultSampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

// ExtractToFile writes the selected audio track of source to dest as WAV.
func (e *Extractor) ExtractToFile(ctx context.Context, source, dest string) error {
	if strings.TrimSpace(source) == "" {
		return services.Wrap(services.ErrValidation, "extract", "ffmpeg", "source path required", nil)
	}
	if e.AudioTrack < 0 {
		return services.Wrap(services.ErrValidation, "extract", "ffmpeg", fmt.Sprintf("invalid audio track index %d", e.AudioTrack), nil)
	}
	if _, err := os.Stat(source); err != nil {
		return &services.IOError{Op: "stat", Path: source, Err: err}
	}
	args := ExtractArgs(source, e.AudioTrack, dest)
	output, err := e.runner()(ctx, e.FFmpegBinary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail := strings.TrimSpace(string(output))
		return &services.AudioError{
			Reason: "ffmpeg could not extract audio",
			Err:    services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", detail, err),
		}
	}
	return nil
}

// Load extracts source into workDir, decodes it, and removes the temp file.
func (e *Extractor) Load(ctx context.Context, source, workDir string) (Stream, error) {
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Stream{}, &services.IOError{Op: "mkdir", Path: workDir, Err: err}
	}
	tmp, err := os.CreateTemp(workDir, "audio-*.wav")
	if err != nil {
		return Stream{}, &services.IOError{Op: "create", Path: workDir, Err: err}
	}
	dest := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(dest)

	if err := e.ExtractToFile(ctx, source, dest); err != nil {
		return Stream{}, err
	}
	return ReadWAVFile(filepath.Clean(dest))
}

func (e *Extractor) runner() CommandRunner {
	if e.run != nil {
		return e.run
	}
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
		return cmd.CombinedOutput()
	}
}
