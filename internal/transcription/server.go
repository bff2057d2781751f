package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dualsub/internal/audio"
	"dualsub/internal/language"
	"dualsub/internal/retry"
	"dualsub/internal/services"
)

const transcriptionsPath = "/v1/audio/transcriptions"

// ServerConfig configures ServerRecognizer.
type ServerConfig struct {
	BaseURL string
	Model   string
	Token   string
	Timeout time.Duration
}

// ServerRecognizer posts clips to an OpenAI-compatible whisper server
// (faster-whisper-server, whisper.cpp server, LocalAI).
type ServerRecognizer struct {
	cfg    ServerConfig
	client *http.Client
}

// NewServerRecognizer returns a recognizer for the server at cfg.BaseURL.
func NewServerRecognizer(cfg ServerConfig) *ServerRecognizer {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Model == "" {
		cfg.Model = DefaultWhisperModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &ServerRecognizer{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// PerSegmentLanguage is true: verbose_json responses carry the language.
func (r *ServerRecognizer) PerSegmentLanguage() bool { return true }

type verboseResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Recognize uploads one clip as WAV and reads back text and language.
func (r *ServerRecognizer) Recognize(ctx context.Context, req Request) (Recognition, error) {
	if err := req.Clip.Validate(); err != nil {
		return Recognition{}, err
	}
	wavData, err := audio.WAVBytes(req.Clip)
	if err != nil {
		return Recognition{}, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "clip.wav")
	if err != nil {
		return Recognition{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return Recognition{}, fmt.Errorf("write form file: %w", err)
	}
	_ = writer.WriteField("model", r.cfg.Model)
	_ = writer.WriteField("response_format", "verbose_json")
	_ = writer.WriteField("temperature", "0")
	if req.BeamSize > 0 {
		_ = writer.WriteField("beam_size", strconv.Itoa(req.BeamSize))
	}
	if code := language.ToISO2(req.Language); code != "" {
		_ = writer.WriteField("language", code)
	}
	if err := writer.Close(); err != nil {
		return Recognition{}, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+transcriptionsPath, &body)
	if err != nil {
		return Recognition{}, services.Wrap(services.ErrConfiguration, "transcribe", "whisper server", "build request", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if r.cfg.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Recognition{}, ctx.Err()
		}
		return Recognition{}, retry.ClassifyTransport("whisper server", err)
	}
	defer resp.Body.Close()
	if err := retry.CheckResponse("whisper server", resp); err != nil {
		return Recognition{}, err
	}

	var payload verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Recognition{}, services.Wrap(services.ErrExternalTool, "transcribe", "whisper server", "decode response", err)
	}
	return Recognition{Text: strings.TrimSpace(payload.Text), Language: payload.Language}, nil
}

// Ping checks that the server answers on its models endpoint.
func (r *ServerRecognizer) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+"/v1/models", nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "whisper server", "build request", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return retry.ClassifyTransport("whisper server", err)
	}
	defer resp.Body.Close()
	return retry.CheckResponse("whisper server", resp)
}
