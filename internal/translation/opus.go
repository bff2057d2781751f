package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"dualsub/internal/retry"
	"dualsub/internal/services"
)

// OpusConfig configures OpusClient.
type OpusConfig struct {
	BaseURL string
	Timeout time.Duration
}

// OpusClient talks to an EasyNMT-style server hosting Opus-MT models.
type OpusClient struct {
	cfg    OpusConfig
	client *http.Client
}

// NewOpusClient returns a client for cfg.BaseURL.
func NewOpusClient(cfg OpusConfig) *OpusClient {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &OpusClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type opusRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang,omitempty"`
	TargetLang string   `json:"target_lang"`
	BeamSize   int      `json:"beam_size"`
}

type opusResponse struct {
	Translated []string `json:"translated"`
}

// TranslateBatch sends one batch. An "auto" source is omitted so the server
// detects it.
func (c *OpusClient) TranslateBatch(ctx context.Context, texts []string, source, target string, beamSize int) ([]string, error) {
	payload := opusRequest{Text: texts, TargetLang: target, BeamSize: beamSize}
	if source != "" && source != "auto" {
		payload.SourceLang = source
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "translate", "opus-mt", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, retry.ClassifyTransport("opus-mt", err)
	}
	defer resp.Body.Close()
	if err := retry.CheckResponse("opus-mt", resp); err != nil {
		return nil, err
	}
	var out opusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "translate", "opus-mt", "decode response", err)
	}
	return out.Translated, nil
}

// Ping checks that the server answers on its model endpoint.
func (c *OpusClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/model_name", nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "translate", "opus-mt", "build request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return retry.ClassifyTransport("opus-mt", err)
	}
	defer resp.Body.Close()
	return retry.CheckResponse("opus-mt", resp)
}
