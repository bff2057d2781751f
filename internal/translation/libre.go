package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"dualsub/internal/language"
	"dualsub/internal/retry"
	"dualsub/internal/services"
)

// LibreConfig configures LibreClient.
type LibreConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// LibreClient talks to a LibreTranslate server backed by Argos models.
type LibreClient struct {
	cfg    LibreConfig
	client *http.Client

	mu    sync.Mutex
	pairs map[string][]string // source -> targets
}

// NewLibreClient returns a client for cfg.BaseURL.
func NewLibreClient(cfg LibreConfig) *LibreClient {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &LibreClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type libreLanguage struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Targets []string `json:"targets"`
}

// Languages fetches the installed language graph, caching the first
// successful answer.
func (c *LibreClient) Languages(ctx context.Context) (map[string][]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pairs != nil {
		return c.pairs, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/languages", nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "translate", "libretranslate", "build request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, retry.ClassifyTransport("libretranslate languages", err)
	}
	defer resp.Body.Close()
	if err := retry.CheckResponse("libretranslate languages", resp); err != nil {
		return nil, err
	}
	var langs []libreLanguage
	if err := json.NewDecoder(resp.Body).Decode(&langs); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "translate", "libretranslate", "decode languages", err)
	}
	pairs := make(map[string][]string, len(langs))
	for _, l := range langs {
		code := language.Base(l.Code)
		targets := make([]string, 0, len(l.Targets))
		for _, t := range l.Targets {
			targets = append(targets, language.Base(t))
		}
		pairs[code] = targets
	}
	c.pairs = pairs
	return pairs, nil
}

// Supports checks the language graph. Identical source and target are
// never supported.
func (c *LibreClient) Supports(ctx context.Context, source, target string) (bool, error) {
	pairs, err := c.Languages(ctx)
	if err != nil {
		return false, err
	}
	if source == target {
		return false, nil
	}
	if source == language.Auto {
		for _, targets := range pairs {
			if slices.Contains(targets, target) {
				return true, nil
			}
		}
		return false, nil
	}
	return slices.Contains(pairs[source], target), nil
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate translates one string.
func (c *LibreClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	body, err := json.Marshal(libreRequest{Q: text, Source: source, Target: target, Format: "text", APIKey: c.cfg.APIKey})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "translate", "libretranslate", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return "", retry.ClassifyTransport("libretranslate", err)
	}
	defer resp.Body.Close()
	if err := retry.CheckResponse("libretranslate", resp); err != nil {
		return "", classifyLibreError(err)
	}
	var payload libreResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "translate", "libretranslate", "decode response", err)
	}
	return payload.TranslatedText, nil
}

// Ping checks that the server answers.
func (c *LibreClient) Ping(ctx context.Context) error {
	c.mu.Lock()
	c.pairs = nil
	c.mu.Unlock()
	_, err := c.Languages(ctx)
	return err
}

// classifyLibreError maps LibreTranslate's 400 "not supported" answers onto
// ErrUnsupportedPair.
func classifyLibreError(err error) error {
	var statusErr *retry.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		return err
	}
	body := strings.ToLower(statusErr.Body)
	if strings.Contains(body, "not supported") || strings.Contains(body, "not available") {
		return services.Wrap(ErrUnsupportedPair, "translate", "libretranslate", statusErr.Body, nil)
	}
	return err
}
