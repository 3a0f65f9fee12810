package backend

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultLibreTranslateURL is the public LibreTranslate endpoint.
const DefaultLibreTranslateURL = "https://libretranslate.com/translate"

// libreCodes holds the codes LibreTranslate spells differently.
var libreCodes = map[string]string{
	"zh": "zh-Hans",
}

// LibreTranslateConfig holds LibreTranslate backend configuration.
type LibreTranslateConfig struct {
	URL     string
	APIKey  string // optional
	Timeout time.Duration
}

// DefaultLibreTranslateConfig returns default LibreTranslate configuration.
func DefaultLibreTranslateConfig() LibreTranslateConfig {
	return LibreTranslateConfig{
		URL:     DefaultLibreTranslateURL,
		Timeout: 10 * time.Second,
	}
}

// LibreTranslate is the secondary backend: a JSON POST with explicit
// source, target and format fields.
type LibreTranslate struct {
	client *Client
	cfg    LibreTranslateConfig
	logger *slog.Logger
}

// NewLibreTranslate creates a LibreTranslate backend using the shared client.
func NewLibreTranslate(client *Client, cfg LibreTranslateConfig, logger *slog.Logger) *LibreTranslate {
	if cfg.URL == "" {
		cfg.URL = DefaultLibreTranslateURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLibreTranslateConfig().Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LibreTranslate{client: client, cfg: cfg, logger: logger}
}

// Name returns the backend name.
func (l *LibreTranslate) Name() string {
	return "libretranslate"
}

// Translate translates text.
func (l *LibreTranslate) Translate(ctx context.Context, text, source, target string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	payload, err := l.payload(text, mapCode(libreCodes, source), mapCode(libreCodes, target))
	if err != nil {
		return l.fail(ReasonDecode, source, target, "error", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return l.fail(ReasonNetwork, source, target, "error", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, reason := l.client.do(req)
	if reason != "" {
		return l.fail(reason, source, target)
	}

	if !gjson.ValidBytes(body) {
		return l.fail(ReasonDecode, source, target)
	}
	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return l.fail(ReasonStatus, source, target, "details", msg.String())
	}

	out := accept(text, gjson.GetBytes(body, "translatedText").String())
	if !out.OK() {
		return l.fail(out.Reason, source, target)
	}
	return out
}

func (l *LibreTranslate) payload(text, source, target string) ([]byte, error) {
	body := []byte(`{}`)
	fields := []struct {
		path  string
		value string
	}{
		{"q", text},
		{"source", source},
		{"target", target},
		{"format", "text"},
	}
	if l.cfg.APIKey != "" {
		fields = append(fields, struct {
			path  string
			value string
		}{"api_key", l.cfg.APIKey})
	}

	var err error
	for _, f := range fields {
		body, err = sjson.SetBytes(body, f.path, f.value)
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}

func (l *LibreTranslate) fail(reason Reason, source, target string, attrs ...any) Outcome {
	l.logger.Debug("libretranslate produced no translation",
		append([]any{"reason", reason, "source", source, "target", target}, attrs...)...)
	return Failure(reason)
}
