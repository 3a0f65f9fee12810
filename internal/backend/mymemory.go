package backend

import (
	"context"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultMyMemoryURL is the public MyMemory endpoint.
const DefaultMyMemoryURL = "https://api.mymemory.translated.net/get"

// myMemoryCodes holds the codes MyMemory spells differently.
var myMemoryCodes = map[string]string{
	"zh": "zh-CN",
}

// MyMemoryConfig holds MyMemory backend configuration.
type MyMemoryConfig struct {
	URL     string
	Email   string // optional; raises the anonymous daily quota
	Timeout time.Duration
}

// DefaultMyMemoryConfig returns default MyMemory configuration.
func DefaultMyMemoryConfig() MyMemoryConfig {
	return MyMemoryConfig{
		URL:     DefaultMyMemoryURL,
		Timeout: 15 * time.Second,
	}
}

// MyMemory is the primary backend: a GET with a "source|target" language pair.
type MyMemory struct {
	client *Client
	cfg    MyMemoryConfig
	logger *slog.Logger
}

// NewMyMemory creates a MyMemory backend using the shared client.
func NewMyMemory(client *Client, cfg MyMemoryConfig, logger *slog.Logger) *MyMemory {
	if cfg.URL == "" {
		cfg.URL = DefaultMyMemoryURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultMyMemoryConfig().Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MyMemory{client: client, cfg: cfg, logger: logger}
}

// Name returns the backend name.
func (m *MyMemory) Name() string {
	return "mymemory"
}

// Translate translates text. The service answers HTTP 200 even for failures,
// so the JSON responseStatus (a number or a string, depending on the error
// path) has to be checked as well.
func (m *MyMemory) Translate(ctx context.Context, text, source, target string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", mapCode(myMemoryCodes, source)+"|"+mapCode(myMemoryCodes, target))
	if m.cfg.Email != "" {
		params.Set("de", m.cfg.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return m.fail(ReasonNetwork, source, target, "error", err)
	}
	req.Header.Set("Accept", "application/json")

	body, reason := m.client.do(req)
	if reason != "" {
		return m.fail(reason, source, target)
	}

	if !gjson.ValidBytes(body) {
		return m.fail(ReasonDecode, source, target)
	}
	resp := gjson.ParseBytes(body)

	if status := resp.Get("responseStatus").Int(); status != http.StatusOK {
		return m.fail(ReasonStatus, source, target,
			"responseStatus", status,
			"details", resp.Get("responseDetails").String())
	}

	out := accept(text, html.UnescapeString(resp.Get("responseData.translatedText").String()))
	if !out.OK() {
		return m.fail(out.Reason, source, target)
	}
	return out
}

func (m *MyMemory) fail(reason Reason, source, target string, attrs ...any) Outcome {
	m.logger.Debug("mymemory produced no translation",
		append([]any{"reason", reason, "source", source, "target", target}, attrs...)...)
	return Failure(reason)
}
