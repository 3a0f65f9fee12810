// Package translator orchestrates a translation request: it resolves the
// source language, applies the language guards, splits long text and walks
// the backend plan for every piece.
package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hororrklama-coder/DiscTransla/internal/backend"
	"github.com/hororrklama-coder/DiscTransla/internal/catalog"
	"github.com/hororrklama-coder/DiscTransla/internal/chunker"
	"github.com/hororrklama-coder/DiscTransla/internal/detect"
	"github.com/hororrklama-coder/DiscTransla/internal/domain"
)

// Failures surfaced to callers. Match them with errors.Is.
var (
	ErrDetectionFailed     = errors.New("could not detect source language")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrNoTranslation       = errors.New("no translation produced")
)

// Detector guesses the language of text, returning detect.Unknown on failure.
type Detector interface {
	Detect(text string) string
}

// Config holds orchestration settings.
type Config struct {
	MaxLength int      // texts longer than this, in runes, are chunked
	Pivot     string   // intermediate language for indirect pairs
	Excluded  []string // languages refused on either side of a pair
}

// DefaultConfig returns default orchestration settings.
func DefaultConfig() Config {
	return Config{
		MaxLength: chunker.DefaultMaxLength,
		Pivot:     "en",
		Excluded:  []string{"he"},
	}
}

// Translator runs translation requests against the primary and secondary backends.
type Translator struct {
	primary   backend.Backend
	secondary backend.Backend
	detector  Detector
	cfg       Config
	excluded  map[string]bool
	languages *catalog.Catalog
	logger    *slog.Logger
}

// New creates a Translator.
func New(primary, secondary backend.Backend, detector Detector, cfg Config, logger *slog.Logger) *Translator {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = chunker.DefaultMaxLength
	}
	cfg.Pivot = catalog.Normalize(cfg.Pivot)
	if logger == nil {
		logger = slog.Default()
	}

	excluded := make(map[string]bool, len(cfg.Excluded))
	for _, code := range cfg.Excluded {
		excluded[catalog.Normalize(code)] = true
	}

	return &Translator{
		primary:   primary,
		secondary: secondary,
		detector:  detector,
		cfg:       cfg,
		excluded:  excluded,
		languages: catalog.New(),
		logger:    logger,
	}
}

// Translate translates req.Text into req.TargetLang.
//
// Short texts fail with ErrNoTranslation when every step of the plan fails.
// Long texts are translated chunk by chunk; a chunk that cannot be translated
// is kept verbatim, so a long text never fails for backend reasons.
func (t *Translator) Translate(ctx context.Context, req domain.Request) (*domain.Result, error) {
	target := catalog.Normalize(req.TargetLang)
	if target == "" {
		return nil, fmt.Errorf("target language is required")
	}
	if !t.languages.IsSupported(target) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, target)
	}

	source := catalog.Normalize(req.SourceLang)
	if source == "" {
		source = t.detector.Detect(req.Text)
		if source == "" || source == detect.Unknown {
			return nil, ErrDetectionFailed
		}
	}

	if source == target {
		return &domain.Result{Text: req.Text, SourceLang: source}, nil
	}

	if t.excluded[source] || t.excluded[target] {
		return nil, fmt.Errorf("%w: %s→%s", ErrUnsupportedLanguage, source, target)
	}

	if chunker.Length(req.Text) <= t.cfg.MaxLength {
		text, ok := t.translateUnit(ctx, req.Text, source, target)
		if !ok {
			return nil, fmt.Errorf("%w: %s→%s", ErrNoTranslation, source, target)
		}
		return &domain.Result{Text: text, SourceLang: source, ChunksProcessed: 1, ChunksTranslated: 1}, nil
	}

	return t.translateLong(ctx, req.Text, source, target), nil
}

// translateLong translates chunk by chunk, substituting the original text of
// any chunk that cannot be translated.
func (t *Translator) translateLong(ctx context.Context, text, source, target string) *domain.Result {
	chunks := chunker.Split(text, t.cfg.MaxLength)
	if len(chunks) == 0 {
		return &domain.Result{Text: text, SourceLang: source}
	}

	t.logger.Info("translating long text",
		"length", chunker.Length(text), "chunks", len(chunks), "source", source, "target", target)

	out := make([]string, len(chunks))
	translated := 0
	for i, chunk := range chunks {
		result, ok := t.translateUnit(ctx, chunk, source, target)
		if !ok {
			t.logger.Warn("chunk translation failed, keeping original",
				"chunk", i+1, "of", len(chunks), "source", source, "target", target)
			out[i] = chunk
			continue
		}
		out[i] = result
		translated++
	}

	return &domain.Result{
		Text:             chunker.Join(out),
		SourceLang:       source,
		ChunksProcessed:  len(chunks),
		ChunksTranslated: translated,
	}
}

// translateUnit walks the plan and stops at the first step that succeeds.
func (t *Translator) translateUnit(ctx context.Context, text, source, target string) (string, bool) {
	for _, step := range t.Plan(source, target) {
		if result, ok := t.runStep(ctx, step, text); ok {
			t.logger.Debug("translation step succeeded", "step", step.Name, "source", source, "target", target)
			return result, true
		}
		t.logger.Debug("translation step failed", "step", step.String())
	}
	return "", false
}

func (t *Translator) runStep(ctx context.Context, step Step, text string) (string, bool) {
	current := text
	for _, leg := range step.Legs {
		next, ok := t.runLeg(ctx, leg, current)
		if !ok {
			return "", false
		}
		current = next
	}
	return current, true
}

func (t *Translator) runLeg(ctx context.Context, leg Leg, text string) (string, bool) {
	for _, b := range leg.Backends {
		out := b.Translate(ctx, text, leg.Source, leg.Target)
		if out.OK() {
			return out.Text, true
		}
		t.logger.Debug("backend produced no translation",
			"backend", b.Name(), "reason", out.Reason, "source", leg.Source, "target", leg.Target)
	}
	return "", false
}
